// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/config"
)

// Setup applies level and format from config. Unknown levels fall back to info.
func Setup(cfg config.LogConfig) {
	log.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("[Logging] Unknown level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
