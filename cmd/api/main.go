package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/app"
	"tcg-inventory-api/internal/config"
	"tcg-inventory-api/internal/handler"
	"tcg-inventory-api/internal/logging"
	"tcg-inventory-api/internal/router"
)

func main() {
	cfg := config.MustLoad()
	logging.Setup(cfg.Log)

	log.Printf("Starting %s %s...", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: %s", cfg.App.Environment)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if a.Auditor != nil {
		a.Auditor.Start()
	}

	// Create router
	r := router.New(router.Config{
		Handler:       handler.New(a.Store, cfg.App.Name, cfg.App.Version),
		LedgerHandler: handler.NewLedgerHandler(a.Ledger),
		AdminHandler:  handler.NewAdminHandler(a.Store, a.PriceCache, a.Oracle.Name()),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
