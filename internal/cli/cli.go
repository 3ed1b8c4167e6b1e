// Package cli implements the tcg command line on top of the ledger service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"tcg-inventory-api/internal/service"
)

// Opener returns a ledger and the resources to release after one command.
type Opener func(ctx context.Context) (*service.LedgerService, io.Closer, error)

// Env is shared by every subcommand: how to reach the ledger and where to talk to the user.
type Env struct {
	Open Opener
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
}

// Register adds the ledger subcommands to c.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&registerUserCmd{env: env}, "users")
	c.Register(&inventoryCmd{env: env}, "users")

	c.Register(&addCardCmd{env: env}, "cards")
	c.Register(&sellCmd{env: env}, "cards")
	c.Register(&transferCmd{env: env}, "cards")

	c.Register(&transactionsCmd{env: env}, "reports")
	c.Register(&auditCmd{env: env}, "reports")
	c.Register(&priceCmd{env: env}, "reports")
}

// run opens the ledger, calls fn and maps its error onto an exit status.
func (e *Env) run(ctx context.Context, fn func(*service.LedgerService) error) subcommands.ExitStatus {
	ledger, closer, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintf(e.Err, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closer.Close()

	if err := fn(ledger); err != nil {
		fmt.Fprintf(e.Err, "Error: %s\n", describe(err))
		if errors.Is(err, service.ErrInvalidInput) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// describe renders domain errors the way a collector reads them.
func describe(err error) string {
	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		return "that username is already registered (" + err.Error() + ")"
	case errors.Is(err, service.ErrUnknownUser):
		return "no such user (" + err.Error() + ")"
	case errors.Is(err, service.ErrCardNotFound):
		return "card not found for that owner (" + err.Error() + ")"
	case errors.Is(err, service.ErrPriceUnavailable):
		return "no price given and no recent sale found (" + err.Error() + ")"
	}
	return err.Error()
}

func (e *Env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.Out, 0, 4, 2, ' ', 0)
}

// joinArgs turns positional arguments into one card or user name.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	p, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return nil, fmt.Errorf("%w: price %q is not a number", service.ErrInvalidInput, s)
	}
	return &p, nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
