package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"tcg-inventory-api/internal/model"
	"tcg-inventory-api/internal/service"
)

const dateLayout = "2006-01-02 15:04:05"

type inventoryCmd struct {
	env *Env
}

func (*inventoryCmd) Name() string     { return "inventory" }
func (*inventoryCmd) Synopsis() string { return "list the cards a collector owns" }
func (*inventoryCmd) Usage() string {
	return `tcg inventory <username>
`
}

func (*inventoryCmd) SetFlags(*flag.FlagSet) {}

func (c *inventoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	username := joinArgs(f.Args())
	if username == "" {
		fmt.Fprintln(c.env.Err, "a username is required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		cards, err := ledger.ListInventory(ctx, username)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			fmt.Fprintf(c.env.Out, "%s has no cards.\n", username)
			return nil
		}

		fmt.Fprintf(c.env.Out, "Inventory for %s:\n", username)
		w := c.env.table()
		fmt.Fprintln(w, "ID\tName\tSet\tCondition\tPurchase Price")
		for _, card := range cards {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", card.ID, card.Name, card.SetName, card.Condition, money(card.PurchasePrice))
		}
		return w.Flush()
	})
}

type transactionsCmd struct {
	env  *Env
	card string
	user string
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "show transaction history" }
func (*transactionsCmd) Usage() string {
	return `tcg transactions [-card <card name>] [-user <username>]

  Lists ledger entries, newest first. Both filters may be combined.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.card, "card", "", "only transactions for cards with this name")
	f.StringVar(&c.user, "user", "", "only transactions involving this user")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		rows, err := ledger.QueryTransactions(ctx, model.TransactionFilter{CardName: c.card, Username: c.user})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(c.env.Out, "No transactions found.")
			return nil
		}

		w := c.env.table()
		fmt.Fprintln(w, "Date\tType\tCard\tPrice\tFrom\tTo\tNotes")
		for _, row := range rows {
			price := "-"
			if row.Price.Valid {
				price = money(row.Price.Decimal)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				row.Date.Local().Format(dateLayout), strings.ToUpper(string(row.Type)), row.CardName, price,
				deref(row.FromUsername, "-"), deref(row.ToUsername, "-"), deref(row.Notes, ""))
		}
		return w.Flush()
	})
}

type priceCmd struct {
	env *Env
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "look up the last sold market price of a card" }
func (*priceCmd) Usage() string {
	return `tcg price <card name>
`
}

func (*priceCmd) SetFlags(*flag.FlagSet) {}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := joinArgs(f.Args())
	if name == "" {
		fmt.Fprintln(c.env.Err, "a card name is required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		quote, err := ledger.SearchPrice(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "Last sold price for '%s': %s (%s)\n", quote.CardName, money(quote.Price), quote.Source)
		return nil
	})
}

type auditCmd struct {
	env    *Env
	cardID string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "verify chain of custody against recorded owners" }
func (*auditCmd) Usage() string {
	return `tcg audit [-card <id>]

  Replays each card's transactions and reports cards whose history does not
  lead to the recorded owner. Exits non-zero when a problem is found.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cardID, "card", "", "audit a single card id")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var id int64
	if c.cardID != "" {
		var err error
		if id, err = strconv.ParseInt(c.cardID, 10, 64); err != nil || id <= 0 {
			fmt.Fprintln(c.env.Err, "-card must be a positive integer")
			return subcommands.ExitUsageError
		}
	}

	var broken int
	status := c.env.run(ctx, func(ledger *service.LedgerService) error {
		var reports []model.CustodyReport
		if id > 0 {
			r, err := ledger.AuditCard(ctx, id)
			if err != nil {
				return err
			}
			reports = append(reports, *r)
		} else {
			var err error
			if reports, err = ledger.AuditAll(ctx); err != nil {
				return err
			}
		}

		for _, r := range reports {
			if r.Consistent {
				continue
			}
			broken++
			fmt.Fprintf(c.env.Out, "Card %d '%s': recorded owner %d, history says %d\n",
				r.CardID, r.CardName, r.RecordedOwnerID, r.ReplayedOwnerID)
			for _, p := range r.Problems {
				fmt.Fprintf(c.env.Out, "  - %s\n", p)
			}
		}
		fmt.Fprintf(c.env.Out, "%d cards audited, %d with problems.\n", len(reports), broken)
		return nil
	})

	if status == subcommands.ExitSuccess && broken > 0 {
		return subcommands.ExitFailure
	}
	return status
}
