package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"tcg-inventory-api/internal/service"
)

type registerUserCmd struct {
	env   *Env
	email string
}

func (*registerUserCmd) Name() string     { return "register-user" }
func (*registerUserCmd) Synopsis() string { return "register a new collector" }
func (*registerUserCmd) Usage() string {
	return `tcg register-user [-email <email>] <username>

  Registers a collector. Usernames are unique and case-sensitive.
`
}

func (c *registerUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "optional email address")
}

func (c *registerUserCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	username := joinArgs(f.Args())
	if username == "" {
		fmt.Fprintln(c.env.Err, "a username is required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		user, err := ledger.RegisterUser(ctx, username, c.email)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "User '%s' registered with id %d.\n", user.Username, user.ID)
		return nil
	})
}

type addCardCmd struct {
	env       *Env
	owner     string
	set       string
	condition string
	price     string
}

func (*addCardCmd) Name() string     { return "add-card" }
func (*addCardCmd) Synopsis() string { return "add a card to a collector's inventory" }
func (*addCardCmd) Usage() string {
	return `tcg add-card -owner <username> -price <purchase price> [-set <set>] [-condition <NM|LP|...>] <card name>

  Records a card entering the inventory together with its intake transaction.
`
}

func (c *addCardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "username of the owner")
	f.StringVar(&c.set, "set", "", "set name")
	f.StringVar(&c.condition, "condition", "", "card condition")
	f.StringVar(&c.price, "price", "", "purchase price")
}

func (c *addCardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := joinArgs(f.Args())
	if name == "" || c.owner == "" || c.price == "" {
		fmt.Fprintln(c.env.Err, "card name, -owner and -price are required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		price, err := parsePrice(c.price)
		if err != nil {
			return err
		}

		card, err := ledger.AddCard(ctx, service.AddCardInput{
			Name:          name,
			SetName:       c.set,
			Condition:     c.condition,
			PurchasePrice: *price,
			Owner:         c.owner,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "Card '%s' added to %s's inventory with id %d.\n", card.Name, c.owner, card.ID)
		return nil
	})
}

type sellCmd struct {
	env    *Env
	seller string
	buyer  string
	price  string
	notes  string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell a card, optionally to another collector" }
func (*sellCmd) Usage() string {
	return `tcg sell -seller <username> [-buyer <username>] [-price <price>] [-notes <text>] <card name>

  Records a sale. With -buyer the card changes hands; without it the card leaves
  the tracked collection. Without -price the last sold market price is used, and
  if none is found you are asked for one.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.seller, "seller", "", "username of the seller")
	f.StringVar(&c.buyer, "buyer", "", "username of the buyer")
	f.StringVar(&c.price, "price", "", "sale price; looked up when omitted")
	f.StringVar(&c.notes, "notes", "", "free text stored with the transaction")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := joinArgs(f.Args())
	if name == "" || c.seller == "" {
		fmt.Fprintln(c.env.Err, "card name and -seller are required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		price, err := parsePrice(c.price)
		if err != nil {
			return err
		}

		in := service.SellCardInput{CardName: name, Seller: c.seller, Buyer: c.buyer, Price: price, Notes: c.notes}
		tx, err := ledger.SellCard(ctx, in)
		if errors.Is(err, service.ErrPriceUnavailable) && c.env.In != nil {
			if in.Price, err = c.promptPrice(name); err != nil {
				return err
			}
			tx, err = ledger.SellCard(ctx, in)
		}
		if err != nil {
			return err
		}

		if c.buyer != "" {
			fmt.Fprintf(c.env.Out, "Card '%s' sold by %s to %s for %s.\n", name, c.seller, c.buyer, money(tx.Price.Decimal))
		} else {
			fmt.Fprintf(c.env.Out, "Card '%s' sold by %s for %s.\n", name, c.seller, money(tx.Price.Decimal))
		}
		return nil
	})
}

// promptPrice asks for a price when the market has none.
func (c *sellCmd) promptPrice(name string) (*decimal.Decimal, error) {
	fmt.Fprintf(c.env.Out, "No recent sale found for '%s'. Enter sale price: ", name)

	scanner := bufio.NewScanner(c.env.In)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no price entered for %q", service.ErrPriceUnavailable, name)
	}

	price, err := parsePrice(scanner.Text())
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, fmt.Errorf("%w: no price entered for %q", service.ErrPriceUnavailable, name)
	}
	return price, nil
}

type transferCmd struct {
	env   *Env
	from  string
	to    string
	notes string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "transfer a card between collectors" }
func (*transferCmd) Usage() string {
	return `tcg transfer -from <username> -to <username> [-notes <text>] <card name>

  Moves the sender's earliest card with this name to the receiver without a price.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "current owner")
	f.StringVar(&c.to, "to", "", "new owner")
	f.StringVar(&c.notes, "notes", "", "free text stored with the transaction")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := joinArgs(f.Args())
	if name == "" || c.from == "" || c.to == "" {
		fmt.Fprintln(c.env.Err, "card name, -from and -to are required")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(ledger *service.LedgerService) error {
		if _, err := ledger.TransferCard(ctx, service.TransferCardInput{
			CardName: name, From: c.from, To: c.to, Notes: c.notes,
		}); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "Card '%s' transferred from %s to %s.\n", name, c.from, c.to)
		return nil
	})
}
