package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/model"
	"tcg-inventory-api/internal/repository"
)

// AddCardInput describes a card entering the system.
type AddCardInput struct {
	Name          string
	SetName       string
	Condition     string
	PurchasePrice decimal.Decimal
	Owner         string
}

// SellCardInput describes a sale. Buyer empty records an "out"; Price nil asks the oracle.
type SellCardInput struct {
	CardName string
	Seller   string
	Buyer    string
	Price    *decimal.Decimal
	Notes    string
}

// TransferCardInput describes an ownership transfer without a price.
type TransferCardInput struct {
	CardName string
	From     string
	To       string
	Notes    string
}

// LedgerService is the ownership engine. Every state change is a single unit of work
// that writes the card and its ledger row together.
type LedgerService struct {
	store  repository.Store
	oracle PriceOracle
	now    func() time.Time
}

// NewLedgerService creates a ledger service. A nil oracle never finds a price.
func NewLedgerService(store repository.Store, oracle PriceOracle) *LedgerService {
	return &LedgerService{
		store:  store,
		oracle: oracle,
		now:    time.Now,
	}
}

// RegisterUser creates a user. Returns ErrDuplicateIdentity if the username is taken.
func (s *LedgerService) RegisterUser(ctx context.Context, username, email string) (*model.User, error) {
	if err := requireName("username", username); err != nil {
		return nil, err
	}

	user := &model.User{Username: username}
	if email != "" {
		user.Email = &email
	}

	id, err := s.store.Users().Create(ctx, username, user.Email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, username)
		}
		return nil, err
	}
	user.ID = id

	log.WithFields(log.Fields{"user_id": id, "username": username}).Info("[LedgerService] User registered")
	return user, nil
}

// FindUser returns the user or ErrUnknownUser.
func (s *LedgerService) FindUser(ctx context.Context, username string) (*model.User, error) {
	return resolveUser(ctx, s.store, username)
}

// GetUser returns the user with the given id or ErrUnknownUser.
func (s *LedgerService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, id)
	}
	return user, nil
}

// AddCard records intake: the card and its "in" transaction are written together.
func (s *LedgerService) AddCard(ctx context.Context, in AddCardInput) (*model.Card, error) {
	if err := requireName("card name", in.Name); err != nil {
		return nil, err
	}
	if err := requirePrice(in.PurchasePrice); err != nil {
		return nil, err
	}

	owner, err := resolveUser(ctx, s.store, in.Owner)
	if err != nil {
		return nil, err
	}

	card := &model.Card{
		Name:          in.Name,
		SetName:       in.SetName,
		Condition:     in.Condition,
		PurchasePrice: in.PurchasePrice,
		OwnerID:       owner.ID,
		CreatedAt:     s.now().UTC(),
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		id, err := repos.Cards().Create(ctx, card)
		if err != nil {
			return err
		}
		card.ID = id

		_, err = repos.Transactions().Append(ctx, &model.Transaction{
			CardID:   id,
			Type:     model.TransactionIn,
			Price:    decimal.NewNullDecimal(in.PurchasePrice),
			ToUserID: &owner.ID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add card %q: %w", in.Name, err)
	}

	log.WithFields(log.Fields{"card_id": card.ID, "card": card.Name, "owner": owner.Username}).
		Info("[LedgerService] Card added")
	return card, nil
}

// SellCard records a sale of the seller's lowest-id card with the given name.
// With a buyer the card changes hands ("sell"); without one only the price event
// is recorded ("out"). An unknown buyer aborts the sale. When no price is given the
// oracle is consulted before any write; if it has nothing, ErrPriceUnavailable is
// returned and the store is untouched.
func (s *LedgerService) SellCard(ctx context.Context, in SellCardInput) (*model.Transaction, error) {
	if err := requireName("card name", in.CardName); err != nil {
		return nil, err
	}
	if in.Price != nil {
		if err := requirePrice(*in.Price); err != nil {
			return nil, err
		}
	}

	seller, err := resolveUser(ctx, s.store, in.Seller)
	if err != nil {
		return nil, err
	}
	if _, err := findOwnedCard(ctx, s.store, in.CardName, seller); err != nil {
		return nil, err
	}

	var buyer *model.User
	if in.Buyer != "" {
		if buyer, err = resolveUser(ctx, s.store, in.Buyer); err != nil {
			return nil, fmt.Errorf("buyer: %w", err)
		}
	}

	price, err := s.resolvePrice(ctx, in.CardName, in.Price)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		Type:       model.TransactionOut,
		Price:      decimal.NewNullDecimal(price),
		FromUserID: &seller.ID,
		Notes:      optional(in.Notes),
	}
	if buyer != nil {
		tx.Type = model.TransactionSell
		tx.ToUserID = &buyer.ID
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		// the card may have moved while the oracle was consulted
		card, err := findOwnedCard(ctx, repos, in.CardName, seller)
		if err != nil {
			return err
		}
		tx.CardID = card.ID

		if buyer != nil {
			if err := repos.Cards().SetOwner(ctx, card.ID, buyer.ID); err != nil {
				return err
			}
		}

		_, err = repos.Transactions().Append(ctx, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to sell card %q: %w", in.CardName, err)
	}

	fields := log.Fields{"card_id": tx.CardID, "card": in.CardName, "seller": seller.Username, "price": price.StringFixed(2)}
	if buyer != nil {
		fields["buyer"] = buyer.Username
	}
	log.WithFields(fields).Infof("[LedgerService] Card %s recorded", tx.Type)
	return tx, nil
}

// TransferCard moves the from-user's lowest-id card with the given name to the to-user.
// The owner update is guarded by the from-user so a stale read cannot move someone else's card.
func (s *LedgerService) TransferCard(ctx context.Context, in TransferCardInput) (*model.Transaction, error) {
	if err := requireName("card name", in.CardName); err != nil {
		return nil, err
	}

	from, err := resolveUser(ctx, s.store, in.From)
	if err != nil {
		return nil, err
	}
	to, err := resolveUser(ctx, s.store, in.To)
	if err != nil {
		return nil, err
	}

	tx := &model.Transaction{
		Type:       model.TransactionTransfer,
		FromUserID: &from.ID,
		ToUserID:   &to.ID,
		Notes:      optional(in.Notes),
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		card, err := findOwnedCard(ctx, repos, in.CardName, from)
		if err != nil {
			return err
		}

		moved, err := repos.Cards().ReassignOwner(ctx, card.ID, from.ID, to.ID)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: %q owned by %s", ErrCardNotFound, in.CardName, from.Username)
		}
		tx.CardID = card.ID

		_, err = repos.Transactions().Append(ctx, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to transfer card %q: %w", in.CardName, err)
	}

	log.WithFields(log.Fields{"card_id": tx.CardID, "card": in.CardName, "from": from.Username, "to": to.Username}).
		Info("[LedgerService] Card transferred")
	return tx, nil
}

// ListInventory returns the cards a user currently owns, in intake order.
func (s *LedgerService) ListInventory(ctx context.Context, username string) ([]model.Card, error) {
	user, err := resolveUser(ctx, s.store, username)
	if err != nil {
		return nil, err
	}
	return s.store.Cards().ListByOwner(ctx, user.ID)
}

// QueryTransactions returns ledger rows, newest first. Card name and username filters combine.
func (s *LedgerService) QueryTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionView, error) {
	return s.store.Transactions().Query(ctx, filter)
}

// CardHistory returns one card's ledger, oldest first.
func (s *LedgerService) CardHistory(ctx context.Context, cardID int64) ([]model.Transaction, error) {
	if _, err := s.getCard(ctx, cardID); err != nil {
		return nil, err
	}
	return s.store.Transactions().ListByCard(ctx, cardID)
}

// SearchPrice asks the oracle for the last sold price of a card name.
func (s *LedgerService) SearchPrice(ctx context.Context, cardName string) (*model.PriceQuote, error) {
	if err := requireName("card name", cardName); err != nil {
		return nil, err
	}

	price, err := s.resolvePrice(ctx, cardName, nil)
	if err != nil {
		return nil, err
	}

	return &model.PriceQuote{
		CardName:  cardName,
		Price:     price,
		Source:    s.oracleName(),
		FetchedAt: s.now().UTC(),
	}, nil
}

// resolvePrice returns the explicit price or asks the oracle. Oracle prices are
// rounded to cents and treated as unavailable when out of range.
func (s *LedgerService) resolvePrice(ctx context.Context, cardName string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}

	if s.oracle != nil {
		price, ok := s.oracle.LookupLastSoldPrice(ctx, cardName)
		price = price.Round(priceScale)
		if ok && requirePrice(price) == nil {
			log.WithFields(log.Fields{"card": cardName, "price": price.StringFixed(2), "source": s.oracle.Name()}).
				Debug("[LedgerService] Oracle price found")
			return price, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: no recent sale found for %q", ErrPriceUnavailable, cardName)
}

func (s *LedgerService) oracleName() string {
	if s.oracle == nil {
		return "none"
	}
	return s.oracle.Name()
}

func (s *LedgerService) getCard(ctx context.Context, cardID int64) (*model.Card, error) {
	card, err := s.store.Cards().GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: id %d", ErrCardNotFound, cardID)
	}
	return card, nil
}

func resolveUser(ctx context.Context, repos repository.Repositories, username string) (*model.User, error) {
	if err := requireName("username", username); err != nil {
		return nil, err
	}

	user, err := repos.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	return user, nil
}

func findOwnedCard(ctx context.Context, repos repository.Repositories, name string, owner *model.User) (*model.Card, error) {
	card, err := repos.Cards().FindByNameAndOwner(ctx, name, owner.ID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %q owned by %s", ErrCardNotFound, name, owner.Username)
	}
	return card, nil
}

func requireName(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

// Prices are stored as NUMERIC(14, 2) on every dialect.
const priceScale = 2

var maxPrice = decimal.New(1, 12)

func requirePrice(p decimal.Decimal) error {
	switch {
	case p.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case !p.Equal(p.Round(priceScale)):
		return fmt.Errorf("%w: price %s has more than %d decimal places", ErrInvalidInput, p, priceScale)
	case p.GreaterThanOrEqual(maxPrice):
		return fmt.Errorf("%w: price %s must be below %s", ErrInvalidInput, p, maxPrice)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
