package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/model"
)

// AuditCard replays a card's ledger in date order and compares the owner it
// arrives at with the recorded current owner.
func (s *LedgerService) AuditCard(ctx context.Context, cardID int64) (*model.CustodyReport, error) {
	card, err := s.getCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.Transactions().ListByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	return replayCustody(card, history), nil
}

// AuditAll audits every card in intake order.
func (s *LedgerService) AuditAll(ctx context.Context) ([]model.CustodyReport, error) {
	cards, err := s.store.Cards().ListAll(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]model.CustodyReport, 0, len(cards))
	for i := range cards {
		history, err := s.store.Transactions().ListByCard(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *replayCustody(&cards[i], history))
	}
	return reports, nil
}

func replayCustody(card *model.Card, history []model.Transaction) *model.CustodyReport {
	r := &model.CustodyReport{
		CardID:          card.ID,
		CardName:        card.Name,
		RecordedOwnerID: card.OwnerID,
		Transactions:    len(history),
	}

	var owner int64
	intakes := 0
	for i, tx := range history {
		switch {
		case tx.Type == model.TransactionIn:
			intakes++
			if i != 0 {
				r.Problems = append(r.Problems, fmt.Sprintf("transaction %d: intake is not the first event", tx.ID))
			}
			if tx.ToUserID == nil {
				r.Problems = append(r.Problems, fmt.Sprintf("transaction %d: intake has no owner", tx.ID))
				continue
			}
			owner = *tx.ToUserID

		case tx.FromUserID == nil || *tx.FromUserID != owner:
			r.Problems = append(r.Problems, fmt.Sprintf("transaction %d: %s from user %s but owner was %d",
				tx.ID, tx.Type, idString(tx.FromUserID), owner))
			if tx.Type.ChangesOwner(tx.ToUserID) {
				owner = *tx.ToUserID
			}

		case tx.Type.ChangesOwner(tx.ToUserID):
			owner = *tx.ToUserID
		}
	}

	if intakes != 1 {
		r.Problems = append(r.Problems, fmt.Sprintf("expected exactly one intake, found %d", intakes))
	}

	r.ReplayedOwnerID = owner
	if owner != card.OwnerID {
		r.Problems = append(r.Problems, fmt.Sprintf("replayed owner %d differs from recorded owner %d", owner, card.OwnerID))
	}
	r.Consistent = len(r.Problems) == 0
	return r
}

func idString(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}

// AuditScheduler periodically replays every card's ledger and logs custody violations.
// It can be stopped and started again.
type AuditScheduler struct {
	ledger   *LedgerService
	interval time.Duration

	mu        sync.Mutex
	ticker    *time.Ticker
	stopCh    chan struct{}
	done      chan struct{}
	isRunning bool
}

// NewAuditScheduler creates a scheduler. A zero interval defaults to 24 hours.
func NewAuditScheduler(ledger *LedgerService, interval time.Duration) *AuditScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &AuditScheduler{
		ledger:   ledger,
		interval: interval,
	}
}

// Start begins the audit loop. Each start gets its own ticker and stop channel.
func (s *AuditScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}

	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	log.Printf("[AuditScheduler] Started - Interval: %v", s.interval)

	go s.run(s.ticker.C, s.stopCh, s.done)
}

func (s *AuditScheduler) run(tick <-chan time.Time, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-tick:
			if _, err := s.RunNow(); err != nil {
				log.Printf("[AuditScheduler] Error during audit: %v", err)
			}
		case <-stop:
			log.Printf("[AuditScheduler] Stopped")
			return
		}
	}
}

// RunNow audits every card immediately and returns the inconsistent reports.
func (s *AuditScheduler) RunNow() ([]model.CustodyReport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	reports, err := s.ledger.AuditAll(ctx)
	if err != nil {
		return nil, err
	}

	var bad []model.CustodyReport
	for _, r := range reports {
		if r.Consistent {
			continue
		}
		bad = append(bad, r)
		log.WithFields(log.Fields{
			"card_id":  r.CardID,
			"card":     r.CardName,
			"recorded": r.RecordedOwnerID,
			"replayed": r.ReplayedOwnerID,
		}).Warnf("[AuditScheduler] Custody violation: %v", r.Problems)
	}

	if len(bad) == 0 {
		log.Printf("[AuditScheduler] %d cards audited, chain of custody intact", len(reports))
	}
	return bad, nil
}

// Stop stops the audit loop and waits for an audit in progress to finish.
// Stopping a scheduler that is not running is a no-op.
func (s *AuditScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.ticker.Stop()
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
}

// Running reports whether the audit loop is active.
func (s *AuditScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
