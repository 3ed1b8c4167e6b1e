package service

import (
	"context"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcg-inventory-api/internal/model"
)

func id(v int64) *int64 { return &v }

func TestReplayCustody(t *testing.T) {
	card := &model.Card{ID: 1, Name: "Mew", OwnerID: 3}

	tests := []struct {
		name       string
		history    []model.Transaction
		consistent bool
		replayed   int64
	}{
		{
			name: "intake sell transfer",
			history: []model.Transaction{
				{ID: 1, Type: model.TransactionIn, ToUserID: id(1)},
				{ID: 2, Type: model.TransactionSell, FromUserID: id(1), ToUserID: id(2)},
				{ID: 3, Type: model.TransactionOut, FromUserID: id(2)},
				{ID: 4, Type: model.TransactionTransfer, FromUserID: id(2), ToUserID: id(3)},
			},
			consistent: true,
			replayed:   3,
		},
		{
			name: "transfer from a non-owner",
			history: []model.Transaction{
				{ID: 1, Type: model.TransactionIn, ToUserID: id(1)},
				{ID: 2, Type: model.TransactionTransfer, FromUserID: id(2), ToUserID: id(3)},
			},
			replayed: 3,
		},
		{
			name: "missing intake",
			history: []model.Transaction{
				{ID: 2, Type: model.TransactionTransfer, FromUserID: id(1), ToUserID: id(3)},
			},
			replayed: 3,
		},
		{
			name: "recorded owner drifted",
			history: []model.Transaction{
				{ID: 1, Type: model.TransactionIn, ToUserID: id(1)},
			},
			replayed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := replayCustody(card, tt.history)
			assert.Equal(t, tt.consistent, r.Consistent, r.Problems)
			assert.Equal(t, tt.replayed, r.ReplayedOwnerID)
			assert.Equal(t, len(tt.history), r.Transactions)
			if !tt.consistent {
				assert.NotEmpty(t, r.Problems)
			}
		})
	}
}

func TestAuditAll_DetectsOutOfBandOwnerChange(t *testing.T) {
	l, store := newTestLedger(t, nil)
	ctx := context.Background()
	ids := register(t, l, "alice", "bob")
	clean := addCharizard(t, l, "alice")
	tampered, err := l.AddCard(ctx, AddCardInput{Name: "Mew", PurchasePrice: dec("5"), Owner: "alice"})
	require.NoError(t, err)

	// bypass the ledger
	require.NoError(t, store.Cards().SetOwner(ctx, tampered.ID, ids["bob"]))

	reports, err := l.AuditAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, clean.ID, reports[0].CardID)
	assert.True(t, reports[0].Consistent)
	assert.False(t, reports[1].Consistent)
	assert.Equal(t, ids["alice"], reports[1].ReplayedOwnerID)
	assert.Equal(t, ids["bob"], reports[1].RecordedOwnerID)

	scheduler := NewAuditScheduler(l, time.Hour)
	bad, err := scheduler.RunNow()
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, tampered.ID, bad[0].CardID)
}

func TestAuditScheduler_StartStop(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	s := NewAuditScheduler(l, 0)
	assert.Equal(t, 24*time.Hour, s.interval)

	s.Stop()
	s.Start()
	s.Start()
	assert.True(t, s.Running())
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestAuditScheduler_Restart(t *testing.T) {
	hook := logtest.NewGlobal()
	t.Cleanup(hook.Reset)

	l, _ := newTestLedger(t, nil)
	register(t, l, "alice")
	addCharizard(t, l, "alice")

	s := NewAuditScheduler(l, 5*time.Millisecond)
	audits := func() int {
		n := 0
		for _, e := range hook.AllEntries() {
			if strings.Contains(e.Message, "chain of custody intact") {
				n++
			}
		}
		return n
	}

	s.Start()
	require.Eventually(t, func() bool { return audits() > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()

	before := audits()
	s.Start()
	require.Eventually(t, func() bool { return audits() > before }, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())

	stopped := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "[AuditScheduler] Stopped" {
			stopped++
		}
	}
	assert.Equal(t, 2, stopped)
}
