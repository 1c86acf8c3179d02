package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// LedgerStore is the persistence Ledger needs.
type LedgerStore interface {
	HasSent(ctx context.Context, key model.NotificationKey) (bool, error)
	MarkSent(ctx context.Context, rec model.NotificationRecord) error
}

// Ledger records delivered notifications. A storage failure on read
// reports "not sent": a duplicate message beats a lost one.
type Ledger struct {
	store  LedgerStore
	logger *slog.Logger
	now    func() time.Time
}

// NewLedger creates a Ledger. A nil logger uses slog.Default.
func NewLedger(store LedgerStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// HasSent reports whether key was already delivered.
func (l *Ledger) HasSent(ctx context.Context, key model.NotificationKey) bool {
	sent, err := l.store.HasSent(ctx, key)
	if err != nil {
		l.logger.Warn("ledger read failed, treating as unsent", "key", key.String(), "error", err)
		return false
	}
	return sent
}

// MarkSent records key as delivered. It must only be called after the
// transport accepted the message. Marking twice is a no-op. It reports
// false when the record could not be written; the notification will then
// be sent again by a later pass.
func (l *Ledger) MarkSent(ctx context.Context, key model.NotificationKey) bool {
	err := l.store.MarkSent(ctx, model.NotificationRecord{
		NotificationKey: key,
		SentAt:          l.now(),
	})
	if err != nil {
		l.logger.Error("ledger write failed after delivery", "key", key.String(), "error", err)
		return false
	}
	return true
}
