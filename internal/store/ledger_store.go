package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// HasSent reports whether a notification record exists for key.
func (s *SQLiteStore) HasSent(
	ctx context.Context,
	key model.NotificationKey,
) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sent_notifications
		WHERE subscriber_id = ? AND entity_id = ? AND event_id = ? AND kind = ?`,
		key.SubscriberID, key.EntityID, key.EventID, string(key.Kind),
	)
	if err != nil {
		return false, fmt.Errorf("checking ledger for %s: %w", key, err)
	}
	return count > 0, nil
}

// MarkSent inserts a notification record. A record that already exists
// for the key is kept as is.
func (s *SQLiteStore) MarkSent(
	ctx context.Context,
	rec model.NotificationRecord,
) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sent_notifications
			(subscriber_id, entity_id, event_id, kind, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.SubscriberID, rec.EntityID, rec.EventID, string(rec.Kind),
		rec.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("marking %s sent: %w", rec.NotificationKey, err)
	}
	return nil
}

// CountSent returns the number of ledger records, optionally limited to
// one kind when kind is non-empty.
func (s *SQLiteStore) CountSent(ctx context.Context, kind model.Kind) (int, error) {
	query := "SELECT COUNT(*) FROM sent_notifications"
	var args []interface{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting ledger records: %w", err)
	}
	return count, nil
}
