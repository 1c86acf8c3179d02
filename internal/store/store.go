package store

import (
	"context"

	"github.com/nhle/gamewatch/internal/model"
)

// Store defines the persistence interface for follows and the
// notification ledger.
type Store interface {
	// === Follows ===

	// AddFollow inserts sub unless the (subscriber, entity) pair exists.
	// It reports whether a row was inserted.
	AddFollow(ctx context.Context, sub model.Subscription) (bool, error)

	// RemoveFollow deletes the subscriber's follows whose display name
	// matches name case-insensitively, together with their ledger rows.
	// It reports whether anything was removed.
	RemoveFollow(ctx context.Context, subscriberID int64, name string) (bool, error)

	GetFollows(ctx context.Context, subscriberID int64) ([]model.Subscription, error)
	GetFollowersByEntity(ctx context.Context) (map[int64]model.Followers, error)

	// === Ledger ===

	HasSent(ctx context.Context, key model.NotificationKey) (bool, error)

	// MarkSent records rec; an existing record for the same key is kept.
	MarkSent(ctx context.Context, rec model.NotificationRecord) error
}
