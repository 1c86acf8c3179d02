package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// AddFollow inserts a follow. INSERT OR IGNORE leaves an existing
// (subscriber, entity) row untouched, so RowsAffected tells the caller
// whether the follow is new.
func (s *SQLiteStore) AddFollow(
	ctx context.Context,
	sub model.Subscription,
) (bool, error) {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO follows (subscriber_id, entity_id, display_name, created_at)
		VALUES (?, ?, ?, ?)`,
		sub.SubscriberID, sub.EntityID, sub.DisplayName, sub.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf(
			"adding follow %d -> %d: %w", sub.SubscriberID, sub.EntityID, err,
		)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return rows > 0, nil
}

// RemoveFollow deletes follows by display name and prunes the ledger rows
// of every removed (subscriber, entity) pair in the same transaction.
func (s *SQLiteStore) RemoveFollow(
	ctx context.Context,
	subscriberID int64,
	name string,
) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var entityIDs []int64
	err = tx.SelectContext(ctx, &entityIDs, `
		SELECT entity_id FROM follows
		WHERE subscriber_id = ? AND display_name = ? COLLATE NOCASE`,
		subscriberID, name,
	)
	if err != nil {
		return false, fmt.Errorf("finding follows of %d named %q: %w", subscriberID, name, err)
	}
	if len(entityIDs) == 0 {
		return false, nil
	}

	for _, entityID := range entityIDs {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM follows WHERE subscriber_id = ? AND entity_id = ?",
			subscriberID, entityID); err != nil {
			return false, fmt.Errorf("deleting follow %d -> %d: %w", subscriberID, entityID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM sent_notifications WHERE subscriber_id = ? AND entity_id = ?",
			subscriberID, entityID); err != nil {
			return false, fmt.Errorf("pruning ledger for %d -> %d: %w", subscriberID, entityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing unfollow: %w", err)
	}
	return true, nil
}

// GetFollows lists a subscriber's follows ordered by display name,
// case-insensitively.
func (s *SQLiteStore) GetFollows(
	ctx context.Context,
	subscriberID int64,
) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := s.db.SelectContext(ctx, &subs, `
		SELECT subscriber_id, entity_id, display_name, created_at
		FROM follows
		WHERE subscriber_id = ?
		ORDER BY display_name COLLATE NOCASE ASC, entity_id ASC`,
		subscriberID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying follows for %d: %w", subscriberID, err)
	}
	return subs, nil
}

// GetFollowersByEntity groups every follow by entity. Subscriber ids are
// deduplicated here rather than trusted to the primary key, so a table
// restored from a looser schema still yields one delivery per subscriber.
func (s *SQLiteStore) GetFollowersByEntity(
	ctx context.Context,
) (map[int64]model.Followers, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT entity_id, subscriber_id, display_name
		FROM follows
		ORDER BY entity_id, subscriber_id`)
	if err != nil {
		return nil, fmt.Errorf("querying followers: %w", err)
	}
	defer rows.Close()

	grouped := make(map[int64]model.Followers)
	for rows.Next() {
		var (
			entityID     int64
			subscriberID int64
			name         string
		)
		if err := rows.Scan(&entityID, &subscriberID, &name); err != nil {
			return nil, fmt.Errorf("scanning follower row: %w", err)
		}

		f, ok := grouped[entityID]
		if !ok {
			f.DisplayName = name
		}
		// Rows arrive sorted, so a duplicate is always the previous id.
		if n := len(f.Subscribers); n > 0 && f.Subscribers[n-1] == subscriberID {
			continue
		}
		f.Subscribers = append(f.Subscribers, subscriberID)
		grouped[entityID] = f
	}

	return grouped, rows.Err()
}
