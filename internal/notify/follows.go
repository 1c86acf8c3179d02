// Package notify decides who hears about which game and delivers each
// notification at most once.
package notify

import (
	"context"
	"log/slog"

	"github.com/nhle/gamewatch/internal/model"
)

// FollowStore is the persistence FollowBook needs.
type FollowStore interface {
	AddFollow(ctx context.Context, sub model.Subscription) (bool, error)
	RemoveFollow(ctx context.Context, subscriberID int64, displayName string) (bool, error)
	GetFollows(ctx context.Context, subscriberID int64) ([]model.Subscription, error)
	GetFollowersByEntity(ctx context.Context) (map[int64]model.Followers, error)
}

// FollowOutcome is the result of FollowBook.Follow.
type FollowOutcome string

const (
	Added            FollowOutcome = "added"
	AlreadyFollowing FollowOutcome = "already_following"
	FollowFailed     FollowOutcome = "failed"
)

// UnfollowOutcome is the result of FollowBook.Unfollow.
type UnfollowOutcome string

const (
	Removed        UnfollowOutcome = "removed"
	NotFound       UnfollowOutcome = "not_found"
	UnfollowFailed UnfollowOutcome = "failed"
)

// FollowBook wraps a FollowStore so that storage failures become
// outcomes. None of its methods return errors.
type FollowBook struct {
	store  FollowStore
	logger *slog.Logger
}

// NewFollowBook creates a FollowBook. A nil logger uses slog.Default.
func NewFollowBook(store FollowStore, logger *slog.Logger) *FollowBook {
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowBook{store: store, logger: logger}
}

// Follow subscribes subscriber to entity. Following twice is a no-op that
// reports AlreadyFollowing.
func (b *FollowBook) Follow(ctx context.Context, subscriber int64, entity model.Entity) FollowOutcome {
	added, err := b.store.AddFollow(ctx, model.Subscription{
		SubscriberID: subscriber,
		EntityID:     entity.ID,
		DisplayName:  entity.DisplayName,
	})
	if err != nil {
		b.logger.Error("follow failed",
			"subscriber", subscriber, "entity", entity.ID, "error", err)
		return FollowFailed
	}
	if !added {
		return AlreadyFollowing
	}
	b.logger.Info("follow added", "subscriber", subscriber, "entity", entity.ID, "name", entity.DisplayName)
	return Added
}

// Unfollow removes every follow of subscriber whose display name equals
// name, ignoring case, along with the ledger entries of those follows.
func (b *FollowBook) Unfollow(ctx context.Context, subscriber int64, name string) UnfollowOutcome {
	removed, err := b.store.RemoveFollow(ctx, subscriber, name)
	if err != nil {
		b.logger.Error("unfollow failed", "subscriber", subscriber, "name", name, "error", err)
		return UnfollowFailed
	}
	if !removed {
		return NotFound
	}
	b.logger.Info("follow removed", "subscriber", subscriber, "name", name)
	return Removed
}

// List returns the subscriber's follows ordered by display name. It is
// empty when storage fails.
func (b *FollowBook) List(ctx context.Context, subscriber int64) []model.Subscription {
	subs, err := b.store.GetFollows(ctx, subscriber)
	if err != nil {
		b.logger.Error("listing follows failed", "subscriber", subscriber, "error", err)
		return nil
	}
	return subs
}

// Grouped returns every followed entity with its deduplicated
// subscribers. ok is false when storage failed.
func (b *FollowBook) Grouped(ctx context.Context) (followers map[int64]model.Followers, ok bool) {
	grouped, err := b.store.GetFollowersByEntity(ctx)
	if err != nil {
		b.logger.Error("grouping follows failed", "error", err)
		return map[int64]model.Followers{}, false
	}
	return grouped, true
}
