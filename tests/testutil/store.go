package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedFollows inserts follows for subscriber, one per entity, failing the
// test on any storage error.
func SeedFollows(t *testing.T, s store.Store, subscriber int64, entities ...model.Entity) {
	t.Helper()

	for _, e := range entities {
		_, err := s.AddFollow(context.Background(), model.Subscription{
			SubscriberID: subscriber,
			EntityID:     e.ID,
			DisplayName:  e.DisplayName,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			t.Fatalf("seeding follow %d -> %d: %v", subscriber, e.ID, err)
		}
	}
}
