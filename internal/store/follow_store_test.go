package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/tests/testutil"
)

var (
	lebron = model.Entity{ID: 2544, DisplayName: "LeBron James"}
	curry  = model.Entity{ID: 201939, DisplayName: "Stephen Curry"}
	doncic = model.Entity{ID: 1629029, DisplayName: "Luka Dončić"}
)

func TestAddFollowIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	sub := model.Subscription{SubscriberID: 42, EntityID: lebron.ID, DisplayName: lebron.DisplayName}

	added, err := s.AddFollow(ctx, sub)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddFollow(ctx, sub)
	require.NoError(t, err)
	assert.False(t, added)

	follows, err := s.GetFollows(ctx, 42)
	require.NoError(t, err)
	require.Len(t, follows, 1)
	assert.Equal(t, lebron.ID, follows[0].EntityID)
	assert.False(t, follows[0].CreatedAt.IsZero())
}

func TestGetFollowsOrdersByNameCaseInsensitive(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedFollows(t, s, 42,
		curry,
		model.Entity{ID: 1, DisplayName: "anthony Davis"},
		lebron,
	)

	follows, err := s.GetFollows(ctx, 42)
	require.NoError(t, err)

	var names []string
	for _, f := range follows {
		names = append(names, f.DisplayName)
	}
	assert.Equal(t, []string{"anthony Davis", "LeBron James", "Stephen Curry"}, names)
}

func TestRemoveFollowMatchesNameCaseInsensitive(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedFollows(t, s, 42, lebron, curry)

	removed, err := s.RemoveFollow(ctx, 42, "lebron JAMES")
	require.NoError(t, err)
	assert.True(t, removed)

	follows, err := s.GetFollows(ctx, 42)
	require.NoError(t, err)
	require.Len(t, follows, 1)
	assert.Equal(t, curry.ID, follows[0].EntityID)
}

func TestRemoveFollowUnknownNameLeavesStoreUnchanged(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedFollows(t, s, 42, lebron)

	removed, err := s.RemoveFollow(ctx, 42, "Stephen Curry")
	require.NoError(t, err)
	assert.False(t, removed)

	// Another subscriber's follow is not reachable by name either.
	removed, err = s.RemoveFollow(ctx, 7, "LeBron James")
	require.NoError(t, err)
	assert.False(t, removed)

	follows, err := s.GetFollows(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, follows, 1)
}

func TestRemoveFollowPrunesLedger(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.SeedFollows(t, s, 42, lebron, curry)

	lebronKey := model.NotificationKey{SubscriberID: 42, EntityID: lebron.ID, EventID: "0022400001", Kind: model.KindUpcoming}
	curryKey := model.NotificationKey{SubscriberID: 42, EntityID: curry.ID, EventID: "0022400002", Kind: model.KindUpcoming}
	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: lebronKey}))
	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: curryKey}))

	removed, err := s.RemoveFollow(ctx, 42, "LeBron James")
	require.NoError(t, err)
	require.True(t, removed)

	sent, err := s.HasSent(ctx, lebronKey)
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = s.HasSent(ctx, curryKey)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestGetFollowersByEntityGroupsSubscribers(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedFollows(t, s, 42, lebron, doncic)
	testutil.SeedFollows(t, s, 7, lebron)
	testutil.SeedFollows(t, s, 42, lebron)

	grouped, err := s.GetFollowersByEntity(ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	assert.Equal(t, []int64{7, 42}, grouped[lebron.ID].Subscribers)
	assert.Equal(t, lebron.DisplayName, grouped[lebron.ID].DisplayName)
	assert.Equal(t, []int64{42}, grouped[doncic.ID].Subscribers)
}

func TestGetFollowersByEntityEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	grouped, err := s.GetFollowersByEntity(context.Background())
	require.NoError(t, err)
	assert.Empty(t, grouped)
}
