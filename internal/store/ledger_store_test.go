package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/tests/testutil"
)

func TestMarkSentThenHasSent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	key := model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindUpcoming}

	sent, err := s.HasSent(ctx, key)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: key, SentAt: time.Now()}))

	sent, err = s.HasSent(ctx, key)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestMarkSentIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	key := model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindCompleted}
	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: key}))
	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: key}))

	count, err := s.CountSent(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLedgerKeysAreDistinctPerKind(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	upcoming := model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindUpcoming}
	completed := upcoming
	completed.Kind = model.KindCompleted

	require.NoError(t, s.MarkSent(ctx, model.NotificationRecord{NotificationKey: upcoming}))

	sent, err := s.HasSent(ctx, completed)
	require.NoError(t, err)
	assert.False(t, sent)

	count, err := s.CountSent(ctx, model.KindUpcoming)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = s.CountSent(ctx, model.KindCompleted)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkSentRejectsUnknownKind(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.MarkSent(context.Background(), model.NotificationRecord{
		NotificationKey: model.NotificationKey{SubscriberID: 1, EntityID: 1, EventID: "x", Kind: "weekly"},
	})
	assert.Error(t, err)
}

func TestMigrationsAreRecorded(t *testing.T) {
	s := testutil.NewTestStore(t)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
