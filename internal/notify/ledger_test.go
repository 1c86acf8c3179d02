package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/tests/testutil"
)

func TestLedger_MarkThenHasSent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ledger := NewLedger(s, nil)
	ctx := context.Background()

	key := model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindUpcoming}

	assert.False(t, ledger.HasSent(ctx, key))
	assert.True(t, ledger.MarkSent(ctx, key))
	assert.True(t, ledger.HasSent(ctx, key))

	// A second mark is a no-op.
	assert.True(t, ledger.MarkSent(ctx, key))
	count, err := s.CountSent(ctx, model.KindUpcoming)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLedger_StorageFailures(t *testing.T) {
	ledger := NewLedger(failingStore{}, nil)
	ctx := context.Background()

	key := model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindCompleted}

	assert.False(t, ledger.HasSent(ctx, key), "a failed read reports unsent")
	assert.False(t, ledger.MarkSent(ctx, key))
}
