package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/store"
	"github.com/nhle/gamewatch/internal/transport"
	"github.com/nhle/gamewatch/tests/testutil"
)

type harness struct {
	store    *store.SQLiteStore
	feed     *fakeFeed
	aff      *fakeAffiliations
	sender   *recordingSender
	metrics  *Metrics
	pipeline *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	h := &harness{
		store:   testutil.NewTestStore(t),
		feed:    &fakeFeed{logs: map[int64][]model.FeedRow{}},
		aff:     newFakeAffiliations(map[int64]int64{7: 7, 9: 9}),
		sender:  &recordingSender{errs: map[int64]error{}},
		metrics: metrics,
	}
	h.pipeline = NewPipeline(Config{
		Store:         h.store,
		Feed:          h.feed,
		Affiliations:  h.aff,
		Sender:        h.sender,
		Location:      testLoc,
		PassTimeout:   time.Minute,
		LookupTimeout: time.Second,
		SendTimeout:   time.Second,
		Workers:       2,
		Metrics:       metrics,
	})
	h.pipeline.now = func() time.Time { return testNow }
	return h
}

func (h *harness) countSent(t *testing.T, kind model.Kind) int {
	t.Helper()
	n, err := h.store.CountSent(context.Background(), kind)
	require.NoError(t, err)
	return n
}

var (
	entityOne = model.Entity{ID: 7, DisplayName: "LeBron James"}
	entityTwo = model.Entity{ID: 9, DisplayName: "Jayson Tatum"}
)

// tomorrowGame is event 0012345 between groups 7 and 9 on Oct 22.
func tomorrowGame() []model.FeedRow {
	return []model.FeedRow{{
		EventID:       "0012345",
		ScheduledTime: "2024-10-22T00:00:00",
		Participants:  []model.Participant{{ID: 7, Abbreviation: "LAL"}, {ID: 9, Abbreviation: "BOS"}},
		Matchup:       "BOS @ LAL",
		Status:        model.EventScheduled,
	}}
}

func TestPipeline_UpcomingSingleFollower(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	h.feed.schedule = tomorrowGame()

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Matches)
	assert.Equal(t, 1, report.Attempts)
	assert.Equal(t, 1, report.Delivered)
	assert.True(t, report.Healthy())
	assert.NotEmpty(t, report.PassID)

	require.Equal(t, []int64{42}, h.sender.recipients())
	assert.Contains(t, h.sender.sent[0].Text, "LeBron James")
	assert.Contains(t, h.sender.sent[0].Text, "Opponent: BOS")

	sent, err := h.store.HasSent(context.Background(), model.NotificationKey{
		SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindUpcoming,
	})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, h.countSent(t, ""))
}

func TestPipeline_TwoSubscribersSameEntity(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	testutil.SeedFollows(t, h.store, 43, entityOne)
	h.feed.schedule = tomorrowGame()

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, []int64{42, 43}, h.sender.recipients())
	assert.Equal(t, 2, h.countSent(t, model.KindUpcoming))
}

func TestPipeline_PriorMarkSuppressesDelivery(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	h.feed.schedule = tomorrowGame()

	require.NoError(t, h.store.MarkSent(context.Background(), model.NotificationRecord{
		NotificationKey: model.NotificationKey{SubscriberID: 42, EntityID: 7, EventID: "0012345", Kind: model.KindUpcoming},
	}))

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Matches)
	assert.Zero(t, report.Attempts)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, h.sender.attempts)
}

func TestPipeline_RepeatedPassDeliversOnce(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne, entityTwo)
	h.feed.schedule = tomorrowGame()

	first, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)
	second, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Delivered)
	assert.Zero(t, second.Attempts)
	assert.Equal(t, 2, second.Skipped)
	assert.NotEqual(t, first.PassID, second.PassID)
	assert.Len(t, h.sender.sent, 2)
}

func TestPipeline_CompletedDuplicateRowsRecordOnce(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	h.feed.logs[7] = []model.FeedRow{
		completedRow("0022400101", "OCT 20, 2024", "BOS", 31),
		completedRow("0022400101", "OCT 20, 2024", "BOS", 31),
	}

	report, err := h.pipeline.Run(context.Background(), model.KindCompleted)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Matches)
	assert.Equal(t, 1, report.Attempts)
	assert.Equal(t, 1, h.countSent(t, model.KindCompleted))
	assert.Contains(t, h.sender.sent[0].Text, "PTS: 31")
}

func TestPipeline_UnparseableDateProducesNoMatch(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	rows := tomorrowGame()
	rows[0].ScheduledTime = "22/10/2024 7:30pm"
	h.feed.schedule = rows

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Zero(t, report.Matches)
	assert.Equal(t, 1, report.DroppedRows)
	assert.Zero(t, h.sender.attempts)
	assert.False(t, report.FeedFailed)
}

func TestPipeline_TransportFailuresDoNotAbortOrMark(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 41, entityOne)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	testutil.SeedFollows(t, h.store, 43, entityOne)
	h.feed.schedule = tomorrowGame()

	h.sender.errs[41] = fmt.Errorf("bot was blocked: %w", transport.ErrRecipientUnreachable)
	h.sender.errs[42] = errors.New("unexpected EOF")

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempts)
	assert.Equal(t, 1, report.Unreachable)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Delivered)
	assert.False(t, report.Healthy())

	assert.Equal(t, []int64{43}, h.sender.recipients())
	assert.Equal(t, 1, h.countSent(t, model.KindUpcoming))

	// Neither failure poisoned the ledger; the next pass tries again.
	delete(h.sender.errs, 41)
	delete(h.sender.errs, 42)
	again, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Delivered)
	assert.Equal(t, 1, again.Skipped)
}

func TestPipeline_NoFollowsSkipsFeed(t *testing.T) {
	h := newHarness(t)
	h.feed.scheduleErr = errors.New("must not be called")

	report, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Zero(t, report.Entities)
	assert.False(t, report.FeedFailed)
	assert.True(t, report.Healthy())
}

func TestPipeline_StorageFailureDegradesPass(t *testing.T) {
	h := newHarness(t)
	p := NewPipeline(Config{
		Store:        failingStore{},
		Feed:         h.feed,
		Affiliations: h.aff,
		Sender:       h.sender,
		Location:     testLoc,
	})

	report, err := p.Run(context.Background(), model.KindCompleted)
	require.NoError(t, err)

	assert.True(t, report.ResolveFailed)
	assert.False(t, report.Healthy())
	assert.Zero(t, h.sender.attempts)
}

func TestPipeline_LedgerWriteFailureStillCountsDelivery(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	h.feed.schedule = tomorrowGame()

	p := NewPipeline(Config{
		Store:        readOnlyLedger{h.store},
		Feed:         h.feed,
		Affiliations: h.aff,
		Sender:       h.sender,
		Location:     testLoc,
	})
	p.now = func() time.Time { return testNow }

	report, err := p.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.LedgerErrors)
	assert.Zero(t, h.countSent(t, ""))
}

func TestPipeline_UnknownKind(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Run(context.Background(), model.Kind("weekly"))
	assert.Error(t, err)
}

func TestPipeline_Metrics(t *testing.T) {
	h := newHarness(t)
	testutil.SeedFollows(t, h.store, 42, entityOne)
	testutil.SeedFollows(t, h.store, 43, entityOne)
	h.feed.schedule = tomorrowGame()
	h.sender.errs[43] = fmt.Errorf("chat not found: %w", transport.ErrRecipientUnreachable)

	_, err := h.pipeline.Run(context.Background(), model.KindUpcoming)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.DeliveriesTotal.WithLabelValues("upcoming", "delivered")))
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.DeliveriesTotal.WithLabelValues("upcoming", "unreachable")))
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.PassesTotal.WithLabelValues("upcoming", "healthy")))
}

// readOnlyLedger fails every ledger write.
type readOnlyLedger struct {
	*store.SQLiteStore
}

func (readOnlyLedger) MarkSent(context.Context, model.NotificationRecord) error {
	return errStorage
}
