package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/source"
)

var errStorage = errors.New("database is locked")

// fakeFeed serves canned rows.
type fakeFeed struct {
	mu          sync.Mutex
	schedule    []model.FeedRow
	scheduleErr error
	logs        map[int64][]model.FeedRow
	logErrs     map[int64]error
	logCalls    []int64
}

func (f *fakeFeed) Schedule(_ context.Context, _, _ time.Time) ([]model.FeedRow, error) {
	return f.schedule, f.scheduleErr
}

func (f *fakeFeed) GameLog(_ context.Context, entityID int64, _, _ time.Time) ([]model.FeedRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logCalls = append(f.logCalls, entityID)
	if err := f.logErrs[entityID]; err != nil {
		return nil, err
	}
	return f.logs[entityID], nil
}

// fakeAffiliations maps entities to groups. Missing entities have no group.
type fakeAffiliations struct {
	mu     sync.Mutex
	groups map[int64]int64
	errs   map[int64]error
	calls  map[int64]int
}

func newFakeAffiliations(groups map[int64]int64) *fakeAffiliations {
	return &fakeAffiliations{groups: groups, errs: map[int64]error{}, calls: map[int64]int{}}
}

func (f *fakeAffiliations) Affiliation(_ context.Context, entityID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[entityID]++
	if err := f.errs[entityID]; err != nil {
		return 0, err
	}
	group, ok := f.groups[entityID]
	if !ok {
		return 0, source.ErrNotFound
	}
	return group, nil
}

type sentMessage struct {
	Subscriber int64
	Text       string
}

// recordingSender records accepted messages and fails for subscribers
// listed in errs.
type recordingSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts int
	errs     map[int64]error
}

func (s *recordingSender) Send(_ context.Context, subscriberID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if err := s.errs[subscriberID]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMessage{Subscriber: subscriberID, Text: text})
	return nil
}

func (s *recordingSender) recipients() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, m := range s.sent {
		ids = append(ids, m.Subscriber)
	}
	return ids
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) AddFollow(context.Context, model.Subscription) (bool, error) {
	return false, errStorage
}

func (failingStore) RemoveFollow(context.Context, int64, string) (bool, error) {
	return false, errStorage
}

func (failingStore) GetFollows(context.Context, int64) ([]model.Subscription, error) {
	return nil, errStorage
}

func (failingStore) GetFollowersByEntity(context.Context) (map[int64]model.Followers, error) {
	return nil, errStorage
}

func (failingStore) HasSent(context.Context, model.NotificationKey) (bool, error) {
	return false, errStorage
}

func (failingStore) MarkSent(context.Context, model.NotificationRecord) error {
	return errStorage
}
