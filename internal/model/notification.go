package model

import (
	"fmt"
	"time"
)

// Kind is the notification category.
type Kind string

const (
	KindUpcoming  Kind = "upcoming"
	KindCompleted Kind = "completed"
)

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindUpcoming, KindCompleted:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown notification kind %q", s)
}

// OpponentPlaceholder labels an opponent the feed could not resolve.
const OpponentPlaceholder = "TBD"

// NotificationKey identifies one deliverable notification. At most one
// NotificationRecord exists per key.
type NotificationKey struct {
	SubscriberID int64  `db:"subscriber_id"`
	EntityID     int64  `db:"entity_id"`
	EventID      string `db:"event_id"`
	Kind         Kind   `db:"kind"`
}

func (k NotificationKey) String() string {
	return fmt.Sprintf("%d/%d/%s/%s", k.SubscriberID, k.EntityID, k.EventID, k.Kind)
}

// NotificationRecord is the ledger entry proving a notification was
// accepted by the transport.
type NotificationRecord struct {
	NotificationKey
	SentAt time.Time `db:"sent_at"`
}

// Match pairs a followed entity with an event it takes part in.
type Match struct {
	EntityID    int64
	EntityName  string
	EventID     string
	Kind        Kind
	ScheduledAt time.Time

	// OpponentID is 0 when the opponent could not be resolved by id.
	OpponentID int64
	// OpponentLabel is the opponent's abbreviation, or
	// OpponentPlaceholder when it is unknown.
	OpponentLabel string
	Matchup       string

	// Result is set for completed matches.
	Result *BoxScore
}

// Key returns the ledger key for delivering m to subscriber.
func (m Match) Key(subscriber int64) NotificationKey {
	return NotificationKey{
		SubscriberID: subscriber,
		EntityID:     m.EntityID,
		EventID:      m.EventID,
		Kind:         m.Kind,
	}
}
