package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// ErrNotFound is returned when a lookup has no answer, e.g. a player
// without a current team.
var ErrNotFound = errors.New("not found")

// StatusError indicates that the upstream API answered with a non-2xx
// status after retries were exhausted.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsStatusError reports whether err (or any error in its chain) is a
// StatusError.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}

// Directory resolves free-text queries to entities. It may return zero,
// one, or many candidates; choosing among many is the caller's concern.
type Directory interface {
	Lookup(ctx context.Context, query string) ([]model.Entity, error)
}

// EventFeed yields raw game rows.
type EventFeed interface {
	// Schedule returns every game row scheduled in [from, to).
	Schedule(ctx context.Context, from, to time.Time) ([]model.FeedRow, error)

	// GameLog returns the entity's own completed-game rows in [from, to),
	// most recent first.
	GameLog(ctx context.Context, entityID int64, from, to time.Time) ([]model.FeedRow, error)
}

// Affiliations resolves an entity's current group, e.g. a player's team.
type Affiliations interface {
	// Affiliation returns ErrNotFound when the entity has no group.
	Affiliation(ctx context.Context, entityID int64) (int64, error)
}
