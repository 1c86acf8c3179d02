package notify

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/gamewatch/internal/model"
)

// PassReport summarizes one pass.
type PassReport struct {
	PassID   string
	Kind     model.Kind
	Window   Window
	Started  time.Time
	Duration time.Duration

	Entities     int
	Matches      int
	Attempts     int
	Delivered    int
	Skipped      int
	Unreachable  int
	Failed       int
	LedgerErrors int
	DroppedRows  int
	EntityErrors int

	ResolveFailed bool
	FeedFailed    bool
	Interrupted   bool
}

// Healthy reports whether the pass ran without unexpected failures.
// Unreachable recipients and dropped rows do not count against it.
func (r PassReport) Healthy() bool {
	return !r.ResolveFailed && !r.FeedFailed && !r.Interrupted &&
		r.Failed == 0 && r.EntityErrors == 0 && r.LedgerErrors == 0
}

// Pass is the state owned by a single resolve, match and dispatch run.
// Nothing in it is shared with other passes, so passes of different
// kinds can run at the same time.
type Pass struct {
	ID     string
	Kind   model.Kind
	Window Window
	Report *PassReport

	processed map[int64]struct{}
	logger    *slog.Logger
}

// NewPass starts a pass of kind over window.
func NewPass(kind model.Kind, window Window, logger *slog.Logger) *Pass {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Pass{
		ID:     id,
		Kind:   kind,
		Window: window,
		Report: &PassReport{
			PassID:  id,
			Kind:    kind,
			Window:  window,
			Started: time.Now(),
		},
		processed: make(map[int64]struct{}),
		logger:    logger.With("pass_id", id, "kind", string(kind)),
	}
}

// claim marks entity as processed in this pass. It reports false when
// the entity was already claimed.
func (p *Pass) claim(entity int64) bool {
	if _, done := p.processed[entity]; done {
		return false
	}
	p.processed[entity] = struct{}{}
	return true
}

// Logger returns the pass-scoped logger.
func (p *Pass) Logger() *slog.Logger {
	return p.logger
}
