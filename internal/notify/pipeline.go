package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/source"
	"github.com/nhle/gamewatch/internal/transport"
)

// Store is the persistence a Pipeline needs.
type Store interface {
	FollowStore
	LedgerStore
}

// Config wires a Pipeline.
type Config struct {
	Store        Store
	Feed         source.EventFeed
	Affiliations source.Affiliations
	Sender       transport.Sender

	// Location is the reference timezone for the pass windows.
	Location      *time.Location
	PassTimeout   time.Duration
	LookupTimeout time.Duration
	SendTimeout   time.Duration
	Workers       int

	Metrics *Metrics
	Logger  *slog.Logger
}

// Pipeline runs resolve, match and dispatch for one kind at a time.
type Pipeline struct {
	resolver    *Resolver
	matcher     *Matcher
	dispatcher  *Dispatcher
	loc         *time.Location
	passTimeout time.Duration
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline creates a Pipeline from cfg.
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	book := NewFollowBook(cfg.Store, logger)
	ledger := NewLedger(cfg.Store, logger)

	return &Pipeline{
		resolver: NewResolver(book),
		matcher: NewMatcher(cfg.Feed, cfg.Affiliations, MatcherConfig{
			Location:      loc,
			LookupTimeout: cfg.LookupTimeout,
			Workers:       cfg.Workers,
		}),
		dispatcher:  NewDispatcher(ledger, cfg.Sender, cfg.SendTimeout, loc, cfg.Metrics),
		loc:         loc,
		passTimeout: cfg.PassTimeout,
		metrics:     cfg.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one pass of kind to completion and reports what happened.
// Failures inside the pass are logged and counted, never returned; the
// only error is an unknown kind.
func (p *Pipeline) Run(ctx context.Context, kind model.Kind) (PassReport, error) {
	if kind != model.KindUpcoming && kind != model.KindCompleted {
		return PassReport{}, fmt.Errorf("running pass: unknown kind %q", kind)
	}

	ctx, cancel := withTimeout(ctx, p.passTimeout)
	defer cancel()

	pass := NewPass(kind, WindowFor(kind, p.now(), p.loc), p.logger)
	report := pass.Report
	pass.logger.Info("pass started", "window", pass.Window.String())

	snap, ok := p.resolver.Resolve(ctx)
	report.ResolveFailed = !ok
	report.Entities = snap.Len()

	if snap.Len() > 0 {
		var matches []model.Match
		if kind == model.KindUpcoming {
			matches = p.matcher.Upcoming(ctx, pass, snap)
		} else {
			matches = p.matcher.MatchCompleted(ctx, pass, snap)
		}
		report.Matches = len(matches)
		p.dispatcher.Dispatch(ctx, pass, matches, snap)
	}

	if ctx.Err() != nil {
		report.Interrupted = true
	}
	report.Duration = time.Since(report.Started)
	p.metrics.observePass(*report)

	pass.logger.Info("pass finished",
		"duration", report.Duration,
		"entities", report.Entities,
		"matches", report.Matches,
		"attempts", report.Attempts,
		"delivered", report.Delivered,
		"skipped", report.Skipped,
		"unreachable", report.Unreachable,
		"failed", report.Failed,
		"dropped_rows", report.DroppedRows,
		"entity_errors", report.EntityErrors,
		"healthy", report.Healthy(),
	)
	return *report, nil
}
