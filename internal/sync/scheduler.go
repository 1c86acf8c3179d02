// Package sync runs notification passes on their daily schedules.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/notify"
)

// SyncState represents the current state of a pass kind.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the schedule state for a single pass kind.
type SyncStatus struct {
	Kind       model.Kind
	Spec       string
	State      SyncState
	LastRun    time.Time
	NextRun    time.Time
	LastReport *notify.PassReport
	Error      error
}

// Runner executes one pass.
type Runner interface {
	Run(ctx context.Context, kind model.Kind) (notify.PassReport, error)
}

// Reporter receives every finished pass.
type Reporter interface {
	Report(ctx context.Context, r notify.PassReport) error
}

// reportTimeout bounds a single operator alert.
const reportTimeout = 30 * time.Second

// Config holds the cron specs for each kind and their reference timezone.
type Config struct {
	Location  *time.Location
	Upcoming  string
	Completed string
	Logger    *slog.Logger
}

// Scheduler fires the upcoming and completed passes at fixed wall-clock
// times. A kind never overlaps itself; the two kinds may run together.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	reporter Reporter
	loc      *time.Location
	logger   *slog.Logger
	statuses map[model.Kind]*SyncStatus
	entryIDs map[model.Kind]cron.EntryID

	mu       gosync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       gosync.WaitGroup
	running  bool
	stopOnce gosync.Once
}

// New creates a Scheduler. It fails when a cron spec does not parse.
// reporter may be nil.
func New(cfg Config, runner Runner, reporter Reporter) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     newCron(loc, logger),
		runner:   runner,
		reporter: reporter,
		loc:      loc,
		logger:   logger,
		statuses: make(map[model.Kind]*SyncStatus),
		entryIDs: make(map[model.Kind]cron.EntryID),
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, job := range []struct {
		kind model.Kind
		spec string
	}{
		{model.KindUpcoming, cfg.Upcoming},
		{model.KindCompleted, cfg.Completed},
	} {
		kind := job.kind
		id, err := s.cron.AddFunc(job.spec, func() { s.runKind(s.ctx, kind) })
		if err != nil {
			cancel()
			return nil, fmt.Errorf("scheduling %s pass %q: %w", kind, job.spec, err)
		}
		s.entryIDs[kind] = id
		s.statuses[kind] = &SyncStatus{Kind: kind, Spec: job.spec, State: SyncIdle}
	}

	return s, nil
}

func newCron(loc *time.Location, logger *slog.Logger) *cron.Cron {
	cronLogger := slogCronLogger{logger: logger.With("component", "cron")}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return cron.New(
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// Start begins firing passes. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	for kind, id := range s.entryIDs {
		s.logger.Info("pass scheduled",
			"kind", string(kind),
			"spec", s.statuses[kind].Spec,
			"next", s.cron.Entry(id).Next)
	}
}

// Stop cancels in-flight passes and waits for them to return. Safe to
// call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()

		<-s.cron.Stop().Done()
		s.wg.Wait()

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.logger.Info("scheduler stopped")
	})
}

// Trigger starts a pass of kind in the background. It reports false when
// a pass of that kind is already running or the scheduler is stopped.
func (s *Scheduler) Trigger(kind model.Kind) bool {
	s.mu.Lock()
	ok := s.claimLocked(kind)
	if ok {
		s.wg.Add(1)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	go func() {
		defer s.wg.Done()
		s.execute(s.ctx, kind)
	}()
	return true
}

// RunNow runs a pass of kind and waits for it. ctx is combined with the
// scheduler's own lifetime.
func (s *Scheduler) RunNow(ctx context.Context, kind model.Kind) (notify.PassReport, error) {
	if !s.claim(kind) {
		return notify.PassReport{}, fmt.Errorf("%s pass already running", kind)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	return s.execute(ctx, kind)
}

// Statuses returns the state of every kind, upcoming first.
func (s *Scheduler) Statuses() []SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().In(s.loc)
	statuses := make([]SyncStatus, 0, len(s.statuses))
	for kind, st := range s.statuses {
		status := *st
		if entry := s.cron.Entry(s.entryIDs[kind]); entry.Schedule != nil {
			status.NextRun = entry.Schedule.Next(now)
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Kind > statuses[j].Kind })
	return statuses
}

// runKind is the cron entry point.
func (s *Scheduler) runKind(ctx context.Context, kind model.Kind) {
	if !s.claim(kind) {
		s.logger.Warn("skipping pass, previous run still active", "kind", string(kind))
		return
	}
	s.execute(ctx, kind)
}

// claim moves kind to SyncRunning. It reports false if it already was
// or if the scheduler has been stopped.
func (s *Scheduler) claim(kind model.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(kind)
}

func (s *Scheduler) claimLocked(kind model.Kind) bool {
	if s.ctx.Err() != nil {
		return false
	}
	status, ok := s.statuses[kind]
	if !ok || status.State == SyncRunning {
		return false
	}
	status.State = SyncRunning
	status.Error = nil
	return true
}

// execute runs a claimed pass and records its outcome.
func (s *Scheduler) execute(ctx context.Context, kind model.Kind) (notify.PassReport, error) {
	report, err := s.runner.Run(ctx, kind)
	if err != nil {
		s.logger.Error("pass did not run", "kind", string(kind), "error", err)
		s.setStatus(kind, SyncError, nil, err)
		return report, err
	}

	state := SyncIdle
	if !report.Healthy() {
		state = SyncError
	}
	s.setStatus(kind, state, &report, nil)

	if s.reporter != nil {
		// The alert still goes out when the pass itself was cut short.
		alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
		if err := s.reporter.Report(alertCtx, report); err != nil {
			s.logger.Warn("pass alert failed", "kind", string(kind), "pass_id", report.PassID, "error", err)
		}
	}
	return report, nil
}

// setStatus updates the status for kind.
func (s *Scheduler) setStatus(kind model.Kind, state SyncState, report *notify.PassReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[kind]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	status.LastRun = time.Now()
	if report != nil {
		status.LastReport = report
	}
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
