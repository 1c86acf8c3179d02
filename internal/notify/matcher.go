package notify

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/gamewatch/internal/model"
	"github.com/nhle/gamewatch/internal/source"
)

// MatcherConfig holds Matcher settings.
type MatcherConfig struct {
	// Location is the reference timezone for dates without a zone.
	Location *time.Location
	// LookupTimeout bounds each feed pull and affiliation lookup.
	LookupTimeout time.Duration
	// Workers bounds concurrent game log pulls in completed mode.
	Workers int
}

// Matcher joins event data against a follow snapshot.
type Matcher struct {
	feed          source.EventFeed
	affiliations  source.Affiliations
	loc           *time.Location
	lookupTimeout time.Duration
	workers       int
}

// NewMatcher creates a Matcher.
func NewMatcher(feed source.EventFeed, affiliations source.Affiliations, cfg MatcherConfig) *Matcher {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Matcher{
		feed:          feed,
		affiliations:  affiliations,
		loc:           loc,
		lookupTimeout: cfg.LookupTimeout,
		workers:       workers,
	}
}

// Upcoming pulls the schedule for the pass window and matches it. A
// failed pull ends the pass with no matches.
func (m *Matcher) Upcoming(ctx context.Context, pass *Pass, snap Snapshot) []model.Match {
	pullCtx, cancel := withTimeout(ctx, m.lookupTimeout)
	defer cancel()

	rows, err := m.feed.Schedule(pullCtx, pass.Window.Start, pass.Window.End)
	if err != nil {
		pass.logger.Error("schedule pull failed", "window", pass.Window.String(), "error", err)
		pass.Report.FeedFailed = true
		return nil
	}
	return m.MatchUpcoming(ctx, pass, rows, snap)
}

// MatchUpcoming joins schedule rows against snap. Each followed entity
// is looked up at most once per pass; its first in-window event whose
// participants include the entity's current group becomes a match.
func (m *Matcher) MatchUpcoming(
	ctx context.Context,
	pass *Pass,
	rows []model.FeedRow,
	snap Snapshot,
) []model.Match {
	events, dropped := collapseRows(rows, m.loc, pass.logger)
	pass.Report.DroppedRows += dropped

	var candidates []model.Event
	for _, ev := range events {
		if pass.Window.Contains(ev.ScheduledAt) {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		pass.logger.Info("no events in window", "window", pass.Window.String(), "rows", len(rows))
		return nil
	}

	var matches []model.Match
	for _, entity := range snap.Entities() {
		if ctx.Err() != nil {
			break
		}
		if !pass.claim(entity) {
			continue
		}

		group, ok := m.affiliation(ctx, pass, entity)
		if !ok {
			continue
		}

		for _, ev := range candidates {
			if !ev.HasParticipant(group) {
				continue
			}
			oppID, oppLabel := opponentOf(ev, group)
			matches = append(matches, model.Match{
				EntityID:      entity,
				EntityName:    snap.Name(entity),
				EventID:       ev.ID,
				Kind:          model.KindUpcoming,
				ScheduledAt:   ev.ScheduledAt,
				OpponentID:    oppID,
				OpponentLabel: oppLabel,
				Matchup:       ev.Matchup,
			})
			break
		}
	}
	return matches
}

func (m *Matcher) affiliation(ctx context.Context, pass *Pass, entity int64) (int64, bool) {
	lookupCtx, cancel := withTimeout(ctx, m.lookupTimeout)
	defer cancel()

	group, err := m.affiliations.Affiliation(lookupCtx, entity)
	if errors.Is(err, source.ErrNotFound) {
		pass.logger.Debug("entity has no current group", "entity", entity)
		return 0, false
	}
	if err != nil {
		pass.logger.Warn("affiliation lookup failed", "entity", entity, "error", err)
		pass.Report.EntityErrors++
		return 0, false
	}
	return group, true
}

// completedResult is one worker's outcome for one entity.
type completedResult struct {
	match   *model.Match
	dropped int
	err     error
}

// MatchCompleted pulls each followed entity's game log for the pass
// window. When an entity has several completed games in the window only
// the first row is used. Matches come back in entity order.
func (m *Matcher) MatchCompleted(ctx context.Context, pass *Pass, snap Snapshot) []model.Match {
	var entities []int64
	for _, entity := range snap.Entities() {
		if pass.claim(entity) {
			entities = append(entities, entity)
		}
	}

	results := make([]completedResult, len(entities))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, entity := range entities {
		g.Go(func() error {
			results[i] = m.completedFor(ctx, pass, entity, snap.Name(entity))
			return nil
		})
	}
	_ = g.Wait()

	var matches []model.Match
	for i, res := range results {
		pass.Report.DroppedRows += res.dropped
		if res.err != nil {
			pass.logger.Warn("game log pull failed", "entity", entities[i], "error", res.err)
			pass.Report.EntityErrors++
			continue
		}
		if res.match != nil {
			matches = append(matches, *res.match)
		}
	}
	return matches
}

func (m *Matcher) completedFor(ctx context.Context, pass *Pass, entity int64, name string) completedResult {
	if ctx.Err() != nil {
		return completedResult{err: ctx.Err()}
	}

	pullCtx, cancel := withTimeout(ctx, m.lookupTimeout)
	defer cancel()

	rows, err := m.feed.GameLog(pullCtx, entity, pass.Window.Start, pass.Window.End)
	if err != nil {
		return completedResult{err: err}
	}

	var res completedResult
	for _, row := range rows {
		at, err := ParseEventTime(row.ScheduledTime, m.loc)
		if err != nil {
			pass.logger.Debug("dropping game log row", "entity", entity, "event", row.EventID, "error", err)
			res.dropped++
			continue
		}
		if res.match != nil || row.Status != model.EventCompleted || !pass.Window.Contains(at) {
			continue
		}

		oppID, oppLabel := int64(0), model.OpponentPlaceholder
		if len(row.Participants) >= 2 {
			opp := row.Participants[1]
			oppID = opp.ID
			if opp.Abbreviation != "" {
				oppLabel = opp.Abbreviation
			}
		}
		res.match = &model.Match{
			EntityID:      entity,
			EntityName:    name,
			EventID:       row.EventID,
			Kind:          model.KindCompleted,
			ScheduledAt:   at,
			OpponentID:    oppID,
			OpponentLabel: oppLabel,
			Matchup:       row.Matchup,
			Result:        row.Result,
		}
	}
	return res
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
