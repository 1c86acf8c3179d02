package notify

import (
	"log/slog"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// collapseRows parses feed rows into events, merging rows that share an
// event id. The first parseable row of an event supplies its time,
// status, matchup and result; participants are the union of identified
// sides across rows. Rows whose time does not parse are dropped.
func collapseRows(rows []model.FeedRow, loc *time.Location, logger *slog.Logger) (events []model.Event, dropped int) {
	index := make(map[string]int)
	for _, row := range rows {
		at, err := ParseEventTime(row.ScheduledTime, loc)
		if err != nil {
			logger.Debug("dropping feed row", "event", row.EventID, "error", err)
			dropped++
			continue
		}

		i, seen := index[row.EventID]
		if !seen {
			index[row.EventID] = len(events)
			events = append(events, model.Event{
				ID:          row.EventID,
				ScheduledAt: at,
				Matchup:     row.Matchup,
				Status:      row.Status,
				Result:      row.Result,
			})
			i = len(events) - 1
		}
		events[i].Participants = mergeParticipants(events[i].Participants, row.Participants)
	}
	return events, dropped
}

// mergeParticipants adds the identified participants of add to have,
// filling in abbreviations that were missing.
func mergeParticipants(have, add []model.Participant) []model.Participant {
	for _, p := range add {
		if p.ID == 0 {
			continue
		}
		found := false
		for i := range have {
			if have[i].ID == p.ID {
				if have[i].Abbreviation == "" {
					have[i].Abbreviation = p.Abbreviation
				}
				found = true
				break
			}
		}
		if !found {
			have = append(have, p)
		}
	}
	return have
}

// opponentOf resolves the side facing group. Unknown or unlabeled
// opponents get the placeholder label.
func opponentOf(event model.Event, group int64) (id int64, label string) {
	opp, ok := event.Opponent(group)
	if !ok {
		return 0, model.OpponentPlaceholder
	}
	if opp.Abbreviation == "" {
		return opp.ID, model.OpponentPlaceholder
	}
	return opp.ID, opp.Abbreviation
}
