package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/gamewatch/internal/model"
)

func TestFormatMessage_Upcoming(t *testing.T) {
	m := model.Match{
		EntityName:    "LeBron James",
		Kind:          model.KindUpcoming,
		ScheduledAt:   time.Date(2024, 10, 22, 0, 0, 0, 0, testLoc),
		OpponentLabel: "BOS",
		Matchup:       "BOS @ LAL",
	}

	want := "LeBron James plays tomorrow\n" +
		"Opponent: BOS\n" +
		"When: Tue Oct 22, 2024\n" +
		"Matchup: BOS @ LAL"
	assert.Equal(t, want, FormatMessage(m, testLoc))
}

func TestFormatMessage_UpcomingWithTipOff(t *testing.T) {
	m := model.Match{
		EntityName:    "LeBron James",
		Kind:          model.KindUpcoming,
		ScheduledAt:   time.Date(2024, 10, 22, 19, 30, 0, 0, testLoc),
		OpponentLabel: model.OpponentPlaceholder,
	}

	msg := FormatMessage(m, testLoc)
	assert.Contains(t, msg, "Opponent: TBD")
	assert.Contains(t, msg, "When: Tue Oct 22, 2024 7:30 PM ET")
	assert.NotContains(t, msg, "Matchup:")
}

func TestFormatMessage_Completed(t *testing.T) {
	m := model.Match{
		EntityName:    "LeBron James",
		Kind:          model.KindCompleted,
		ScheduledAt:   time.Date(2024, 10, 20, 0, 0, 0, 0, testLoc),
		OpponentLabel: "BOS",
		Matchup:       "LAL vs. BOS",
		Result: &model.BoxScore{
			WinLoss: "W", Minutes: "35", Points: 28, Rebounds: 9, Assists: 11,
			Steals: 2, Blocks: 1, FGM: 10, FGA: 20, FG3M: 2, FG3A: 0, FTM: 6, FTA: 8,
		},
	}

	msg := FormatMessage(m, testLoc)
	assert.Contains(t, msg, "LeBron James - Last Game")
	assert.Contains(t, msg, "Date: Sun Oct 20, 2024")
	assert.Contains(t, msg, "Matchup: LAL vs. BOS (W)")
	assert.Contains(t, msg, "PTS: 28  REB: 9  AST: 11")
	assert.Contains(t, msg, "FG: 10/20 (50.0%)")
	assert.Contains(t, msg, "3PT: 2/0")
	assert.Contains(t, msg, "FT: 6/8 (75.0%)")
}
