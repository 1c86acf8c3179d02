package model

import "time"

// EventStatus is the lifecycle state of a game.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCompleted EventStatus = "completed"
)

// BoxScore is an entity's stat line for a completed game.
type BoxScore struct {
	WinLoss  string `json:"wl"`
	Minutes  string `json:"min"`
	Points   int    `json:"pts"`
	Rebounds int    `json:"reb"`
	Assists  int    `json:"ast"`
	Steals   int    `json:"stl"`
	Blocks   int    `json:"blk"`
	FGM      int    `json:"fgm"`
	FGA      int    `json:"fga"`
	FG3M     int    `json:"fg3m"`
	FG3A     int    `json:"fg3a"`
	FTM      int    `json:"ftm"`
	FTA      int    `json:"fta"`
}

// Participant is one side of a game. ID is 0 when the feed only named
// the side by abbreviation.
type Participant struct {
	ID           int64
	Abbreviation string
}

// FeedRow is a single unparsed row returned by the event feed. A game may
// arrive as one row naming both participants or as one row per participant.
type FeedRow struct {
	EventID string

	// ScheduledTime is the raw date text; its format varies by endpoint.
	ScheduledTime string

	Participants []Participant

	// Matchup is the feed's matchup text, e.g. "LAL vs. BOS" or "LAL @ BOS".
	Matchup string

	Status EventStatus

	// Result is set only for completed rows.
	Result *BoxScore
}

// Event is a game after date parsing and row collapsing.
type Event struct {
	ID          string
	ScheduledAt time.Time
	// Participants is the union, by ID, of the identified participants
	// seen for ID across all rows, in first-seen order.
	Participants []Participant
	Matchup      string
	Status       EventStatus
	Result       *BoxScore
}

// Opponent returns the participant facing group. ok is false when the
// event does not identify exactly two participants.
func (e Event) Opponent(group int64) (Participant, bool) {
	if len(e.Participants) != 2 {
		return Participant{}, false
	}
	switch group {
	case e.Participants[0].ID:
		return e.Participants[1], true
	case e.Participants[1].ID:
		return e.Participants[0], true
	}
	return Participant{}, false
}

// HasParticipant reports whether group takes part in the event.
func (e Event) HasParticipant(group int64) bool {
	if group == 0 {
		return false
	}
	for _, p := range e.Participants {
		if p.ID == group {
			return true
		}
	}
	return false
}
