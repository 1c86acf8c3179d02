package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/gamewatch/internal/model"
)

// FormatMessage renders m as plain text. Times are shown in loc; feeds
// that only carry a date produce midnight, which is shown as a date.
func FormatMessage(m model.Match, loc *time.Location) string {
	var b strings.Builder

	switch m.Kind {
	case model.KindCompleted:
		fmt.Fprintf(&b, "%s - Last Game\n", m.EntityName)
		fmt.Fprintf(&b, "Date: %s\n", m.ScheduledAt.In(loc).Format("Mon Jan 2, 2006"))
		writeMatchup(&b, m)
		if r := m.Result; r != nil {
			b.WriteString("\n")
			fmt.Fprintf(&b, "MIN: %s\n", r.Minutes)
			fmt.Fprintf(&b, "PTS: %d  REB: %d  AST: %d\n", r.Points, r.Rebounds, r.Assists)
			fmt.Fprintf(&b, "STL: %d  BLK: %d\n", r.Steals, r.Blocks)
			fmt.Fprintf(&b, "FG: %s\n", shooting(r.FGM, r.FGA))
			fmt.Fprintf(&b, "3PT: %s\n", shooting(r.FG3M, r.FG3A))
			fmt.Fprintf(&b, "FT: %s\n", shooting(r.FTM, r.FTA))
		}
	default:
		fmt.Fprintf(&b, "%s plays tomorrow\n", m.EntityName)
		fmt.Fprintf(&b, "Opponent: %s\n", m.OpponentLabel)
		fmt.Fprintf(&b, "When: %s\n", formatWhen(m.ScheduledAt, loc))
		if m.Matchup != "" {
			fmt.Fprintf(&b, "Matchup: %s\n", m.Matchup)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeMatchup(b *strings.Builder, m model.Match) {
	matchup := m.Matchup
	if matchup == "" {
		matchup = "vs " + m.OpponentLabel
	}
	if m.Result != nil && m.Result.WinLoss != "" {
		fmt.Fprintf(b, "Matchup: %s (%s)\n", matchup, m.Result.WinLoss)
		return
	}
	fmt.Fprintf(b, "Matchup: %s\n", matchup)
}

func formatWhen(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format("Mon Jan 2, 2006")
	}
	return local.Format("Mon Jan 2, 2006 3:04 PM MST")
}

func shooting(made, attempted int) string {
	if attempted == 0 {
		return fmt.Sprintf("%d/%d", made, attempted)
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", made, attempted, 100*float64(made)/float64(attempted))
}
