package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_KeepsText(t *testing.T) {
	for _, o := range []string{"added", "already_following", "failed", "something"} {
		assert.Contains(t, Outcome(o), o)
	}
}

func TestOutcomeStyle_Colors(t *testing.T) {
	assert.Equal(t, ColorGreen, OutcomeStyle("added").GetForeground())
	assert.Equal(t, ColorYellow, OutcomeStyle("not_found").GetForeground())
	assert.Equal(t, ColorRed, OutcomeStyle("degraded").GetForeground())
	assert.Equal(t, ColorGray, OutcomeStyle("").GetForeground())
}

func TestTable(t *testing.T) {
	out := Table([]string{"Player", "Since"}, [][]string{
		{"LeBron James", "2024-10-01"},
		{"Luka Dončić", "2024-10-02"},
	})

	assert.Contains(t, out, "Player")
	assert.Contains(t, out, "LeBron James")
	assert.Contains(t, out, "Luka Dončić")
	assert.Contains(t, out, "╭")
}
