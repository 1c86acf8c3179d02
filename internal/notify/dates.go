package notify

import (
	"fmt"
	"strings"
	"time"
)

// eventTimeLayouts are the encodings seen in feed rows. Layouts without
// a zone are read in the reference timezone. Month names match
// case-insensitively, so "OCT 22, 2024" parses.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"01/02/2006",
}

// ParseEventTime parses a raw scheduled-time value.
func ParseEventTime(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty event time")
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event time %q", raw)
}
