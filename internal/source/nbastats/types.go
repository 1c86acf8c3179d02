package nbastats

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Response is the envelope shared by the stats endpoints. Most endpoints
// return "resultSets" as an array; a few return a single "resultSet".
type Response struct {
	Resource   string      `json:"resource"`
	ResultSets []ResultSet `json:"resultSets"`
	ResultSet  *ResultSet  `json:"resultSet"`
}

// ResultSet is a named table of rows with positional columns.
type ResultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

// Set returns the result set called name.
func (r *Response) Set(name string) (*ResultSet, error) {
	for i := range r.ResultSets {
		if strings.EqualFold(r.ResultSets[i].Name, name) {
			return &r.ResultSets[i], nil
		}
	}
	if r.ResultSet != nil && strings.EqualFold(r.ResultSet.Name, name) {
		return r.ResultSet, nil
	}
	return nil, fmt.Errorf("result set %q missing from %s response", name, r.Resource)
}

// Rows wraps every row with header-based accessors.
func (s *ResultSet) Rows() []Row {
	index := make(map[string]int, len(s.Headers))
	for i, h := range s.Headers {
		index[strings.ToUpper(h)] = i
	}

	rows := make([]Row, 0, len(s.RowSet))
	for _, values := range s.RowSet {
		rows = append(rows, Row{index: index, values: values})
	}
	return rows
}

// Row reads columns by header name. Header lookup is case-insensitive
// because endpoints disagree on casing ("Game_ID" vs "GAME_ID").
// Missing or null columns read as zero values.
type Row struct {
	index  map[string]int
	values []any
}

func (r Row) value(column string) any {
	i, ok := r.index[strings.ToUpper(column)]
	if !ok || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// String returns column as text.
func (r Row) String(column string) string {
	switch v := r.value(column).(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns column as an integer, truncating fractional values.
func (r Row) Int64(column string) int64 {
	switch v := r.value(column).(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Int returns column as an int.
func (r Row) Int(column string) int {
	return int(r.Int64(column))
}
