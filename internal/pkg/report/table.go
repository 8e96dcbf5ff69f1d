// Package report turns JIRA issues into tables and renders them as terminal
// tables, JSON or CSV.
package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Tone is the semantic color class of a cell.
type Tone int

const (
	ToneNone Tone = iota
	TonePositive
	ToneNegative
	ToneNeutral
	ToneHeader
	ToneCode
	ToneInfo
)

// Cell is one table value. Value is kept typed so JSON output can carry
// numbers; Tone and Link only affect terminal rendering.
type Cell struct {
	Value interface{}
	Tone  Tone
	Link  string
}

// Text returns the display form of the value.
func (c Cell) Text() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return FormatNumber(v)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// FormatNumber prints whole numbers without a fractional part.
func FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Text builds a plain cell.
func Text(s string) Cell { return Cell{Value: s} }

// Toned builds a cell with a tone.
func Toned(v interface{}, tone Tone) Cell { return Cell{Value: v, Tone: tone} }

// Table is a header row plus data rows of equal width.
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// Column returns the index of header, or -1.
func (t Table) Column(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// FilterColumns keeps only the selected columns, in selection order.
// Unknown names are ignored and an empty selection keeps every column.
func FilterColumns(t Table, selected []string) Table {
	if len(selected) == 0 {
		return t
	}

	var indices []int
	seen := make(map[int]bool)
	for _, name := range selected {
		i := t.Column(strings.TrimSpace(name))
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}

	out := Table{Headers: make([]string, 0, len(indices))}
	for _, i := range indices {
		out.Headers = append(out.Headers, t.Headers[i])
	}
	for _, row := range t.Rows {
		filtered := make([]Cell, 0, len(indices))
		for _, i := range indices {
			filtered = append(filtered, row[i])
		}
		out.Rows = append(out.Rows, filtered)
	}
	return out
}

// ParseColumns splits a comma separated --show value.
func ParseColumns(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// StatusTone maps a workflow status to its display tone.
func StatusTone(status string) Tone {
	switch status {
	case "Undefined", "New", "Not Started":
		return ToneNegative
	case "Closed":
		return TonePositive
	case "In Progress":
		return ToneNeutral
	case "Review":
		return ToneInfo
	default:
		return ToneNone
	}
}
