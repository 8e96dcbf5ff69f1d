package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
)

// Format is an output format accepted by --output.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// ParseFormat validates s against the allowed formats.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	names := make([]string, 0, len(allowed))
	for _, f := range allowed {
		if string(f) == s {
			return f, nil
		}
		names = append(names, "'"+string(f)+"'")
	}
	return "", fmt.Errorf("invalid output format %q, use %s", s, strings.Join(names, " or "))
}

// StripANSI removes color and hyperlink escape sequences, keeping link text.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// Renderer draws tables for the terminal.
type Renderer struct {
	color  bool
	width  int
	tones  map[Tone]lipgloss.Style
	header lipgloss.Style
	border lipgloss.Style
	cell   lipgloss.Style
}

// NewRenderer creates a renderer. width <= 0 leaves tables unconstrained.
func NewRenderer(color bool, width int) *Renderer {
	r := &Renderer{
		color: color,
		width: width,
		tones: make(map[Tone]lipgloss.Style),
		cell:  lipgloss.NewStyle().Padding(0, 1),
	}
	if !color {
		r.header = lipgloss.NewStyle().Bold(true)
		r.border = lipgloss.NewStyle()
		return r
	}

	r.tones[TonePositive] = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	r.tones[ToneNegative] = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	r.tones[ToneNeutral] = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	r.tones[ToneHeader] = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	r.tones[ToneCode] = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	r.tones[ToneInfo] = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	r.header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	r.border = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return r
}

// Paint applies the style of tone to s.
func (r *Renderer) Paint(tone Tone, s string) string {
	if style, ok := r.tones[tone]; ok {
		return style.Render(s)
	}
	return s
}

// Hyperlink wraps text in an OSC 8 terminal hyperlink.
func (r *Renderer) Hyperlink(text, url string) string {
	if !r.color || url == "" {
		return text
	}
	return ansi.SetHyperlink(url) + text + ansi.ResetHyperlink()
}

// Cell renders one cell with its tone and link.
func (r *Renderer) Cell(c Cell) string {
	return r.Hyperlink(r.Paint(c.Tone, c.Text()), c.Link)
}

// Table draws t as a bordered grid.
func (r *Renderer) Table(t Table) string {
	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = r.header.Render(h)
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make([]string, len(row))
		for i, c := range row {
			out[i] = r.Cell(c)
		}
		rows = append(rows, out)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.border).
		BorderRow(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style { return r.cell })
	if r.width > 0 {
		tbl = tbl.Width(r.width)
	}
	return tbl.Render()
}

// Vertical draws the first row of t as field/value pairs.
func (r *Renderer) Vertical(t Table) string {
	if len(t.Rows) == 0 {
		return r.Table(Table{})
	}

	rows := make([][]string, 0, len(t.Headers))
	for i, h := range t.Headers {
		rows = append(rows, []string{r.header.Render(h), r.Cell(t.Rows[0][i])})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.border).
		BorderRow(true).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style { return r.cell })
	if r.width > 0 {
		tbl = tbl.Width(r.width)
	}
	return tbl.Render()
}

// Render writes t to w in format f. vertical selects the field/value layout
// for single-record tables.
func (r *Renderer) Render(w io.Writer, t Table, f Format, vertical bool) error {
	var out []byte
	var err error
	switch f {
	case FormatJSON:
		out, err = JSON(t)
	case FormatCSV:
		out, err = CSV(t)
	case FormatTable:
		if vertical {
			out = []byte(r.Vertical(t) + "\n")
		} else {
			out = []byte(r.Table(t) + "\n")
		}
	default:
		err = fmt.Errorf("unsupported output format %q", f)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// JSON encodes t as an array of objects whose keys follow header order.
// Strings are stripped of escape sequences.
func JSON(t Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, h := range t.Headers {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(&buf, h); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONValue(&buf, jsonValue(row[j])); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func jsonValue(c Cell) interface{} {
	if s, ok := c.Value.(string); ok {
		return StripANSI(s)
	}
	return c.Value
}

func writeJSONValue(buf *bytes.Buffer, v interface{}) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates each value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// CSV encodes t with a header line.
func CSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = StripANSI(c.Text())
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
