package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	noOriginalDescription     = "No description provided"
	noStandardizedDescription = "No standardized description generated"

	minCompareColumn = 35
	compareOverhead  = 7
)

// DescriptionComparison pairs an issue description with its AI rewrite.
type DescriptionComparison struct {
	Original     string
	Standardized string
}

// DescriptionJSON is the JSON form of a comparison.
type DescriptionJSON struct {
	Original            string `json:"original_description"`
	StandardizedRaw     string `json:"standardized_description_raw"`
	StandardizedPreview string `json:"standardized_description_preview"`
}

func (c DescriptionComparison) clean() (original, standardized string) {
	original = strings.TrimSpace(strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(c.Original))
	if original == "" {
		original = noOriginalDescription
	}
	standardized = strings.TrimSpace(c.Standardized)
	if standardized == "" {
		standardized = noStandardizedDescription
	}
	return original, standardized
}

// RenderComparison writes the comparison as a two-column table or as JSON.
// The preview is the standardized markup rendered for the terminal.
func (r *Renderer) RenderComparison(w io.Writer, c DescriptionComparison, f Format) error {
	original, standardized := c.clean()

	switch f {
	case FormatJSON:
		plain := NewRenderer(false, 0)
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err := enc.Encode(DescriptionJSON{
			Original:            original,
			StandardizedRaw:     standardized,
			StandardizedPreview: StripANSI(plain.Markup(standardized)),
		})
		if err != nil {
			return err
		}
		_, err = w.Write(buf.Bytes())
		return err
	case FormatTable:
		_, err := io.WriteString(w, r.comparisonTable(original, standardized)+"\n")
		return err
	default:
		return fmt.Errorf("unsupported output format %q", f)
	}
}

func (r *Renderer) comparisonTable(original, standardized string) string {
	width := r.width
	if width <= 0 {
		width = 120
	}
	column := (width - compareOverhead) / 2
	if column < minCompareColumn {
		column = minCompareColumn
	}

	headers := []string{
		r.Paint(ToneNegative, "ORIGINAL DESCRIPTION"),
		r.Paint(TonePositive, "STANDARDIZED DESCRIPTION (JIRA PREVIEW)"),
	}
	cellStyle := lipgloss.NewStyle().Padding(0, 1).Width(column)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.border).
		Headers(headers...).
		Row(original, r.Markup(standardized)).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Render()
}
