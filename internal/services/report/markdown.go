package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/insightx/internal/models"
	"github.com/ternarybob/insightx/internal/services/insights"
)

// renderMarkdown flattens an assembled document into markdown. The same
// output feeds both the display path and the PDF renderer.
func renderMarkdown(doc *models.ReportDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", doc.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	for _, sec := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Title)

		if len(sec.Facts) > 0 {
			b.WriteString("| Metric | Value |\n")
			b.WriteString("|--------|-------|\n")
			for _, fact := range sec.Facts {
				fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(fact.Label), escapeCell(fact.Value))
			}
			b.WriteString("\n")
		}

		if t := sec.Table; t != nil && len(t.Header) > 0 {
			writeRow(&b, t.Header)
			sep := make([]string, len(t.Header))
			for i := range sep {
				sep[i] = "---"
			}
			writeRow(&b, sep)
			for _, row := range t.Rows {
				writeRow(&b, row)
			}
			b.WriteString("\n")
		}

		if sec.Prose != "" {
			b.WriteString(strings.TrimSpace(sec.Prose))
			b.WriteString("\n\n")
		}
	}

	fmt.Fprintf(&b, "---\n\n> %s\n", insights.Disclaimer(doc.Language))
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// escapeCell keeps cell content on one table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// metricString renders a metric value, or "n/a" when undefined.
func metricString(m models.Metric, decimals int, suffix string) string {
	if !m.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.*f%s", decimals, m.Value, suffix)
}
