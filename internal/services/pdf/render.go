package pdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	bodyFont     = "Helvetica"
	monoFont     = "Courier"
	bodySize     = 10.0
	lineHt       = 5.0
	contentWidth = 180.0
	pageBottom   = 282.0
)

// docRenderer walks a goldmark AST and lays the document out with fpdf.
// Core fonts are cp1252, so text passes through the unicode translator.
type docRenderer struct {
	doc       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	bold      bool
	italic    bool
	quoted    bool
	listDepth int
}

func newDocRenderer(doc *fpdf.Fpdf, source []byte) *docRenderer {
	return &docRenderer{
		doc:       doc,
		source:    source,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
	}
}

func (r *docRenderer) render(root ast.Node) error {
	return ast.Walk(root, r.walk)
}

func (r *docRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		r.heading(node, entering)
	case *ast.Paragraph:
		if !entering {
			r.doc.Ln(7)
		}
	case *ast.Text:
		if entering {
			r.text(node)
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.applyFont()
	case *ast.CodeSpan:
		return r.codeSpan(node, entering)
	case *ast.FencedCodeBlock:
		if entering {
			r.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeBlock:
		if entering {
			r.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.Blockquote:
		r.blockquote(entering)
	case *ast.List:
		if entering {
			r.listDepth++
		} else {
			r.listDepth--
			if r.listDepth == 0 {
				r.doc.Ln(3)
			}
		}
	case *ast.ListItem:
		if entering {
			r.doc.Ln(lineHt)
			r.doc.SetX(15 + float64(r.listDepth)*5)
			r.doc.Write(lineHt, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			r.doc.Ln(2)
			y := r.doc.GetY()
			r.doc.Line(15, y, 195, y)
			r.doc.Ln(4)
		}
	case *extast.Table:
		if entering {
			r.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *docRenderer) applyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic || r.quoted {
		style += "I"
	}
	r.doc.SetFont(bodyFont, style, bodySize)
}

func (r *docRenderer) heading(n *ast.Heading, entering bool) {
	if entering {
		r.doc.Ln(5)
		size := 16.0
		switch n.Level {
		case 2:
			size = 13
		case 3:
			size = 11.5
		default:
			if n.Level > 3 {
				size = 10.5
			}
		}
		r.doc.SetFont(bodyFont, "B", size)
		return
	}
	r.doc.Ln(8)
	r.applyFont()
}

func (r *docRenderer) text(n *ast.Text) {
	r.doc.Write(lineHt, r.translate(string(n.Text(r.source))))
	if n.SoftLineBreak() {
		r.doc.Write(lineHt, " ")
	} else if n.HardLineBreak() {
		r.doc.Ln(lineHt)
	}
}

func (r *docRenderer) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.doc.SetFont(monoFont, "", bodySize-0.5)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				r.doc.Write(lineHt, r.translate(string(t.Segment.Value(r.source))))
			}
		}
	} else {
		r.applyFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *docRenderer) codeBlock(lines *text.Segments) {
	r.doc.Ln(2)
	r.doc.SetFont(monoFont, "", 8.5)
	r.doc.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		r.doc.MultiCell(0, 4.5, r.translate(line), "", "L", true)
	}
	r.doc.SetFillColor(255, 255, 255)
	r.applyFont()
	r.doc.Ln(2)
}

func (r *docRenderer) blockquote(entering bool) {
	if entering {
		r.quoted = true
		r.doc.SetLeftMargin(20)
		r.doc.SetX(20)
	} else {
		r.quoted = false
		r.doc.SetLeftMargin(15)
	}
	r.applyFont()
}

// table collects the header and body rows and renders them as a grid. Cells
// are single-line; oversized content is truncated with an ellipsis.
func (r *docRenderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader, extast.KindTableRow:
			rows = append(rows, r.tableCells(child))
		}
	}
	r.renderTable(rows)
}

func (r *docRenderer) tableCells(row ast.Node) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); ok {
			cells = append(cells, r.translate(string(c.Text(r.source))))
		}
	}
	return cells
}

func (r *docRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const (
		fontSize = 8.5
		rowHt    = 6.0
		cellPad  = 4.0
	)
	numCols := len(rows[0])

	// Column widths follow the widest cell, measured with the header's bold
	// face for the first row, then scale down together when they overflow.
	widths := make([]float64, numCols)
	r.doc.SetFont(bodyFont, "B", fontSize)
	for i, row := range rows {
		if i == 1 {
			r.doc.SetFont(bodyFont, "", fontSize)
		}
		for j, cell := range row {
			if j >= numCols {
				break
			}
			if w := r.doc.GetStringWidth(cell) + cellPad; w > widths[j] {
				widths[j] = w
			}
		}
	}

	total := 0.0
	for j := range widths {
		if widths[j] < 18 {
			widths[j] = 18
		}
		total += widths[j]
	}
	if total > contentWidth {
		scale := contentWidth / total
		for j := range widths {
			widths[j] *= scale
		}
	}

	r.doc.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.doc.SetFont(bodyFont, "B", fontSize)
			r.doc.SetFillColor(235, 235, 235)
		} else {
			r.doc.SetFont(bodyFont, "", fontSize)
			r.doc.SetFillColor(255, 255, 255)
		}

		if r.doc.GetY()+rowHt > pageBottom {
			r.doc.AddPage()
		}

		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			r.doc.CellFormat(widths[j], rowHt, r.fitCell(cell, widths[j]-2), "1", 0, "L", i == 0, 0, "")
		}
		r.doc.Ln(rowHt)
	}

	r.doc.Ln(3)
	r.applyFont()
}

// fitCell truncates a translated single-byte string to the given width.
func (r *docRenderer) fitCell(s string, width float64) string {
	if r.doc.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 1 && r.doc.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
