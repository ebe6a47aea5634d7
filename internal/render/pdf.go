package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	fontFamily = "Arial"
	baseSize   = 10.0
	lineHeight = 5.0
	margin     = 15.0
	pageWidth  = 210.0 - 2*margin
)

// PDF renders the report's markdown onto A4 pages.
func PDF(r domain.Report) ([]byte, error) {
	return markdownToPDF(Markdown(r), r)
}

func markdownToPDF(markdown string, r domain.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("BTR Investment Report", true)
	pdf.SetSubject(r.Profile.Address, true)
	pdf.SetCreator("btr-propflip", true)
	if !r.GeneratedAt.IsZero() {
		pdf.SetCreationDate(r.GeneratedAt)
		pdf.SetModificationDate(r.GeneratedAt)
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin + 5)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", baseSize)

	source := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		size:   baseSize,
	}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfWriter walks a goldmark AST and draws it with fpdf.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string // UTF-8 to cp1252, so "£" survives the core fonts
	size   float64
	bold   bool
	italic bool
	depth  int // list nesting
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(fontFamily, style, w.size)
}

func (w *pdfWriter) write(s string) {
	w.pdf.Write(max(lineHeight, w.size*0.45), w.tr(s))
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.Heading:
		w.heading(n, entering)
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(lineHeight + 2)
		}
	case *ast.Text:
		if entering {
			w.write(string(util.UnescapePunctuations(n.Segment.Value(w.source))))
			switch {
			case n.HardLineBreak():
				w.pdf.Ln(lineHeight)
			case n.SoftLineBreak():
				w.write(" ")
			}
		}
	case *ast.String:
		if entering {
			w.write(string(n.Value))
		}
	case *ast.Emphasis:
		if n.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.setFont()
	case *ast.List:
		w.list(entering)
	case *ast.ListItem:
		if entering {
			w.pdf.SetX(margin + float64(w.depth)*5)
			w.write("- ")
		}
	case *ast.TextBlock:
		if !entering {
			w.pdf.Ln(lineHeight)
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			y := w.pdf.GetY()
			w.pdf.Line(margin, y, margin+pageWidth, y)
			w.pdf.Ln(3)
		}
	case *extast.Table:
		if entering {
			w.table(n)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) heading(n *ast.Heading, entering bool) {
	if !entering {
		w.pdf.Ln(lineHeight + 3)
		w.bold = false
		w.size = baseSize
		w.setFont()
		return
	}
	w.pdf.Ln(3)
	switch n.Level {
	case 1:
		w.size = 18
	case 2:
		w.size = 13
	default:
		w.size = 11
	}
	w.bold = true
	w.setFont()
}

func (w *pdfWriter) list(entering bool) {
	if entering {
		w.depth++
		return
	}
	w.depth--
	if w.depth == 0 {
		w.pdf.Ln(2)
	}
}

func (w *pdfWriter) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var row []string
			for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
				row = append(row, w.plainText(cell))
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const size, cellLine = 9.0, 4.5
	widths := w.columnWidths(rows, size)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(fontFamily, style, size)

		lines := make([][]string, len(row))
		height := 1
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			// SplitText works on runes, so translate after splitting.
			lines[j] = w.pdf.SplitText(cell, widths[j]-2)
			height = max(height, len(lines[j]))
		}
		rowHeight := float64(height)*cellLine + 2

		_, pageHeight := w.pdf.GetPageSize()
		if w.pdf.GetY()+rowHeight > pageHeight-margin {
			w.pdf.AddPage()
		}
		x, y := margin, w.pdf.GetY()
		for j := range widths {
			if i == 0 {
				w.pdf.SetFillColor(230, 230, 230)
				w.pdf.Rect(x, y, widths[j], rowHeight, "FD")
			} else {
				w.pdf.Rect(x, y, widths[j], rowHeight, "D")
			}
			for k, line := range lines[j] {
				w.pdf.SetXY(x+1, y+1+float64(k)*cellLine)
				w.pdf.CellFormat(widths[j]-2, cellLine, w.tr(line), "", 0, "L", false, 0, "")
			}
			x += widths[j]
		}
		w.pdf.SetXY(margin, y+rowHeight)
	}
	w.pdf.Ln(4)
	w.setFont()
}

// columnWidths sizes columns to their widest cell, then scales the set to
// span the page.
func (w *pdfWriter) columnWidths(rows [][]string, size float64) []float64 {
	widths := make([]float64, len(rows[0]))
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(fontFamily, style, size)
		for j, cell := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], w.pdf.GetStringWidth(w.tr(cell))+4, 15)
			}
		}
	}
	total := 0.0
	for _, wd := range widths {
		total += wd
	}
	for j := range widths {
		widths[j] *= pageWidth / total
	}
	return widths
}

func (w *pdfWriter) plainText(n ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(util.UnescapePunctuations(c.Segment.Value(w.source)))
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
