package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageWidth  = 190.0 // A4 minus margins
	lineHeight = 5.0
)

// PDFRenderer implements interfaces.PDFRenderer with goldmark and fpdf
type PDFRenderer struct {
	logger arbor.ILogger
}

var _ interfaces.PDFRenderer = (*PDFRenderer)(nil)

func NewPDFRenderer(logger arbor.ILogger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// RenderMarkdown renders headings, paragraphs, emphasis, lists, code and tables.
// Table cells holding an outcome status are shaded by status.
func (p *PDFRenderer) RenderMarkdown(markdown, title string) ([]byte, error) {
	p.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Rendering report PDF")

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(title, true)
	doc.SetCreator("uiprobe", true)
	doc.SetMargins(10, 10, 10)
	doc.SetAutoPageBreak(true, 10)
	doc.AddPage()
	doc.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	source := []byte(markdown)
	root := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{pdf: doc, source: source, size: 9}
	if err := ast.Walk(root, w.walk); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	p.logger.Debug().Int("pdf_size", buf.Len()).Msg("Report PDF rendered")
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont("Arial", style, w.size)
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(4)
			sizes := map[int]float64{1: 14, 2: 12, 3: 11}
			size, ok := sizes[node.Level]
			if !ok {
				size = 10
			}
			w.pdf.SetFont("Arial", "B", size)
		} else {
			w.pdf.Ln(7)
			w.setFont()
		}

	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(lineHeight + 1)
		}

	case *ast.Text:
		if entering {
			w.pdf.Write(lineHeight, string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.pdf.Write(lineHeight, " ")
			}
		}

	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.setFont()

	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", w.size)
			w.pdf.Write(lineHeight, string(node.Text(w.source)))
			w.setFont()
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.codeBlock(n.Lines())
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			w.listLevel++
		} else {
			w.listLevel--
			if w.listLevel == 0 {
				w.pdf.Ln(2)
			}
		}

	case *ast.ListItem:
		if entering {
			w.pdf.Ln(lineHeight)
			w.pdf.SetX(10 + float64(w.listLevel)*5)
			w.pdf.Write(lineHeight, "- ")
		}

	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			w.pdf.Line(10, w.pdf.GetY(), 200, w.pdf.GetY())
			w.pdf.Ln(2)
		}

	case *extast.Table:
		if entering {
			w.table(w.tableRows(node))
		}
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func (w *pdfWriter) codeBlock(lines *text.Segments) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Courier", "", 8)
	w.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.pdf.MultiCell(0, 4, strings.TrimRight(string(line.Value(w.source)), "\n"), "", "L", true)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.setFont()
	w.pdf.Ln(2)
}

func (w *pdfWriter) tableRows(table *extast.Table) [][]string {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.ReplaceAll(string(cell.Text(w.source)), `\|`, "|"))
		}
		rows = append(rows, cells)
	}
	return rows
}

// table draws rows with the first row as header. Columns share the page width in
// proportion to their widest cell.
func (w *pdfWriter) table(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	const cellLine = 4.0
	cols := len(rows[0])

	w.pdf.Ln(2)
	w.pdf.SetFont("Arial", "", 8)
	widths := make([]float64, cols)
	total := 0.0
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			widths[j] = max(widths[j], min(w.pdf.GetStringWidth(row[j])+4, pageWidth/2))
		}
	}
	for j := range widths {
		widths[j] = max(widths[j], 10)
		total += widths[j]
	}
	for j := range widths {
		widths[j] *= pageWidth / total
	}

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont("Arial", style, 8)

		lines := make([][]string, cols)
		height := 1
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			lines[j] = w.pdf.SplitText(cell, widths[j]-2)
			height = max(height, len(lines[j]))
		}
		rowHeight := float64(height)*cellLine + 2

		_, pageHeight := w.pdf.GetPageSize()
		if w.pdf.GetY()+rowHeight > pageHeight-10 {
			w.pdf.AddPage()
		}

		x, y := w.pdf.GetX(), w.pdf.GetY()
		for j := 0; j < cols; j++ {
			r, g, b := cellFill(i == 0, lines[j])
			w.pdf.SetFillColor(r, g, b)
			w.pdf.Rect(x, y, widths[j], rowHeight, "FD")
			for k, line := range lines[j] {
				w.pdf.SetXY(x+1, y+1+float64(k)*cellLine)
				w.pdf.CellFormat(widths[j]-2, cellLine, line, "", 0, "L", false, 0, "")
			}
			x += widths[j]
		}
		w.pdf.SetXY(10, y+rowHeight)
	}

	w.pdf.SetFillColor(255, 255, 255)
	w.pdf.Ln(3)
	w.setFont()
}

func cellFill(header bool, lines []string) (int, int, int) {
	if header {
		return 230, 230, 230
	}
	if len(lines) == 1 {
		switch models.OutcomeStatus(strings.TrimSpace(lines[0])) {
		case models.StatusPass:
			return 220, 245, 220
		case models.StatusFail:
			return 250, 215, 215
		case models.StatusUnknown:
			return 252, 240, 200
		}
	}
	return 255, 255, 255
}
