// Package pdf renders invoices and quotes to A4 PDF files with gofpdf.
package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/jung-kurt/gofpdf"
)

// Line is one row of the items table
type Line struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// Total is one row of the totals box, e.g. "Subtotal" or "Sales Tax (16%)"
type Total struct {
	Label string
	Value string
	Bold  bool
}

// Document is a rendered-ready view of an invoice or quote. All amounts are
// pre-formatted so this package stays free of money rules.
type Document struct {
	Title       string // INVOICE or QUOTE
	Number      string
	Issuer      string
	BillTo      []string
	Dates       [][2]string
	Currency    string
	Lines       []Line
	Totals      []Total
	Notes       string
	Terms       string
	StatusStamp string
}

// Renderer produces a PDF for a document and returns where it was written
type Renderer interface {
	Render(doc Document) (path string, err error)
}

// FileRenderer writes PDFs under a storage directory
type FileRenderer struct {
	dir string
}

// NewFileRenderer creates the output directory if needed
func NewFileRenderer(dir string) (*FileRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create pdf directory %s", dir)
	}
	return &FileRenderer{dir: dir}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Render writes <number>.pdf, replacing any earlier rendering of the same number
func (r *FileRenderer) Render(doc Document) (string, error) {
	data, err := Bytes(doc)
	if err != nil {
		return "", err
	}
	name := unsafeName.ReplaceAllString(doc.Number, "_")
	if name == "" {
		name = "document"
	}
	path := filepath.Join(r.dir, name+".pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// Bytes renders doc into memory
func Bytes(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title+" "+doc.Number, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// issuer
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 8, tr(doc.Issuer))
	pdf.Ln(14)

	pdf.SetFont("Arial", "B", 24)
	pdf.Cell(120, 10, doc.Title)
	if doc.StatusStamp != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.SetTextColor(197, 48, 48)
		pdf.CellFormat(0, 10, doc.StatusStamp, "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 6, "Number: "+doc.Number)
	pdf.Cell(60, 6, "Currency: "+doc.Currency)
	pdf.Ln(6)
	for _, d := range doc.Dates {
		pdf.Cell(60, 6, d[0]+": "+d[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Bill To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	for _, l := range doc.BillTo {
		if l == "" {
			continue
		}
		pdf.Cell(0, 5, tr(l))
		pdf.Ln(5)
	}
	pdf.Ln(10)

	// items
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(100, 8, "Description", "", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "", 0, "R", true, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.SetDrawColor(200, 200, 200)
	for _, item := range doc.Lines {
		pdf.CellFormat(100, 6, tr(item.Description), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, item.Quantity, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, item.UnitPrice, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, item.Amount, "", 0, "R", false, 0, "")
		pdf.Ln(7)
		pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
		pdf.Ln(1)
	}
	pdf.Ln(8)

	for _, t := range doc.Totals {
		style := ""
		if t.Bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.SetX(115)
		pdf.CellFormat(45, 7, t.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, t.Value, "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	if doc.Notes != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Notes")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(doc.Notes), "", "L", false)
	}
	if doc.Terms != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Terms")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(doc.Terms), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}
