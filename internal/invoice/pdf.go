package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/billdesk/server/internal/model"
)

// Renderer turns one invoice record into a downloadable document.
type Renderer interface {
	Render(inv model.Invoice) ([]byte, error)
}

// PDFRenderer renders invoices with fpdf. It only reads the record; layout
// carries no business logic.
type PDFRenderer struct {
	// Title is printed at the top of every invoice.
	Title string
}

// NewPDFRenderer creates a renderer with the given letterhead title.
func NewPDFRenderer(title string) *PDFRenderer {
	if title == "" {
		title = "TAX INVOICE"
	}
	return &PDFRenderer{Title: title}
}

// Render produces the PDF bytes for one invoice.
func (r *PDFRenderer) Render(inv model.Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, r.Title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Invoice No: %d", inv.InvoiceNumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Date: %s", inv.Date), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Billed To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, inv.Name, "", 1, "L", false, 0, "")
	if inv.Address != "" {
		pdf.MultiCell(0, 6, inv.Address, "", "L", false)
	}
	if inv.ContactNo != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Contact: %s", inv.ContactNo), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	writeRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(120, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 8, value, "1", 1, "R", false, 0, "")
	}

	if inv.Model != "" {
		writeRow("Model", inv.Model, false)
	}
	if inv.Accessories != "" {
		writeRow("Accessories", inv.Accessories, false)
	}
	writeRow("Amount", inv.AmountMain.StringFixed(2), false)
	writeRow("GST", inv.GST.StringFixed(2), false)
	writeRow("Other Charges", inv.Other.StringFixed(2), false)
	writeRow("Total", inv.Total.StringFixed(2), true)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, inv.RupeesInWords, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, inv.BankDetails, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
