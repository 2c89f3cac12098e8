package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/landbridge/contract-ledger/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the contract appendix issued for an approved change
// request: the request summary plus the resource and billing deltas it
// carries.
func (g *Generator) Generate(doc model.AppendixDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Contract Appendix %s", doc.Appendix.AppendixNumber), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract: %s (v%d)", doc.Contract.Name, doc.Contract.Version), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Change Request: %s — %s", doc.ChangeRequest.DisplayID, doc.ChangeRequest.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Change Request Details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Type: %s", doc.ChangeRequest.Type), "", 1, "L", false, 0, "")
	if doc.ChangeRequest.EffectiveFrom != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Effective from: %s", formatDate(*doc.ChangeRequest.EffectiveFrom)), "", 1, "L", false, 0, "")
	}
	if doc.ChangeRequest.Description != "" {
		pdf.MultiCell(0, 5, doc.ChangeRequest.Description, "", "L", false)
	}
	pdf.Ln(4)

	if len(doc.ResourceEvents) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Resource Changes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)

		headers := []string{"Action", "Engineer", "Role", "Level", "Effective"}
		widths := []float64{25, 55, 45, 25, 30}
		drawTableRow(pdf, headers, widths, true)

		for _, event := range doc.ResourceEvents {
			row := []string{
				string(event.Action),
				shortID(event.EngineerID.String()),
				orDash(event.Role),
				orDash(event.Level),
				formatDate(event.EffectiveStart),
			}
			drawTableRow(pdf, row, widths, false)
		}
		pdf.Ln(4)
	}

	if len(doc.BillingEvents) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Billing Adjustments", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)

		headers := []string{"Month", "Delta", "Description"}
		widths := []float64{30, 35, 115}
		drawTableRow(pdf, headers, widths, true)

		for _, event := range doc.BillingEvents {
			row := []string{
				event.BillingMonth.Format("2006-01"),
				event.DeltaAmount.StringFixed(2),
				event.Description,
			}
			drawTableRow(pdf, row, widths, false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, cells []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}
