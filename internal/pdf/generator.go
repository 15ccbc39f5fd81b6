package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

// Generator renders an estimate as a landscape A4 report. Amounts carry a
// "PHP" prefix because the peso sign is outside the core PDF fonts.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(doc model.EstimateDocument) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "PROJECT COST ESTIMATE", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, doc.Project.Name, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Takeoff version %d, generated %s",
		doc.Version.VersionNumber, formatDate(doc.Estimate.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addContextBlock(pdf, g.fontName, doc.Estimate)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Bill of Quantities", "", 1, "L", false, 0, "")

	headers := []string{"Pay item", "Description", "Unit", "Quantity", "Unit price", "Total amount"}
	colWidths := []float64{28, 110, 16, 26, 38, 42}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, line := range doc.Lines {
		row := []string{
			line.PayItemNumber,
			lineDescription(line),
			line.Unit,
			formatAmount(line.Quantity, 3),
			formatAmount(line.UnitPrice, 2),
			formatAmount(line.TotalAmount, 2),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(4)
	addSummaryBlock(pdf, g.fontName, doc.Estimate)

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Certification", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)

	signatureBlock(pdf, g.fontName, "Prepared by", "Estimator")
	signatureBlock(pdf, g.fontName, "Reviewed by", "Reviewer")
	signatureBlock(pdf, g.fontName, "Approved by", "District Engineer")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addContextBlock(pdf *gofpdf.Fpdf, fontName string, est model.CostEstimate) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, "Pricing context", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Location: %s", safeValue(est.Location)),
		fmt.Sprintf("District: %s", safeValue(est.District)),
		fmt.Sprintf("Price book version: %s", safeValue(est.PriceBookVersion)),
		fmt.Sprintf("Markup: OCM %.2f%%, CP %.2f%%, VAT %.2f%%", est.OCMPct, est.CPPct, est.VATPct),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func addSummaryBlock(pdf *gofpdf.Fpdf, fontName string, est model.CostEstimate) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total direct cost: PHP %s", formatAmount(est.Summary.TotalDirectCost, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("OCM: PHP %s", formatAmount(est.Summary.TotalOCM, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Contractor's profit: PHP %s", formatAmount(est.Summary.TotalCP, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Subtotal with markup: PHP %s", formatAmount(est.Summary.SubtotalWithMarkup, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("VAT: PHP %s", formatAmount(est.Summary.TotalVAT, 2)), "", 1, "R", false, 0, "")

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("GRAND TOTAL: PHP %s", formatAmount(est.Summary.GrandTotal, 2)), "", 1, "R", false, 0, "")

	if est.Summary.UnmappedCount > 0 {
		pdf.SetFont(fontName, "", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, fmt.Sprintf("Note: %d pay item(s) have no unit-price analysis and carry zero cost.", est.Summary.UnmappedCount), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
}

func lineDescription(line model.EstimateLine) string {
	desc := line.Description
	switch {
	case line.DupaNotFound:
		desc += " [no DUPA template]"
	case line.NeedsCanvass:
		desc += " [requires canvass]"
	}
	return desc
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		border := "1"
		align := "L"
		if i > 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, border, 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, role string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s: ______________________ (%s)", label, role), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
