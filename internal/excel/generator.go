package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders an estimate workbook: a summary sheet with the project
// header and cost rollup, a bill-of-quantities sheet listing every priced
// line, and one unit-price-analysis sheet per line that has resolved items.
func (g *Generator) Generate(doc model.EstimateDocument) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, doc); err != nil {
		return nil, err
	}

	boqSheet := "Bill of Quantities"
	file.NewSheet(boqSheet)
	if err := g.writeLines(file, boqSheet, doc); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}, boqSheet: {}}
	for _, line := range doc.Lines {
		if len(line.Items) == 0 {
			continue
		}
		sheetName := buildSheetName(line.PayItemNumber, line.ID, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeAnalysis(file, sheetName, doc.Estimate, line); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, doc model.EstimateDocument) error {
	est := doc.Estimate

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Project")
	set("B1", doc.Project.Name)
	set("A2", "Location")
	set("B2", est.Location)
	set("A3", "District")
	set("B3", est.District)
	set("A4", "Price book version")
	set("B4", est.PriceBookVersion)
	set("A5", "Takeoff version")
	set("B5", doc.Version.VersionNumber)
	set("A6", "Status")
	set("B6", string(est.Status))
	set("A7", "Generated")
	set("B7", formatDate(est.CreatedAt))

	tableRow := 9
	set(fmt.Sprintf("A%d", tableRow), "Total direct cost")
	set(fmt.Sprintf("B%d", tableRow), formatAmount(est.Summary.TotalDirectCost))
	set(fmt.Sprintf("A%d", tableRow+1), fmt.Sprintf("OCM (%s%%)", formatPct(est.OCMPct)))
	set(fmt.Sprintf("B%d", tableRow+1), formatAmount(est.Summary.TotalOCM))
	set(fmt.Sprintf("A%d", tableRow+2), fmt.Sprintf("Contractor's profit (%s%%)", formatPct(est.CPPct)))
	set(fmt.Sprintf("B%d", tableRow+2), formatAmount(est.Summary.TotalCP))
	set(fmt.Sprintf("A%d", tableRow+3), "Subtotal with markup")
	set(fmt.Sprintf("B%d", tableRow+3), formatAmount(est.Summary.SubtotalWithMarkup))
	set(fmt.Sprintf("A%d", tableRow+4), fmt.Sprintf("VAT (%s%%)", formatPct(est.VATPct)))
	set(fmt.Sprintf("B%d", tableRow+4), formatAmount(est.Summary.TotalVAT))
	set(fmt.Sprintf("A%d", tableRow+5), "Grand total")
	set(fmt.Sprintf("B%d", tableRow+5), formatAmount(est.Summary.GrandTotal))

	noteRow := tableRow + 7
	set(fmt.Sprintf("A%d", noteRow), "Pay items")
	set(fmt.Sprintf("B%d", noteRow), est.Summary.LineCount)
	if est.Summary.UnmappedCount > 0 {
		set(fmt.Sprintf("A%d", noteRow+1), "Unmapped pay items")
		set(fmt.Sprintf("B%d", noteRow+1), est.Summary.UnmappedCount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func (g *Generator) writeLines(file *excelize.File, sheet string, doc model.EstimateDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Pay item",
		"Description",
		"Unit",
		"Quantity",
		"Direct cost/unit",
		"Unit price",
		"Total amount",
		"Remarks",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, line := range doc.Lines {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), line.PayItemNumber)
		set(fmt.Sprintf("B%d", row), line.Description)
		set(fmt.Sprintf("C%d", row), line.Unit)
		set(fmt.Sprintf("D%d", row), formatQuantity(line.Quantity))
		set(fmt.Sprintf("E%d", row), formatAmount(line.DirectCost))
		set(fmt.Sprintf("F%d", row), formatAmount(line.UnitPrice))
		set(fmt.Sprintf("G%d", row), formatAmount(line.TotalAmount))
		set(fmt.Sprintf("H%d", row), lineRemarks(line))
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 48)
	_ = file.SetColWidth(sheet, "C", "C", 8)
	_ = file.SetColWidth(sheet, "D", "G", 16)
	_ = file.SetColWidth(sheet, "H", "H", 24)
	return nil
}

func (g *Generator) writeAnalysis(file *excelize.File, sheet string, est model.CostEstimate, line model.EstimateLine) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Pay item")
	set("B1", line.PayItemNumber)
	set("A2", "Description")
	set("B2", line.Description)
	set("A3", "Unit")
	set("B3", line.Unit)
	set("A4", "Quantity")
	set("B4", formatQuantity(line.Quantity))

	tableRow := 6
	headers := []string{
		"Kind",
		"Description",
		"Persons/Units",
		"Hours",
		"Quantity",
		"Unit rate",
		"Amount",
		"Source",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, item := range line.Items {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(item.Kind))
		set(fmt.Sprintf("B%d", row), item.Description)
		set(fmt.Sprintf("C%d", row), formatCrewSize(item))
		set(fmt.Sprintf("D%d", row), formatOptional(item.Hours))
		set(fmt.Sprintf("E%d", row), formatOptional(item.Quantity))
		set(fmt.Sprintf("F%d", row), formatAmount(item.UnitRate))
		set(fmt.Sprintf("G%d", row), formatAmount(item.Amount))
		set(fmt.Sprintf("H%d", row), itemSource(item))
	}

	totalsRow := tableRow + len(line.Items) + 2
	totals := []struct {
		label string
		value float64
	}{
		{"Labor", line.LaborCost},
		{"Equipment", line.EquipmentCost},
		{"Materials", line.MaterialCost},
		{"Direct cost per unit", line.DirectCost},
		{fmt.Sprintf("OCM (%s%%)", formatPct(est.OCMPct)), line.OCMCost},
		{fmt.Sprintf("CP (%s%%)", formatPct(est.CPPct)), line.CPCost},
		{fmt.Sprintf("VAT (%s%%)", formatPct(est.VATPct)), line.VATCost},
		{"Unit price", line.UnitPrice},
		{"Total amount", line.TotalAmount},
	}
	for i, total := range totals {
		set(fmt.Sprintf("A%d", totalsRow+i), total.label)
		set(fmt.Sprintf("B%d", totalsRow+i), formatAmount(total.value))
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "H", 14)
	return nil
}

func lineRemarks(line model.EstimateLine) string {
	switch {
	case line.DupaNotFound:
		return "No DUPA template"
	case line.NeedsCanvass:
		return "Requires canvass"
	default:
		return ""
	}
}

func itemSource(item model.CostItem) string {
	if item.RequiresCanvass {
		return "CANVASS REQUIRED"
	}
	return string(item.Source)
}

func buildSheetName(payItem string, id uuid.UUID, used map[string]struct{}) string {
	base := strings.TrimSpace(payItem)
	if base == "" {
		base = id.String()
	}
	base = sanitizeSheetName("Item " + base)

	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatQuantity(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func formatOptional(value float64) string {
	if value == 0 {
		return ""
	}
	return fmt.Sprintf("%.3f", value)
}

func formatCrewSize(item model.CostItem) string {
	switch item.Kind {
	case model.CostItemLabor:
		return formatOptional(item.Persons)
	case model.CostItemEquipment:
		return formatOptional(item.Units)
	default:
		return ""
	}
}

func formatPct(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", value), "0"), ".")
}
