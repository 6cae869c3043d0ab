package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/omkarpat/dcr-service/internal/model"
)

// Generator renders a monthly report as a PDF document. Layout only; the
// figures are taken from the report unchanged.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Render(report *model.Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	// Core fonts are cp1252; UTF-8 names must go through the translator.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s - Daily Consumption Report %s", report.Branch.Name, report.Period)), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Branch code: %s", report.Branch.Code)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Daily totals", "", 1, "L", false, 0, "")

	headers := []string{"Date", "Day", "Consumption", "Revenue", "Cost ratio %"}
	colWidths := []float64{40, 25, 50, 50, 40}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, day := range report.DailyData {
		row := []string{
			formatDate(day.Date),
			day.Day,
			formatAmount(day.Consumption, 2),
			formatAmount(day.Revenue, 2),
			formatAmount(day.CostRatio, 2),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Revenue by customer and category", "", 1, "L", false, 0, "")

	revHeaders := []string{"Customer", "Category", "Rate", "Quantity", "Revenue"}
	revWidths := []float64{70, 60, 40, 40, 45}
	drawTableRow(pdf, g.fontName, revHeaders, revWidths, true)
	for _, key := range sortedKeys(report.RevenueTotals) {
		rt := report.RevenueTotals[key]
		row := []string{
			tr(rt.CustomerName),
			tr(rt.CategoryName),
			formatAmount(rt.Rate, 2),
			formatAmount(rt.Quantity, 2),
			formatAmount(rt.Revenue, 2),
		}
		drawTableRow(pdf, g.fontName, row, revWidths, false)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total consumption: %s", formatAmount(report.Summary.TotalConsumption, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total revenue: %s", formatAmount(report.Summary.TotalRevenue, 2)), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Cost ratio: %s%%", formatAmount(report.Summary.CostRatio, 2)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func sortedKeys(totals map[string]model.RevenueTotal) []string {
	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
