package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/omkarpat/dcr-service/internal/model"
)

// Generator renders a monthly report as a workbook: one summary sheet
// plus a detail sheet per form group. It never changes the report's
// numbers, only their layout.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Render(report *model.Report) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for i, group := range report.Groups {
		if len(group.Fields) == 0 {
			continue
		}
		sheetName := buildSheetName(group.Label, i, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeGroupDetail(file, sheetName, report, i); err != nil {
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

func (g *Generator) writeSummary(file *excelize.File, sheet string, report *model.Report) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Branch")
	set("B1", report.Branch.Name)
	set("A2", "Branch code")
	set("B2", report.Branch.Code)
	set("A3", "Period")
	set("B3", report.Period)
	set("A4", "Total consumption")
	set("B4", report.Summary.TotalConsumption)
	set("A5", "Total revenue")
	set("B5", report.Summary.TotalRevenue)
	set("A6", "Cost ratio %")
	set("B6", report.Summary.CostRatio)

	row := 8
	set(fmt.Sprintf("A%d", row), "Customer")
	set(fmt.Sprintf("B%d", row), "Category")
	set(fmt.Sprintf("C%d", row), "Rate")
	set(fmt.Sprintf("D%d", row), "Quantity")
	set(fmt.Sprintf("E%d", row), "Revenue")
	for _, key := range sortedKeys(report.RevenueTotals) {
		rt := report.RevenueTotals[key]
		row++
		set(fmt.Sprintf("A%d", row), rt.CustomerName)
		set(fmt.Sprintf("B%d", row), rt.CategoryName)
		set(fmt.Sprintf("C%d", row), rt.Rate)
		set(fmt.Sprintf("D%d", row), rt.Quantity)
		set(fmt.Sprintf("E%d", row), rt.Revenue)
	}

	row += 2
	set(fmt.Sprintf("A%d", row), "Field")
	set(fmt.Sprintf("B%d", row), "Total")
	fieldKeys := make([]string, 0, len(report.FieldTotals))
	for key := range report.FieldTotals {
		fieldKeys = append(fieldKeys, key)
	}
	sort.Strings(fieldKeys)
	for _, key := range fieldKeys {
		ft := report.FieldTotals[key]
		row++
		set(fmt.Sprintf("A%d", row), ft.Label)
		set(fmt.Sprintf("B%d", row), ft.Total)
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "E", 16)
	return nil
}

func (g *Generator) writeGroupDetail(file *excelize.File, sheet string, report *model.Report, groupIndex int) error {
	group := report.Groups[groupIndex]

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Branch")
	set("B1", report.Branch.Name)
	set("A2", "Group")
	set("B2", group.Label)
	set("A3", "Period")
	set("B3", report.Period)

	tableRow := 5
	headers := []string{"Date", "Day"}
	for _, field := range group.Fields {
		if field.Type == model.FieldTypeDate {
			continue
		}
		headers = append(headers, field.Label, field.Label+" revenue")
	}
	headers = append(headers, "Group total", "Group revenue")
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, day := range report.DailyData {
		row := tableRow + 1 + i
		col := 1
		put := func(value interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			set(cell, value)
			col++
		}
		put(formatDate(day.Date))
		put(day.Day)

		dayGroup := day.Groups[groupIndex]
		for _, field := range group.Fields {
			if field.Type == model.FieldTypeDate {
				continue
			}
			entry := dayGroup.Fields[field.KeyCode]
			put(entry.Value)
			put(entry.Revenue)
		}
		put(dayGroup.Totals.Count)
		put(dayGroup.Totals.Revenue)
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	return nil
}

func buildSheetName(label string, index int, used map[string]struct{}) string {
	base := strings.TrimSpace(label)
	if base == "" {
		base = fmt.Sprintf("Group %d", index+1)
	}
	base = sanitizeSheetName(base)
	if len(base) > 31 {
		base = base[:31]
	}

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		candidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Sheet"
	}
	return value
}

func sortedKeys(totals map[string]model.RevenueTotal) []string {
	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
