package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
	"github.com/omkarpat/dcr-service/internal/repository"
)

// consumptionKey is the field whose value feeds the day's consumption
// figure; it is excluded from field and revenue totals.
const consumptionKey = "consumption"

// ReportService aggregates a month's accepted DCRs into daily and monthly
// summaries priced with the contract rates valid for the period. It
// performs no writes; rebuilding from unchanged inputs yields identical
// output.
type ReportService struct {
	dcrs  *repository.DCRRepository
	forms *repository.FormRepository
	rates *repository.RateRepository
}

func NewReportService(dcrs *repository.DCRRepository, forms *repository.FormRepository, rates *repository.RateRepository) *ReportService {
	return &ReportService{dcrs: dcrs, forms: forms, rates: rates}
}

// Build assembles the report for one branch and month. Schema and rates
// are resolved at the first accepted DCR's date; when the month has no
// accepted DCRs, at the first day of the month, and the report carries the
// resolved groups with zeroed totals.
func (s *ReportService) Build(ctx context.Context, actor model.Actor, branchID uuid.UUID, yearMonth string) (*model.Report, error) {
	if !actor.CanReadBranch(branchID) {
		return nil, ErrPermissionDenied
	}

	from, to, err := MonthWindow(yearMonth)
	if err != nil {
		return nil, err
	}

	branch, err := s.dcrs.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: branch", ErrNotFound)
		}
		return nil, err
	}

	headers, err := s.dcrs.ListAccepted(ctx, branchID, from, to)
	if err != nil {
		return nil, err
	}

	refDate := from
	if len(headers) > 0 {
		refDate = headers[0].DCRDate
	}

	schema, err := s.forms.ResolveForm(ctx, branchID, refDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active form for period", ErrNotFound)
		}
		return nil, err
	}

	resolved, err := s.rates.ResolveRates(ctx, branchID, refDate)
	if err != nil {
		return nil, err
	}
	rates := model.NewRateTable(resolved)

	report := &model.Report{
		Branch:        *branch,
		Period:        yearMonth,
		Groups:        schema.Groups,
		DailyData:     []model.DaySummary{},
		FieldTotals:   map[string]model.FieldTotal{},
		RevenueTotals: map[string]model.RevenueTotal{},
	}

	for _, header := range headers {
		values, err := s.dcrs.ValuesByFieldID(ctx, header.ID)
		if err != nil {
			return nil, err
		}
		day := buildDaySummary(header, schema, rates, values, report)
		report.DailyData = append(report.DailyData, day)
		report.Summary.TotalConsumption += day.Consumption
		report.Summary.TotalRevenue += day.Revenue
	}

	report.Summary.CostRatio = model.CostRatio(report.Summary.TotalConsumption, report.Summary.TotalRevenue)
	return report, nil
}

// buildDaySummary folds one DCR into a day entry, accumulating the
// report-level field and revenue totals as it goes.
func buildDaySummary(
	header model.DCRHeader,
	schema *model.Schema,
	rates model.RateTable,
	values map[uuid.UUID]float64,
	report *model.Report,
) model.DaySummary {
	day := model.DaySummary{
		DCRID:  header.ID,
		Date:   header.DCRDate,
		Day:    weekdayLabel(header.DCRDate),
		Groups: make([]model.DayGroup, 0, len(schema.Groups)),
	}

	for _, group := range schema.Groups {
		dayGroup := model.DayGroup{
			GroupID: group.ID,
			Label:   group.Label,
			Fields:  map[string]model.DayField{},
		}

		for _, field := range group.Fields {
			if field.KeyCode == "date" || field.Type == model.FieldTypeDate {
				continue
			}
			value := values[field.ID]

			if field.KeyCode == consumptionKey {
				day.Consumption = value
				continue
			}

			total := report.FieldTotals[field.KeyCode]
			total.Label = field.Label
			total.CustomerID = field.CustomerID
			total.CategoryID = field.CategoryID
			total.Total += value
			report.FieldTotals[field.KeyCode] = total

			var rate, revenue float64
			if field.Billable() {
				if r, ok := rates.Lookup(*field.CustomerID, *field.CategoryID); ok {
					rate = r.Rate
				}
			}
			if rate > 0 {
				revenue = value * rate
				key := field.CustomerCode + "_" + field.CategoryCode
				rt := report.RevenueTotals[key]
				rt.CustomerCode = field.CustomerCode
				rt.CustomerName = field.CustomerName
				rt.CategoryCode = field.CategoryCode
				rt.CategoryName = field.CategoryName
				rt.Rate = rate
				rt.Quantity += value
				rt.Revenue += revenue
				report.RevenueTotals[key] = rt
			}

			dayGroup.Fields[field.KeyCode] = model.DayField{
				Label:   field.Label,
				Value:   value,
				Rate:    rate,
				Revenue: revenue,
			}
			dayGroup.Totals.Count += value
			dayGroup.Totals.Revenue += revenue
			day.Revenue += revenue
		}

		day.Groups = append(day.Groups, dayGroup)
	}

	day.CostRatio = model.CostRatio(day.Consumption, day.Revenue)
	return day
}

func weekdayLabel(t time.Time) string {
	return strings.ToUpper(t.Weekday().String()[:3])
}
