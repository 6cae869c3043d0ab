package model

import (
	"time"

	"github.com/google/uuid"
)

// Report is a deterministic read-side projection of one month's accepted
// DCRs priced with the contract rates in effect for the period. Renderers
// (JSON, xlsx, pdf) consume it as-is and may change layout only.
type Report struct {
	Branch        Branch                  `json:"branch"`
	Period        string                  `json:"period"` // yyyy-mm
	Groups        []SchemaGroup           `json:"groups"`
	DailyData     []DaySummary            `json:"dailyData"`
	FieldTotals   map[string]FieldTotal   `json:"fieldTotals"`   // keyed by field key code
	RevenueTotals map[string]RevenueTotal `json:"revenueTotals"` // keyed by customerCode_categoryCode
	Summary       ReportSummary           `json:"summary"`
}

type DaySummary struct {
	DCRID       uuid.UUID  `json:"id"`
	Date        time.Time  `json:"date"`
	Day         string     `json:"day"` // MON..SUN
	Groups      []DayGroup `json:"groups"`
	Consumption float64    `json:"consumption"`
	Revenue     float64    `json:"revenue"`
	CostRatio   float64    `json:"costRatio"`
}

type DayGroup struct {
	GroupID *uuid.UUID          `json:"groupId"`
	Label   string              `json:"label"`
	Fields  map[string]DayField `json:"fields"` // keyed by field key code
	Totals  DayGroupTotals      `json:"totals"`
}

type DayField struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Rate    float64 `json:"rate"`
	Revenue float64 `json:"revenue"`
}

type DayGroupTotals struct {
	Count   float64 `json:"count"`
	Revenue float64 `json:"revenue"`
}

type FieldTotal struct {
	Label      string     `json:"label"`
	Total      float64    `json:"total"`
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty"`
}

type RevenueTotal struct {
	CustomerCode string  `json:"customerCode"`
	CustomerName string  `json:"customerName"`
	CategoryCode string  `json:"categoryCode"`
	CategoryName string  `json:"categoryName"`
	Rate         float64 `json:"rate"`
	Quantity     float64 `json:"quantity"`
	Revenue      float64 `json:"revenue"`
}

type ReportSummary struct {
	TotalConsumption float64 `json:"totalConsumption"`
	TotalRevenue     float64 `json:"totalRevenue"`
	CostRatio        float64 `json:"costRatio"`
}

// CostRatio is consumption expressed as a percentage of revenue.
// Zero when there is no revenue: the ratio never divides by zero.
func CostRatio(consumption, revenue float64) float64 {
	if revenue <= 0 {
		return 0
	}
	return consumption / revenue * 100
}
