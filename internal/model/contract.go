package model

import (
	"time"

	"github.com/google/uuid"
)

type Contract struct {
	ID         uuid.UUID
	BranchID   uuid.UUID
	CustomerID uuid.UUID
	ValidFrom  time.Time
	ValidTo    *time.Time
}

// Rate is one resolved (customer, category) price in effect for a period.
type Rate struct {
	ContractID   uuid.UUID `json:"contractId"`
	CustomerID   uuid.UUID `json:"customerId"`
	CustomerCode string    `json:"customerCode"`
	CustomerName string    `json:"customerName"`
	CategoryID   uuid.UUID `json:"categoryId"`
	CategoryCode string    `json:"categoryCode"`
	CategoryName string    `json:"categoryName"`
	Rate         float64   `json:"rate"`
}

// RateTable indexes resolved rates by (customer, category).
type RateTable struct {
	rates map[rateKey]Rate
}

type rateKey struct {
	customerID uuid.UUID
	categoryID uuid.UUID
}

func NewRateTable(rates []Rate) RateTable {
	table := RateTable{rates: make(map[rateKey]Rate, len(rates))}
	for _, r := range rates {
		table.rates[rateKey{r.CustomerID, r.CategoryID}] = r
	}
	return table
}

// Lookup returns the rate for a (customer, category) pair, false when no
// contract prices that pair for the period.
func (t RateTable) Lookup(customerID, categoryID uuid.UUID) (Rate, bool) {
	r, ok := t.rates[rateKey{customerID, categoryID}]
	return r, ok
}

func (t RateTable) Len() int {
	return len(t.rates)
}
