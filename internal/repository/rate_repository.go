package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omkarpat/dcr-service/internal/model"
)

// RateRepository resolves contract pricing valid for a date.
type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ResolveRates returns every (customer, category, rate) triple priced by a
// contract whose validity window contains date. Rows are ordered by
// contract valid_from ascending so that building a table from them lets
// the latest valid_from win on overlapping contracts.
func (r *RateRepository) ResolveRates(ctx context.Context, branchID uuid.UUID, date time.Time) ([]model.Rate, error) {
	var rows []struct {
		ContractID   uuid.UUID
		CustomerID   uuid.UUID
		CustomerCode string
		CustomerName string
		CategoryID   uuid.UUID
		CategoryCode string
		CategoryName string
		Rate         float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			con.id AS contract_id,
			con.customer_id,
			cu.code AS customer_code,
			cu.name AS customer_name,
			cr.category_id,
			cat.code AS category_code,
			cat.name AS category_name,
			cr.rate
		FROM contracts con
		JOIN customers cu ON cu.id = con.customer_id
		JOIN contract_rates cr ON cr.contract_id = con.id
		JOIN contract_categories cat ON cat.id = cr.category_id
		WHERE con.branch_id = ?
			AND con.valid_from <= ?
			AND (con.valid_to IS NULL OR con.valid_to > ?)
		ORDER BY con.valid_from ASC, con.id ASC, cat.code ASC
	`, branchID, date, date).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	rates := make([]model.Rate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, model.Rate{
			ContractID:   row.ContractID,
			CustomerID:   row.CustomerID,
			CustomerCode: row.CustomerCode,
			CustomerName: row.CustomerName,
			CategoryID:   row.CategoryID,
			CategoryCode: row.CategoryCode,
			CategoryName: row.CategoryName,
			Rate:         row.Rate,
		})
	}
	return rates, nil
}
