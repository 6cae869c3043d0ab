package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testSchema = []string{
	`CREATE TABLE branches (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE contract_categories (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		uom TEXT
	)`,
	`CREATE TABLE forms (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		valid_from TIMESTAMP NOT NULL,
		valid_to TIMESTAMP
	)`,
	`CREATE TABLE form_groups (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL,
		label TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE form_fields (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL,
		group_id TEXT,
		key_code TEXT NOT NULL,
		label TEXT NOT NULL,
		data_type TEXT NOT NULL,
		required INTEGER NOT NULL DEFAULT 0,
		sort_order INTEGER NOT NULL DEFAULT 0,
		customer_id TEXT,
		category_id TEXT
	)`,
	`CREATE TABLE contracts (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		valid_from TIMESTAMP NOT NULL,
		valid_to TIMESTAMP
	)`,
	`CREATE TABLE contract_rates (
		contract_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		rate REAL NOT NULL,
		PRIMARY KEY (contract_id, category_id)
	)`,
	`CREATE TABLE dcr_header (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		form_id TEXT NOT NULL,
		dcr_number TEXT NOT NULL,
		dcr_date TIMESTAMP NOT NULL,
		status TEXT NOT NULL,
		reject_reason TEXT,
		created_by TEXT NOT NULL,
		updated_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX uq_dcr_header_branch_date ON dcr_header (branch_id, dcr_date)`,
	`CREATE TABLE dcr_values (
		dcr_id TEXT NOT NULL,
		field_id TEXT NOT NULL,
		value_num REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (dcr_id, field_id)
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedBranch(t *testing.T, db *gorm.DB, code string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO branches (id, code, name) VALUES (?, ?, ?)`,
		id, code, code+" Branch",
	).Error)
	return id
}

func seedForm(t *testing.T, db *gorm.DB, branchID uuid.UUID, validFrom time.Time, validTo *time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO forms (id, branch_id, valid_from, valid_to) VALUES (?, ?, ?, ?)`,
		id, branchID, validFrom, validTo,
	).Error)
	return id
}

func seedField(t *testing.T, db *gorm.DB, formID uuid.UUID, groupID *uuid.UUID, key, label, dataType string, sortOrder int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO form_fields (id, form_id, group_id, key_code, label, data_type, required, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		id, formID, groupID, key, label, dataType, sortOrder,
	).Error)
	return id
}

func seedContract(t *testing.T, db *gorm.DB, branchID, customerID uuid.UUID, validFrom time.Time, validTo *time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO contracts (id, branch_id, customer_id, valid_from, valid_to) VALUES (?, ?, ?, ?, ?)`,
		id, branchID, customerID, validFrom, validTo,
	).Error)
	return id
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
