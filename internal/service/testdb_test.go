package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/omkarpat/dcr-service/internal/model"
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

// fixture is one branch with a form valid from 2024-01-01 (open-ended):
// an ungrouped consumption field plus a "Sales" group holding a billable
// decimal field (milk) and a plain integer field (crates). One contract
// prices milk at 50.00 for customer C / category Cat.
type fixture struct {
	db         *gorm.DB
	branchID   uuid.UUID
	formID     uuid.UUID
	groupID    uuid.UUID
	customerID uuid.UUID
	categoryID uuid.UUID
	fieldIDs   map[string]uuid.UUID
}

func seedFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		db:         db,
		branchID:   uuid.New(),
		formID:     uuid.New(),
		groupID:    uuid.New(),
		customerID: uuid.New(),
		categoryID: uuid.New(),
		fieldIDs:   map[string]uuid.UUID{},
	}

	require.NoError(t, db.Exec(
		`INSERT INTO branches (id, code, name) VALUES (?, ?, ?)`,
		f.branchID, "B1", "Central Branch",
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO customers (id, code, name) VALUES (?, ?, ?)`,
		f.customerID, "C", "Dairy Co",
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO contract_categories (id, code, name, uom) VALUES (?, ?, ?, ?)`,
		f.categoryID, "Cat", "Milk Supply", "L",
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO forms (id, branch_id, valid_from, valid_to) VALUES (?, ?, ?, NULL)`,
		f.formID, f.branchID, date(2024, 1, 1),
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO form_groups (id, form_id, label, sort_order) VALUES (?, ?, ?, 0)`,
		f.groupID, f.formID, "Sales",
	).Error)

	f.addField(t, "consumption", "Consumption", "decimal", false, nil, nil, nil, 0)
	f.addField(t, "milk", "Milk", "decimal", true, &f.groupID, &f.customerID, &f.categoryID, 0)
	f.addField(t, "crates", "Crates", "integer", false, &f.groupID, nil, nil, 1)

	contractID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO contracts (id, branch_id, customer_id, valid_from, valid_to) VALUES (?, ?, ?, ?, NULL)`,
		contractID, f.branchID, f.customerID, date(2024, 1, 1),
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO contract_rates (contract_id, category_id, rate) VALUES (?, ?, ?)`,
		contractID, f.categoryID, 50.0,
	).Error)

	return f
}

func (f *fixture) addField(
	t *testing.T,
	key, label, dataType string,
	required bool,
	groupID, customerID, categoryID *uuid.UUID,
	sortOrder int,
) {
	t.Helper()
	id := uuid.New()
	f.fieldIDs[key] = id
	req := 0
	if required {
		req = 1
	}
	require.NoError(t, f.db.Exec(
		`INSERT INTO form_fields (id, form_id, group_id, key_code, label, data_type, required, sort_order, customer_id, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.formID, groupID, key, label, dataType, req, sortOrder, customerID, categoryID,
	).Error)
}

func branchActor(branchID uuid.UUID) model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleBranch, BranchID: branchID}
}

func adminActor() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
}

func viewerActor() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleViewer}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
