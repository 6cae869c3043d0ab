package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'dcr_status') THEN
			CREATE TYPE dcr_status AS ENUM ('DRAFT', 'SUBMITTED', 'ACCEPTED', 'REJECTED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS branches (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(16) NOT NULL,
		name VARCHAR(128) NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_branches_code ON branches (code);`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(32) NOT NULL UNIQUE,
		name VARCHAR(128) NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS contract_categories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		code VARCHAR(32) NOT NULL UNIQUE,
		name VARCHAR(128) NOT NULL,
		uom VARCHAR(16)
	);`,
	`CREATE TABLE IF NOT EXISTS forms (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		branch_id UUID NOT NULL REFERENCES branches(id),
		valid_from DATE NOT NULL,
		valid_to DATE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_forms_branch_validity ON forms (branch_id, valid_from);`,
	`CREATE TABLE IF NOT EXISTS form_groups (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		form_id UUID NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
		label VARCHAR(128) NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS form_fields (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		form_id UUID NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
		group_id UUID REFERENCES form_groups(id) ON DELETE SET NULL,
		key_code VARCHAR(64) NOT NULL,
		label VARCHAR(128) NOT NULL,
		data_type VARCHAR(16) NOT NULL,
		required BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INT NOT NULL DEFAULT 0,
		customer_id UUID REFERENCES customers(id),
		category_id UUID REFERENCES contract_categories(id)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_form_fields_form_key ON form_fields (form_id, key_code);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		branch_id UUID NOT NULL REFERENCES branches(id),
		customer_id UUID NOT NULL REFERENCES customers(id),
		valid_from DATE NOT NULL,
		valid_to DATE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_branch_validity ON contracts (branch_id, valid_from);`,
	`CREATE TABLE IF NOT EXISTS contract_rates (
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES contract_categories(id),
		rate NUMERIC(18,4) NOT NULL,
		PRIMARY KEY (contract_id, category_id)
	);`,
	`CREATE TABLE IF NOT EXISTS dcr_header (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		branch_id UUID NOT NULL REFERENCES branches(id),
		form_id UUID NOT NULL REFERENCES forms(id),
		dcr_number VARCHAR(64) NOT NULL,
		dcr_date DATE NOT NULL,
		status dcr_status NOT NULL DEFAULT 'DRAFT',
		reject_reason VARCHAR(255),
		created_by UUID NOT NULL,
		updated_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_dcr_header_branch_date ON dcr_header (branch_id, dcr_date);`,
	`CREATE INDEX IF NOT EXISTS idx_dcr_header_status ON dcr_header (status);`,
	`CREATE TABLE IF NOT EXISTS dcr_values (
		dcr_id UUID NOT NULL REFERENCES dcr_header(id) ON DELETE CASCADE,
		field_id UUID NOT NULL REFERENCES form_fields(id),
		value_num NUMERIC(18,3) NOT NULL DEFAULT 0,
		PRIMARY KEY (dcr_id, field_id)
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
