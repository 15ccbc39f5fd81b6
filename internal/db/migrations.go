package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'takeoff_version_status') THEN
			CREATE TYPE takeoff_version_status AS ENUM ('DRAFT', 'SUBMITTED', 'APPROVED', 'REJECTED', 'SUPERSEDED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'cost_estimate_status') THEN
			CREATE TYPE cost_estimate_status AS ENUM ('DRAFT', 'SUBMITTED', 'APPROVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'material_price_source') THEN
			CREATE TYPE material_price_source AS ENUM ('PRICE_BOOK', 'CANVASS');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		location VARCHAR(128) NOT NULL,
		district VARCHAR(128) NOT NULL,
		active_version_id UUID,
		created_by_org_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS takeoff_versions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id),
		version_number INT NOT NULL,
		status takeoff_version_status NOT NULL DEFAULT 'DRAFT',
		remarks TEXT,
		rejection_reason TEXT,
		submitted_by_id UUID,
		submitted_at TIMESTAMPTZ,
		approved_by_id UUID,
		approved_at TIMESTAMPTZ,
		created_by_user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_takeoff_version_number ON takeoff_versions (project_id, version_number);`,
	`CREATE INDEX IF NOT EXISTS idx_takeoff_versions_project ON takeoff_versions (project_id);`,
	`CREATE TABLE IF NOT EXISTS boq_lines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		takeoff_version_id UUID NOT NULL REFERENCES takeoff_versions(id) ON DELETE CASCADE,
		pay_item_number VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		unit VARCHAR(32) NOT NULL,
		quantity NUMERIC(18,4) NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_boq_lines_version ON boq_lines (takeoff_version_id);`,
	`CREATE TABLE IF NOT EXISTS dupa_templates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		pay_item_number VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		unit VARCHAR(32) NOT NULL,
		part VARCHAR(128) NOT NULL DEFAULT '',
		minor_tools_pct NUMERIC(6,3) NOT NULL DEFAULT 0
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_dupa_pay_item ON dupa_templates (pay_item_number);`,
	`CREATE TABLE IF NOT EXISTS dupa_labor (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		template_id UUID NOT NULL REFERENCES dupa_templates(id) ON DELETE CASCADE,
		designation VARCHAR(128) NOT NULL,
		persons NUMERIC(10,3) NOT NULL,
		hours NUMERIC(10,3) NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS dupa_equipment (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		template_id UUID NOT NULL REFERENCES dupa_templates(id) ON DELETE CASCADE,
		description VARCHAR(255) NOT NULL,
		units NUMERIC(10,3) NOT NULL,
		hours NUMERIC(10,3) NOT NULL,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS dupa_materials (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		template_id UUID NOT NULL REFERENCES dupa_templates(id) ON DELETE CASCADE,
		code VARCHAR(64) NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT '',
		unit VARCHAR(32) NOT NULL,
		quantity NUMERIC(18,6) NOT NULL,
		hauling_exempt BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dupa_labor_template ON dupa_labor (template_id);`,
	`CREATE INDEX IF NOT EXISTS idx_dupa_equipment_template ON dupa_equipment (template_id);`,
	`CREATE INDEX IF NOT EXISTS idx_dupa_materials_template ON dupa_materials (template_id);`,
	`CREATE TABLE IF NOT EXISTS labor_rates (
		designation VARCHAR(128) NOT NULL,
		location VARCHAR(128) NOT NULL,
		hourly_rate NUMERIC(18,4) NOT NULL,
		effective_date DATE NOT NULL DEFAULT CURRENT_DATE,
		PRIMARY KEY (location, designation)
	);`,
	`CREATE TABLE IF NOT EXISTS equipment_rates (
		description VARCHAR(255) PRIMARY KEY,
		hourly_rate NUMERIC(18,4) NOT NULL,
		effective_date DATE NOT NULL DEFAULT CURRENT_DATE
	);`,
	`CREATE TABLE IF NOT EXISTS material_prices (
		code VARCHAR(64) NOT NULL,
		district VARCHAR(128) NOT NULL,
		pricebook_version VARCHAR(32) NOT NULL,
		unit_cost NUMERIC(18,4) NOT NULL,
		source material_price_source NOT NULL DEFAULT 'PRICE_BOOK',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		effective_date DATE NOT NULL DEFAULT CURRENT_DATE,
		PRIMARY KEY (code, district, pricebook_version, source)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_material_prices_lookup ON material_prices (district, pricebook_version) WHERE active;`,
	`CREATE TABLE IF NOT EXISTS cost_estimates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		takeoff_version_id UUID NOT NULL REFERENCES takeoff_versions(id),
		project_id UUID NOT NULL REFERENCES projects(id),
		location VARCHAR(128) NOT NULL,
		district VARCHAR(128) NOT NULL,
		pricebook_version VARCHAR(32) NOT NULL,
		ocm_pct NUMERIC(6,3) NOT NULL,
		cp_pct NUMERIC(6,3) NOT NULL,
		vat_pct NUMERIC(6,3) NOT NULL,
		total_direct_cost NUMERIC(18,2) NOT NULL,
		total_ocm NUMERIC(18,2) NOT NULL,
		total_cp NUMERIC(18,2) NOT NULL,
		subtotal_with_markup NUMERIC(18,2) NOT NULL,
		total_vat NUMERIC(18,2) NOT NULL,
		grand_total NUMERIC(18,2) NOT NULL,
		line_count INT NOT NULL,
		unmapped_count INT NOT NULL,
		status cost_estimate_status NOT NULL DEFAULT 'DRAFT',
		submitted_by_id UUID,
		submitted_at TIMESTAMPTZ,
		approved_by_id UUID,
		approved_at TIMESTAMPTZ,
		created_by_user_id UUID NOT NULL,
		created_by_org_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cost_estimates_version ON cost_estimates (takeoff_version_id);`,
	`CREATE INDEX IF NOT EXISTS idx_cost_estimates_project ON cost_estimates (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_cost_estimates_status ON cost_estimates (status);`,
	`CREATE TABLE IF NOT EXISTS estimate_lines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		cost_estimate_id UUID NOT NULL REFERENCES cost_estimates(id) ON DELETE CASCADE,
		boq_line_id UUID,
		pay_item_number VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		unit VARCHAR(32) NOT NULL,
		quantity NUMERIC(18,4) NOT NULL,
		items JSONB NOT NULL DEFAULT '[]',
		labor_cost DOUBLE PRECISION NOT NULL,
		equipment_cost DOUBLE PRECISION NOT NULL,
		material_cost DOUBLE PRECISION NOT NULL,
		direct_cost DOUBLE PRECISION NOT NULL,
		ocm_cost DOUBLE PRECISION NOT NULL,
		cp_cost DOUBLE PRECISION NOT NULL,
		vat_cost DOUBLE PRECISION NOT NULL,
		unit_price DOUBLE PRECISION NOT NULL,
		total_amount DOUBLE PRECISION NOT NULL,
		dupa_not_found BOOLEAN NOT NULL DEFAULT FALSE,
		needs_canvass BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_estimate_lines_estimate ON estimate_lines (cost_estimate_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
