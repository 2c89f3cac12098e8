package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind VARCHAR(8) NOT NULL,
		name VARCHAR(255) NOT NULL,
		client_id UUID NOT NULL,
		engagement_type VARCHAR(16) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'DRAFT',
		version INT NOT NULL DEFAULT 1,
		parent_version_id UUID REFERENCES contracts(id),
		base_total_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_parent_version ON contracts (parent_version_id) WHERE parent_version_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS engaged_engineers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		role VARCHAR(128) NOT NULL,
		level VARCHAR(64) NOT NULL,
		rating NUMERIC(4,2) NOT NULL DEFAULT 0,
		billing_type VARCHAR(16) NOT NULL,
		hourly_rate NUMERIC(18,2),
		hours NUMERIC(10,2),
		monthly_salary NUMERIC(18,2),
		start_date DATE NOT NULL,
		end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_engaged_engineers_contract ON engaged_engineers (contract_id);`,
	`CREATE TABLE IF NOT EXISTS billing_details (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		payment_date DATE NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_billing_details_contract ON billing_details (contract_id);`,
	`CREATE TABLE IF NOT EXISTS baseline_engineers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		role VARCHAR(128) NOT NULL,
		level VARCHAR(64) NOT NULL,
		rating NUMERIC(4,2) NOT NULL DEFAULT 0,
		billing_type VARCHAR(16) NOT NULL,
		hourly_rate NUMERIC(18,2),
		hours NUMERIC(10,2),
		monthly_salary NUMERIC(18,2),
		start_date DATE NOT NULL,
		end_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_baseline_engineers_contract ON baseline_engineers (contract_id);`,
	`CREATE TABLE IF NOT EXISTS baseline_billing (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		billing_month DATE NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_baseline_billing_month ON baseline_billing (contract_id, billing_month);`,
	`CREATE TABLE IF NOT EXISTS change_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		display_id VARCHAR(16) NOT NULL,
		contract_id UUID NOT NULL REFERENCES contracts(id),
		title VARCHAR(255) NOT NULL,
		type VARCHAR(32) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		effective_from DATE,
		expected_extra_cost NUMERIC(18,2) NOT NULL DEFAULT 0,
		status VARCHAR(32) NOT NULL DEFAULT 'DRAFT',
		created_by UUID NOT NULL,
		internal_reviewer_id UUID,
		approved_by UUID,
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_change_requests_display_id ON change_requests (display_id);`,
	`CREATE INDEX IF NOT EXISTS idx_change_requests_contract ON change_requests (contract_id);`,
	`CREATE INDEX IF NOT EXISTS idx_change_requests_status ON change_requests (status);`,
	`CREATE TABLE IF NOT EXISTS change_request_sequences (
		year INT PRIMARY KEY,
		next_number INT NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS change_request_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		change_request_id UUID NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
		action VARCHAR(32) NOT NULL,
		from_status VARCHAR(32) NOT NULL,
		to_status VARCHAR(32) NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cr_history_change_request ON change_request_history (change_request_id);`,
	`CREATE TABLE IF NOT EXISTS change_request_attachments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		change_request_id UUID NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
		file_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		file_type VARCHAR(128) NOT NULL DEFAULT '',
		uploaded_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS resource_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		change_request_id UUID NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
		action VARCHAR(16) NOT NULL,
		engineer_id UUID NOT NULL,
		role VARCHAR(128),
		level VARCHAR(64),
		rating NUMERIC(4,2),
		billing_type VARCHAR(16),
		hourly_rate NUMERIC(18,2),
		hours NUMERIC(10,2),
		monthly_salary NUMERIC(18,2),
		start_date DATE,
		end_date DATE,
		effective_start DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_resource_events_change_request ON resource_events (change_request_id);`,
	`CREATE INDEX IF NOT EXISTS idx_resource_events_effective ON resource_events (effective_start);`,
	`CREATE TABLE IF NOT EXISTS billing_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		change_request_id UUID NOT NULL REFERENCES change_requests(id) ON DELETE CASCADE,
		billing_month DATE NOT NULL,
		delta_amount NUMERIC(18,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_billing_events_change_request ON billing_events (change_request_id);`,
	`CREATE INDEX IF NOT EXISTS idx_billing_events_month ON billing_events (billing_month);`,
	`CREATE TABLE IF NOT EXISTS contract_appendices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		change_request_id UUID NOT NULL REFERENCES change_requests(id),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		appendix_number VARCHAR(16) NOT NULL,
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_appendices_number ON contract_appendices (appendix_number);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
