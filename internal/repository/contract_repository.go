package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `
	id,
	kind,
	name,
	client_id,
	engagement_type,
	status,
	version,
	parent_version_id,
	base_total_amount,
	period_start,
	period_end,
	created_at
`

func (r *ContractRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// ListCurrentEngineers returns the contract's live roster rows. Read once at
// baseline capture time to seed the snapshot.
func (r *ContractRepository) ListCurrentEngineers(ctx context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error) {
	var engineers []model.BaselineEngineer
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_id,
			role,
			level,
			rating,
			billing_type,
			hourly_rate,
			hours,
			monthly_salary,
			start_date,
			end_date,
			created_at
		FROM engaged_engineers
		WHERE contract_id = ?
		ORDER BY start_date ASC, created_at ASC
	`, contractID).Scan(&engineers).Error
	if err != nil {
		return nil, err
	}
	return engineers, nil
}

// ListCurrentBillingDetails returns the contract's live billing rows, also
// read once at baseline capture time.
func (r *ContractRepository) ListCurrentBillingDetails(ctx context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error) {
	var details []model.BaselineBillingMonth
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_id,
			payment_date AS billing_month,
			amount,
			description,
			created_at
		FROM billing_details
		WHERE contract_id = ?
		ORDER BY payment_date ASC, created_at ASC
	`, contractID).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

// MaxFamilyVersion returns the highest version number seen across a contract
// family identified by its root id.
func (r *ContractRepository) MaxFamilyVersion(ctx context.Context, rootID uuid.UUID) (int, error) {
	var maxVersion int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(version), 0)
		FROM contracts
		WHERE id = ? OR parent_version_id = ?
	`, rootID, rootID).Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion, nil
}

func (r *ContractRepository) CreateVersion(ctx context.Context, contract model.Contract) (*model.Contract, error) {
	var saved model.Contract
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contracts (
			kind,
			name,
			client_id,
			engagement_type,
			status,
			version,
			parent_version_id,
			base_total_amount,
			period_start,
			period_end
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+contractColumns+`
	`,
		contract.Kind,
		contract.Name,
		contract.ClientID,
		contract.EngagementType,
		contract.Status,
		contract.Version,
		contract.ParentVersionID,
		contract.BaseTotalAmount,
		contract.PeriodStart,
		contract.PeriodEnd,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ContractRepository) ListFamilyVersions(ctx context.Context, rootID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ? OR parent_version_id = ?
		ORDER BY version ASC
	`, rootID, rootID).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE contracts SET status = ? WHERE id = ?
	`, status, id).Error
}
