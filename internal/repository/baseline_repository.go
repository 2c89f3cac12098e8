package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

type BaselineRepository struct {
	db *gorm.DB
}

func NewBaselineRepository(db *gorm.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

func (r *BaselineRepository) HasBaseline(ctx context.Context, contractID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM baseline_engineers WHERE contract_id = ?
	`, contractID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM baseline_billing WHERE contract_id = ?
	`, contractID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateBaseline writes the full snapshot and the denormalized contract
// total in one transaction. Baseline rows are never updated afterwards.
func (r *BaselineRepository) CreateBaseline(
	ctx context.Context,
	contractID uuid.UUID,
	engineers []model.BaselineEngineer,
	billing []model.BaselineBillingMonth,
	totalAmount decimal.Decimal,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, engineer := range engineers {
			err := tx.Exec(`
				INSERT INTO baseline_engineers (
					contract_id,
					role,
					level,
					rating,
					billing_type,
					hourly_rate,
					hours,
					monthly_salary,
					start_date,
					end_date
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				contractID,
				engineer.Role,
				engineer.Level,
				engineer.Rating,
				engineer.BillingType,
				engineer.HourlyRate,
				engineer.Hours,
				engineer.MonthlySalary,
				engineer.StartDate,
				engineer.EndDate,
			).Error
			if err != nil {
				return err
			}
		}

		for _, month := range billing {
			err := tx.Exec(`
				INSERT INTO baseline_billing (
					contract_id,
					billing_month,
					amount,
					description
				) VALUES (?, ?, ?, ?)
			`,
				contractID,
				month.BillingMonth,
				month.Amount,
				month.Description,
			).Error
			if err != nil {
				return err
			}
		}

		return tx.Exec(`
			UPDATE contracts SET base_total_amount = ? WHERE id = ?
		`, totalAmount, contractID).Error
	})
}

const baselineEngineerColumns = `
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
`

func (r *BaselineRepository) ListEngineers(ctx context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error) {
	var engineers []model.BaselineEngineer
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+baselineEngineerColumns+`
		FROM baseline_engineers
		WHERE contract_id = ?
		ORDER BY start_date ASC, created_at ASC
	`, contractID).Scan(&engineers).Error
	if err != nil {
		return nil, err
	}
	return engineers, nil
}

// ListEngineersActiveAt returns baseline engineers whose engagement interval
// contains the given day; an open end date counts as still engaged.
func (r *BaselineRepository) ListEngineersActiveAt(ctx context.Context, contractID uuid.UUID, day time.Time) ([]model.BaselineEngineer, error) {
	var engineers []model.BaselineEngineer
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+baselineEngineerColumns+`
		FROM baseline_engineers
		WHERE contract_id = ?
			AND start_date <= ?
			AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date ASC, created_at ASC
	`, contractID, day, day).Scan(&engineers).Error
	if err != nil {
		return nil, err
	}
	return engineers, nil
}

func (r *BaselineRepository) ListBillingMonths(ctx context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error) {
	var months []model.BaselineBillingMonth
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, billing_month, amount, description, created_at
		FROM baseline_billing
		WHERE contract_id = ?
		ORDER BY billing_month ASC
	`, contractID).Scan(&months).Error
	if err != nil {
		return nil, err
	}
	return months, nil
}

// GetBillingMonth returns the baseline amount for one normalized month, or
// gorm.ErrRecordNotFound when the month has no baseline row.
func (r *BaselineRepository) GetBillingMonth(ctx context.Context, contractID uuid.UUID, month time.Time) (*model.BaselineBillingMonth, error) {
	var row model.BaselineBillingMonth
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, contract_id, billing_month, amount, description, created_at
		FROM baseline_billing
		WHERE contract_id = ? AND billing_month = ?
		LIMIT 1
	`, contractID, month).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}
