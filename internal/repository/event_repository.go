package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

const resourceEventColumns = `
	e.id,
	e.change_request_id,
	e.action,
	e.engineer_id,
	e.role,
	e.level,
	e.rating,
	e.billing_type,
	e.hourly_rate,
	e.hours,
	e.monthly_salary,
	e.start_date,
	e.end_date,
	e.effective_start,
	e.created_at
`

const billingEventColumns = `
	e.id,
	e.change_request_id,
	e.billing_month,
	e.delta_amount,
	e.description,
	e.created_at
`

func (r *EventRepository) CreateResourceEvent(ctx context.Context, event model.ResourceEvent) (*model.ResourceEvent, error) {
	var saved model.ResourceEvent
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO resource_events (
			change_request_id,
			action,
			engineer_id,
			role,
			level,
			rating,
			billing_type,
			hourly_rate,
			hours,
			monthly_salary,
			start_date,
			end_date,
			effective_start
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING
			id,
			change_request_id,
			action,
			engineer_id,
			role,
			level,
			rating,
			billing_type,
			hourly_rate,
			hours,
			monthly_salary,
			start_date,
			end_date,
			effective_start,
			created_at
	`,
		event.ChangeRequestID,
		event.Action,
		event.EngineerID,
		event.Role,
		event.Level,
		event.Rating,
		event.BillingType,
		event.HourlyRate,
		event.Hours,
		event.MonthlySalary,
		event.StartDate,
		event.EndDate,
		event.EffectiveStart,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *EventRepository) CreateBillingEvent(ctx context.Context, event model.BillingEvent) (*model.BillingEvent, error) {
	var saved model.BillingEvent
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO billing_events (
			change_request_id,
			billing_month,
			delta_amount,
			description
		) VALUES (?, ?, ?, ?)
		RETURNING id, change_request_id, billing_month, delta_amount, description, created_at
	`,
		event.ChangeRequestID,
		event.BillingMonth,
		event.DeltaAmount,
		event.Description,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *EventRepository) ListResourceEventsByChangeRequest(ctx context.Context, changeRequestID uuid.UUID) ([]model.ResourceEvent, error) {
	var events []model.ResourceEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+resourceEventColumns+`
		FROM resource_events e
		WHERE e.change_request_id = ?
		ORDER BY e.created_at ASC
	`, changeRequestID).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) ListBillingEventsByChangeRequest(ctx context.Context, changeRequestID uuid.UUID) ([]model.BillingEvent, error) {
	var events []model.BillingEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+billingEventColumns+`
		FROM billing_events e
		WHERE e.change_request_id = ?
		ORDER BY e.created_at ASC
	`, changeRequestID).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListEligibleResourceEvents returns resource events whose owning change
// request is Active and whose effective start is on or before asOf. The
// replay order is fixed: effective start first, creation time second, so
// same-day changes apply in approval sequence rather than id order.
func (r *EventRepository) ListEligibleResourceEvents(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]model.ResourceEvent, error) {
	var events []model.ResourceEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+resourceEventColumns+`
		FROM resource_events e
		JOIN change_requests cr ON cr.id = e.change_request_id
		WHERE cr.contract_id = ?
			AND cr.status = ?
			AND e.effective_start <= ?
		ORDER BY e.effective_start ASC, e.created_at ASC
	`, contractID, model.CRStatusActive, asOf).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListEligibleBillingEventsForMonth returns billing events of Active change
// requests for one normalized month, in creation order.
func (r *EventRepository) ListEligibleBillingEventsForMonth(ctx context.Context, contractID uuid.UUID, month time.Time) ([]model.BillingEvent, error) {
	var events []model.BillingEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+billingEventColumns+`
		FROM billing_events e
		JOIN change_requests cr ON cr.id = e.change_request_id
		WHERE cr.contract_id = ?
			AND cr.status = ?
			AND e.billing_month = ?
		ORDER BY e.created_at ASC
	`, contractID, model.CRStatusActive, month).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListResourceEvents returns all resource events of a contract regardless of
// eligibility, optionally bounded by effective start date.
func (r *EventRepository) ListResourceEvents(ctx context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.ResourceEvent, error) {
	query := `
		SELECT ` + resourceEventColumns + `
		FROM resource_events e
		JOIN change_requests cr ON cr.id = e.change_request_id
		WHERE cr.contract_id = ?
	`
	args := []interface{}{contractID}
	if from != nil {
		query += " AND e.effective_start >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND e.effective_start <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY e.effective_start ASC, e.created_at ASC"

	var events []model.ResourceEvent
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// ListBillingEvents returns all billing events of a contract regardless of
// eligibility, optionally bounded by billing month.
func (r *EventRepository) ListBillingEvents(ctx context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.BillingEvent, error) {
	query := `
		SELECT ` + billingEventColumns + `
		FROM billing_events e
		JOIN change_requests cr ON cr.id = e.change_request_id
		WHERE cr.contract_id = ?
	`
	args := []interface{}{contractID}
	if from != nil {
		query += " AND e.billing_month >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND e.billing_month <= ?"
		args = append(args, *to)
	}
	query += " ORDER BY e.billing_month ASC, e.created_at ASC"

	var events []model.BillingEvent
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
