package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingType string

const (
	BillingTypeHourly  BillingType = "HOURLY"
	BillingTypeMonthly BillingType = "MONTHLY"
)

// BaselineEngineer is an immutable copy of one roster row taken at baseline
// capture. Hourly engineers carry HourlyRate and Hours, monthly engineers
// carry MonthlySalary.
type BaselineEngineer struct {
	ID            uuid.UUID
	ContractID    uuid.UUID
	Role          string
	Level         string
	Rating        float64
	BillingType   BillingType
	HourlyRate    *decimal.Decimal
	Hours         *decimal.Decimal
	MonthlySalary *decimal.Decimal
	StartDate     time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
}

// ActiveAt reports whether the engineer's engagement interval contains day.
// A nil EndDate means still engaged.
func (e BaselineEngineer) ActiveAt(day time.Time) bool {
	if e.StartDate.After(day) {
		return false
	}
	return e.EndDate == nil || !e.EndDate.Before(day)
}

// BaselineBillingMonth is one fixed monthly amount in the baseline snapshot,
// keyed by the first day of its calendar month.
type BaselineBillingMonth struct {
	ID           uuid.UUID
	ContractID   uuid.UUID
	BillingMonth time.Time
	Amount       decimal.Decimal
	Description  string
	CreatedAt    time.Time
}

// Baseline groups both snapshot collections of one contract.
type Baseline struct {
	Engineers     []BaselineEngineer
	BillingMonths []BaselineBillingMonth
}

// FirstOfMonth collapses any day-of-month onto the month bucket used by
// billing rows and queries.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a timestamp to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
