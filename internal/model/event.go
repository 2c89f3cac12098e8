package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ResourceAction string

const (
	ResourceActionAdd    ResourceAction = "ADD"
	ResourceActionModify ResourceAction = "MODIFY"
	ResourceActionEnd    ResourceAction = "END"
)

// ResourceEvent is one append-only delta to the engineer roster, owned by
// exactly one change request. Nil optional fields mean "no change": during
// replay the last-known value is carried forward. EngineerID references a
// baseline engineer or an engineer introduced by an earlier ADD event; for
// ADD events it is minted at creation time.
type ResourceEvent struct {
	ID              uuid.UUID
	ChangeRequestID uuid.UUID
	Action          ResourceAction
	EngineerID      uuid.UUID
	Role            *string
	Level           *string
	Rating          *float64
	BillingType     *BillingType
	HourlyRate      *decimal.Decimal
	Hours           *decimal.Decimal
	MonthlySalary   *decimal.Decimal
	StartDate       *time.Time
	EndDate         *time.Time
	EffectiveStart  time.Time
	CreatedAt       time.Time
}

// BillingEvent is one append-only billing adjustment for a single calendar
// month, owned by exactly one change request. BillingMonth is always stored
// normalized to the first day of its month.
type BillingEvent struct {
	ID              uuid.UUID
	ChangeRequestID uuid.UUID
	BillingMonth    time.Time
	DeltaAmount     decimal.Decimal
	Description     string
	CreatedAt       time.Time
}

// EngineerState is one reconstructed roster entry: a baseline engineer with
// all eligible events up to the as-of date folded in, or an engineer
// introduced entirely by events.
type EngineerState struct {
	EngineerID    uuid.UUID
	Role          string
	Level         string
	Rating        float64
	BillingType   BillingType
	HourlyRate    *decimal.Decimal
	Hours         *decimal.Decimal
	MonthlySalary *decimal.Decimal
	StartDate     time.Time
	EndDate       *time.Time
}

func (s EngineerState) ActiveAt(day time.Time) bool {
	if s.StartDate.After(day) {
		return false
	}
	return s.EndDate == nil || !s.EndDate.Before(day)
}

// LedgerState is the point-in-time view of a contract: the roster engaged on
// AsOf plus the billing total for AsOf's calendar month.
type LedgerState struct {
	ContractID   uuid.UUID
	AsOf         time.Time
	Engineers    []EngineerState
	BillingMonth time.Time
	BillingTotal decimal.Decimal
}
