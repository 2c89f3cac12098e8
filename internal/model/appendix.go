package model

import (
	"time"

	"github.com/google/uuid"
)

// ContractAppendix records the appendix issued when a change request is
// approved. The rendered PDF is produced from AppendixDocument.
type ContractAppendix struct {
	ID              uuid.UUID
	ChangeRequestID uuid.UUID
	ContractID      uuid.UUID
	AppendixNumber  string // AP-YYYY-NN
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

type AppendixDocument struct {
	Appendix       ContractAppendix
	Contract       Contract
	ChangeRequest  ChangeRequest
	ResourceEvents []ResourceEvent
	BillingEvents  []BillingEvent
}

// LedgerStatement feeds the Excel export: the reconstructed state plus the
// raw billing months it was derived from.
type LedgerStatement struct {
	Contract      Contract
	AsOf          time.Time
	Engineers     []EngineerState
	BillingMonths []BaselineBillingMonth
	BillingEvents []BillingEvent
}
