package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractKind string

const (
	ContractKindMSA ContractKind = "MSA"
	ContractKindSOW ContractKind = "SOW"
)

type EngagementType string

const (
	EngagementFixedPrice EngagementType = "FIXED_PRICE"
	EngagementRetainer   EngagementType = "RETAINER"
)

type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "DRAFT"
	ContractStatusUnderReview      ContractStatus = "UNDER_REVIEW"
	ContractStatusActive           ContractStatus = "ACTIVE"
	ContractStatusRequestForChange ContractStatus = "REQUEST_FOR_CHANGE"
	ContractStatusCompleted        ContractStatus = "COMPLETED"
	ContractStatusTerminated       ContractStatus = "TERMINATED"
	ContractStatusCancelled        ContractStatus = "CANCELLED"
)

// Contract is one version of an MSA or SOW engagement. Versions of the same
// engagement form a family: ParentVersionID of every later version points at
// the first version, whose own ParentVersionID is nil.
type Contract struct {
	ID              uuid.UUID
	Kind            ContractKind
	Name            string
	ClientID        uuid.UUID
	EngagementType  EngagementType
	Status          ContractStatus
	Version         int
	ParentVersionID *uuid.UUID
	BaseTotalAmount decimal.Decimal
	PeriodStart     time.Time
	PeriodEnd       time.Time
	CreatedAt       time.Time
}

// FamilyRootID resolves the id shared by all versions of this contract.
func (c Contract) FamilyRootID() uuid.UUID {
	if c.ParentVersionID != nil {
		return *c.ParentVersionID
	}
	return c.ID
}
