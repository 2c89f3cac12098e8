package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChangeRequestStatus string

const (
	CRStatusDraft            ChangeRequestStatus = "DRAFT"
	CRStatusUnderReview      ChangeRequestStatus = "UNDER_REVIEW"
	CRStatusRequestForChange ChangeRequestStatus = "REQUEST_FOR_CHANGE"
	CRStatusActive           ChangeRequestStatus = "ACTIVE"
	CRStatusRejected         ChangeRequestStatus = "REJECTED"
	CRStatusTerminated       ChangeRequestStatus = "TERMINATED"
	CRStatusCancelled        ChangeRequestStatus = "CANCELLED"
)

// crTransitions is the single source of truth for allowed status moves.
// Statuses missing from the map are terminal.
var crTransitions = map[ChangeRequestStatus][]ChangeRequestStatus{
	CRStatusDraft:            {CRStatusUnderReview, CRStatusCancelled},
	CRStatusUnderReview:      {CRStatusActive, CRStatusRejected, CRStatusRequestForChange},
	CRStatusRequestForChange: {CRStatusUnderReview, CRStatusCancelled},
	CRStatusActive:           {CRStatusTerminated},
}

func (s ChangeRequestStatus) CanTransitionTo(next ChangeRequestStatus) bool {
	for _, allowed := range crTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ChangeRequestStatus) Terminal() bool {
	return len(crTransitions[s]) == 0
}

// EventsEligible reports whether events owned by a change request in this
// status count toward ledger reconstruction.
func (s ChangeRequestStatus) EventsEligible() bool {
	return s == CRStatusActive
}

type ChangeRequestType string

const (
	CRTypeAddScope        ChangeRequestType = "ADD_SCOPE"
	CRTypeRemoveScope     ChangeRequestType = "REMOVE_SCOPE"
	CRTypeOther           ChangeRequestType = "OTHER"
	CRTypeResourceChange  ChangeRequestType = "RESOURCE_CHANGE"
	CRTypeScheduleChange  ChangeRequestType = "SCHEDULE_CHANGE"
	CRTypeScopeAdjustment ChangeRequestType = "SCOPE_ADJUSTMENT"
)

var crTypesByEngagement = map[EngagementType][]ChangeRequestType{
	EngagementFixedPrice: {CRTypeAddScope, CRTypeRemoveScope, CRTypeOther},
	EngagementRetainer:   {CRTypeResourceChange, CRTypeScheduleChange, CRTypeScopeAdjustment},
}

// ValidTypeFor reports whether a change request type is allowed on a
// contract of the given engagement type.
func (t ChangeRequestType) ValidFor(engagement EngagementType) bool {
	for _, allowed := range crTypesByEngagement[engagement] {
		if allowed == t {
			return true
		}
	}
	return false
}

type ReviewAction string

const (
	ReviewActionApprove         ReviewAction = "APPROVE"
	ReviewActionReject          ReviewAction = "REJECT"
	ReviewActionRequestRevision ReviewAction = "REQUEST_REVISION"
)

type ChangeRequest struct {
	ID                 uuid.UUID
	DisplayID          string // CR-YYYY-NN
	ContractID         uuid.UUID
	Title              string
	Type               ChangeRequestType
	Description        string
	Reason             string
	EffectiveFrom      *time.Time
	ExpectedExtraCost  decimal.Decimal
	Status             ChangeRequestStatus
	CreatedBy          uuid.UUID
	InternalReviewerID *uuid.UUID
	ApprovedBy         *uuid.UUID
	ApprovedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ChangeRequestHistory is an append-only audit record; one row per
// transition or mutation, never updated.
type ChangeRequestHistory struct {
	ID              uuid.UUID
	ChangeRequestID uuid.UUID
	Action          string
	FromStatus      ChangeRequestStatus
	ToStatus        ChangeRequestStatus
	Note            string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

type ChangeRequestAttachment struct {
	ID              uuid.UUID
	ChangeRequestID uuid.UUID
	FileName        string
	FileSize        int64
	FileType        string
	UploadedBy      uuid.UUID
	CreatedAt       time.Time
}
