package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/landbridge/contract-ledger/internal/model"
	"github.com/landbridge/contract-ledger/internal/repository"
)

// Store interfaces narrow the repositories to what each service needs, so
// tests can swap in-memory fakes.

type ContractStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ListCurrentEngineers(ctx context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error)
	ListCurrentBillingDetails(ctx context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error)
	MaxFamilyVersion(ctx context.Context, rootID uuid.UUID) (int, error)
	CreateVersion(ctx context.Context, contract model.Contract) (*model.Contract, error)
	ListFamilyVersions(ctx context.Context, rootID uuid.UUID) ([]model.Contract, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error
}

type BaselineStore interface {
	HasBaseline(ctx context.Context, contractID uuid.UUID) (bool, error)
	CreateBaseline(ctx context.Context, contractID uuid.UUID, engineers []model.BaselineEngineer, billing []model.BaselineBillingMonth, totalAmount decimal.Decimal) error
	ListEngineers(ctx context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error)
	ListEngineersActiveAt(ctx context.Context, contractID uuid.UUID, day time.Time) ([]model.BaselineEngineer, error)
	ListBillingMonths(ctx context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error)
	GetBillingMonth(ctx context.Context, contractID uuid.UUID, month time.Time) (*model.BaselineBillingMonth, error)
}

type ChangeRequestStore interface {
	Create(ctx context.Context, cr model.ChangeRequest, attachments []model.ChangeRequestAttachment) (*model.ChangeRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ChangeRequest, error)
	UpdateDraft(ctx context.Context, cr model.ChangeRequest, actor uuid.UUID) error
	Transition(ctx context.Context, change repository.StatusChange) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListHistory(ctx context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestHistory, error)
	ListAttachments(ctx context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestAttachment, error)
}

type EventStore interface {
	CreateResourceEvent(ctx context.Context, event model.ResourceEvent) (*model.ResourceEvent, error)
	CreateBillingEvent(ctx context.Context, event model.BillingEvent) (*model.BillingEvent, error)
	ListResourceEventsByChangeRequest(ctx context.Context, changeRequestID uuid.UUID) ([]model.ResourceEvent, error)
	ListBillingEventsByChangeRequest(ctx context.Context, changeRequestID uuid.UUID) ([]model.BillingEvent, error)
	ListEligibleResourceEvents(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]model.ResourceEvent, error)
	ListEligibleBillingEventsForMonth(ctx context.Context, contractID uuid.UUID, month time.Time) ([]model.BillingEvent, error)
	ListResourceEvents(ctx context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.ResourceEvent, error)
	ListBillingEvents(ctx context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.BillingEvent, error)
}
