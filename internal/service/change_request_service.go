package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
	"github.com/landbridge/contract-ledger/internal/repository"
)

type AppendixRenderer interface {
	Generate(doc model.AppendixDocument) ([]byte, error)
}

// ChangeRequestService drives the approval-gated lifecycle of change
// requests. Approval is the single moment a request's events become visible
// to reconstruction; every transition leaves one immutable history row.
type ChangeRequestService struct {
	contracts ContractStore
	requests  ChangeRequestStore
	events    EventStore
	baselines *BaselineService
	pdf       AppendixRenderer
	log       zerolog.Logger
}

func NewChangeRequestService(
	contracts ContractStore,
	requests ChangeRequestStore,
	events EventStore,
	baselines *BaselineService,
	pdf AppendixRenderer,
	log zerolog.Logger,
) *ChangeRequestService {
	return &ChangeRequestService{
		contracts: contracts,
		requests:  requests,
		events:    events,
		baselines: baselines,
		pdf:       pdf,
		log:       log,
	}
}

type CreateChangeRequestInput struct {
	ContractID        uuid.UUID
	Title             string
	Type              model.ChangeRequestType
	Description       string
	Reason            string
	EffectiveFrom     *time.Time
	ExpectedExtraCost decimal.Decimal
	Attachments       []model.ChangeRequestAttachment
}

// Create opens a new Draft change request. The type must belong to the
// allowed set for the contract's engagement type; a violation is rejected,
// never coerced.
func (s *ChangeRequestService) Create(ctx context.Context, input CreateChangeRequestInput, principal model.Principal) (*model.ChangeRequest, error) {
	contract, err := s.contracts.GetContract(ctx, input.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, input.ContractID)
		}
		return nil, err
	}

	if principal.IsClient() && contract.ClientID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !input.Type.ValidFor(contract.EngagementType) {
		return nil, fmt.Errorf("%w: change request type %q is not valid for %s contracts", ErrInvalidInput, input.Type, contract.EngagementType)
	}

	// Change requests always hang off the family root so they survive
	// contract re-versioning.
	cr := model.ChangeRequest{
		ContractID:        contract.FamilyRootID(),
		Title:             input.Title,
		Type:              input.Type,
		Description:       input.Description,
		Reason:            input.Reason,
		EffectiveFrom:     input.EffectiveFrom,
		ExpectedExtraCost: input.ExpectedExtraCost,
		Status:            model.CRStatusDraft,
		CreatedBy:         principal.UserID,
	}

	saved, err := s.requests.Create(ctx, cr, input.Attachments)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("change_request_id", saved.ID.String()).
		Str("display_id", saved.DisplayID).
		Str("contract_id", saved.ContractID.String()).
		Msg("change request created")
	return saved, nil
}

type UpdateChangeRequestInput struct {
	Title             string
	Type              model.ChangeRequestType
	Description       string
	Reason            string
	EffectiveFrom     *time.Time
	ExpectedExtraCost decimal.Decimal
}

// Update rewrites a Draft change request. Anything past Draft is frozen.
func (s *ChangeRequestService) Update(ctx context.Context, id uuid.UUID, input UpdateChangeRequestInput, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only the creator can update a change request", ErrPermissionDenied)
	}
	if cr.Status != model.CRStatusDraft {
		return fmt.Errorf("%w: only Draft change requests can be updated, current status %s", ErrInvalidState, cr.Status)
	}

	contract, err := s.contracts.GetContract(ctx, cr.ContractID)
	if err != nil {
		return err
	}
	if !input.Type.ValidFor(contract.EngagementType) {
		return fmt.Errorf("%w: change request type %q is not valid for %s contracts", ErrInvalidInput, input.Type, contract.EngagementType)
	}

	cr.Title = input.Title
	cr.Type = input.Type
	cr.Description = input.Description
	cr.Reason = input.Reason
	cr.EffectiveFrom = input.EffectiveFrom
	cr.ExpectedExtraCost = input.ExpectedExtraCost

	return s.requests.UpdateDraft(ctx, *cr, principal.UserID)
}

// Submit moves Draft to UnderReview and freezes the event set. An internal
// reviewer must be assigned up front.
func (s *ChangeRequestService) Submit(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only the creator can submit a change request", ErrPermissionDenied)
	}
	if cr.Status != model.CRStatusDraft {
		return fmt.Errorf("%w: only Draft change requests can be submitted, current status %s", ErrInvalidState, cr.Status)
	}
	if reviewerID == uuid.Nil {
		return fmt.Errorf("%w: internal reviewer is required", ErrInvalidInput)
	}

	return s.transition(ctx, repository.StatusChange{
		ID:         cr.ID,
		From:       model.CRStatusDraft,
		To:         model.CRStatusUnderReview,
		Action:     "SUBMITTED",
		Note:       "Change request submitted for internal review",
		Actor:      principal.UserID,
		ReviewerID: &reviewerID,
	})
}

// Resubmit returns a pushed-back change request to review.
func (s *ChangeRequestService) Resubmit(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only the creator can resubmit a change request", ErrPermissionDenied)
	}
	if cr.Status != model.CRStatusRequestForChange {
		return fmt.Errorf("%w: only Request-for-Change change requests can be resubmitted, current status %s", ErrInvalidState, cr.Status)
	}

	return s.transition(ctx, repository.StatusChange{
		ID:     cr.ID,
		From:   model.CRStatusRequestForChange,
		To:     model.CRStatusUnderReview,
		Action: "RESUBMITTED",
		Note:   "Change request resubmitted after revision",
		Actor:  principal.UserID,
	})
}

// Review records the assigned reviewer's decision. APPROVE activates the
// request and is the sole moment its events become eligible for
// reconstruction; REJECT permanently excludes them; REQUEST_REVISION sends
// the request back to its creator.
func (s *ChangeRequestService) Review(ctx context.Context, id uuid.UUID, action model.ReviewAction, note string, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.Status != model.CRStatusUnderReview {
		return fmt.Errorf("%w: only Under-Review change requests can be reviewed, current status %s", ErrInvalidState, cr.Status)
	}
	if cr.InternalReviewerID == nil || *cr.InternalReviewerID != principal.UserID {
		return fmt.Errorf("%w: only the assigned reviewer can review this change request", ErrPermissionDenied)
	}

	switch action {
	case model.ReviewActionApprove:
		return s.approve(ctx, cr, note, principal)
	case model.ReviewActionReject:
		return s.transition(ctx, repository.StatusChange{
			ID:     cr.ID,
			From:   model.CRStatusUnderReview,
			To:     model.CRStatusRejected,
			Action: "REJECTED",
			Note:   historyNote("Change request rejected", note),
			Actor:  principal.UserID,
		})
	case model.ReviewActionRequestRevision:
		return s.transition(ctx, repository.StatusChange{
			ID:     cr.ID,
			From:   model.CRStatusUnderReview,
			To:     model.CRStatusRequestForChange,
			Action: "REVISION_REQUESTED",
			Note:   historyNote("Revision requested", note),
			Actor:  principal.UserID,
		})
	default:
		return fmt.Errorf("%w: unknown review action %q", ErrInvalidInput, action)
	}
}

func (s *ChangeRequestService) approve(ctx context.Context, cr *model.ChangeRequest, note string, principal model.Principal) error {
	contract, err := s.contracts.GetContract(ctx, cr.ContractID)
	if err != nil {
		return err
	}

	if contract.EngagementType == model.EngagementRetainer {
		if cr.EffectiveFrom == nil {
			return fmt.Errorf("%w: effective_from is required to approve a Retainer change request", ErrInvalidInput)
		}
		// The baseline must exist before any event can count against it.
		if err := s.baselines.CreateBaseline(ctx, contract.ID); err != nil {
			return err
		}
	}

	// The appendix rides in the same transaction as the status change, so a
	// failure rolls both back together.
	number := appendixNumber(cr.DisplayID)
	err = s.transition(ctx, repository.StatusChange{
		ID:           cr.ID,
		From:         model.CRStatusUnderReview,
		To:           model.CRStatusActive,
		Action:       "APPROVED",
		Note:         historyNote("Change request approved", note),
		Actor:        principal.UserID,
		SetApproval:  true,
		ApprovalTime: time.Now().UTC(),
		Appendix: &model.ContractAppendix{
			ChangeRequestID: cr.ID,
			ContractID:      cr.ContractID,
			AppendixNumber:  number,
			CreatedBy:       principal.UserID,
		},
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("change_request_id", cr.ID.String()).
		Str("appendix_number", number).
		Msg("change request approved")
	return nil
}

// Cancel withdraws a change request that has not been approved yet.
func (s *ChangeRequestService) Cancel(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only the creator can cancel a change request", ErrPermissionDenied)
	}
	if !cr.Status.CanTransitionTo(model.CRStatusCancelled) {
		return fmt.Errorf("%w: change request in status %s cannot be cancelled", ErrInvalidState, cr.Status)
	}

	return s.transition(ctx, repository.StatusChange{
		ID:     cr.ID,
		From:   cr.Status,
		To:     model.CRStatusCancelled,
		Action: "CANCELLED",
		Note:   "Change request cancelled",
		Actor:  principal.UserID,
	})
}

// Terminate retires an Active change request; its events stop counting
// toward reconstruction.
func (s *ChangeRequestService) Terminate(ctx context.Context, id uuid.UUID, reason string, principal model.Principal) error {
	if !principal.IsSalesManager() {
		return fmt.Errorf("%w: only sales managers can terminate a change request", ErrPermissionDenied)
	}

	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.Status != model.CRStatusActive {
		return fmt.Errorf("%w: only Active change requests can be terminated, current status %s", ErrInvalidState, cr.Status)
	}

	return s.transition(ctx, repository.StatusChange{
		ID:     cr.ID,
		From:   model.CRStatusActive,
		To:     model.CRStatusTerminated,
		Action: "TERMINATED",
		Note:   historyNote("Change request terminated", reason),
		Actor:  principal.UserID,
	})
}

// Delete removes a Draft change request with its events and attachments.
func (s *ChangeRequestService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	cr, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cr.CreatedBy != principal.UserID {
		return fmt.Errorf("%w: only the creator can delete a change request", ErrPermissionDenied)
	}
	if cr.Status != model.CRStatusDraft {
		return fmt.Errorf("%w: only Draft change requests can be deleted, current status %s", ErrInvalidState, cr.Status)
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: change request %s is no longer Draft", ErrInvalidState, id)
		}
		return err
	}
	return nil
}

func (s *ChangeRequestService) Get(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	return s.get(ctx, id)
}

func (s *ChangeRequestService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.ChangeRequest, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, err
	}
	return s.requests.ListByContract(ctx, contract.FamilyRootID())
}

// History returns the audit trail, newest first.
func (s *ChangeRequestService) History(ctx context.Context, id uuid.UUID) ([]model.ChangeRequestHistory, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.requests.ListHistory(ctx, id)
}

func (s *ChangeRequestService) Attachments(ctx context.Context, id uuid.UUID) ([]model.ChangeRequestAttachment, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.requests.ListAttachments(ctx, id)
}

// RenderAppendix produces the appendix PDF for an approved change request.
func (s *ChangeRequestService) RenderAppendix(ctx context.Context, id uuid.UUID) (*ExportResult, error) {
	cr, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cr.Status.EventsEligible() && cr.Status != model.CRStatusTerminated {
		return nil, fmt.Errorf("%w: appendix is only available for approved change requests", ErrInvalidState)
	}

	contract, err := s.contracts.GetContract(ctx, cr.ContractID)
	if err != nil {
		return nil, err
	}
	resources, err := s.events.ListResourceEventsByChangeRequest(ctx, cr.ID)
	if err != nil {
		return nil, err
	}
	billing, err := s.events.ListBillingEventsByChangeRequest(ctx, cr.ID)
	if err != nil {
		return nil, err
	}

	number := appendixNumber(cr.DisplayID)
	content, err := s.pdf.Generate(model.AppendixDocument{
		Appendix: model.ContractAppendix{
			ChangeRequestID: cr.ID,
			ContractID:      cr.ContractID,
			AppendixNumber:  number,
		},
		Contract:       *contract,
		ChangeRequest:  *cr,
		ResourceEvents: resources,
		BillingEvents:  billing,
	})
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName: fmt.Sprintf("%s.pdf", strings.ToLower(number)),
		Content:  content,
	}, nil
}

func (s *ChangeRequestService) get(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	cr, err := s.requests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: change request %s", ErrNotFound, id)
		}
		return nil, err
	}
	return cr, nil
}

func (s *ChangeRequestService) transition(ctx context.Context, change repository.StatusChange) error {
	if !change.From.CanTransitionTo(change.To) {
		return fmt.Errorf("%w: transition %s -> %s is not allowed", ErrInvalidState, change.From, change.To)
	}
	if err := s.requests.Transition(ctx, change); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: change request %s is no longer in status %s", ErrInvalidState, change.ID, change.From)
		}
		return err
	}
	return nil
}

// appendixNumber derives AP-YYYY-NN from the change request display id, so
// appendices inherit the per-year uniqueness of CR numbers.
func appendixNumber(displayID string) string {
	return "AP-" + strings.TrimPrefix(displayID, "CR-")
}

func historyNote(base, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return base
	}
	return base + ". Notes: " + note
}
