package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
	"github.com/landbridge/contract-ledger/internal/repository"
)

// In-memory stores mirroring the repository semantics, including the
// not-found sentinel and the guarded status transition.

type fakeContractStore struct {
	contracts       map[uuid.UUID]model.Contract
	engineers       map[uuid.UUID][]model.BaselineEngineer
	billingDetails  map[uuid.UUID][]model.BaselineBillingMonth
	statusUpdates   []model.ContractStatus
	createdVersions []model.Contract
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{
		contracts:      make(map[uuid.UUID]model.Contract),
		engineers:      make(map[uuid.UUID][]model.BaselineEngineer),
		billingDetails: make(map[uuid.UUID][]model.BaselineBillingMonth),
	}
}

func (f *fakeContractStore) put(contract model.Contract) {
	f.contracts[contract.ID] = contract
}

func (f *fakeContractStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, ok := f.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (f *fakeContractStore) ListCurrentEngineers(_ context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error) {
	return f.engineers[contractID], nil
}

func (f *fakeContractStore) ListCurrentBillingDetails(_ context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error) {
	return f.billingDetails[contractID], nil
}

func (f *fakeContractStore) MaxFamilyVersion(_ context.Context, rootID uuid.UUID) (int, error) {
	max := 0
	for _, contract := range f.contracts {
		if contract.ID == rootID || (contract.ParentVersionID != nil && *contract.ParentVersionID == rootID) {
			if contract.Version > max {
				max = contract.Version
			}
		}
	}
	return max, nil
}

func (f *fakeContractStore) CreateVersion(_ context.Context, contract model.Contract) (*model.Contract, error) {
	contract.ID = uuid.New()
	contract.CreatedAt = time.Now().UTC()
	f.contracts[contract.ID] = contract
	f.createdVersions = append(f.createdVersions, contract)
	return &contract, nil
}

func (f *fakeContractStore) ListFamilyVersions(_ context.Context, rootID uuid.UUID) ([]model.Contract, error) {
	var versions []model.Contract
	for _, contract := range f.contracts {
		if contract.ID == rootID || (contract.ParentVersionID != nil && *contract.ParentVersionID == rootID) {
			versions = append(versions, contract)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
	return versions, nil
}

func (f *fakeContractStore) UpdateStatus(_ context.Context, id uuid.UUID, status model.ContractStatus) error {
	contract, ok := f.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	contract.Status = status
	f.contracts[id] = contract
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeBaselineStore struct {
	engineers     map[uuid.UUID][]model.BaselineEngineer
	billingMonths map[uuid.UUID][]model.BaselineBillingMonth
	totals        map[uuid.UUID]decimal.Decimal
	createCalls   int
}

func newFakeBaselineStore() *fakeBaselineStore {
	return &fakeBaselineStore{
		engineers:     make(map[uuid.UUID][]model.BaselineEngineer),
		billingMonths: make(map[uuid.UUID][]model.BaselineBillingMonth),
		totals:        make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeBaselineStore) HasBaseline(_ context.Context, contractID uuid.UUID) (bool, error) {
	return len(f.engineers[contractID]) > 0 || len(f.billingMonths[contractID]) > 0, nil
}

func (f *fakeBaselineStore) CreateBaseline(_ context.Context, contractID uuid.UUID, engineers []model.BaselineEngineer, billing []model.BaselineBillingMonth, totalAmount decimal.Decimal) error {
	for i := range engineers {
		if engineers[i].ID == uuid.Nil {
			engineers[i].ID = uuid.New()
		}
		engineers[i].ContractID = contractID
	}
	for i := range billing {
		if billing[i].ID == uuid.Nil {
			billing[i].ID = uuid.New()
		}
		billing[i].ContractID = contractID
	}
	f.engineers[contractID] = engineers
	f.billingMonths[contractID] = billing
	f.totals[contractID] = totalAmount
	f.createCalls++
	return nil
}

func (f *fakeBaselineStore) ListEngineers(_ context.Context, contractID uuid.UUID) ([]model.BaselineEngineer, error) {
	return f.engineers[contractID], nil
}

func (f *fakeBaselineStore) ListEngineersActiveAt(_ context.Context, contractID uuid.UUID, day time.Time) ([]model.BaselineEngineer, error) {
	var active []model.BaselineEngineer
	for _, engineer := range f.engineers[contractID] {
		if engineer.ActiveAt(day) {
			active = append(active, engineer)
		}
	}
	return active, nil
}

func (f *fakeBaselineStore) ListBillingMonths(_ context.Context, contractID uuid.UUID) ([]model.BaselineBillingMonth, error) {
	return f.billingMonths[contractID], nil
}

func (f *fakeBaselineStore) GetBillingMonth(_ context.Context, contractID uuid.UUID, month time.Time) (*model.BaselineBillingMonth, error) {
	for _, billing := range f.billingMonths[contractID] {
		if billing.BillingMonth.Equal(month) {
			return &billing, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeChangeRequestStore struct {
	requests    map[uuid.UUID]model.ChangeRequest
	history     map[uuid.UUID][]model.ChangeRequestHistory
	attachments map[uuid.UUID][]model.ChangeRequestAttachment
	appendices  []model.ContractAppendix
	nextNumber  int
}

func newFakeChangeRequestStore() *fakeChangeRequestStore {
	return &fakeChangeRequestStore{
		requests:    make(map[uuid.UUID]model.ChangeRequest),
		history:     make(map[uuid.UUID][]model.ChangeRequestHistory),
		attachments: make(map[uuid.UUID][]model.ChangeRequestAttachment),
	}
}

func (f *fakeChangeRequestStore) put(cr model.ChangeRequest) {
	f.requests[cr.ID] = cr
}

func (f *fakeChangeRequestStore) Create(_ context.Context, cr model.ChangeRequest, attachments []model.ChangeRequestAttachment) (*model.ChangeRequest, error) {
	f.nextNumber++
	cr.ID = uuid.New()
	cr.DisplayID = fmt.Sprintf("CR-%d-%02d", time.Now().UTC().Year(), f.nextNumber)
	cr.CreatedAt = time.Now().UTC()
	cr.UpdatedAt = cr.CreatedAt
	f.requests[cr.ID] = cr

	for i := range attachments {
		attachments[i].ID = uuid.New()
		attachments[i].ChangeRequestID = cr.ID
	}
	f.attachments[cr.ID] = attachments

	f.history[cr.ID] = append(f.history[cr.ID], model.ChangeRequestHistory{
		ID:              uuid.New(),
		ChangeRequestID: cr.ID,
		Action:          "CREATED",
		ToStatus:        cr.Status,
		CreatedBy:       cr.CreatedBy,
		CreatedAt:       cr.CreatedAt,
	})
	return &cr, nil
}

func (f *fakeChangeRequestStore) Get(_ context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	cr, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &cr, nil
}

func (f *fakeChangeRequestStore) ListByContract(_ context.Context, contractID uuid.UUID) ([]model.ChangeRequest, error) {
	var requests []model.ChangeRequest
	for _, cr := range f.requests {
		if cr.ContractID == contractID {
			requests = append(requests, cr)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.Before(requests[j].CreatedAt) })
	return requests, nil
}

func (f *fakeChangeRequestStore) UpdateDraft(_ context.Context, cr model.ChangeRequest, actor uuid.UUID) error {
	stored, ok := f.requests[cr.ID]
	if !ok || stored.Status != model.CRStatusDraft {
		return gorm.ErrRecordNotFound
	}
	cr.UpdatedAt = time.Now().UTC()
	f.requests[cr.ID] = cr
	f.history[cr.ID] = append(f.history[cr.ID], model.ChangeRequestHistory{
		ID:              uuid.New(),
		ChangeRequestID: cr.ID,
		Action:          "UPDATED",
		FromStatus:      stored.Status,
		ToStatus:        cr.Status,
		CreatedBy:       actor,
		CreatedAt:       cr.UpdatedAt,
	})
	return nil
}

func (f *fakeChangeRequestStore) Transition(_ context.Context, change repository.StatusChange) error {
	cr, ok := f.requests[change.ID]
	if !ok || cr.Status != change.From {
		return gorm.ErrRecordNotFound
	}
	cr.Status = change.To
	if change.ReviewerID != nil {
		cr.InternalReviewerID = change.ReviewerID
	}
	if change.SetApproval {
		cr.ApprovedBy = &change.Actor
		approvedAt := change.ApprovalTime
		cr.ApprovedAt = &approvedAt
	}
	cr.UpdatedAt = time.Now().UTC()
	f.requests[change.ID] = cr
	if change.Appendix != nil {
		appendix := *change.Appendix
		appendix.ID = uuid.New()
		appendix.CreatedAt = cr.UpdatedAt
		f.appendices = append(f.appendices, appendix)
	}
	f.history[change.ID] = append(f.history[change.ID], model.ChangeRequestHistory{
		ID:              uuid.New(),
		ChangeRequestID: change.ID,
		Action:          change.Action,
		FromStatus:      change.From,
		ToStatus:        change.To,
		Note:            change.Note,
		CreatedBy:       change.Actor,
		CreatedAt:       cr.UpdatedAt,
	})
	return nil
}

func (f *fakeChangeRequestStore) Delete(_ context.Context, id uuid.UUID) error {
	cr, ok := f.requests[id]
	if !ok || cr.Status != model.CRStatusDraft {
		return gorm.ErrRecordNotFound
	}
	delete(f.requests, id)
	delete(f.history, id)
	delete(f.attachments, id)
	return nil
}

func (f *fakeChangeRequestStore) ListHistory(_ context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestHistory, error) {
	history := append([]model.ChangeRequestHistory(nil), f.history[changeRequestID]...)
	sort.Slice(history, func(i, j int) bool { return history[i].CreatedAt.After(history[j].CreatedAt) })
	return history, nil
}

func (f *fakeChangeRequestStore) ListAttachments(_ context.Context, changeRequestID uuid.UUID) ([]model.ChangeRequestAttachment, error) {
	return f.attachments[changeRequestID], nil
}

type fakeEventStore struct {
	requests       *fakeChangeRequestStore
	resourceEvents []model.ResourceEvent
	billingEvents  []model.BillingEvent
	clock          time.Time
}

func newFakeEventStore(requests *fakeChangeRequestStore) *fakeEventStore {
	return &fakeEventStore{
		requests: requests,
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeEventStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeEventStore) CreateResourceEvent(_ context.Context, event model.ResourceEvent) (*model.ResourceEvent, error) {
	event.ID = uuid.New()
	event.CreatedAt = f.tick()
	f.resourceEvents = append(f.resourceEvents, event)
	return &event, nil
}

func (f *fakeEventStore) CreateBillingEvent(_ context.Context, event model.BillingEvent) (*model.BillingEvent, error) {
	event.ID = uuid.New()
	event.CreatedAt = f.tick()
	f.billingEvents = append(f.billingEvents, event)
	return &event, nil
}

func (f *fakeEventStore) ListResourceEventsByChangeRequest(_ context.Context, changeRequestID uuid.UUID) ([]model.ResourceEvent, error) {
	var events []model.ResourceEvent
	for _, event := range f.resourceEvents {
		if event.ChangeRequestID == changeRequestID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeEventStore) ListBillingEventsByChangeRequest(_ context.Context, changeRequestID uuid.UUID) ([]model.BillingEvent, error) {
	var events []model.BillingEvent
	for _, event := range f.billingEvents {
		if event.ChangeRequestID == changeRequestID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeEventStore) eligible(changeRequestID uuid.UUID, contractID uuid.UUID) bool {
	cr, ok := f.requests.requests[changeRequestID]
	return ok && cr.ContractID == contractID && cr.Status.EventsEligible()
}

func (f *fakeEventStore) ListEligibleResourceEvents(_ context.Context, contractID uuid.UUID, asOf time.Time) ([]model.ResourceEvent, error) {
	var events []model.ResourceEvent
	for _, event := range f.resourceEvents {
		if f.eligible(event.ChangeRequestID, contractID) && !event.EffectiveStart.After(asOf) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].EffectiveStart.Equal(events[j].EffectiveStart) {
			return events[i].EffectiveStart.Before(events[j].EffectiveStart)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (f *fakeEventStore) ListEligibleBillingEventsForMonth(_ context.Context, contractID uuid.UUID, month time.Time) ([]model.BillingEvent, error) {
	var events []model.BillingEvent
	for _, event := range f.billingEvents {
		if f.eligible(event.ChangeRequestID, contractID) && event.BillingMonth.Equal(month) {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (f *fakeEventStore) owns(changeRequestID uuid.UUID, contractID uuid.UUID) bool {
	cr, ok := f.requests.requests[changeRequestID]
	return ok && cr.ContractID == contractID
}

func (f *fakeEventStore) ListResourceEvents(_ context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.ResourceEvent, error) {
	var events []model.ResourceEvent
	for _, event := range f.resourceEvents {
		if !f.owns(event.ChangeRequestID, contractID) {
			continue
		}
		if from != nil && event.EffectiveStart.Before(*from) {
			continue
		}
		if to != nil && event.EffectiveStart.After(*to) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].EffectiveStart.Equal(events[j].EffectiveStart) {
			return events[i].EffectiveStart.Before(events[j].EffectiveStart)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (f *fakeEventStore) ListBillingEvents(_ context.Context, contractID uuid.UUID, from, to *time.Time) ([]model.BillingEvent, error) {
	var events []model.BillingEvent
	for _, event := range f.billingEvents {
		if !f.owns(event.ChangeRequestID, contractID) {
			continue
		}
		if from != nil && event.BillingMonth.Before(*from) {
			continue
		}
		if to != nil && event.BillingMonth.After(*to) {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].BillingMonth.Equal(events[j].BillingMonth) {
			return events[i].BillingMonth.Before(events[j].BillingMonth)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

type fakeStatementGenerator struct{ calls int }

func (f *fakeStatementGenerator) Generate(model.LedgerStatement) ([]byte, error) {
	f.calls++
	return []byte("xlsx"), nil
}

type fakeAppendixRenderer struct{ calls int }

func (f *fakeAppendixRenderer) Generate(model.AppendixDocument) ([]byte, error) {
	f.calls++
	return []byte("pdf"), nil
}
