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
)

type StatementGenerator interface {
	Generate(statement model.LedgerStatement) ([]byte, error)
}

// LedgerService owns the event store operations and the temporal
// reconstruction engine. Events are append-only; which ones count is gated
// purely by the owning change request's status.
type LedgerService struct {
	contracts ContractStore
	requests  ChangeRequestStore
	events    EventStore
	baselines BaselineStore
	excel     StatementGenerator
	log       zerolog.Logger
}

func NewLedgerService(
	contracts ContractStore,
	requests ChangeRequestStore,
	events EventStore,
	baselines BaselineStore,
	excel StatementGenerator,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		contracts: contracts,
		requests:  requests,
		events:    events,
		baselines: baselines,
		excel:     excel,
		log:       log,
	}
}

type RecordResourceEventInput struct {
	ChangeRequestID uuid.UUID
	Action          model.ResourceAction
	EngineerID      uuid.UUID // required for MODIFY and END, ignored for ADD
	Role            *string
	Level           *string
	Rating          *float64
	BillingType     *model.BillingType
	HourlyRate      *decimal.Decimal
	Hours           *decimal.Decimal
	MonthlySalary   *decimal.Decimal
	StartDate       *time.Time
	EndDate         *time.Time
	EffectiveStart  time.Time
}

// RecordResourceEvent appends one roster delta to a Draft change request.
// Once the request leaves Draft its event set is frozen.
func (s *LedgerService) RecordResourceEvent(ctx context.Context, input RecordResourceEventInput) (*model.ResourceEvent, error) {
	cr, err := s.draftChangeRequest(ctx, input.ChangeRequestID)
	if err != nil {
		return nil, err
	}

	if input.EffectiveStart.IsZero() {
		return nil, fmt.Errorf("%w: effective_start is required", ErrInvalidInput)
	}

	event := model.ResourceEvent{
		ChangeRequestID: cr.ID,
		Action:          input.Action,
		EngineerID:      input.EngineerID,
		Role:            input.Role,
		Level:           input.Level,
		Rating:          input.Rating,
		BillingType:     input.BillingType,
		HourlyRate:      input.HourlyRate,
		Hours:           input.Hours,
		MonthlySalary:   input.MonthlySalary,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		EffectiveStart:  model.DateOnly(input.EffectiveStart),
	}

	switch input.Action {
	case model.ResourceActionAdd:
		if err := validateAddEvent(input); err != nil {
			return nil, err
		}
		// A new engineer gets its identity here; later MODIFY/END events
		// reference it.
		event.EngineerID = uuid.New()
	case model.ResourceActionModify:
		if input.EngineerID == uuid.Nil {
			return nil, fmt.Errorf("%w: engineer_id is required for MODIFY", ErrInvalidInput)
		}
		if !hasAnyChange(input) {
			return nil, fmt.Errorf("%w: MODIFY event carries no fields", ErrInvalidInput)
		}
	case model.ResourceActionEnd:
		if input.EngineerID == uuid.Nil {
			return nil, fmt.Errorf("%w: engineer_id is required for END", ErrInvalidInput)
		}
		if input.EndDate == nil {
			return nil, fmt.Errorf("%w: end_date is required for END", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown resource action %q", ErrInvalidInput, input.Action)
	}

	saved, err := s.events.CreateResourceEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("change_request_id", cr.ID.String()).
		Str("action", string(saved.Action)).
		Str("engineer_id", saved.EngineerID.String()).
		Msg("resource event recorded")
	return saved, nil
}

// RecordBillingEvent appends one monthly billing delta to a Draft change
// request. The month key collapses onto the first day of its calendar month.
func (s *LedgerService) RecordBillingEvent(ctx context.Context, changeRequestID uuid.UUID, billingMonth time.Time, deltaAmount decimal.Decimal, description string) (*model.BillingEvent, error) {
	cr, err := s.draftChangeRequest(ctx, changeRequestID)
	if err != nil {
		return nil, err
	}

	if billingMonth.IsZero() {
		return nil, fmt.Errorf("%w: billing_month is required", ErrInvalidInput)
	}
	if deltaAmount.IsZero() {
		return nil, fmt.Errorf("%w: delta_amount must be non-zero", ErrInvalidInput)
	}

	saved, err := s.events.CreateBillingEvent(ctx, model.BillingEvent{
		ChangeRequestID: cr.ID,
		BillingMonth:    model.FirstOfMonth(billingMonth),
		DeltaAmount:     deltaAmount,
		Description:     description,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("change_request_id", cr.ID.String()).
		Str("billing_month", saved.BillingMonth.Format("2006-01")).
		Str("delta_amount", saved.DeltaAmount.String()).
		Msg("billing event recorded")
	return saved, nil
}

// EventsByChangeRequest returns both event collections of one change request.
func (s *LedgerService) EventsByChangeRequest(ctx context.Context, changeRequestID uuid.UUID) ([]model.ResourceEvent, []model.BillingEvent, error) {
	if _, err := s.requests.Get(ctx, changeRequestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: change request %s", ErrNotFound, changeRequestID)
		}
		return nil, nil, err
	}

	resources, err := s.events.ListResourceEventsByChangeRequest(ctx, changeRequestID)
	if err != nil {
		return nil, nil, err
	}
	billing, err := s.events.ListBillingEventsByChangeRequest(ctx, changeRequestID)
	if err != nil {
		return nil, nil, err
	}
	return resources, billing, nil
}

// CurrentResources reconstructs the engineer roster engaged on asOf:
// baseline engineers active on that day, with every eligible event up to and
// including asOf folded in, in (effective_start, created_at) order.
// Baseline and events live on the family root, the same anchor change
// requests attach to, so any version's id answers for the whole family.
func (s *LedgerService) CurrentResources(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]model.EngineerState, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, err
	}
	rootID := contract.FamilyRootID()

	day := model.DateOnly(asOf)

	baseline, err := s.baselines.ListEngineersActiveAt(ctx, rootID, day)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListEligibleResourceEvents(ctx, rootID, day)
	if err != nil {
		return nil, err
	}

	return replayRoster(baseline, events, day), nil
}

// CurrentBilling reconstructs the billing total for one calendar month:
// baseline amount (zero if the month has none) plus the sum of all eligible
// billing deltas for that month. Exact decimal arithmetic throughout.
func (s *LedgerService) CurrentBilling(ctx context.Context, contractID uuid.UUID, billingMonth time.Time) (decimal.Decimal, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return decimal.Zero, err
	}
	rootID := contract.FamilyRootID()

	month := model.FirstOfMonth(billingMonth)

	total := decimal.Zero
	base, err := s.baselines.GetBillingMonth(ctx, rootID, month)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}
	if base != nil {
		total = base.Amount
	}

	events, err := s.events.ListEligibleBillingEventsForMonth(ctx, rootID, month)
	if err != nil {
		return decimal.Zero, err
	}
	for _, event := range events {
		total = total.Add(event.DeltaAmount)
	}
	return total, nil
}

// CurrentState bundles the as-of roster with the billing total of asOf's
// calendar month.
func (s *LedgerService) CurrentState(ctx context.Context, contractID uuid.UUID, asOf time.Time) (*model.LedgerState, error) {
	engineers, err := s.CurrentResources(ctx, contractID, asOf)
	if err != nil {
		return nil, err
	}
	month := model.FirstOfMonth(asOf)
	billing, err := s.CurrentBilling(ctx, contractID, month)
	if err != nil {
		return nil, err
	}

	return &model.LedgerState{
		ContractID:   contractID,
		AsOf:         model.DateOnly(asOf),
		Engineers:    engineers,
		BillingMonth: month,
		BillingTotal: billing,
	}, nil
}

type EventFilter struct {
	Type string // "resource", "billing" or "" for both
	From *time.Time
	To   *time.Time
}

// Events lists raw events of a contract for detail views, unfiltered by
// eligibility.
func (s *LedgerService) Events(ctx context.Context, contractID uuid.UUID, filter EventFilter) ([]model.ResourceEvent, []model.BillingEvent, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, nil, err
	}
	rootID := contract.FamilyRootID()

	var resources []model.ResourceEvent
	var billing []model.BillingEvent

	switch strings.ToLower(filter.Type) {
	case "", "resource", "billing":
	default:
		return nil, nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, filter.Type)
	}

	if filter.Type == "" || strings.EqualFold(filter.Type, "resource") {
		resources, err = s.events.ListResourceEvents(ctx, rootID, filter.From, filter.To)
		if err != nil {
			return nil, nil, err
		}
	}
	if filter.Type == "" || strings.EqualFold(filter.Type, "billing") {
		billing, err = s.events.ListBillingEvents(ctx, rootID, filter.From, filter.To)
		if err != nil {
			return nil, nil, err
		}
	}
	return resources, billing, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportStatement renders the reconstructed state of a contract into an
// Excel workbook.
func (s *LedgerService) ExportStatement(ctx context.Context, contractID uuid.UUID, asOf time.Time) (*ExportResult, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, err
	}

	rootID := contract.FamilyRootID()

	engineers, err := s.CurrentResources(ctx, contractID, asOf)
	if err != nil {
		return nil, err
	}
	months, err := s.baselines.ListBillingMonths(ctx, rootID)
	if err != nil {
		return nil, err
	}
	billingEvents, err := s.events.ListBillingEvents(ctx, rootID, nil, nil)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(model.LedgerStatement{
		Contract:      *contract,
		AsOf:          model.DateOnly(asOf),
		Engineers:     engineers,
		BillingMonths: months,
		BillingEvents: billingEvents,
	})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("ledger-%s-%s.xlsx", sanitizeFileName(contract.Name), asOf.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func (s *LedgerService) draftChangeRequest(ctx context.Context, id uuid.UUID) (*model.ChangeRequest, error) {
	cr, err := s.requests.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: change request %s", ErrNotFound, id)
		}
		return nil, err
	}
	if cr.Status != model.CRStatusDraft {
		return nil, fmt.Errorf("%w: events can only be recorded while the change request is Draft, current status %s", ErrInvalidState, cr.Status)
	}
	return cr, nil
}

func validateAddEvent(input RecordResourceEventInput) error {
	if input.Role == nil || strings.TrimSpace(*input.Role) == "" {
		return fmt.Errorf("%w: role is required for ADD", ErrInvalidInput)
	}
	if input.Level == nil || strings.TrimSpace(*input.Level) == "" {
		return fmt.Errorf("%w: level is required for ADD", ErrInvalidInput)
	}
	if input.StartDate == nil {
		return fmt.Errorf("%w: start_date is required for ADD", ErrInvalidInput)
	}
	if input.BillingType == nil {
		return fmt.Errorf("%w: billing_type is required for ADD", ErrInvalidInput)
	}
	switch *input.BillingType {
	case model.BillingTypeHourly:
		if input.HourlyRate == nil || input.Hours == nil {
			return fmt.Errorf("%w: hourly engineers need hourly_rate and hours", ErrInvalidInput)
		}
	case model.BillingTypeMonthly:
		if input.MonthlySalary == nil {
			return fmt.Errorf("%w: monthly engineers need monthly_salary", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown billing type %q", ErrInvalidInput, *input.BillingType)
	}
	return nil
}

func hasAnyChange(input RecordResourceEventInput) bool {
	return input.Role != nil ||
		input.Level != nil ||
		input.Rating != nil ||
		input.BillingType != nil ||
		input.HourlyRate != nil ||
		input.Hours != nil ||
		input.MonthlySalary != nil ||
		input.StartDate != nil ||
		input.EndDate != nil
}

// replayRoster folds eligible events into the baseline roster. Events must
// already be ordered by (effective_start, created_at). Each event replaces
// only the fields it carries; everything else is carried forward from the
// engineer's last-known state. The final pass drops engineers whose
// engagement interval no longer contains the as-of day and deduplicates by
// engineer id, keeping first-seen order.
func replayRoster(baseline []model.BaselineEngineer, events []model.ResourceEvent, asOf time.Time) []model.EngineerState {
	order := make([]uuid.UUID, 0, len(baseline))
	states := make(map[uuid.UUID]*model.EngineerState, len(baseline))

	for _, engineer := range baseline {
		if _, seen := states[engineer.ID]; seen {
			continue
		}
		state := model.EngineerState{
			EngineerID:    engineer.ID,
			Role:          engineer.Role,
			Level:         engineer.Level,
			Rating:        engineer.Rating,
			BillingType:   engineer.BillingType,
			HourlyRate:    engineer.HourlyRate,
			Hours:         engineer.Hours,
			MonthlySalary: engineer.MonthlySalary,
			StartDate:     engineer.StartDate,
			EndDate:       engineer.EndDate,
		}
		states[engineer.ID] = &state
		order = append(order, engineer.ID)
	}

	for _, event := range events {
		switch event.Action {
		case model.ResourceActionAdd:
			if _, seen := states[event.EngineerID]; seen {
				continue
			}
			state := &model.EngineerState{EngineerID: event.EngineerID}
			applyEventFields(state, event)
			states[event.EngineerID] = state
			order = append(order, event.EngineerID)
		case model.ResourceActionModify:
			if state, ok := states[event.EngineerID]; ok {
				applyEventFields(state, event)
			}
		case model.ResourceActionEnd:
			if state, ok := states[event.EngineerID]; ok {
				if event.EndDate != nil {
					state.EndDate = event.EndDate
				}
			}
		}
	}

	roster := make([]model.EngineerState, 0, len(order))
	for _, id := range order {
		state := states[id]
		if state.ActiveAt(asOf) {
			roster = append(roster, *state)
		}
	}
	return roster
}

func applyEventFields(state *model.EngineerState, event model.ResourceEvent) {
	if event.Role != nil {
		state.Role = *event.Role
	}
	if event.Level != nil {
		state.Level = *event.Level
	}
	if event.Rating != nil {
		state.Rating = *event.Rating
	}
	if event.BillingType != nil {
		state.BillingType = *event.BillingType
	}
	if event.HourlyRate != nil {
		state.HourlyRate = event.HourlyRate
	}
	if event.Hours != nil {
		state.Hours = event.Hours
	}
	if event.MonthlySalary != nil {
		state.MonthlySalary = event.MonthlySalary
	}
	if event.StartDate != nil {
		state.StartDate = *event.StartDate
	}
	if event.EndDate != nil {
		state.EndDate = event.EndDate
	}
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
