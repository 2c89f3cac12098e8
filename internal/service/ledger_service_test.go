package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landbridge/contract-ledger/internal/model"
)

type ledgerFixture struct {
	contracts *fakeContractStore
	baselines *fakeBaselineStore
	requests  *fakeChangeRequestStore
	events    *fakeEventStore
	svc       *LedgerService
	contract  model.Contract
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	contracts := newFakeContractStore()
	baselines := newFakeBaselineStore()
	requests := newFakeChangeRequestStore()
	events := newFakeEventStore(requests)

	contract := retainerContract()
	contracts.put(contract)

	return &ledgerFixture{
		contracts: contracts,
		baselines: baselines,
		requests:  requests,
		events:    events,
		svc:       NewLedgerService(contracts, requests, events, baselines, &fakeStatementGenerator{}, zerolog.Nop()),
		contract:  contract,
	}
}

// changeRequest seeds a change request in the given status, attached to the
// fixture contract.
func (f *ledgerFixture) changeRequest(t *testing.T, status model.ChangeRequestStatus) model.ChangeRequest {
	t.Helper()

	cr, err := f.requests.Create(context.Background(), model.ChangeRequest{
		ContractID: f.contract.ID,
		Title:      "Swap a backend engineer",
		Type:       model.CRTypeResourceChange,
		Status:     model.CRStatusDraft,
		CreatedBy:  uuid.New(),
	}, nil)
	require.NoError(t, err)

	if status != model.CRStatusDraft {
		stored := *cr
		stored.Status = status
		f.requests.put(stored)
		cr = &stored
	}
	return *cr
}

func (f *ledgerFixture) seedBaselineEngineer(id uuid.UUID) {
	rate := decimal.RequireFromString("80.00")
	hours := decimal.RequireFromString("160")
	f.baselines.engineers[f.contract.ID] = append(f.baselines.engineers[f.contract.ID], model.BaselineEngineer{
		ID:          id,
		ContractID:  f.contract.ID,
		Role:        "Backend Engineer",
		Level:       "Middle",
		Rating:      4.2,
		BillingType: model.BillingTypeHourly,
		HourlyRate:  &rate,
		Hours:       &hours,
		StartDate:   testDate(2026, time.January, 1),
	})
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func datePtr(t time.Time) *time.Time { return &t }

func billingPtr(b model.BillingType) *model.BillingType { return &b }

func addEventInput(crID uuid.UUID, effective time.Time) RecordResourceEventInput {
	return RecordResourceEventInput{
		ChangeRequestID: crID,
		Action:          model.ResourceActionAdd,
		Role:            strPtr("Frontend Engineer"),
		Level:           strPtr("Senior"),
		BillingType:     billingPtr(model.BillingTypeHourly),
		HourlyRate:      decPtr("100.00"),
		Hours:           decPtr("120"),
		StartDate:       datePtr(effective),
		EffectiveStart:  effective,
	}
}

func TestRecordResourceEventOnlyWhileDraft(t *testing.T) {
	f := newLedgerFixture(t)

	for _, status := range []model.ChangeRequestStatus{
		model.CRStatusUnderReview,
		model.CRStatusActive,
		model.CRStatusRejected,
	} {
		cr := f.changeRequest(t, status)
		_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, testDate(2026, time.March, 1)))
		assert.ErrorIs(t, err, ErrInvalidState, "status %s", status)
	}

	cr := f.changeRequest(t, model.CRStatusDraft)
	event, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, testDate(2026, time.March, 1)))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.EngineerID)
}

func TestRecordResourceEventUnknownChangeRequest(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(uuid.New(), testDate(2026, time.March, 1)))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordResourceEventValidation(t *testing.T) {
	f := newLedgerFixture(t)
	cr := f.changeRequest(t, model.CRStatusDraft)
	effective := testDate(2026, time.March, 1)

	t.Run("add requires role", func(t *testing.T) {
		input := addEventInput(cr.ID, effective)
		input.Role = nil
		_, err := f.svc.RecordResourceEvent(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("hourly add requires rate and hours", func(t *testing.T) {
		input := addEventInput(cr.ID, effective)
		input.Hours = nil
		_, err := f.svc.RecordResourceEvent(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("monthly add requires salary", func(t *testing.T) {
		input := addEventInput(cr.ID, effective)
		input.BillingType = billingPtr(model.BillingTypeMonthly)
		input.MonthlySalary = nil
		_, err := f.svc.RecordResourceEvent(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("modify requires engineer id", func(t *testing.T) {
		_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
			ChangeRequestID: cr.ID,
			Action:          model.ResourceActionModify,
			Level:           strPtr("Senior"),
			EffectiveStart:  effective,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("modify requires at least one field", func(t *testing.T) {
		_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
			ChangeRequestID: cr.ID,
			Action:          model.ResourceActionModify,
			EngineerID:      uuid.New(),
			EffectiveStart:  effective,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("end requires end date", func(t *testing.T) {
		_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
			ChangeRequestID: cr.ID,
			Action:          model.ResourceActionEnd,
			EngineerID:      uuid.New(),
			EffectiveStart:  effective,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
			ChangeRequestID: cr.ID,
			Action:          model.ResourceAction("REPLACE"),
			EffectiveStart:  effective,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRecordBillingEventNormalizesMonth(t *testing.T) {
	f := newLedgerFixture(t)
	cr := f.changeRequest(t, model.CRStatusDraft)

	event, err := f.svc.RecordBillingEvent(context.Background(), cr.ID, testDate(2026, time.April, 17), decimal.RequireFromString("500.00"), "extra capacity")
	require.NoError(t, err)
	assert.Equal(t, testDate(2026, time.April, 1), event.BillingMonth)
}

func TestRecordBillingEventRejectsZeroDelta(t *testing.T) {
	f := newLedgerFixture(t)
	cr := f.changeRequest(t, model.CRStatusDraft)

	_, err := f.svc.RecordBillingEvent(context.Background(), cr.ID, testDate(2026, time.April, 1), decimal.Zero, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCurrentResourcesGatesOnChangeRequestStatus(t *testing.T) {
	f := newLedgerFixture(t)
	asOf := testDate(2026, time.June, 1)

	// One ADD per change request status; only the Active one should count.
	for _, status := range []model.ChangeRequestStatus{
		model.CRStatusDraft,
		model.CRStatusUnderReview,
		model.CRStatusRejected,
		model.CRStatusTerminated,
		model.CRStatusActive,
	} {
		cr := f.changeRequest(t, model.CRStatusDraft)
		_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, testDate(2026, time.March, 1)))
		require.NoError(t, err)

		stored := cr
		stored.Status = status
		f.requests.put(stored)
	}

	roster, err := f.svc.CurrentResources(context.Background(), f.contract.ID, asOf)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestCurrentResourcesCarryForward(t *testing.T) {
	f := newLedgerFixture(t)
	engineerID := uuid.New()
	f.seedBaselineEngineer(engineerID)

	cr := f.changeRequest(t, model.CRStatusDraft)
	_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
		ChangeRequestID: cr.ID,
		Action:          model.ResourceActionModify,
		EngineerID:      engineerID,
		Level:           strPtr("Senior"),
		EffectiveStart:  testDate(2026, time.April, 1),
	})
	require.NoError(t, err)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	roster, err := f.svc.CurrentResources(context.Background(), f.contract.ID, testDate(2026, time.May, 1))
	require.NoError(t, err)
	require.Len(t, roster, 1)

	// The carried fields keep their baseline values, only the level changed.
	assert.Equal(t, "Senior", roster[0].Level)
	assert.Equal(t, "Backend Engineer", roster[0].Role)
	assert.Equal(t, 4.2, roster[0].Rating)
	require.NotNil(t, roster[0].HourlyRate)
	assert.True(t, roster[0].HourlyRate.Equal(decimal.RequireFromString("80.00")))
}

func TestCurrentResourcesTemporalBoundaries(t *testing.T) {
	f := newLedgerFixture(t)

	cr := f.changeRequest(t, model.CRStatusDraft)
	effective := testDate(2026, time.April, 10)
	_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, effective))
	require.NoError(t, err)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	before, err := f.svc.CurrentResources(context.Background(), f.contract.ID, testDate(2026, time.April, 9))
	require.NoError(t, err)
	assert.Empty(t, before)

	onDay, err := f.svc.CurrentResources(context.Background(), f.contract.ID, effective)
	require.NoError(t, err)
	assert.Len(t, onDay, 1)
}

func TestCurrentResourcesEndEvent(t *testing.T) {
	f := newLedgerFixture(t)
	engineerID := uuid.New()
	f.seedBaselineEngineer(engineerID)

	cr := f.changeRequest(t, model.CRStatusDraft)
	end := testDate(2026, time.May, 31)
	_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
		ChangeRequestID: cr.ID,
		Action:          model.ResourceActionEnd,
		EngineerID:      engineerID,
		EndDate:         &end,
		EffectiveStart:  testDate(2026, time.May, 1),
	})
	require.NoError(t, err)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	during, err := f.svc.CurrentResources(context.Background(), f.contract.ID, testDate(2026, time.May, 15))
	require.NoError(t, err)
	assert.Len(t, during, 1)

	after, err := f.svc.CurrentResources(context.Background(), f.contract.ID, testDate(2026, time.June, 1))
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestCurrentBillingAddsDeltasToBaseline(t *testing.T) {
	f := newLedgerFixture(t)
	april := testDate(2026, time.April, 1)
	f.baselines.billingMonths[f.contract.ID] = []model.BaselineBillingMonth{
		{ID: uuid.New(), ContractID: f.contract.ID, BillingMonth: april, Amount: decimal.RequireFromString("10000.00")},
	}

	cr := f.changeRequest(t, model.CRStatusDraft)
	_, err := f.svc.RecordBillingEvent(context.Background(), cr.ID, april, decimal.RequireFromString("1500.00"), "added capacity")
	require.NoError(t, err)
	_, err = f.svc.RecordBillingEvent(context.Background(), cr.ID, april, decimal.RequireFromString("-250.50"), "credit")
	require.NoError(t, err)

	// Deltas from a Draft request do not count yet.
	total, err := f.svc.CurrentBilling(context.Background(), f.contract.ID, april)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("10000.00")), "got %s", total)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	total, err = f.svc.CurrentBilling(context.Background(), f.contract.ID, april)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("11249.50")), "got %s", total)
}

func TestCurrentBillingMonthWithoutBaseline(t *testing.T) {
	f := newLedgerFixture(t)
	cr := f.changeRequest(t, model.CRStatusActive)

	_, err := f.events.CreateBillingEvent(context.Background(), model.BillingEvent{
		ChangeRequestID: cr.ID,
		BillingMonth:    testDate(2026, time.July, 1),
		DeltaAmount:     decimal.RequireFromString("300.00"),
	})
	require.NoError(t, err)

	total, err := f.svc.CurrentBilling(context.Background(), f.contract.ID, testDate(2026, time.July, 20))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("300.00")), "got %s", total)
}

func TestCurrentStateBundlesRosterAndBilling(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedBaselineEngineer(uuid.New())
	f.baselines.billingMonths[f.contract.ID] = []model.BaselineBillingMonth{
		{ID: uuid.New(), ContractID: f.contract.ID, BillingMonth: testDate(2026, time.March, 1), Amount: decimal.RequireFromString("8000.00")},
	}

	state, err := f.svc.CurrentState(context.Background(), f.contract.ID, testDate(2026, time.March, 14))
	require.NoError(t, err)

	assert.Equal(t, testDate(2026, time.March, 14), state.AsOf)
	assert.Equal(t, testDate(2026, time.March, 1), state.BillingMonth)
	assert.Len(t, state.Engineers, 1)
	assert.True(t, state.BillingTotal.Equal(decimal.RequireFromString("8000.00")))
}

func TestEventsRejectsUnknownType(t *testing.T) {
	f := newLedgerFixture(t)

	_, _, err := f.svc.Events(context.Background(), f.contract.ID, EventFilter{Type: "payroll"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEventsFiltersByTypeAndRange(t *testing.T) {
	f := newLedgerFixture(t)
	cr := f.changeRequest(t, model.CRStatusDraft)

	_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, testDate(2026, time.February, 1)))
	require.NoError(t, err)
	_, err = f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, testDate(2026, time.August, 1)))
	require.NoError(t, err)
	_, err = f.svc.RecordBillingEvent(context.Background(), cr.ID, testDate(2026, time.February, 1), decimal.RequireFromString("10.00"), "")
	require.NoError(t, err)

	from := testDate(2026, time.January, 1)
	to := testDate(2026, time.June, 30)
	resources, billing, err := f.svc.Events(context.Background(), f.contract.ID, EventFilter{Type: "resource", From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	assert.Empty(t, billing)

	resources, billing, err = f.svc.Events(context.Background(), f.contract.ID, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, resources, 2)
	assert.Len(t, billing, 1)
}

func TestExportStatement(t *testing.T) {
	contracts := newFakeContractStore()
	baselines := newFakeBaselineStore()
	requests := newFakeChangeRequestStore()
	events := newFakeEventStore(requests)
	generator := &fakeStatementGenerator{}

	contract := retainerContract()
	contracts.put(contract)

	svc := NewLedgerService(contracts, requests, events, baselines, generator, zerolog.Nop())

	result, err := svc.ExportStatement(context.Background(), contract.ID, testDate(2026, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, generator.calls)
	assert.Equal(t, "ledger-Platform-Team-Retainer-20260501.xlsx", result.FileName)
	assert.Equal(t, []byte("xlsx"), result.Content)
}

func TestLedgerQueriesResolveFamilyRoot(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedBaselineEngineer(uuid.New())

	cr := f.changeRequest(t, model.CRStatusDraft)
	april := testDate(2026, time.April, 1)
	_, err := f.svc.RecordResourceEvent(context.Background(), addEventInput(cr.ID, april))
	require.NoError(t, err)
	_, err = f.svc.RecordBillingEvent(context.Background(), cr.ID, april, decimal.RequireFromString("750.00"), "")
	require.NoError(t, err)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	// A later contract version carries no data of its own; baseline and
	// events stay anchored to the family root.
	rootID := f.contract.ID
	v2 := f.contract
	v2.ID = uuid.New()
	v2.Version = 2
	v2.ParentVersionID = &rootID
	f.contracts.put(v2)

	roster, err := f.svc.CurrentResources(context.Background(), v2.ID, testDate(2026, time.May, 1))
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	total, err := f.svc.CurrentBilling(context.Background(), v2.ID, april)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("750.00")), "got %s", total)

	resources, billing, err := f.svc.Events(context.Background(), v2.ID, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	assert.Len(t, billing, 1)
}

func TestReplayRosterOrderIsDeterministic(t *testing.T) {
	f := newLedgerFixture(t)
	engineerID := uuid.New()
	f.seedBaselineEngineer(engineerID)

	// Two MODIFY events on the same effective day; creation order decides.
	cr := f.changeRequest(t, model.CRStatusDraft)
	day := testDate(2026, time.April, 1)
	_, err := f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
		ChangeRequestID: cr.ID,
		Action:          model.ResourceActionModify,
		EngineerID:      engineerID,
		Level:           strPtr("Senior"),
		EffectiveStart:  day,
	})
	require.NoError(t, err)
	_, err = f.svc.RecordResourceEvent(context.Background(), RecordResourceEventInput{
		ChangeRequestID: cr.ID,
		Action:          model.ResourceActionModify,
		EngineerID:      engineerID,
		Level:           strPtr("Lead"),
		EffectiveStart:  day,
	})
	require.NoError(t, err)

	stored := cr
	stored.Status = model.CRStatusActive
	f.requests.put(stored)

	for i := 0; i < 5; i++ {
		roster, err := f.svc.CurrentResources(context.Background(), f.contract.ID, testDate(2026, time.May, 1))
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, "Lead", roster[0].Level)
	}
}
