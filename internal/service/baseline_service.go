package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

// BaselineService captures and serves the immutable starting snapshot of a
// Retainer contract. The snapshot is the seed of every later as-of query:
// reconstruction is always baseline plus eligible events.
type BaselineService struct {
	contracts ContractStore
	baselines BaselineStore
	log       zerolog.Logger
}

func NewBaselineService(contracts ContractStore, baselines BaselineStore, log zerolog.Logger) *BaselineService {
	return &BaselineService{
		contracts: contracts,
		baselines: baselines,
		log:       log,
	}
}

// CreateBaseline snapshots the contract's current roster and billing detail
// rows. Idempotent: a second call, or a call for a non-Retainer contract,
// succeeds with zero side effects. The snapshot is keyed by the family root
// id so every version of the contract shares one baseline.
func (s *BaselineService) CreateBaseline(ctx context.Context, contractID uuid.UUID) error {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return err
	}
	rootID := contract.FamilyRootID()

	exists, err := s.baselines.HasBaseline(ctx, rootID)
	if err != nil {
		return err
	}
	if exists {
		s.log.Debug().Str("contract_id", rootID.String()).Msg("baseline already exists, skipping")
		return nil
	}

	if contract.EngagementType != model.EngagementRetainer {
		s.log.Debug().Str("contract_id", rootID.String()).Msg("non-retainer contract, skipping baseline")
		return nil
	}

	engineers, err := s.contracts.ListCurrentEngineers(ctx, rootID)
	if err != nil {
		return err
	}
	details, err := s.contracts.ListCurrentBillingDetails(ctx, rootID)
	if err != nil {
		return err
	}

	billing := make([]model.BaselineBillingMonth, 0, len(details))
	total := decimal.Zero
	for _, detail := range details {
		detail.BillingMonth = model.FirstOfMonth(detail.BillingMonth)
		billing = append(billing, detail)
		total = total.Add(detail.Amount)
	}

	if err := s.baselines.CreateBaseline(ctx, rootID, engineers, billing, total); err != nil {
		return err
	}

	s.log.Info().
		Str("contract_id", rootID.String()).
		Int("engineers", len(engineers)).
		Int("billing_months", len(billing)).
		Str("base_total_amount", total.String()).
		Msg("baseline created")
	return nil
}

// GetBaseline returns both snapshot collections of a contract's family.
func (s *BaselineService) GetBaseline(ctx context.Context, contractID uuid.UUID) (*model.Baseline, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, contractID)
		}
		return nil, err
	}
	rootID := contract.FamilyRootID()

	engineers, err := s.baselines.ListEngineers(ctx, rootID)
	if err != nil {
		return nil, err
	}
	months, err := s.baselines.ListBillingMonths(ctx, rootID)
	if err != nil {
		return nil, err
	}

	return &model.Baseline{Engineers: engineers, BillingMonths: months}, nil
}
