package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/landbridge/contract-ledger/internal/model"
)

// ContractService handles contract versioning and activation. Versioning is
// independent of the event ledger: a new version captures amended textual
// terms, while the ledger tracks resourcing and billing drift inside one
// version's lifetime.
type ContractService struct {
	contracts ContractStore
	baselines *BaselineService
	log       zerolog.Logger
}

func NewContractService(contracts ContractStore, baselines *BaselineService, log zerolog.Logger) *ContractService {
	return &ContractService{
		contracts: contracts,
		baselines: baselines,
		log:       log,
	}
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return contract, nil
}

// Activate marks a contract Active and captures its baseline. Baseline
// capture is idempotent, so re-activating is harmless.
func (s *ContractService) Activate(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if principal.IsClient() {
		return fmt.Errorf("%w: clients cannot activate contracts", ErrPermissionDenied)
	}

	contract, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	switch contract.Status {
	case model.ContractStatusDraft, model.ContractStatusUnderReview:
	case model.ContractStatusActive:
		return nil
	default:
		return fmt.Errorf("%w: contract in status %s cannot be activated", ErrInvalidState, contract.Status)
	}

	if err := s.contracts.UpdateStatus(ctx, id, model.ContractStatusActive); err != nil {
		return err
	}
	if err := s.baselines.CreateBaseline(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("contract_id", id.String()).Msg("contract activated")
	return nil
}

// CreateNewVersion clones the contract into the next version of its family.
// The clone's parent always points at the family root, keeping the chain
// flat regardless of which version it was created from.
func (s *ContractService) CreateNewVersion(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Contract, error) {
	if principal.IsClient() {
		return nil, fmt.Errorf("%w: clients cannot create contract versions", ErrPermissionDenied)
	}

	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rootID := contract.FamilyRootID()
	maxVersion, err := s.contracts.MaxFamilyVersion(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if maxVersion == 0 {
		maxVersion = contract.Version
	}

	clone := *contract
	clone.ID = uuid.Nil
	clone.Version = maxVersion + 1
	clone.ParentVersionID = &rootID

	saved, err := s.contracts.CreateVersion(ctx, clone)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("contract_id", saved.ID.String()).
		Str("family_root_id", rootID.String()).
		Int("version", saved.Version).
		Msg("contract version created")
	return saved, nil
}

// ListVersions returns every version of the contract's family, ascending.
func (s *ContractService) ListVersions(ctx context.Context, id uuid.UUID) ([]model.Contract, error) {
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.contracts.ListFamilyVersions(ctx, contract.FamilyRootID())
}
