package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// FactorInput is one emission factor to create or update.
type FactorInput struct {
	ActivityType     string
	LookupIdentifier string
	Unit             string
	CO2eFactor       decimal.Decimal
	Scope            int
	Category         *int
	Source           string
	Notes            string
}

// FactorService manages the emission factor reference table. Factors that
// results still reference cannot be deleted; recalculate or remove the
// results first.
type FactorService interface {
	Create(ctx context.Context, inputs []FactorInput) ([]*types.EmissionFactor, error)
	Update(ctx context.Context, id uuid.UUID, input FactorInput) (*types.EmissionFactor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.EmissionFactor, error)
	List(ctx context.Context, filter repos.FactorFilter, offset, limit int) ([]*types.EmissionFactor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type factorService struct {
	log        *logger.Logger
	db         *gorm.DB
	factorRepo repos.EmissionFactorRepo
	resultRepo repos.EmissionResultRepo
}

func NewFactorService(baseLog *logger.Logger, db *gorm.DB, factorRepo repos.EmissionFactorRepo, resultRepo repos.EmissionResultRepo) FactorService {
	svcLog := baseLog.With("service", "FactorService")
	return &factorService{log: svcLog, db: db, factorRepo: factorRepo, resultRepo: resultRepo}
}

func validateFactorInput(input FactorInput) error {
	if strings.TrimSpace(input.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if strings.TrimSpace(input.LookupIdentifier) == "" {
		return errors.New("lookup_identifier is required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return errors.New("unit is required")
	}
	if input.CO2eFactor.IsNegative() {
		return errors.New("co2e_factor must not be negative")
	}
	if input.Scope < types.Scope1 || input.Scope > types.Scope3 {
		return fmt.Errorf("scope must be between %d and %d", types.Scope1, types.Scope3)
	}
	return nil
}

func (s *factorService) Create(ctx context.Context, inputs []FactorInput) ([]*types.EmissionFactor, error) {
	factors := make([]*types.EmissionFactor, 0, len(inputs))
	for i, input := range inputs {
		if err := validateFactorInput(input); err != nil {
			return nil, fmt.Errorf("factor %d: %w", i, err)
		}
		factors = append(factors, &types.EmissionFactor{
			ID:               uuid.New(),
			ActivityType:     strings.TrimSpace(input.ActivityType),
			LookupIdentifier: strings.TrimSpace(input.LookupIdentifier),
			Unit:             strings.TrimSpace(input.Unit),
			CO2eFactor:       input.CO2eFactor,
			Scope:            input.Scope,
			Category:         input.Category,
			Source:           input.Source,
			Notes:            input.Notes,
		})
	}
	created, err := s.factorRepo.Create(ctx, nil, factors)
	if err != nil {
		return nil, fmt.Errorf("create factors: %w", err)
	}
	s.log.Info("Created emission factors", "count", len(created))
	return created, nil
}

func (s *factorService) Update(ctx context.Context, id uuid.UUID, input FactorInput) (*types.EmissionFactor, error) {
	if err := validateFactorInput(input); err != nil {
		return nil, err
	}
	factor, err := s.factorRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	factor.ActivityType = strings.TrimSpace(input.ActivityType)
	factor.LookupIdentifier = strings.TrimSpace(input.LookupIdentifier)
	factor.Unit = strings.TrimSpace(input.Unit)
	factor.CO2eFactor = input.CO2eFactor
	factor.Scope = input.Scope
	factor.Category = input.Category
	factor.Source = input.Source
	factor.Notes = input.Notes
	if err := s.factorRepo.Update(ctx, nil, factor); err != nil {
		return nil, fmt.Errorf("update factor: %w", err)
	}
	return factor, nil
}

func (s *factorService) GetByID(ctx context.Context, id uuid.UUID) (*types.EmissionFactor, error) {
	return s.factorRepo.GetByID(ctx, nil, id)
}

func (s *factorService) List(ctx context.Context, filter repos.FactorFilter, offset, limit int) ([]*types.EmissionFactor, error) {
	return s.factorRepo.List(ctx, nil, filter, offset, limit)
}

// Delete removes a factor unless emission results still reference it.
func (s *factorService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.resultRepo.CountByFactorID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count referencing results: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d results", ErrFactorReferenced, count)
		}
		return s.factorRepo.Delete(ctx, tx, id)
	})
}
