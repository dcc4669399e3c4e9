package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

const (
	// defaultSweepPageSize bounds how many activity rows a sweep holds in
	// memory at once.
	defaultSweepPageSize = 500

	// maxBatchErrorSamples caps the error detail kept in a batch summary.
	// Counts keep accumulating past the cap.
	maxBatchErrorSamples = 10

	// legacySweepCap is the hard row limit of the non-streaming sweep mode.
	legacySweepCap = 10000
)

// CalculationOptions tune a single-record calculation.
type CalculationOptions struct {
	// Threshold is the fuzzy match cutoff, 0 means the default.
	Threshold int
	// Recalculate deletes any existing result for the activity first.
	Recalculate bool
}

// SweepOptions tune a full pending-work sweep.
type SweepOptions struct {
	Threshold int
	PageSize  int
	// FailFast aborts the sweep and rolls back the current page on the
	// first calculation error.
	FailFast bool
	// Legacy switches to the bounded single-pass mode that preloads the
	// set of already calculated activity ids instead of probing per row.
	Legacy bool
}

// BatchError is one failed record inside a batch run.
type BatchError struct {
	ActivityID   uuid.UUID `json:"activity_id"`
	ActivityType string    `json:"activity_type"`
	Error        string    `json:"error"`
}

// BatchStatistics summarizes a batch or sweep run.
type BatchStatistics struct {
	TotalActivities int             `json:"total_activities"`
	TotalProcessed  int             `json:"total_processed"`
	TotalSkipped    int             `json:"total_skipped"`
	TotalErrors     int             `json:"total_errors"`
	SuccessRate     string          `json:"success_rate"`
	TotalCO2eTonnes decimal.Decimal `json:"total_co2e_tonnes"`
	ByActivityType  map[string]int  `json:"by_activity_type"`
}

// BatchSummary is the result of a batch calculation: run statistics and a
// bounded sample of the errors encountered. Results carries the persisted
// results for explicit batch runs only; sweeps report counters and leave it
// empty so memory stays bounded by the page size.
type BatchSummary struct {
	Results    []*types.EmissionResult `json:"results,omitempty"`
	Statistics BatchStatistics         `json:"statistics"`
	Errors     []BatchError            `json:"errors,omitempty"`
}

// CalculationService orchestrates the per-type calculators: it fetches
// activities, enforces the one-result-per-activity invariant, persists
// results and drives batch and sweep runs with transactional page commits.
type CalculationService interface {
	CalculateSingle(ctx context.Context, tx *gorm.DB, activity types.Activity, opts CalculationOptions) (*types.EmissionResult, error)
	CalculateByRef(ctx context.Context, ref types.ActivityRef, opts CalculationOptions) (*types.EmissionResult, error)
	RecalculateActivity(ctx context.Context, ref types.ActivityRef, threshold int) (*types.EmissionResult, error)
	CalculateBatch(ctx context.Context, activities []types.Activity, opts CalculationOptions, failFast bool) (*BatchSummary, error)
	CalculateAllPending(ctx context.Context, opts SweepOptions) (*BatchSummary, error)
}

type calculationService struct {
	log         *logger.Logger
	db          *gorm.DB
	calculators map[string]Calculator
	resultRepo  repos.EmissionResultRepo
	elecRepo    repos.ElectricityActivityRepo
	travelRepo  repos.AirTravelActivityRepo
	goodsRepo   repos.GoodsServicesActivityRepo
}

func NewCalculationService(
	baseLog *logger.Logger,
	db *gorm.DB,
	calculators []Calculator,
	resultRepo repos.EmissionResultRepo,
	elecRepo repos.ElectricityActivityRepo,
	travelRepo repos.AirTravelActivityRepo,
	goodsRepo repos.GoodsServicesActivityRepo,
) CalculationService {
	svcLog := baseLog.With("service", "CalculationService")
	byType := make(map[string]Calculator, len(calculators))
	for _, calc := range calculators {
		byType[calc.ActivityType()] = calc
	}
	return &calculationService{
		log:         svcLog,
		db:          db,
		calculators: byType,
		resultRepo:  resultRepo,
		elecRepo:    elecRepo,
		travelRepo:  travelRepo,
		goodsRepo:   goodsRepo,
	}
}

// CalculateSingle computes and persists one result inside the caller's
// transaction. When a result already exists and Recalculate is off, the
// existing result is returned unchanged.
func (s *calculationService) CalculateSingle(ctx context.Context, tx *gorm.DB, activity types.Activity, opts CalculationOptions) (*types.EmissionResult, error) {
	ref := activity.Ref()
	calc, ok := s.calculators[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, ref.Type)
	}

	if opts.Recalculate {
		if _, err := s.resultRepo.DeleteByActivity(ctx, tx, ref); err != nil {
			return nil, fmt.Errorf("delete existing result: %w", err)
		}
	} else {
		existing, err := s.resultRepo.GetByActivity(ctx, tx, ref)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check existing result: %w", err)
		}
		if existing != nil {
			s.log.Debug("Result already exists, skipping",
				"activity_type", ref.Type, "activity_id", ref.ID)
			return existing, nil
		}
	}

	result, err := calc.Calculate(ctx, tx, activity, opts.Threshold)
	if err != nil {
		return nil, err
	}
	if _, err := s.resultRepo.Create(ctx, tx, []*types.EmissionResult{result}); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}
	return result, nil
}

// CalculateByRef fetches the activity by reference and calculates it in its
// own transaction.
func (s *calculationService) CalculateByRef(ctx context.Context, ref types.ActivityRef, opts CalculationOptions) (*types.EmissionResult, error) {
	var result *types.EmissionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activity, err := s.fetchActivity(ctx, tx, ref)
		if err != nil {
			return err
		}
		result, err = s.CalculateSingle(ctx, tx, activity, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecalculateActivity drops the stored result and recomputes it atomically:
// either the new result replaces the old one or the old one survives.
func (s *calculationService) RecalculateActivity(ctx context.Context, ref types.ActivityRef, threshold int) (*types.EmissionResult, error) {
	return s.CalculateByRef(ctx, ref, CalculationOptions{Threshold: threshold, Recalculate: true})
}

// CalculateBatch processes the given activities in one transaction. With
// failFast the whole batch commits or none of it does; otherwise failed
// records are collected and the successes commit.
func (s *calculationService) CalculateBatch(ctx context.Context, activities []types.Activity, opts CalculationOptions, failFast bool) (*BatchSummary, error) {
	summary := newBatchSummary(len(activities))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, activity := range activities {
			result, err := s.CalculateSingle(ctx, tx, activity, opts)
			if err != nil {
				if failFast {
					return fmt.Errorf("activity %s: %w", activity.Ref().ID, err)
				}
				summary.recordError(activity.Ref(), err)
				continue
			}
			summary.recordResult(result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.finalize()
	s.log.Info("Batch calculation finished",
		"total", summary.Statistics.TotalActivities,
		"processed", summary.Statistics.TotalProcessed,
		"errors", summary.Statistics.TotalErrors)
	return summary, nil
}

// CalculateAllPending sweeps every active activity without a stored result.
// The streaming mode pages each activity type partition with a transaction
// per page, so memory stays bounded by the page size and a crash loses at
// most one page of work. Cancellation is honored at page boundaries.
func (s *calculationService) CalculateAllPending(ctx context.Context, opts SweepOptions) (*BatchSummary, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultSweepPageSize
	}

	var done map[uuid.UUID]struct{}
	if opts.Legacy {
		ids, err := s.resultRepo.ListActivityIDs(ctx, nil, legacySweepCap)
		if err != nil {
			return nil, fmt.Errorf("load calculated ids: %w", err)
		}
		done = make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			done[id] = struct{}{}
		}
	}

	summary := newBatchSummary(0)
	for _, activityType := range types.AllActivityTypes() {
		if err := s.sweepPartition(ctx, activityType, pageSize, opts, done, summary); err != nil {
			return nil, err
		}
	}

	summary.finalize()
	s.log.Info("Pending sweep finished",
		"total", summary.Statistics.TotalActivities,
		"processed", summary.Statistics.TotalProcessed,
		"skipped", summary.Statistics.TotalSkipped,
		"errors", summary.Statistics.TotalErrors)
	return summary, nil
}

func (s *calculationService) sweepPartition(ctx context.Context, activityType string, pageSize int, opts SweepOptions, done map[uuid.UUID]struct{}, summary *BatchSummary) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.Legacy && offset >= legacySweepCap {
			s.log.Warn("Legacy sweep cap reached", "activity_type", activityType, "cap", legacySweepCap)
			return nil
		}

		activities, err := s.listPartitionPage(ctx, activityType, offset, pageSize)
		if err != nil {
			return fmt.Errorf("list %s page at offset %d: %w", activityType, offset, err)
		}
		if len(activities) == 0 {
			return nil
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, activity := range activities {
				ref := activity.Ref()
				summary.Statistics.TotalActivities++

				skip, err := s.alreadyCalculated(ctx, tx, ref, done)
				if err != nil {
					return err
				}
				if skip {
					summary.Statistics.TotalSkipped++
					continue
				}

				result, err := s.CalculateSingle(ctx, tx, activity, CalculationOptions{Threshold: opts.Threshold})
				if err != nil {
					if opts.FailFast {
						return fmt.Errorf("activity %s: %w", ref.ID, err)
					}
					summary.recordError(ref, err)
					continue
				}
				summary.recordStats(result)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if len(activities) < pageSize {
			return nil
		}
		offset += pageSize
	}
}

func (s *calculationService) alreadyCalculated(ctx context.Context, tx *gorm.DB, ref types.ActivityRef, done map[uuid.UUID]struct{}) (bool, error) {
	if done != nil {
		_, ok := done[ref.ID]
		return ok, nil
	}
	exists, err := s.resultRepo.ExistsForActivity(ctx, tx, ref)
	if err != nil {
		return false, fmt.Errorf("probe existing result: %w", err)
	}
	return exists, nil
}

func (s *calculationService) listPartitionPage(ctx context.Context, activityType string, offset, limit int) ([]types.Activity, error) {
	switch activityType {
	case types.ActivityTypeElectricity:
		rows, err := s.elecRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, err
		}
		return asActivities(rows), nil
	case types.ActivityTypeAirTravel:
		rows, err := s.travelRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, err
		}
		return asActivities(rows), nil
	case types.ActivityTypeGoodsServices:
		rows, err := s.goodsRepo.ListPage(ctx, nil, offset, limit)
		if err != nil {
			return nil, err
		}
		return asActivities(rows), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, activityType)
	}
}

func (s *calculationService) fetchActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (types.Activity, error) {
	var (
		activity types.Activity
		err      error
	)
	switch ref.Type {
	case types.ActivityTypeElectricity:
		activity, err = s.elecRepo.GetByID(ctx, tx, ref.ID)
	case types.ActivityTypeAirTravel:
		activity, err = s.travelRepo.GetByID(ctx, tx, ref.ID)
	case types.ActivityTypeGoodsServices:
		activity, err = s.goodsRepo.GetByID(ctx, tx, ref.ID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownActivityType, ref.Type)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrActivityNotFound, ref.Type, ref.ID)
		}
		return nil, err
	}
	return activity, nil
}

func asActivities[T types.Activity](rows []T) []types.Activity {
	out := make([]types.Activity, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}

func newBatchSummary(total int) *BatchSummary {
	return &BatchSummary{
		Statistics: BatchStatistics{
			TotalActivities: total,
			TotalCO2eTonnes: decimal.Zero,
			ByActivityType:  make(map[string]int),
		},
	}
}

func (b *BatchSummary) recordResult(result *types.EmissionResult) {
	b.Results = append(b.Results, result)
	b.recordStats(result)
}

// recordStats counts a persisted result without retaining it.
func (b *BatchSummary) recordStats(result *types.EmissionResult) {
	b.Statistics.TotalProcessed++
	b.Statistics.TotalCO2eTonnes = b.Statistics.TotalCO2eTonnes.Add(result.CO2eTonnes)
	b.Statistics.ByActivityType[result.ActivityType]++
}

func (b *BatchSummary) recordError(ref types.ActivityRef, err error) {
	b.Statistics.TotalErrors++
	if len(b.Errors) < maxBatchErrorSamples {
		b.Errors = append(b.Errors, BatchError{
			ActivityID:   ref.ID,
			ActivityType: ref.Type,
			Error:        err.Error(),
		})
	}
}

func (b *BatchSummary) finalize() {
	attempted := b.Statistics.TotalProcessed + b.Statistics.TotalErrors
	if attempted == 0 {
		b.Statistics.SuccessRate = "0.00%"
		return
	}
	rate := float64(b.Statistics.TotalProcessed) / float64(attempted) * 100
	b.Statistics.SuccessRate = fmt.Sprintf("%.2f%%", rate)
}
