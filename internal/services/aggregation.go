package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// backfillConcurrency bounds how many periods a backfill aggregates at once.
const backfillConcurrency = 4

// SummaryInvalidator is notified after summary rows change so cached reads
// can be dropped. A nil invalidator disables the hook.
type SummaryInvalidator interface {
	InvalidateSummaries(ctx context.Context) error
}

// AggregationRunSummary reports what a multi-period aggregation run did.
type AggregationRunSummary struct {
	PeriodsProcessed int `json:"periods_processed"`
	RowsWritten      int `json:"rows_written"`
	RowsSkipped      int `json:"rows_skipped"`
}

// AggregationService maintains the pre-aggregated emission_summaries table.
// Each period and dimension combination is summed from emission_results and
// upserted, so reruns over the same period are idempotent.
type AggregationService interface {
	AggregatePeriod(ctx context.Context, from, to time.Time, summaryType string, scope, category *int, activityType *string) (*types.EmissionSummary, error)
	AggregateDaily(ctx context.Context, day time.Time) (*AggregationRunSummary, error)
	AggregateMonthly(ctx context.Context, year int, month time.Month) (*AggregationRunSummary, error)
	AggregateCustomRange(ctx context.Context, from, to time.Time, scope, category *int, activityType *string) (*types.EmissionSummary, error)
	Backfill(ctx context.Context, from, to time.Time, summaryType string) (*AggregationRunSummary, error)
}

type aggregationService struct {
	log         *logger.Logger
	db          *gorm.DB
	resultRepo  repos.EmissionResultRepo
	summaryRepo repos.EmissionSummaryRepo
	invalidator SummaryInvalidator
}

func NewAggregationService(
	baseLog *logger.Logger,
	db *gorm.DB,
	resultRepo repos.EmissionResultRepo,
	summaryRepo repos.EmissionSummaryRepo,
	invalidator SummaryInvalidator,
) AggregationService {
	svcLog := baseLog.With("service", "AggregationService")
	return &aggregationService{
		log:         svcLog,
		db:          db,
		resultRepo:  resultRepo,
		summaryRepo: summaryRepo,
		invalidator: invalidator,
	}
}

// dimension is one (scope, category, activity type) slice of the data.
// Nil fields mean "all".
type dimension struct {
	scope        *int
	category     *int
	activityType *string
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// summaryDimensions enumerates the slices materialized for every daily and
// monthly period: the overall total, per-scope, per-category, per-activity
// type and the scope plus activity type pairs.
func summaryDimensions() []dimension {
	dims := []dimension{
		{},
		{scope: intPtr(types.Scope2)},
		{scope: intPtr(types.Scope3)},
		{scope: intPtr(types.Scope3), category: intPtr(types.CategoryPurchasedGoods)},
		{scope: intPtr(types.Scope3), category: intPtr(types.CategoryBusinessTravel)},
		{activityType: strPtr(types.ActivityTypeElectricity)},
		{activityType: strPtr(types.ActivityTypeAirTravel)},
		{activityType: strPtr(types.ActivityTypeGoodsServices)},
	}
	// Every (scope, activity type) pairing; scope lives on the matched
	// factor, so no combination can be ruled out up front. Empty ones skip
	// through the no-data path.
	for _, scope := range []int{types.Scope2, types.Scope3} {
		for _, activityType := range types.AllActivityTypes() {
			dims = append(dims, dimension{scope: intPtr(scope), activityType: strPtr(activityType)})
		}
	}
	return dims
}

// AggregatePeriod sums results for one period and dimension and upserts the
// summary row. ErrNoData is returned, and nothing is written, when the slice
// has no results.
func (s *aggregationService) AggregatePeriod(ctx context.Context, from, to time.Time, summaryType string, scope, category *int, activityType *string) (*types.EmissionSummary, error) {
	from, to = dateOnly(from), dateOnly(to)

	total, count, err := s.resultRepo.AggregateForPeriod(ctx, nil, repos.PeriodFilter{
		FromDate:     from,
		ToDate:       to,
		Scope:        scope,
		Category:     category,
		ActivityType: activityType,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate results: %w", err)
	}
	if count == 0 {
		return nil, ErrNoData
	}

	summary, err := s.upsert(ctx, from, to, summaryType, scope, category, activityType, total, count)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return summary, nil
}

// AggregateDaily materializes every dimension slice for one day.
func (s *aggregationService) AggregateDaily(ctx context.Context, day time.Time) (*AggregationRunSummary, error) {
	day = dateOnly(day)
	run, err := s.aggregateDimensions(ctx, day, day, types.SummaryTypeDaily)
	if err != nil {
		return nil, err
	}
	run.PeriodsProcessed = 1
	s.invalidate(ctx)
	return run, nil
}

// AggregateMonthly materializes every dimension slice for one calendar month.
func (s *aggregationService) AggregateMonthly(ctx context.Context, year int, month time.Month) (*AggregationRunSummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	run, err := s.aggregateDimensions(ctx, from, to, types.SummaryTypeMonthly)
	if err != nil {
		return nil, err
	}
	run.PeriodsProcessed = 1
	s.invalidate(ctx)
	return run, nil
}

// AggregateCustomRange writes one summary row for an arbitrary range. Unlike
// the periodic modes an empty slice still writes a zero row, so callers can
// distinguish "aggregated, nothing there" from "never aggregated".
func (s *aggregationService) AggregateCustomRange(ctx context.Context, from, to time.Time, scope, category *int, activityType *string) (*types.EmissionSummary, error) {
	from, to = dateOnly(from), dateOnly(to)

	total, count, err := s.resultRepo.AggregateForPeriod(ctx, nil, repos.PeriodFilter{
		FromDate:     from,
		ToDate:       to,
		Scope:        scope,
		Category:     category,
		ActivityType: activityType,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate results: %w", err)
	}

	summary, err := s.upsert(ctx, from, to, types.SummaryTypeCustom, scope, category, activityType, total, count)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return summary, nil
}

// Backfill re-aggregates every period of the given type inside [from, to],
// a bounded number of periods at a time.
func (s *aggregationService) Backfill(ctx context.Context, from, to time.Time, summaryType string) (*AggregationRunSummary, error) {
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid backfill range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	periods, err := backfillPeriods(from, to, summaryType)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		run AggregationRunSummary
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(backfillConcurrency)
	for _, period := range periods {
		group.Go(func() error {
			partial, err := s.aggregateDimensions(groupCtx, period.from, period.to, summaryType)
			if err != nil {
				return err
			}
			mu.Lock()
			run.PeriodsProcessed++
			run.RowsWritten += partial.RowsWritten
			run.RowsSkipped += partial.RowsSkipped
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("Backfill finished",
		"summary_type", summaryType,
		"periods", run.PeriodsProcessed,
		"rows_written", run.RowsWritten,
		"rows_skipped", run.RowsSkipped)
	return &run, nil
}

func (s *aggregationService) aggregateDimensions(ctx context.Context, from, to time.Time, summaryType string) (*AggregationRunSummary, error) {
	var run AggregationRunSummary
	for _, dim := range summaryDimensions() {
		total, count, err := s.resultRepo.AggregateForPeriod(ctx, nil, repos.PeriodFilter{
			FromDate:     from,
			ToDate:       to,
			Scope:        dim.scope,
			Category:     dim.category,
			ActivityType: dim.activityType,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate results: %w", err)
		}
		if count == 0 {
			run.RowsSkipped++
			continue
		}
		if _, err := s.upsert(ctx, from, to, summaryType, dim.scope, dim.category, dim.activityType, total, count); err != nil {
			return nil, err
		}
		run.RowsWritten++
	}
	return &run, nil
}

func (s *aggregationService) upsert(ctx context.Context, from, to time.Time, summaryType string, scope, category *int, activityType *string, total decimal.Decimal, count int64) (*types.EmissionSummary, error) {
	summary := &types.EmissionSummary{
		ID:              uuid.New(),
		FromDate:        from,
		ToDate:          to,
		Scope:           scope,
		Category:        category,
		ActivityType:    activityType,
		TotalCO2eTonnes: total,
		ActivityCount:   count,
		SummaryType:     summaryType,
	}
	saved, err := s.summaryRepo.Upsert(ctx, nil, summary)
	if err != nil {
		return nil, fmt.Errorf("upsert summary: %w", err)
	}
	return saved, nil
}

func (s *aggregationService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateSummaries(ctx); err != nil {
		s.log.Warn("Summary cache invalidation failed", "error", err)
	}
}

type backfillPeriod struct {
	from time.Time
	to   time.Time
}

func backfillPeriods(from, to time.Time, summaryType string) ([]backfillPeriod, error) {
	var periods []backfillPeriod
	switch summaryType {
	case types.SummaryTypeDaily:
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			periods = append(periods, backfillPeriod{from: day, to: day})
		}
	case types.SummaryTypeMonthly:
		start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		for month := start; !month.After(to); month = month.AddDate(0, 1, 0) {
			periods = append(periods, backfillPeriod{from: month, to: month.AddDate(0, 1, -1)})
		}
	default:
		return nil, fmt.Errorf("unsupported backfill summary type: %s", summaryType)
	}
	return periods, nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
