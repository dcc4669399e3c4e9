package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// SummaryCache is the read-through cache the summary service consults before
// hitting the summary table. Implemented by the redis client; nil disables
// caching.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// TotalReport is an aggregated total over a date range.
type TotalReport struct {
	FromDate        time.Time       `json:"from_date"`
	ToDate          time.Time       `json:"to_date"`
	TotalCO2eTonnes decimal.Decimal `json:"total_co2e_tonnes"`
	TotalCO2eKg     decimal.Decimal `json:"total_co2e_kg"`
	ActivityCount   int64           `json:"activity_count"`
}

// BreakdownEntry is one slice of a period breakdown.
type BreakdownEntry struct {
	Scope           *int            `json:"scope,omitempty"`
	Category        *int            `json:"category,omitempty"`
	ActivityType    *string         `json:"activity_type,omitempty"`
	TotalCO2eTonnes decimal.Decimal `json:"total_co2e_tonnes"`
	ActivityCount   int64           `json:"activity_count"`
}

// MonthlyPoint is one month of the emissions time series.
type MonthlyPoint struct {
	Month           string          `json:"month"`
	TotalCO2eTonnes decimal.Decimal `json:"total_co2e_tonnes"`
	ActivityCount   int64           `json:"activity_count"`
}

// SummaryService answers reporting queries from the pre-aggregated summary
// table; it never scans emission_results directly.
type SummaryService interface {
	List(ctx context.Context, filter repos.SummaryFilter, offset, limit int) ([]*types.EmissionSummary, error)
	Total(ctx context.Context, from, to time.Time, scope, category *int, activityType *string) (*TotalReport, error)
	MonthlySeries(ctx context.Context, from, to time.Time) ([]MonthlyPoint, error)
	Latest(ctx context.Context, summaryType string) (*types.EmissionSummary, error)
	Breakdown(ctx context.Context, from, to time.Time, summaryType string) ([]BreakdownEntry, error)
}

type summaryService struct {
	log         *logger.Logger
	summaryRepo repos.EmissionSummaryRepo
	cache       SummaryCache
}

func NewSummaryService(baseLog *logger.Logger, summaryRepo repos.EmissionSummaryRepo, cache SummaryCache) SummaryService {
	svcLog := baseLog.With("service", "SummaryService")
	return &summaryService{log: svcLog, summaryRepo: summaryRepo, cache: cache}
}

func (s *summaryService) List(ctx context.Context, filter repos.SummaryFilter, offset, limit int) ([]*types.EmissionSummary, error) {
	return s.summaryRepo.List(ctx, nil, filter, offset, limit)
}

// Total sums stored daily rows over [from, to] for the given dimensions.
func (s *summaryService) Total(ctx context.Context, from, to time.Time, scope, category *int, activityType *string) (*TotalReport, error) {
	from, to = dateOnly(from), dateOnly(to)
	cacheKey := fmt.Sprintf("total:%s:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"), dimKey(scope, category, activityType))

	var report TotalReport
	if s.cacheGet(ctx, cacheKey, &report) {
		return &report, nil
	}

	total, count, err := s.summaryRepo.TotalForRange(ctx, nil, from, to, types.SummaryTypeDaily, scope, category, activityType)
	if err != nil {
		return nil, fmt.Errorf("total for range: %w", err)
	}
	report = TotalReport{
		FromDate:        from,
		ToDate:          to,
		TotalCO2eTonnes: total,
		TotalCO2eKg:     TonnesToKg(total),
		ActivityCount:   count,
	}
	s.cacheSet(ctx, cacheKey, report)
	return &report, nil
}

// MonthlySeries returns the overall monthly rows inside [from, to] in
// chronological order. Months without a stored row are omitted.
func (s *summaryService) MonthlySeries(ctx context.Context, from, to time.Time) ([]MonthlyPoint, error) {
	from, to = dateOnly(from), dateOnly(to)
	cacheKey := fmt.Sprintf("monthly:%s:%s", from.Format("2006-01"), to.Format("2006-01"))

	var points []MonthlyPoint
	if s.cacheGet(ctx, cacheKey, &points) {
		return points, nil
	}

	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for month := start; !month.After(to); month = month.AddDate(0, 1, 0) {
		summary, err := s.summaryRepo.GetByKey(ctx, nil, repos.SummaryKey{
			FromDate:    month,
			ToDate:      month.AddDate(0, 1, -1),
			SummaryType: types.SummaryTypeMonthly,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("monthly summary %s: %w", month.Format("2006-01"), err)
		}
		points = append(points, MonthlyPoint{
			Month:           month.Format("2006-01"),
			TotalCO2eTonnes: summary.TotalCO2eTonnes,
			ActivityCount:   summary.ActivityCount,
		})
	}

	s.cacheSet(ctx, cacheKey, points)
	return points, nil
}

func (s *summaryService) Latest(ctx context.Context, summaryType string) (*types.EmissionSummary, error) {
	summary, err := s.summaryRepo.Latest(ctx, nil, summaryType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return summary, nil
}

// Breakdown reads the stored dimension slices for one period.
func (s *summaryService) Breakdown(ctx context.Context, from, to time.Time, summaryType string) ([]BreakdownEntry, error) {
	from, to = dateOnly(from), dateOnly(to)
	cacheKey := fmt.Sprintf("breakdown:%s:%s:%s", summaryType, from.Format("2006-01-02"), to.Format("2006-01-02"))

	var entries []BreakdownEntry
	if s.cacheGet(ctx, cacheKey, &entries) {
		return entries, nil
	}

	for _, dim := range summaryDimensions() {
		summary, err := s.summaryRepo.GetByKey(ctx, nil, repos.SummaryKey{
			FromDate:     from,
			ToDate:       to,
			Scope:        dim.scope,
			Category:     dim.category,
			ActivityType: dim.activityType,
			SummaryType:  summaryType,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("breakdown slice: %w", err)
		}
		entries = append(entries, BreakdownEntry{
			Scope:           summary.Scope,
			Category:        summary.Category,
			ActivityType:    summary.ActivityType,
			TotalCO2eTonnes: summary.TotalCO2eTonnes,
			ActivityCount:   summary.ActivityCount,
		})
	}
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

func (s *summaryService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn("Summary cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *summaryService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.Warn("Summary cache write failed", "key", key, "error", err)
	}
}

func dimKey(scope, category *int, activityType *string) string {
	scopePart, categoryPart, typePart := "all", "all", "all"
	if scope != nil {
		scopePart = fmt.Sprintf("%d", *scope)
	}
	if category != nil {
		categoryPart = fmt.Sprintf("%d", *category)
	}
	if activityType != nil {
		typePart = *activityType
	}
	return fmt.Sprintf("%s:%s:%s", scopePart, categoryPart, typePart)
}
