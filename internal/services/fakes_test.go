package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/repos"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

// ---- emission factor repo ----

type fakeFactorRepo struct {
	factors []*types.EmissionFactor
}

func (f *fakeFactorRepo) Create(_ context.Context, _ *gorm.DB, factors []*types.EmissionFactor) ([]*types.EmissionFactor, error) {
	f.factors = append(f.factors, factors...)
	return factors, nil
}

func (f *fakeFactorRepo) Update(_ context.Context, _ *gorm.DB, factor *types.EmissionFactor) error {
	for i, existing := range f.factors {
		if existing.ID == factor.ID {
			f.factors[i] = factor
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeFactorRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.EmissionFactor, error) {
	for _, factor := range f.factors {
		if factor.ID == id {
			return factor, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFactorRepo) GetByActivityType(_ context.Context, _ *gorm.DB, activityType string) ([]*types.EmissionFactor, error) {
	var out []*types.EmissionFactor
	for _, factor := range f.factors {
		if factor.ActivityType == activityType {
			out = append(out, factor)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LookupIdentifier < out[j].LookupIdentifier })
	return out, nil
}

func (f *fakeFactorRepo) SearchByIdentifier(_ context.Context, _ *gorm.DB, term, activityType string) ([]*types.EmissionFactor, error) {
	var out []*types.EmissionFactor
	for _, factor := range f.factors {
		if factor.ActivityType != activityType {
			continue
		}
		if strings.Contains(strings.ToLower(factor.LookupIdentifier), strings.ToLower(term)) {
			out = append(out, factor)
		}
	}
	return out, nil
}

func (f *fakeFactorRepo) List(_ context.Context, _ *gorm.DB, filter repos.FactorFilter, offset, limit int) ([]*types.EmissionFactor, error) {
	var out []*types.EmissionFactor
	for _, factor := range f.factors {
		if filter.ActivityType != "" && factor.ActivityType != filter.ActivityType {
			continue
		}
		if filter.Scope != nil && factor.Scope != *filter.Scope {
			continue
		}
		out = append(out, factor)
	}
	return out, nil
}

func (f *fakeFactorRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	for i, factor := range f.factors {
		if factor.ID == id {
			f.factors = append(f.factors[:i], f.factors[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func seedFakeFactor(repo *fakeFactorRepo, activityType, identifier, factor string, scope int, category *int) *types.EmissionFactor {
	f := &types.EmissionFactor{
		ID:               uuid.New(),
		ActivityType:     activityType,
		LookupIdentifier: identifier,
		Unit:             "kg CO2e",
		CO2eFactor:       decimal.RequireFromString(factor),
		Scope:            scope,
		Category:         category,
	}
	repo.factors = append(repo.factors, f)
	return f
}

// ---- emission result repo ----

type fakeResultRepo struct {
	results []*types.EmissionResult
	factors *fakeFactorRepo
}

func (f *fakeResultRepo) Create(_ context.Context, _ *gorm.DB, results []*types.EmissionResult) ([]*types.EmissionResult, error) {
	for _, result := range results {
		for _, existing := range f.results {
			if existing.ActivityType == result.ActivityType && existing.ActivityID == result.ActivityID {
				return nil, fmt.Errorf("duplicate result for activity %s", result.ActivityID)
			}
		}
		f.results = append(f.results, result)
	}
	return results, nil
}

func (f *fakeResultRepo) GetByActivity(_ context.Context, _ *gorm.DB, ref types.ActivityRef) (*types.EmissionResult, error) {
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].ActivityType == ref.Type && f.results[i].ActivityID == ref.ID {
			return f.results[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeResultRepo) ExistsForActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (bool, error) {
	_, err := f.GetByActivity(ctx, tx, ref)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeResultRepo) DeleteByActivity(_ context.Context, _ *gorm.DB, ref types.ActivityRef) (int64, error) {
	var kept []*types.EmissionResult
	var deleted int64
	for _, result := range f.results {
		if result.ActivityType == ref.Type && result.ActivityID == ref.ID {
			deleted++
			continue
		}
		kept = append(kept, result)
	}
	f.results = kept
	return deleted, nil
}

func (f *fakeResultRepo) CountByFactorID(_ context.Context, _ *gorm.DB, factorID uuid.UUID) (int64, error) {
	var count int64
	for _, result := range f.results {
		if result.EmissionFactorID == factorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeResultRepo) ListPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]*types.EmissionResult, error) {
	if offset >= len(f.results) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.results) {
		end = len(f.results)
	}
	return f.results[offset:end], nil
}

func (f *fakeResultRepo) ListActivityIDs(_ context.Context, _ *gorm.DB, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, result := range f.results {
		if len(ids) >= limit {
			break
		}
		ids = append(ids, result.ActivityID)
	}
	return ids, nil
}

func (f *fakeResultRepo) AggregateForPeriod(_ context.Context, _ *gorm.DB, filter repos.PeriodFilter) (decimal.Decimal, int64, error) {
	total := decimal.Zero
	var count int64
	for _, result := range f.results {
		if result.CalculationDate.Before(filter.FromDate) || result.CalculationDate.After(filter.ToDate) {
			continue
		}
		if filter.ActivityType != nil && result.ActivityType != *filter.ActivityType {
			continue
		}
		if filter.Scope != nil || filter.Category != nil {
			factor, err := f.factors.GetByID(context.Background(), nil, result.EmissionFactorID)
			if err != nil {
				return decimal.Zero, 0, err
			}
			if filter.Scope != nil && factor.Scope != *filter.Scope {
				continue
			}
			if filter.Category != nil && (factor.Category == nil || *factor.Category != *filter.Category) {
				continue
			}
		}
		total = total.Add(result.CO2eTonnes)
		count++
	}
	return total, count, nil
}

// ---- activity repos ----

type fakeElectricityRepo struct {
	rows []*types.ElectricityActivity
}

func (f *fakeElectricityRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.ElectricityActivity) ([]*types.ElectricityActivity, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeElectricityRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.ElectricityActivity, error) {
	for _, row := range f.rows {
		if row.ID == id && !row.IsDeleted {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeElectricityRepo) ListPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]*types.ElectricityActivity, error) {
	active := activeRows(f.rows, func(r *types.ElectricityActivity) bool { return !r.IsDeleted })
	return pageOf(active, offset, limit), nil
}

func (f *fakeElectricityRepo) CountActive(_ context.Context, _ *gorm.DB) (int64, error) {
	return int64(len(activeRows(f.rows, func(r *types.ElectricityActivity) bool { return !r.IsDeleted }))), nil
}

func (f *fakeElectricityRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	now := time.Now().UTC()
	for _, row := range f.rows {
		for _, id := range ids {
			if row.ID == id {
				row.IsDeleted = true
				row.DeletedAt = &now
			}
		}
	}
	return nil
}

type fakeTravelRepo struct {
	rows []*types.AirTravelActivity
}

func (f *fakeTravelRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.AirTravelActivity) ([]*types.AirTravelActivity, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeTravelRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.AirTravelActivity, error) {
	for _, row := range f.rows {
		if row.ID == id && !row.IsDeleted {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTravelRepo) ListPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]*types.AirTravelActivity, error) {
	active := activeRows(f.rows, func(r *types.AirTravelActivity) bool { return !r.IsDeleted })
	return pageOf(active, offset, limit), nil
}

func (f *fakeTravelRepo) CountActive(_ context.Context, _ *gorm.DB) (int64, error) {
	return int64(len(activeRows(f.rows, func(r *types.AirTravelActivity) bool { return !r.IsDeleted }))), nil
}

func (f *fakeTravelRepo) UpdateDistanceKm(_ context.Context, _ *gorm.DB, id uuid.UUID, km decimal.Decimal) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.DistanceKm = decimal.NullDecimal{Decimal: km, Valid: true}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTravelRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	now := time.Now().UTC()
	for _, row := range f.rows {
		for _, id := range ids {
			if row.ID == id {
				row.IsDeleted = true
				row.DeletedAt = &now
			}
		}
	}
	return nil
}

type fakeGoodsRepo struct {
	rows []*types.GoodsServicesActivity
}

func (f *fakeGoodsRepo) Create(_ context.Context, _ *gorm.DB, rows []*types.GoodsServicesActivity) ([]*types.GoodsServicesActivity, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeGoodsRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.GoodsServicesActivity, error) {
	for _, row := range f.rows {
		if row.ID == id && !row.IsDeleted {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeGoodsRepo) ListPage(_ context.Context, _ *gorm.DB, offset, limit int) ([]*types.GoodsServicesActivity, error) {
	active := activeRows(f.rows, func(r *types.GoodsServicesActivity) bool { return !r.IsDeleted })
	return pageOf(active, offset, limit), nil
}

func (f *fakeGoodsRepo) CountActive(_ context.Context, _ *gorm.DB) (int64, error) {
	return int64(len(activeRows(f.rows, func(r *types.GoodsServicesActivity) bool { return !r.IsDeleted }))), nil
}

func (f *fakeGoodsRepo) SoftDeleteByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	now := time.Now().UTC()
	for _, row := range f.rows {
		for _, id := range ids {
			if row.ID == id {
				row.IsDeleted = true
				row.DeletedAt = &now
			}
		}
	}
	return nil
}

// ---- summary repo ----

type fakeSummaryRepo struct {
	mu   sync.Mutex
	rows []*types.EmissionSummary
}

func sameKey(row *types.EmissionSummary, key repos.SummaryKey) bool {
	if !row.FromDate.Equal(key.FromDate) || !row.ToDate.Equal(key.ToDate) || row.SummaryType != key.SummaryType {
		return false
	}
	if (row.Scope == nil) != (key.Scope == nil) || (row.Scope != nil && *row.Scope != *key.Scope) {
		return false
	}
	if (row.Category == nil) != (key.Category == nil) || (row.Category != nil && *row.Category != *key.Category) {
		return false
	}
	if (row.ActivityType == nil) != (key.ActivityType == nil) || (row.ActivityType != nil && *row.ActivityType != *key.ActivityType) {
		return false
	}
	return true
}

func keyOf(summary *types.EmissionSummary) repos.SummaryKey {
	return repos.SummaryKey{
		FromDate:     summary.FromDate,
		ToDate:       summary.ToDate,
		Scope:        summary.Scope,
		Category:     summary.Category,
		ActivityType: summary.ActivityType,
		SummaryType:  summary.SummaryType,
	}
}

func (f *fakeSummaryRepo) Upsert(_ context.Context, _ *gorm.DB, summary *types.EmissionSummary) (*types.EmissionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if sameKey(row, keyOf(summary)) {
			row.TotalCO2eTonnes = summary.TotalCO2eTonnes
			row.ActivityCount = summary.ActivityCount
			row.UpdatedAt = time.Now().UTC()
			return row, nil
		}
	}
	f.rows = append(f.rows, summary)
	return summary, nil
}

func (f *fakeSummaryRepo) GetByKey(_ context.Context, _ *gorm.DB, key repos.SummaryKey) (*types.EmissionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if sameKey(row, key) {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSummaryRepo) List(_ context.Context, _ *gorm.DB, filter repos.SummaryFilter, offset, limit int) ([]*types.EmissionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.EmissionSummary
	for _, row := range f.rows {
		if filter.SummaryType != "" && row.SummaryType != filter.SummaryType {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSummaryRepo) Latest(_ context.Context, _ *gorm.DB, summaryType string) (*types.EmissionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *types.EmissionSummary
	for _, row := range f.rows {
		if row.SummaryType != summaryType {
			continue
		}
		if latest == nil || row.ToDate.After(latest.ToDate) {
			latest = row
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (f *fakeSummaryRepo) TotalForRange(_ context.Context, _ *gorm.DB, from, to time.Time, summaryType string, scope, category *int, activityType *string) (decimal.Decimal, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	var count int64
	for _, row := range f.rows {
		if row.SummaryType != summaryType || row.FromDate.Before(from) || row.ToDate.After(to) {
			continue
		}
		if !sameKey(row, repos.SummaryKey{
			FromDate: row.FromDate, ToDate: row.ToDate, SummaryType: summaryType,
			Scope: scope, Category: category, ActivityType: activityType,
		}) {
			continue
		}
		total = total.Add(row.TotalCO2eTonnes)
		count += row.ActivityCount
	}
	return total, count, nil
}

// ---- helpers ----

func activeRows[T any](rows []*T, keep func(*T) bool) []*T {
	var out []*T
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func pageOf[T any](rows []*T, offset, limit int) []*T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
