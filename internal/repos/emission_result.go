package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// PeriodFilter selects results for aggregation. Nil dimension pointers mean
// "all values of that dimension".
type PeriodFilter struct {
	FromDate     time.Time
	ToDate       time.Time
	Scope        *int
	Category     *int
	ActivityType *string
}

type EmissionResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, results []*types.EmissionResult) ([]*types.EmissionResult, error)
	// GetByActivity returns the live result for an activity, or
	// gorm.ErrRecordNotFound.
	GetByActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (*types.EmissionResult, error)
	// ExistsForActivity is a targeted existence probe used by the streaming
	// sweep so duplicate checking never loads a global result set.
	ExistsForActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (bool, error)
	DeleteByActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (int64, error)
	CountByFactorID(ctx context.Context, tx *gorm.DB, factorID uuid.UUID) (int64, error)
	ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.EmissionResult, error)
	// ListActivityIDs supports the capped legacy sweep; it never returns more
	// than limit IDs.
	ListActivityIDs(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error)
	// AggregateForPeriod computes SUM(co2e_tonnes) and COUNT(*) over results
	// whose calculation_date falls in the filter's range, joined to factors
	// for scope/category filtering.
	AggregateForPeriod(ctx context.Context, tx *gorm.DB, filter PeriodFilter) (decimal.Decimal, int64, error)
}

type emissionResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmissionResultRepo(db *gorm.DB, baseLog *logger.Logger) EmissionResultRepo {
	repoLog := baseLog.With("repo", "EmissionResultRepo")
	return &emissionResultRepo{db: db, log: repoLog}
}

func (r *emissionResultRepo) Create(ctx context.Context, tx *gorm.DB, results []*types.EmissionResult) ([]*types.EmissionResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(results) == 0 {
		return []*types.EmissionResult{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *emissionResultRepo) GetByActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (*types.EmissionResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.EmissionResult
	if err := transaction.WithContext(ctx).
		Where("activity_type = ? AND activity_id = ?", ref.Type, ref.ID).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *emissionResultRepo) ExistsForActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EmissionResult{}).
		Where("activity_type = ? AND activity_id = ?", ref.Type, ref.ID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *emissionResultRepo) DeleteByActivity(ctx context.Context, tx *gorm.DB, ref types.ActivityRef) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("activity_type = ? AND activity_id = ?", ref.Type, ref.ID).
		Delete(&types.EmissionResult{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *emissionResultRepo) CountByFactorID(ctx context.Context, tx *gorm.DB, factorID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EmissionResult{}).
		Where("emission_factor_id = ?", factorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *emissionResultRepo) ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.EmissionResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.EmissionResult
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *emissionResultRepo) ListActivityIDs(ctx context.Context, tx *gorm.DB, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.EmissionResult{}).
		Limit(limit).
		Pluck("activity_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *emissionResultRepo) AggregateForPeriod(ctx context.Context, tx *gorm.DB, filter PeriodFilter) (decimal.Decimal, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row struct {
		TotalCO2e     decimal.NullDecimal `gorm:"column:total_co2e"`
		ActivityCount int64               `gorm:"column:activity_count"`
	}

	query := transaction.WithContext(ctx).
		Model(&types.EmissionResult{}).
		Select("SUM(emission_results.co2e_tonnes) AS total_co2e, COUNT(emission_results.id) AS activity_count").
		Joins("JOIN emission_factors ON emission_factors.id = emission_results.emission_factor_id").
		Where("emission_results.calculation_date >= ? AND emission_results.calculation_date <= ?",
			filter.FromDate, filter.ToDate)

	if filter.Scope != nil {
		query = query.Where("emission_factors.scope = ?", *filter.Scope)
	}
	if filter.Category != nil {
		query = query.Where("emission_factors.category = ?", *filter.Category)
	}
	if filter.ActivityType != nil {
		query = query.Where("emission_results.activity_type = ?", *filter.ActivityType)
	}

	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, 0, err
	}
	if !row.TotalCO2e.Valid {
		return decimal.Zero, 0, nil
	}
	return row.TotalCO2e.Decimal, row.ActivityCount, nil
}
