package repos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// SummaryKey identifies one summary row. The upsert contract for the
// aggregation engine keys on every field, nil dimensions included.
type SummaryKey struct {
	FromDate     time.Time
	ToDate       time.Time
	Scope        *int
	Category     *int
	ActivityType *string
	SummaryType  string
}

// SummaryFilter narrows summary listings; zero values mean "no filter".
type SummaryFilter struct {
	FromDate     *time.Time
	ToDate       *time.Time
	Scope        *int
	Category     *int
	ActivityType *string
	SummaryType  string
}

type EmissionSummaryRepo interface {
	// Upsert updates the totals of the row matching the summary's key, or
	// inserts a new row. Safe to call repeatedly for the same key.
	Upsert(ctx context.Context, tx *gorm.DB, summary *types.EmissionSummary) (*types.EmissionSummary, error)
	GetByKey(ctx context.Context, tx *gorm.DB, key SummaryKey) (*types.EmissionSummary, error)
	List(ctx context.Context, tx *gorm.DB, filter SummaryFilter, offset, limit int) ([]*types.EmissionSummary, error)
	Latest(ctx context.Context, tx *gorm.DB, summaryType string) (*types.EmissionSummary, error)
	// TotalForRange sums stored summary rows of the given type whose period
	// lies inside [from, to] and whose dimensions match exactly (nil matches
	// only NULL). Serves total queries without touching emission_results.
	TotalForRange(ctx context.Context, tx *gorm.DB, from, to time.Time, summaryType string, scope, category *int, activityType *string) (decimal.Decimal, int64, error)
}

type emissionSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmissionSummaryRepo(db *gorm.DB, baseLog *logger.Logger) EmissionSummaryRepo {
	repoLog := baseLog.With("repo", "EmissionSummaryRepo")
	return &emissionSummaryRepo{db: db, log: repoLog}
}

// keyConditions builds NULL-safe equality conditions for the summary key;
// portable across postgres and sqlite.
func keyConditions(query *gorm.DB, key SummaryKey) *gorm.DB {
	query = query.
		Where("from_date = ? AND to_date = ? AND summary_type = ?", key.FromDate, key.ToDate, key.SummaryType)
	if key.Scope != nil {
		query = query.Where("scope = ?", *key.Scope)
	} else {
		query = query.Where("scope IS NULL")
	}
	if key.Category != nil {
		query = query.Where("category = ?", *key.Category)
	} else {
		query = query.Where("category IS NULL")
	}
	if key.ActivityType != nil {
		query = query.Where("activity_type = ?", *key.ActivityType)
	} else {
		query = query.Where("activity_type IS NULL")
	}
	return query
}

func (r *emissionSummaryRepo) Upsert(ctx context.Context, tx *gorm.DB, summary *types.EmissionSummary) (*types.EmissionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	key := SummaryKey{
		FromDate:     summary.FromDate,
		ToDate:       summary.ToDate,
		Scope:        summary.Scope,
		Category:     summary.Category,
		ActivityType: summary.ActivityType,
		SummaryType:  summary.SummaryType,
	}

	var existing types.EmissionSummary
	err := keyConditions(transaction.WithContext(ctx).Model(&types.EmissionSummary{}), key).
		First(&existing).Error
	switch {
	case err == nil:
		existing.TotalCO2eTonnes = summary.TotalCO2eTonnes
		existing.ActivityCount = summary.ActivityCount
		existing.UpdatedAt = time.Now().UTC()
		if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case err == gorm.ErrRecordNotFound:
		if err := transaction.WithContext(ctx).Create(summary).Error; err != nil {
			return nil, err
		}
		return summary, nil
	default:
		return nil, err
	}
}

func (r *emissionSummaryRepo) GetByKey(ctx context.Context, tx *gorm.DB, key SummaryKey) (*types.EmissionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary types.EmissionSummary
	if err := keyConditions(transaction.WithContext(ctx).Model(&types.EmissionSummary{}), key).
		First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *emissionSummaryRepo) List(ctx context.Context, tx *gorm.DB, filter SummaryFilter, offset, limit int) ([]*types.EmissionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Model(&types.EmissionSummary{})
	if filter.FromDate != nil {
		query = query.Where("from_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("to_date <= ?", *filter.ToDate)
	}
	if filter.Scope != nil {
		query = query.Where("scope = ?", *filter.Scope)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ActivityType != nil {
		query = query.Where("activity_type = ?", *filter.ActivityType)
	}
	if filter.SummaryType != "" {
		query = query.Where("summary_type = ?", filter.SummaryType)
	}
	var summaries []*types.EmissionSummary
	if err := query.
		Order("from_date DESC, to_date DESC").
		Offset(offset).Limit(limit).
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *emissionSummaryRepo) Latest(ctx context.Context, tx *gorm.DB, summaryType string) (*types.EmissionSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var summary types.EmissionSummary
	query := transaction.WithContext(ctx).Model(&types.EmissionSummary{})
	if summaryType != "" {
		query = query.Where("summary_type = ?", summaryType)
	}
	if err := query.Order("to_date DESC, updated_at DESC").First(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *emissionSummaryRepo) TotalForRange(ctx context.Context, tx *gorm.DB, from, to time.Time, summaryType string, scope, category *int, activityType *string) (decimal.Decimal, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row struct {
		TotalCO2e     decimal.NullDecimal `gorm:"column:total_co2e"`
		ActivityCount int64               `gorm:"column:activity_count"`
	}

	query := transaction.WithContext(ctx).
		Model(&types.EmissionSummary{}).
		Select("SUM(total_co2e_tonnes) AS total_co2e, SUM(activity_count) AS activity_count").
		Where("from_date >= ? AND to_date <= ? AND summary_type = ?", from, to, summaryType)
	if scope != nil {
		query = query.Where("scope = ?", *scope)
	} else {
		query = query.Where("scope IS NULL")
	}
	if category != nil {
		query = query.Where("category = ?", *category)
	} else {
		query = query.Where("category IS NULL")
	}
	if activityType != nil {
		query = query.Where("activity_type = ?", *activityType)
	} else {
		query = query.Where("activity_type IS NULL")
	}

	if err := query.Scan(&row).Error; err != nil {
		return decimal.Zero, 0, err
	}
	if !row.TotalCO2e.Valid {
		return decimal.Zero, 0, nil
	}
	return row.TotalCO2e.Decimal, row.ActivityCount, nil
}
