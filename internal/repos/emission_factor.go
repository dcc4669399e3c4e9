package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

// FactorFilter narrows factor listings. Zero values mean "no filter".
type FactorFilter struct {
	ActivityType string
	Scope        *int
	Category     *int
}

type EmissionFactorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, factors []*types.EmissionFactor) ([]*types.EmissionFactor, error)
	Update(ctx context.Context, tx *gorm.DB, factor *types.EmissionFactor) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.EmissionFactor, error)
	// GetByActivityType returns factors ordered by lookup_identifier so the
	// fuzzy matcher's first-wins tie-break is deterministic.
	GetByActivityType(ctx context.Context, tx *gorm.DB, activityType string) ([]*types.EmissionFactor, error)
	SearchByIdentifier(ctx context.Context, tx *gorm.DB, term, activityType string) ([]*types.EmissionFactor, error)
	List(ctx context.Context, tx *gorm.DB, filter FactorFilter, offset, limit int) ([]*types.EmissionFactor, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type emissionFactorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmissionFactorRepo(db *gorm.DB, baseLog *logger.Logger) EmissionFactorRepo {
	repoLog := baseLog.With("repo", "EmissionFactorRepo")
	return &emissionFactorRepo{db: db, log: repoLog}
}

func (r *emissionFactorRepo) Create(ctx context.Context, tx *gorm.DB, factors []*types.EmissionFactor) ([]*types.EmissionFactor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(factors) == 0 {
		return []*types.EmissionFactor{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

func (r *emissionFactorRepo) Update(ctx context.Context, tx *gorm.DB, factor *types.EmissionFactor) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(factor).Error
}

func (r *emissionFactorRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.EmissionFactor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var factor types.EmissionFactor
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&factor).Error; err != nil {
		return nil, err
	}
	return &factor, nil
}

func (r *emissionFactorRepo) GetByActivityType(ctx context.Context, tx *gorm.DB, activityType string) ([]*types.EmissionFactor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var factors []*types.EmissionFactor
	if err := transaction.WithContext(ctx).
		Where("activity_type = ?", activityType).
		Order("lookup_identifier ASC").
		Find(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

func (r *emissionFactorRepo) SearchByIdentifier(ctx context.Context, tx *gorm.DB, term, activityType string) ([]*types.EmissionFactor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var factors []*types.EmissionFactor
	query := transaction.WithContext(ctx).
		Where("LOWER(lookup_identifier) LIKE LOWER(?)", "%"+term+"%")
	if activityType != "" {
		query = query.Where("activity_type = ?", activityType)
	}
	if err := query.Order("lookup_identifier ASC").Find(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

func (r *emissionFactorRepo) List(ctx context.Context, tx *gorm.DB, filter FactorFilter, offset, limit int) ([]*types.EmissionFactor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var factors []*types.EmissionFactor
	query := transaction.WithContext(ctx).Model(&types.EmissionFactor{})
	if filter.ActivityType != "" {
		query = query.Where("activity_type = ?", filter.ActivityType)
	}
	if filter.Scope != nil {
		query = query.Where("scope = ?", *filter.Scope)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if err := query.
		Order("activity_type ASC, lookup_identifier ASC").
		Offset(offset).Limit(limit).
		Find(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

func (r *emissionFactorRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.EmissionFactor{}).Error
}
