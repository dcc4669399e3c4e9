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

type AirTravelActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activities []*types.AirTravelActivity) ([]*types.AirTravelActivity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AirTravelActivity, error)
	ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.AirTravelActivity, error)
	CountActive(ctx context.Context, tx *gorm.DB) (int64, error)
	// UpdateDistanceKm persists a kilometre distance backfilled from miles.
	UpdateDistanceKm(ctx context.Context, tx *gorm.DB, id uuid.UUID, km decimal.Decimal) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type airTravelActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAirTravelActivityRepo(db *gorm.DB, baseLog *logger.Logger) AirTravelActivityRepo {
	repoLog := baseLog.With("repo", "AirTravelActivityRepo")
	return &airTravelActivityRepo{db: db, log: repoLog}
}

func (r *airTravelActivityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.AirTravelActivity) ([]*types.AirTravelActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(activities) == 0 {
		return []*types.AirTravelActivity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *airTravelActivityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AirTravelActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activity types.AirTravelActivity
	if err := transaction.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *airTravelActivityRepo) ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.AirTravelActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activities []*types.AirTravelActivity
	if err := transaction.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *airTravelActivityRepo) CountActive(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AirTravelActivity{}).
		Where("is_deleted = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *airTravelActivityRepo) UpdateDistanceKm(ctx context.Context, tx *gorm.DB, id uuid.UUID, km decimal.Decimal) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.AirTravelActivity{}).
		Where("id = ?", id).
		Update("distance_km", km).Error
}

func (r *airTravelActivityRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.AirTravelActivity{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}
