package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type ElectricityActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activities []*types.ElectricityActivity) ([]*types.ElectricityActivity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ElectricityActivity, error)
	// ListPage returns a page of active records in a stable order for
	// offset-based streaming.
	ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ElectricityActivity, error)
	CountActive(ctx context.Context, tx *gorm.DB) (int64, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type electricityActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewElectricityActivityRepo(db *gorm.DB, baseLog *logger.Logger) ElectricityActivityRepo {
	repoLog := baseLog.With("repo", "ElectricityActivityRepo")
	return &electricityActivityRepo{db: db, log: repoLog}
}

func (r *electricityActivityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.ElectricityActivity) ([]*types.ElectricityActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(activities) == 0 {
		return []*types.ElectricityActivity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *electricityActivityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ElectricityActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activity types.ElectricityActivity
	if err := transaction.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *electricityActivityRepo) ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ElectricityActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activities []*types.ElectricityActivity
	if err := transaction.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *electricityActivityRepo) CountActive(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ElectricityActivity{}).
		Where("is_deleted = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *electricityActivityRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.ElectricityActivity{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}
