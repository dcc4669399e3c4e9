package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/carbonledger-backend/internal/logger"
	"github.com/yungbote/carbonledger-backend/internal/types"
)

type GoodsServicesActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activities []*types.GoodsServicesActivity) ([]*types.GoodsServicesActivity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GoodsServicesActivity, error)
	ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.GoodsServicesActivity, error)
	CountActive(ctx context.Context, tx *gorm.DB) (int64, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type goodsServicesActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoodsServicesActivityRepo(db *gorm.DB, baseLog *logger.Logger) GoodsServicesActivityRepo {
	repoLog := baseLog.With("repo", "GoodsServicesActivityRepo")
	return &goodsServicesActivityRepo{db: db, log: repoLog}
}

func (r *goodsServicesActivityRepo) Create(ctx context.Context, tx *gorm.DB, activities []*types.GoodsServicesActivity) ([]*types.GoodsServicesActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(activities) == 0 {
		return []*types.GoodsServicesActivity{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *goodsServicesActivityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GoodsServicesActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activity types.GoodsServicesActivity
	if err := transaction.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *goodsServicesActivityRepo) ListPage(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.GoodsServicesActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var activities []*types.GoodsServicesActivity
	if err := transaction.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *goodsServicesActivityRepo) CountActive(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.GoodsServicesActivity{}).
		Where("is_deleted = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *goodsServicesActivityRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return transaction.WithContext(ctx).
		Model(&types.GoodsServicesActivity{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}
