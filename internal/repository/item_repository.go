package repository

import (
	"errors"

	"github.com/walletkart/internal/models"

	"gorm.io/gorm"
)

// ItemRepository 商品目录数据访问接口
type ItemRepository interface {
	ListActiveByIDs(ids []uint) ([]models.Item, error)
	GetByID(id uint) (*models.Item, error)
	Create(item *models.Item) error
	WithTx(tx *gorm.DB) ItemRepository
}

// GormItemRepository GORM 实现
type GormItemRepository struct {
	db *gorm.DB
}

// NewItemRepository 创建商品目录仓库
func NewItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormItemRepository) WithTx(tx *gorm.DB) ItemRepository {
	if tx == nil {
		return r
	}
	return &GormItemRepository{db: tx}
}

// ListActiveByIDs 批量获取上架商品
// 只返回命中的上架商品，未知与下架的由调用方按数量差一并判定
func (r *GormItemRepository) ListActiveByIDs(ids []uint) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}
	var items []models.Item
	if err := r.db.Where("id IN ? AND is_active = ?", ids, true).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取商品
func (r *GormItemRepository) GetByID(id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建商品
func (r *GormItemRepository) Create(item *models.Item) error {
	return r.db.Create(item).Error
}
