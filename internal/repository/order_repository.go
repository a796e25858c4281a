package repository

import (
	"errors"
	"time"

	"github.com/walletkart/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	GetByWalletCode(walletCode string) (*models.Order, error)
	GetByID(id uint) (*models.Order, error)
	FindBareByWalletCode(walletCode string) (*models.Order, error)
	Create(order *models.Order, lines []models.OrderLine) error
	TouchForReplace(orderID uint, status, buyerIP string) error
	ReplaceLines(orderID uint, lines []models.OrderLine) error
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// GetByWalletCode 根据钱包码获取订单（含订单行与核销记录）
func (r *GormOrderRepository) GetByWalletCode(walletCode string) (*models.Order, error) {
	var order models.Order
	query := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_lines.id asc")
	}).Preload("Redemptions", func(db *gorm.DB) *gorm.DB {
		return db.Order("coupon_redemptions.id asc")
	})
	if err := query.Where("wallet_code = ?", walletCode).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据 ID 获取订单（含订单行与核销记录）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	query := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_lines.id asc")
	}).Preload("Redemptions", func(db *gorm.DB) *gorm.DB {
		return db.Order("coupon_redemptions.id asc")
	})
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindBareByWalletCode 根据钱包码获取订单裸行（不带关联）
func (r *GormOrderRepository) FindBareByWalletCode(walletCode string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("wallet_code = ?", walletCode).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单与订单行
// wallet_code 唯一索引保证并发首次提交只会成功一个
func (r *GormOrderRepository) Create(order *models.Order, lines []models.OrderLine) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if len(lines) > 0 {
		if err := r.db.Create(&lines).Error; err != nil {
			return err
		}
	}
	return nil
}

// TouchForReplace 覆盖提交时先写订单主行
// 先 UPDATE 主行会拿住行锁，使同一钱包的并发覆盖在事务间串行
func (r *GormOrderRepository) TouchForReplace(orderID uint, status, buyerIP string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if buyerIP != "" {
		updates["buyer_ip"] = buyerIP
	}
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error
}

// ReplaceLines 整组替换订单行
func (r *GormOrderRepository) ReplaceLines(orderID uint, lines []models.OrderLine) error {
	if err := r.db.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}
