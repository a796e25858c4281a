package repository

import (
	"github.com/walletkart/internal/models"

	"gorm.io/gorm"
)

// CouponRedemptionRepository 优惠券核销记录数据访问接口
type CouponRedemptionRepository interface {
	Create(redemption *models.CouponRedemption) error
	ExistsByOrderAndCoupon(orderID, couponID uint) (bool, error)
	ListByOrderID(orderID uint) ([]models.CouponRedemption, error)
	DeleteByOrderAndCoupon(orderID, couponID uint) error
	WithTx(tx *gorm.DB) CouponRedemptionRepository
}

// GormCouponRedemptionRepository GORM 实现
type GormCouponRedemptionRepository struct {
	db *gorm.DB
}

// NewCouponRedemptionRepository 创建核销记录仓库
func NewCouponRedemptionRepository(db *gorm.DB) *GormCouponRedemptionRepository {
	return &GormCouponRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRedemptionRepository) WithTx(tx *gorm.DB) CouponRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRedemptionRepository{db: tx}
}

// Create 创建核销记录
// (order_id, coupon_id) 唯一索引冲突时返回 gorm.ErrDuplicatedKey
func (r *GormCouponRedemptionRepository) Create(redemption *models.CouponRedemption) error {
	return r.db.Create(redemption).Error
}

// ExistsByOrderAndCoupon 判断是否已核销
func (r *GormCouponRedemptionRepository) ExistsByOrderAndCoupon(orderID, couponID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.CouponRedemption{}).
		Where("order_id = ? AND coupon_id = ?", orderID, couponID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOrderID 获取订单核销记录
func (r *GormCouponRedemptionRepository) ListByOrderID(orderID uint) ([]models.CouponRedemption, error) {
	var redemptions []models.CouponRedemption
	if err := r.db.Where("order_id = ?", orderID).Find(&redemptions).Error; err != nil {
		return nil, err
	}
	return redemptions, nil
}

// DeleteByOrderAndCoupon 删除核销记录（不存在时也视为成功）
func (r *GormCouponRedemptionRepository) DeleteByOrderAndCoupon(orderID, couponID uint) error {
	return r.db.Where("order_id = ? AND coupon_id = ?", orderID, couponID).
		Delete(&models.CouponRedemption{}).Error
}
