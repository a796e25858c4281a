package models

import "time"

// CouponRedemption 优惠券核销记录表
// (order_id, coupon_id) 唯一索引是"至多核销一次"的存储层兜底，
// 应用内的前置检查只是给用户的快速拒绝
type CouponRedemption struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                               // 主键
	OrderID    uint      `gorm:"not null;uniqueIndex:idx_redemptions_order_coupon" json:"order_id"`  // 订单ID
	CouponID   uint      `gorm:"not null;uniqueIndex:idx_redemptions_order_coupon" json:"coupon_id"` // 优惠券ID
	CouponCode string    `gorm:"not null" json:"coupon_code"`                                        // 优惠码快照
	Percent    int       `gorm:"not null" json:"percent"`                                            // 核销时刻的折扣百分比
	WalletCode string    `gorm:"index;not null" json:"wallet_code"`                                  // 钱包码快照
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
