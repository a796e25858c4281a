package models

import "time"

// Coupon 优惠券表
// code 为唯一键，按码查找不存在歧义
type Coupon struct {
	ID        uint      `gorm:"primarykey" json:"id"`                         // 主键
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`             // 优惠码
	Percent   int       `gorm:"not null" json:"percent"`                      // 折扣百分比
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"` // 是否启用
	CreatedAt time.Time `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                      // 更新时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
