package models

import "time"

// Order 订单表
// 每个钱包同一时刻至多一笔订单（wallet_code 唯一键），重复提交原地覆盖
type Order struct {
	ID         uint      `gorm:"primarykey" json:"id"`                       // 主键
	WalletCode string    `gorm:"uniqueIndex;not null" json:"wallet_code"`    // 钱包码
	Status     string    `gorm:"index;not null" json:"status"`               // 订单状态
	BuyerIP    string    `gorm:"type:varchar(64)" json:"buyer_ip,omitempty"` // 买家IP（尽力记录，可为空）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`                    // 更新时间

	Lines       []OrderLine        `gorm:"foreignKey:OrderID" json:"lines,omitempty"`   // 订单行
	Redemptions []CouponRedemption `gorm:"foreignKey:OrderID" json:"coupons,omitempty"` // 券核销记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
