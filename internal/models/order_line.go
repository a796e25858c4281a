package models

import "time"

// OrderLine 订单行表
// 单价与小计均为提交时刻由目录计算的快照，整组随订单覆盖删建，不做部分更新
type OrderLine struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ItemID     uint      `gorm:"index;not null" json:"item_id"`                            // 商品ID
	Quantity   int       `gorm:"not null" json:"quantity"`                                 // 数量
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计快照
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (OrderLine) TableName() string {
	return "order_lines"
}
