package models

import "time"

// Item 商品目录表
// 单价是服务端可信价格，引擎只读不写
type Item struct {
	ID        uint      `gorm:"primarykey" json:"id"`                         // 主键
	Name      string    `gorm:"type:varchar(200)" json:"name"`                // 商品名称
	Price     Money     `gorm:"type:decimal(20,2);not null" json:"price"`     // 可信单价
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"` // 是否上架
	CreatedAt time.Time `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                      // 更新时间
}

// TableName 指定表名
func (Item) TableName() string {
	return "items"
}
