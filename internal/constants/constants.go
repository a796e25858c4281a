package constants

// 订单状态常量
// 引擎只会产出 PENDING，其余状态由外部履约流程写入
const (
	OrderStatusPending  = "PENDING"
	OrderStatusPaid     = "PAID"
	OrderStatusCanceled = "CANCELED"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskOrderChanged   = "order:changed"
	TaskCouponRedeemed = "coupon:redeemed"
)

// 批量导入 CSV 固定列名
const (
	BulkColumnWalletCode = "walletCode"
	BulkColumnItemID     = "itemId"
	BulkColumnQuantity   = "quantity"
)
