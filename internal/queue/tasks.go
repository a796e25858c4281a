package queue

import (
	"encoding/json"

	"github.com/walletkart/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderChanged 订单创建或替换后的通知任务
	TaskOrderChanged = constants.TaskOrderChanged
	// TaskCouponRedeemed 券核销成功后的通知任务
	TaskCouponRedeemed = constants.TaskCouponRedeemed
)

// OrderChangedPayload 订单变更任务载荷
type OrderChangedPayload struct {
	OrderID    uint   `json:"order_id"`
	WalletCode string `json:"wallet_code"`
}

// CouponRedeemedPayload 券核销任务载荷
type CouponRedeemedPayload struct {
	OrderID    uint   `json:"order_id"`
	CouponID   uint   `json:"coupon_id"`
	CouponCode string `json:"coupon_code"`
	WalletCode string `json:"wallet_code"`
}

// NewOrderChangedTask 创建订单变更任务
func NewOrderChangedTask(payload OrderChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderChanged, body), nil
}

// NewCouponRedeemedTask 创建券核销任务
func NewCouponRedeemedTask(payload CouponRedeemedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponRedeemed, body), nil
}
