package worker

import (
	"context"
	"encoding/json"

	"github.com/walletkart/internal/cache"
	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/provider"
	"github.com/walletkart/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderChanged, c.handleOrderChanged)
	mux.HandleFunc(queue.TaskCouponRedeemed, c.handleCouponRedeemed)
}

// handleOrderChanged 订单创建或替换后失效快照缓存并记录订单概要
func (c *Consumer) handleOrderChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_changed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}

	if err := cache.DelOrderSnapshot(ctx, payload.WalletCode); err != nil {
		logger.Warnw("worker_order_changed_cache_invalidate_failed", "wallet_code", payload.WalletCode, "error", err)
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_changed_fetch_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_changed_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	logger.Infow("order_changed",
		"order_id", order.ID,
		"wallet_code", order.WalletCode,
		"status", order.Status,
		"line_count", len(order.Lines),
		"order_total", orderTotal(order).String(),
	)
	return nil
}

// handleCouponRedeemed 券核销成功后失效快照缓存并记录核销事件
func (c *Consumer) handleCouponRedeemed(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_redeemed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponRedeemedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_redeemed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.CouponID == 0 {
		logger.Debugw("worker_coupon_redeemed_skip_invalid_payload", "order_id", payload.OrderID, "coupon_id", payload.CouponID)
		return nil
	}

	if err := cache.DelOrderSnapshot(ctx, payload.WalletCode); err != nil {
		logger.Warnw("worker_coupon_redeemed_cache_invalidate_failed", "wallet_code", payload.WalletCode, "error", err)
	}

	redemptionCount := -1
	if redemptions, err := c.CouponRedemptionRepo.ListByOrderID(payload.OrderID); err != nil {
		logger.Warnw("worker_coupon_redeemed_list_failed", "order_id", payload.OrderID, "error", err)
	} else {
		redemptionCount = len(redemptions)
	}

	logger.Infow("coupon_redeemed",
		"order_id", payload.OrderID,
		"coupon_id", payload.CouponID,
		"coupon_code", payload.CouponCode,
		"wallet_code", payload.WalletCode,
		"redemption_count", redemptionCount,
	)
	return nil
}

// orderTotal 汇总订单行金额
func orderTotal(order *models.Order) models.Money {
	total := models.NewMoneyFromInt(0)
	if order == nil {
		return total
	}
	for _, line := range order.Lines {
		total = total.Add(line.TotalPrice)
	}
	return total
}
