package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/walletkart/internal/constants"
	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/queue"
	"github.com/walletkart/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
// 计价与覆盖提交在同一事务内完成，并发覆盖按钱包串行
type OrderService struct {
	orderRepo   repository.OrderRepository
	itemRepo    repository.ItemRepository
	queueClient *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, itemRepo repository.ItemRepository, queueClient *queue.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		queueClient: queueClient,
	}
}

// SetOrderInput 提交订单输入
type SetOrderInput struct {
	WalletCode string
	Lines      []RawOrderLine
	BuyerIP    string
}

// GetOrder 获取钱包当前订单（不存在时返回 nil）
func (s *OrderService) GetOrder(walletCode string) (*models.Order, error) {
	return s.orderRepo.GetByWalletCode(strings.TrimSpace(walletCode))
}

// SetOrder 提交订单（同钱包覆盖式 upsert）
// 首次提交创建 PENDING 订单；已有订单则保持 ID 不变、整组替换订单行、
// 状态重置为 PENDING，buyerIp 仅在调用方提供时更新
func (s *OrderService) SetOrder(input SetOrderInput) (*models.Order, error) {
	walletCode := strings.TrimSpace(input.WalletCode)
	if walletCode == "" {
		return nil, ErrWalletCodeRequired
	}
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrderLines
	}

	orderID, err := s.upsertOrder(walletCode, input)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发首单：两个事务同时没查到订单，唯一索引挡下后来者，重试走覆盖路径
		orderID, err = s.upsertOrder(walletCode, input)
	}
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if enqueueErr := s.queueClient.EnqueueOrderChanged(queue.OrderChangedPayload{
		OrderID:    orderID,
		WalletCode: walletCode,
	}); enqueueErr != nil {
		logger.Warnw("order_changed_enqueue_failed", "order_id", orderID, "error", enqueueErr)
	}
	return order, nil
}

// upsertOrder 单次覆盖提交事务
func (s *OrderService) upsertOrder(walletCode string, input SetOrderInput) (uint, error) {
	var orderID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		itemRepo := s.itemRepo.WithTx(tx)

		lines, err := buildPricedLines(itemRepo, input.Lines)
		if err != nil {
			return err
		}

		existing, err := orderRepo.FindBareByWalletCode(walletCode)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := orderRepo.TouchForReplace(existing.ID, constants.OrderStatusPending, input.BuyerIP); err != nil {
				return err
			}
			if err := orderRepo.ReplaceLines(existing.ID, lines); err != nil {
				return err
			}
			orderID = existing.ID
			return nil
		}

		order := &models.Order{
			WalletCode: walletCode,
			Status:     constants.OrderStatusPending,
			BuyerIP:    input.BuyerIP,
		}
		if err := orderRepo.Create(order, lines); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	return orderID, err
}

// BulkOrderGroup 批量提交的单个钱包分组
type BulkOrderGroup struct {
	WalletCode string
	Lines      []RawOrderLine
}

// BulkOrderFailure 批量提交的单组失败
type BulkOrderFailure struct {
	WalletCode string `json:"wallet_code"`
	Error      string `json:"error"`
}

// BulkOrdersResult 批量提交汇总
type BulkOrdersResult struct {
	Created int                `json:"created"`
	Errors  []BulkOrderFailure `json:"errors"`
}

// BulkSetOrders 批量提交订单
// 每组独立走计价+覆盖提交事务，互不回滚；全部结算完毕后汇总成功数与失败明细
func (s *OrderService) BulkSetOrders(groups []BulkOrderGroup, buyerIP string) BulkOrdersResult {
	outcomes := make([]error, len(groups))
	var wg sync.WaitGroup
	for i := range groups {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.SetOrder(SetOrderInput{
				WalletCode: groups[i].WalletCode,
				Lines:      groups[i].Lines,
				BuyerIP:    buyerIP,
			})
			outcomes[i] = err
		}(i)
	}
	wg.Wait()

	result := BulkOrdersResult{Errors: []BulkOrderFailure{}}
	for i, err := range outcomes {
		if err == nil {
			result.Created++
			continue
		}
		message := BusinessMessage(err)
		if message == "" {
			logger.Errorw("bulk_order_group_failed", "wallet_code", groups[i].WalletCode, "error", err)
			message = "internal error"
		}
		result.Errors = append(result.Errors, BulkOrderFailure{
			WalletCode: groups[i].WalletCode,
			Error:      message,
		})
	}
	return result
}
