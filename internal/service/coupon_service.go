package service

import (
	"errors"
	"strings"

	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/queue"
	"github.com/walletkart/internal/repository"

	"gorm.io/gorm"
)

// CouponService 优惠券核销服务
type CouponService struct {
	couponRepo     repository.CouponRepository
	redemptionRepo repository.CouponRedemptionRepository
	orderRepo      repository.OrderRepository
	queueClient    *queue.Client
}

// NewCouponService 创建优惠券核销服务
func NewCouponService(couponRepo repository.CouponRepository, redemptionRepo repository.CouponRedemptionRepository, orderRepo repository.OrderRepository, queueClient *queue.Client) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		orderRepo:      orderRepo,
		queueClient:    queueClient,
	}
}

// Redeem 核销优惠券
// 同一事务内：按码取启用中的券 → 取钱包当前订单 → 前置查重 → 写核销记录。
// 前置查重只是快速拒绝；并发下真正兜底的是 (order_id, coupon_id) 唯一索引，
// 插入冲突与"已使用"同义
func (s *CouponService) Redeem(walletCode, code string) (*models.CouponRedemption, error) {
	walletCode = strings.TrimSpace(walletCode)
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrCouponInvalid
	}

	var redemption *models.CouponRedemption
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		couponRepo := s.couponRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		redemptionRepo := s.redemptionRepo.WithTx(tx)

		coupon, err := couponRepo.GetActiveByCode(trimmed)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponInvalid
		}

		order, err := orderRepo.FindBareByWalletCode(walletCode)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNoCurrentOrder
		}

		used, err := redemptionRepo.ExistsByOrderAndCoupon(order.ID, coupon.ID)
		if err != nil {
			return err
		}
		if used {
			return ErrCouponAlreadyUsed
		}

		redemption = &models.CouponRedemption{
			OrderID:    order.ID,
			CouponID:   coupon.ID,
			CouponCode: coupon.Code,
			Percent:    coupon.Percent,
			WalletCode: walletCode,
		}
		return redemptionRepo.Create(redemption)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponAlreadyUsed
		}
		return nil, err
	}

	// 队列通知尽力而为，失败不影响核销结果
	if enqueueErr := s.queueClient.EnqueueCouponRedeemed(queue.CouponRedeemedPayload{
		OrderID:    redemption.OrderID,
		CouponID:   redemption.CouponID,
		CouponCode: redemption.CouponCode,
		WalletCode: redemption.WalletCode,
	}); enqueueErr != nil {
		logger.Warnw("coupon_redeemed_enqueue_failed", "order_id", redemption.OrderID, "coupon_id", redemption.CouponID, "error", enqueueErr)
	}
	return redemption, nil
}

// Remove 移除核销记录
// 幂等：记录不存在也视为成功，订单不存在才报错
func (s *CouponService) Remove(walletCode string, couponID uint) error {
	walletCode = strings.TrimSpace(walletCode)
	return models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		redemptionRepo := s.redemptionRepo.WithTx(tx)

		order, err := orderRepo.FindBareByWalletCode(walletCode)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrNoCurrentOrder
		}
		return redemptionRepo.DeleteByOrderAndCoupon(order.ID, couponID)
	})
}
