package public

import (
	"github.com/walletkart/internal/cache"
	"github.com/walletkart/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RedeemCouponRequest 核销优惠券请求
type RedeemCouponRequest struct {
	WalletCode string `json:"wallet_code" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// RemoveCouponRequest 移除核销记录请求
type RemoveCouponRequest struct {
	WalletCode string `json:"wallet_code" binding:"required"`
	CouponID   uint   `json:"coupon_id" binding:"required"`
}

// RedeemCoupon 核销优惠券（同一订单同一券至多一次）
func (h *Handler) RedeemCoupon(c *gin.Context) {
	var req RedeemCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid request body", err)
		return
	}

	redemption, err := h.CouponService.Redeem(req.WalletCode, req.Code)
	if err != nil {
		respondCouponRedeemError(c, err)
		return
	}

	_ = cache.DelOrderSnapshot(c.Request.Context(), req.WalletCode)
	response.Success(c, gin.H{
		"id":          redemption.ID,
		"coupon_id":   redemption.CouponID,
		"coupon_code": redemption.CouponCode,
		"percent":     redemption.Percent,
	})
}

// RemoveCoupon 移除核销记录（幂等）
func (h *Handler) RemoveCoupon(c *gin.Context) {
	var req RemoveCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid request body", err)
		return
	}

	if err := h.CouponService.Remove(req.WalletCode, req.CouponID); err != nil {
		respondCouponRemoveError(c, err)
		return
	}

	_ = cache.DelOrderSnapshot(c.Request.Context(), req.WalletCode)
	response.Success(c, gin.H{})
}
