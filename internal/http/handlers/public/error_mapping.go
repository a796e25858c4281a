package public

import (
	"errors"

	"github.com/walletkart/internal/http/response"
	"github.com/walletkart/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
}

// respondWithMappedError 先走规则表；未命中但仍是业务错误的（如带商品ID的
// 数量/金额错误）按 400 返回原始消息，其余按内部错误兜底
func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.target.Error(), nil)
			return
		}
	}
	if message := service.BusinessMessage(err); message != "" {
		respondError(c, response.CodeBadRequest, message, nil)
		return
	}
	respondError(c, response.CodeInternal, fallbackMsg, err)
}

var orderChangeErrorRules = []mappedHandlerError{
	{target: service.ErrWalletCodeRequired, code: response.CodeBadRequest},
	{target: service.ErrEmptyOrderLines, code: response.CodeBadRequest},
	{target: service.ErrItemUnavailable, code: response.CodeBadRequest},
}

var couponRedeemErrorRules = []mappedHandlerError{
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest},
	{target: service.ErrNoCurrentOrder, code: response.CodeNotFound},
	{target: service.ErrCouponAlreadyUsed, code: response.CodeBadRequest},
}

var couponRemoveErrorRules = []mappedHandlerError{
	{target: service.ErrNoCurrentOrder, code: response.CodeNotFound},
}

func respondOrderChangeError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderChangeErrorRules, "Order update failed")
}

func respondCouponRedeemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponRedeemErrorRules, "Coupon redeem failed")
}

func respondCouponRemoveError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponRemoveErrorRules, "Coupon remove failed")
}
