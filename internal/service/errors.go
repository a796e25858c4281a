package service

import (
	"errors"
	"fmt"
)

// BusinessError 业务错误（可预期、面向用户）
// 与内部错误区分：处理器把业务错误映射为 4xx，其余一律按内部错误处理
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// NewBusinessError 创建业务错误
func NewBusinessError(message string) *BusinessError {
	return &BusinessError{Message: message}
}

// 核心业务错误
var (
	ErrItemUnavailable    = NewBusinessError("One or more items not found or inactive")
	ErrWalletCodeRequired = NewBusinessError("Wallet code required")
	ErrEmptyOrderLines    = NewBusinessError("Order lines required")
	ErrCouponInvalid      = NewBusinessError("Coupon invalid")
	ErrNoCurrentOrder     = NewBusinessError("No current order")
	ErrCouponAlreadyUsed  = NewBusinessError("Already used")
)

// NewInvalidQuantityError 数量非法（指明商品）
func NewInvalidQuantityError(itemID uint) error {
	return NewBusinessError(fmt.Sprintf("Invalid quantity for item %d", itemID))
}

// NewInvalidTotalError 小计非正（指明商品，防止目录脏价入库）
func NewInvalidTotalError(itemID uint) error {
	return NewBusinessError(fmt.Sprintf("Invalid total price for item %d", itemID))
}

// IsBusinessError 判断是否业务错误
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// BusinessMessage 提取业务错误消息；非业务错误返回空串
func BusinessMessage(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}
