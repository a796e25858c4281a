package public

import (
	"strings"

	"github.com/walletkart/internal/cache"
	"github.com/walletkart/internal/http/response"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderLineRequest 订单行请求
// 只接受商品ID与数量，单价与小计一律由服务端按目录计算；
// 数量不在绑定层校验，零值与负值都交给计价逻辑按商品报错
type OrderLineRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// ChangeOrderRequest 提交/覆盖订单请求
type ChangeOrderRequest struct {
	WalletCode string             `json:"wallet_code" binding:"required"`
	Lines      []OrderLineRequest `json:"lines" binding:"required"`
}

// BulkOrderGroupRequest 批量提交的单个钱包分组
type BulkOrderGroupRequest struct {
	WalletCode string             `json:"wallet_code" binding:"required"`
	Lines      []OrderLineRequest `json:"lines" binding:"required"`
}

// BulkOrdersRequest 批量提交请求
type BulkOrdersRequest struct {
	Orders []BulkOrderGroupRequest `json:"orders" binding:"required"`
}

// GetOrder 查询钱包当前订单
// 无订单不算错误，返回空对象
func (h *Handler) GetOrder(c *gin.Context) {
	walletCode := strings.TrimSpace(c.Param("wallet_code"))
	if walletCode == "" {
		respondError(c, response.CodeBadRequest, service.ErrWalletCodeRequired.Error(), nil)
		return
	}

	var cached models.Order
	if hit, err := cache.GetOrderSnapshot(c.Request.Context(), walletCode, &cached); err == nil && hit {
		response.Success(c, &cached)
		return
	}

	order, err := h.OrderService.GetOrder(walletCode)
	if err != nil {
		respondError(c, response.CodeInternal, "Order fetch failed", err)
		return
	}
	if order == nil {
		response.Success(c, gin.H{})
		return
	}

	if err := cache.SetOrderSnapshot(c.Request.Context(), walletCode, order); err != nil {
		requestLog(c).Debugw("order_snapshot_cache_write_failed", "wallet_code", walletCode, "error", err)
	}
	response.Success(c, order)
}

// ChangeOrder 提交订单（同钱包覆盖）
func (h *Handler) ChangeOrder(c *gin.Context) {
	var req ChangeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid request body", err)
		return
	}

	order, err := h.OrderService.SetOrder(service.SetOrderInput{
		WalletCode: req.WalletCode,
		Lines:      toRawLines(req.Lines),
		BuyerIP:    buyerIP(c),
	})
	if err != nil {
		respondOrderChangeError(c, err)
		return
	}

	_ = cache.DelOrderSnapshot(c.Request.Context(), order.WalletCode)
	response.Success(c, order)
}

// BulkOrders 批量提交订单（JSON）
func (h *Handler) BulkOrders(c *gin.Context) {
	var req BulkOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Orders) == 0 {
		respondError(c, response.CodeBadRequest, "Orders required", nil)
		return
	}
	maxGroups := h.Config.Bulk.MaxGroups
	if maxGroups > 0 && len(req.Orders) > maxGroups {
		respondError(c, response.CodeBadRequest, "Too many order groups", nil)
		return
	}

	groups := make([]service.BulkOrderGroup, 0, len(req.Orders))
	for _, group := range req.Orders {
		groups = append(groups, service.BulkOrderGroup{
			WalletCode: group.WalletCode,
			Lines:      toRawLines(group.Lines),
		})
	}

	result := h.OrderService.BulkSetOrders(groups, buyerIP(c))
	for _, group := range groups {
		_ = cache.DelOrderSnapshot(c.Request.Context(), group.WalletCode)
	}
	response.Success(c, result)
}

// BulkOrdersUpload 批量提交订单（CSV 文件）
func (h *Handler) BulkOrdersUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, response.CodeBadRequest, "No file uploaded", nil)
		return
	}

	src, err := h.BulkUploadService.Open(file)
	if err != nil {
		if message := service.BusinessMessage(err); message != "" {
			respondError(c, response.CodeBadRequest, message, nil)
			return
		}
		respondError(c, response.CodeInternal, "Upload failed", err)
		return
	}
	defer src.Close()

	groups, err := service.ParseBulkCSV(src, h.Config.Bulk.MaxGroups)
	if err != nil {
		if message := service.BusinessMessage(err); message != "" {
			respondError(c, response.CodeBadRequest, message, nil)
			return
		}
		respondError(c, response.CodeInternal, "Upload failed", err)
		return
	}

	result := h.OrderService.BulkSetOrders(groups, buyerIP(c))
	for _, group := range groups {
		_ = cache.DelOrderSnapshot(c.Request.Context(), group.WalletCode)
	}
	response.Success(c, result)
}

func toRawLines(lines []OrderLineRequest) []service.RawOrderLine {
	raw := make([]service.RawOrderLine, 0, len(lines))
	for _, line := range lines {
		raw = append(raw, service.RawOrderLine{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		})
	}
	return raw
}
