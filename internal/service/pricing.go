package service

import (
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/repository"
)

// RawOrderLine 原始订单行
// 只信任商品 ID 与数量；调用方附带的任何价格字段一律不进入计价
type RawOrderLine struct {
	ItemID   uint
	Quantity int
}

// buildPricedLines 订单行计价
// 去重后一次查目录，逐行校验数量并以目录价计算小计，保持输入顺序。
// 命中的上架商品数与请求 ID 集合大小不一致时整体拒绝，
// 未知 ID 与下架商品对调用方不可区分。
func buildPricedLines(itemRepo repository.ItemRepository, rawLines []RawOrderLine) ([]models.OrderLine, error) {
	seen := make(map[uint]struct{}, len(rawLines))
	ids := make([]uint, 0, len(rawLines))
	for _, line := range rawLines {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}

	items, err := itemRepo.ListActiveByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, ErrItemUnavailable
	}
	priceByID := make(map[uint]models.Money, len(items))
	for _, item := range items {
		priceByID[item.ID] = item.Price
	}

	lines := make([]models.OrderLine, 0, len(rawLines))
	for _, raw := range rawLines {
		if raw.Quantity <= 0 {
			return nil, NewInvalidQuantityError(raw.ItemID)
		}
		unitPrice := priceByID[raw.ItemID]
		totalPrice := unitPrice.MulQuantity(raw.Quantity)
		if !totalPrice.IsPositive() {
			return nil, NewInvalidTotalError(raw.ItemID)
		}
		lines = append(lines, models.OrderLine{
			ItemID:     raw.ItemID,
			Quantity:   raw.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: totalPrice,
		})
	}
	return lines, nil
}
