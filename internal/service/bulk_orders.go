package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/walletkart/internal/constants"
)

// 价格相关列名（小写比较）一律拒绝：
// 批量导入的行记录是固定模式，价格字段只能由服务端算出
var rejectedBulkColumns = map[string]struct{}{
	"price":       {},
	"unitprice":   {},
	"totalprice":  {},
	"unit_price":  {},
	"total_price": {},
}

// ParseBulkCSV 解析批量订单 CSV
// 固定列模式：walletCode,itemId,quantity；其余列忽略，出现价格列直接整个文件拒绝。
// 行按钱包码分组（保持首次出现顺序），分组数超过 maxGroups 拒绝
func ParseBulkCSV(r io.Reader, maxGroups int) ([]BulkOrderGroup, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, NewBusinessError("CSV parse error: empty file")
	}

	walletIdx, itemIdx, quantityIdx := -1, -1, -1
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		if _, rejected := rejectedBulkColumns[strings.ToLower(trimmed)]; rejected {
			return nil, NewBusinessError(fmt.Sprintf("Price column %q is not accepted", trimmed))
		}
		switch trimmed {
		case constants.BulkColumnWalletCode:
			walletIdx = i
		case constants.BulkColumnItemID:
			itemIdx = i
		case constants.BulkColumnQuantity:
			quantityIdx = i
		}
	}
	if walletIdx < 0 || itemIdx < 0 || quantityIdx < 0 {
		return nil, NewBusinessError(fmt.Sprintf(
			"CSV header must contain %s, %s and %s columns",
			constants.BulkColumnWalletCode, constants.BulkColumnItemID, constants.BulkColumnQuantity,
		))
	}

	groupByWallet := make(map[string]int)
	var groups []BulkOrderGroup
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewBusinessError(fmt.Sprintf("CSV parse error: %v", err))
		}
		row++

		walletCode := strings.TrimSpace(record[walletIdx])
		if walletCode == "" {
			return nil, NewBusinessError(fmt.Sprintf("Row %d: wallet code required", row))
		}
		itemID, err := strconv.ParseUint(strings.TrimSpace(record[itemIdx]), 10, 64)
		if err != nil {
			return nil, NewBusinessError(fmt.Sprintf("Row %d: invalid item id %q", row, record[itemIdx]))
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(record[quantityIdx]))
		if err != nil {
			return nil, NewBusinessError(fmt.Sprintf("Row %d: invalid quantity %q", row, record[quantityIdx]))
		}

		idx, ok := groupByWallet[walletCode]
		if !ok {
			if maxGroups > 0 && len(groups) >= maxGroups {
				return nil, NewBusinessError(fmt.Sprintf("Too many wallet groups (max %d)", maxGroups))
			}
			idx = len(groups)
			groupByWallet[walletCode] = idx
			groups = append(groups, BulkOrderGroup{WalletCode: walletCode})
		}
		groups[idx].Lines = append(groups[idx].Lines, RawOrderLine{
			ItemID:   uint(itemID),
			Quantity: quantity,
		})
	}

	if len(groups) == 0 {
		return nil, NewBusinessError("CSV contains no order rows")
	}
	return groups, nil
}
