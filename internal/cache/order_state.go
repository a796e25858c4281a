package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// 订单快照缓存 TTL 保持较短，写路径会主动失效
const orderSnapshotTTL = 30 * time.Second

func orderSnapshotKey(walletCode string) string {
	return fmt.Sprintf("order:wallet:%s", strings.TrimSpace(walletCode))
}

// GetOrderSnapshot 获取钱包当前订单的响应快照
func GetOrderSnapshot(ctx context.Context, walletCode string, dest interface{}) (bool, error) {
	if strings.TrimSpace(walletCode) == "" {
		return false, nil
	}
	return GetJSON(ctx, orderSnapshotKey(walletCode), dest)
}

// SetOrderSnapshot 写入钱包当前订单的响应快照
func SetOrderSnapshot(ctx context.Context, walletCode string, value interface{}) error {
	if strings.TrimSpace(walletCode) == "" {
		return nil
	}
	return SetJSON(ctx, orderSnapshotKey(walletCode), value, orderSnapshotTTL)
}

// DelOrderSnapshot 订单变更后失效快照
func DelOrderSnapshot(ctx context.Context, walletCode string) error {
	if strings.TrimSpace(walletCode) == "" {
		return nil
	}
	return Del(ctx, orderSnapshotKey(walletCode))
}
