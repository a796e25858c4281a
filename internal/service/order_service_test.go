package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/walletkart/internal/constants"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/queue"
	"github.com/walletkart/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Item{},
		&models.Order{},
		&models.OrderLine{},
		&models.Coupon{},
		&models.CouponRedemption{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	models.DB = db

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	svc := NewOrderService(repository.NewOrderRepository(db), repository.NewItemRepository(db), queueClient)
	return svc, db
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	items := []models.Item{
		{ID: 1, Name: "Gift Card 10", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")), IsActive: true},
		{ID: 2, Name: "Gift Card 5", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("5.00")), IsActive: true},
		{ID: 3, Name: "Gift Card 20", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("20.00")), IsActive: true},
		{ID: 4, Name: "Retired Card", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")), IsActive: false},
	}
	for _, item := range items {
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed item %d failed: %v", item.ID, err)
		}
	}
}

func TestSetOrderCreatesPendingOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	order, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines: []RawOrderLine{
			{ItemID: 1, Quantity: 2},
			{ItemID: 3, Quantity: 1},
		},
		BuyerIP: "1.2.3.4",
	})
	if err != nil {
		t.Fatalf("set order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want PENDING got %s", order.Status)
	}
	if order.WalletCode != "W1" {
		t.Fatalf("wallet code want W1 got %s", order.WalletCode)
	}
	if order.BuyerIP != "1.2.3.4" {
		t.Fatalf("buyer ip want 1.2.3.4 got %s", order.BuyerIP)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("line count want 2 got %d", len(order.Lines))
	}
	first, second := order.Lines[0], order.Lines[1]
	if first.ItemID != 1 || first.Quantity != 2 || first.UnitPrice.String() != "10.00" || first.TotalPrice.String() != "20.00" {
		t.Fatalf("unexpected first line: %+v", first)
	}
	if second.ItemID != 3 || second.Quantity != 1 || second.UnitPrice.String() != "20.00" || second.TotalPrice.String() != "20.00" {
		t.Fatalf("unexpected second line: %+v", second)
	}
}

func TestSetOrderReplacesExistingOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	first, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first set order failed: %v", err)
	}
	oldLineIDs := make(map[uint]struct{}, len(first.Lines))
	for _, line := range first.Lines {
		oldLineIDs[line.ID] = struct{}{}
	}

	second, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 3, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("second set order failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("order id should be stable across replacement: first=%d second=%d", first.ID, second.ID)
	}
	if len(second.Lines) != 1 {
		t.Fatalf("line count want 1 got %d", len(second.Lines))
	}
	if second.Lines[0].ItemID != 3 || second.Lines[0].TotalPrice.String() != "20.00" {
		t.Fatalf("unexpected replaced line: %+v", second.Lines[0])
	}
	if _, stale := oldLineIDs[second.Lines[0].ID]; stale {
		t.Fatalf("replaced line reused an old line id: %d", second.Lines[0].ID)
	}

	var lineCount int64
	if err := db.Model(&models.OrderLine{}).Where("order_id = ?", first.ID).Count(&lineCount).Error; err != nil {
		t.Fatalf("count lines failed: %v", err)
	}
	if lineCount != 1 {
		t.Fatalf("old lines should be gone, count want 1 got %d", lineCount)
	}
}

func TestSetOrderRejectsUnknownAndInactiveItems(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	// 未知商品
	if _, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 1, Quantity: 1}, {ItemID: 99, Quantity: 1}},
	}); !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("unknown item want ErrItemUnavailable got %v", err)
	}

	// 下架商品：与未知商品同一错误，不可区分
	if _, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 4, Quantity: 1}},
	}); !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("inactive item want ErrItemUnavailable got %v", err)
	}

	// 整体拒绝：没有任何订单落库
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected submissions must not create orders, count=%d", count)
	}
}

func TestSetOrderRejectsInvalidQuantity(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	_, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 1, Quantity: 0}},
	})
	if err == nil {
		t.Fatalf("expected error for zero quantity")
	}
	if got := BusinessMessage(err); got != "Invalid quantity for item 1" {
		t.Fatalf("unexpected message: %q", got)
	}

	_, err = svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 2, Quantity: -3}},
	})
	if got := BusinessMessage(err); got != "Invalid quantity for item 2" {
		t.Fatalf("unexpected message for negative quantity: %q", got)
	}
}

func TestSetOrderFailureKeepsExistingOrderIntact(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	first, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("first set order failed: %v", err)
	}

	// 第二行非法，整组拒绝，已有订单不能被动过
	if _, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 2, Quantity: 1}, {ItemID: 3, Quantity: 0}},
	}); err == nil {
		t.Fatalf("expected error for invalid second line")
	}

	current, err := svc.GetOrder("W1")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if current == nil || current.ID != first.ID {
		t.Fatalf("existing order lost after failed replacement")
	}
	if len(current.Lines) != 1 || current.Lines[0].ItemID != 1 || current.Lines[0].TotalPrice.String() != "20.00" {
		t.Fatalf("existing lines changed after failed replacement: %+v", current.Lines)
	}
}

func TestSetOrderValidatesInput(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)

	if _, err := svc.SetOrder(SetOrderInput{WalletCode: "  ", Lines: []RawOrderLine{{ItemID: 1, Quantity: 1}}}); !errors.Is(err, ErrWalletCodeRequired) {
		t.Fatalf("blank wallet want ErrWalletCodeRequired got %v", err)
	}
	if _, err := svc.SetOrder(SetOrderInput{WalletCode: "W1"}); !errors.Is(err, ErrEmptyOrderLines) {
		t.Fatalf("empty lines want ErrEmptyOrderLines got %v", err)
	}
}

func TestGetOrderReturnsNilWhenAbsent(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)

	order, err := svc.GetOrder("missing-wallet")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil order for unknown wallet, got %+v", order)
	}
}

func TestBulkSetOrdersPartialFailure(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	groups := []BulkOrderGroup{
		{WalletCode: "W1", Lines: []RawOrderLine{{ItemID: 1, Quantity: 1}}},
		{WalletCode: "W2", Lines: []RawOrderLine{{ItemID: 99, Quantity: 1}}},
		{WalletCode: "W3", Lines: []RawOrderLine{{ItemID: 2, Quantity: 3}}},
	}
	result := svc.BulkSetOrders(groups, "5.6.7.8")

	if result.Created != 2 {
		t.Fatalf("created want 2 got %d", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors want 1 got %d", len(result.Errors))
	}
	if result.Errors[0].WalletCode != "W2" || result.Errors[0].Error != ErrItemUnavailable.Message {
		t.Fatalf("unexpected failure entry: %+v", result.Errors[0])
	}

	// 失败组互不影响，成功组全部落库
	for _, wallet := range []string{"W1", "W3"} {
		order, err := svc.GetOrder(wallet)
		if err != nil {
			t.Fatalf("get order %s failed: %v", wallet, err)
		}
		if order == nil {
			t.Fatalf("order for %s should exist", wallet)
		}
		if order.BuyerIP != "5.6.7.8" {
			t.Fatalf("buyer ip want 5.6.7.8 got %s", order.BuyerIP)
		}
	}
	if order, _ := svc.GetOrder("W2"); order != nil {
		t.Fatalf("failed group must not create an order")
	}
}

// staleReadOrderRepo 首次钱包读返回未命中，复现并发首单时
// 两个事务都在对方提交前完成读取的窗口
type staleReadOrderRepo struct {
	repository.OrderRepository
	staleReads *int32
}

func (r *staleReadOrderRepo) WithTx(tx *gorm.DB) repository.OrderRepository {
	return &staleReadOrderRepo{OrderRepository: r.OrderRepository.WithTx(tx), staleReads: r.staleReads}
}

func (r *staleReadOrderRepo) FindBareByWalletCode(walletCode string) (*models.Order, error) {
	if atomic.AddInt32(r.staleReads, -1) >= 0 {
		return nil, nil
	}
	return r.OrderRepository.FindBareByWalletCode(walletCode)
}

func TestSetOrderConcurrentFirstSubmissionRetriesAsReplace(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	seedCatalog(t, db)

	winner, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 2, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("winner set order failed: %v", err)
	}

	// 后来者的首次读看不到已提交的对手订单，创建撞上唯一索引后重试
	staleReads := int32(1)
	svc.orderRepo = &staleReadOrderRepo{OrderRepository: svc.orderRepo, staleReads: &staleReads}

	order, err := svc.SetOrder(SetOrderInput{
		WalletCode: "W1",
		Lines:      []RawOrderLine{{ItemID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("loser set order failed: %v", err)
	}
	if order.ID != winner.ID {
		t.Fatalf("retry must land on the existing order, want id %d got %d", winner.ID, order.ID)
	}
	if len(order.Lines) != 1 || order.Lines[0].ItemID != 1 || order.Lines[0].TotalPrice.String() != "20.00" {
		t.Fatalf("retry must replace lines, got %+v", order.Lines)
	}

	var count int64
	if err := db.Model(&models.Order{}).Where("wallet_code = ?", "W1").Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("wallet must keep a single order, count=%d", count)
	}
}
