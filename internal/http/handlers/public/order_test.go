package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/walletkart/internal/config"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/provider"
	"github.com/walletkart/internal/queue"
	"github.com/walletkart/internal/repository"
	"github.com/walletkart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	cfg := &config.Config{}
	cfg.Bulk.MaxGroups = 500
	cfg.Upload.MaxSize = 5 * 1024 * 1024
	cfg.Upload.AllowedExtensions = []string{".csv"}

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	container := &provider.Container{
		Config:               cfg,
		QueueClient:          queueClient,
		ItemRepo:             repository.NewItemRepository(db),
		OrderRepo:            repository.NewOrderRepository(db),
		CouponRepo:           repository.NewCouponRepository(db),
		CouponRedemptionRepo: repository.NewCouponRedemptionRepository(db),
	}
	container.OrderService = service.NewOrderService(container.OrderRepo, container.ItemRepo, queueClient)
	container.CouponService = service.NewCouponService(container.CouponRepo, container.CouponRedemptionRepo, container.OrderRepo, queueClient)
	container.BulkUploadService = service.NewBulkUploadService(cfg)

	handler := New(container)
	r := gin.New()
	r.GET("/api/v1/orders/:wallet_code", handler.GetOrder)
	r.POST("/api/v1/orders/change", handler.ChangeOrder)
	r.POST("/api/v1/orders/bulk", handler.BulkOrders)
	r.POST("/api/v1/coupons/redeem", handler.RedeemCoupon)
	r.POST("/api/v1/coupons/remove", handler.RemoveCoupon)
	return r, db
}

func seedHandlerCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	items := []models.Item{
		{ID: 1, Name: "Gift Card 10", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")), IsActive: true},
		{ID: 2, Name: "Gift Card 5", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("5.00")), IsActive: true},
	}
	for _, item := range items {
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed item failed: %v", err)
		}
	}
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) envelope {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal envelope failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestChangeOrderAndGetOrder(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/orders/change",
		`{"wallet_code":"W1","lines":[{"item_id":1,"quantity":2},{"item_id":2,"quantity":1}]}`)
	if resp.StatusCode != 0 {
		t.Fatalf("change status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("unmarshal order failed: %v", err)
	}
	if order.WalletCode != "W1" || len(order.Lines) != 2 {
		t.Fatalf("unexpected order payload: %s", string(resp.Data))
	}
	if order.Lines[0].TotalPrice.String() != "20.00" {
		t.Fatalf("first line total want 20.00 got %s", order.Lines[0].TotalPrice.String())
	}

	got := doJSON(t, r, http.MethodGet, "/api/v1/orders/W1", "")
	if got.StatusCode != 0 {
		t.Fatalf("get status_code want 0 got %d", got.StatusCode)
	}
	var fetched models.Order
	if err := json.Unmarshal(got.Data, &fetched); err != nil {
		t.Fatalf("unmarshal fetched order failed: %v", err)
	}
	if fetched.ID != order.ID {
		t.Fatalf("fetched order id want %d got %d", order.ID, fetched.ID)
	}
}

func TestGetOrderUnknownWalletReturnsEmptyObject(t *testing.T) {
	r, _ := setupHandlerTest(t)

	resp := doJSON(t, r, http.MethodGet, "/api/v1/orders/missing", "")
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(resp.Data)) != "{}" {
		t.Fatalf("data want {} got %s", string(resp.Data))
	}
}

func TestChangeOrderIgnoresClientPriceFields(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)

	// 请求里带上价格字段也不会进入计价
	resp := doJSON(t, r, http.MethodPost, "/api/v1/orders/change",
		`{"wallet_code":"W1","lines":[{"item_id":1,"quantity":1,"unit_price":"0.01","total_price":"0.01"}]}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var order models.Order
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("unmarshal order failed: %v", err)
	}
	if order.Lines[0].UnitPrice.String() != "10.00" || order.Lines[0].TotalPrice.String() != "10.00" {
		t.Fatalf("server-side pricing must win, got %+v", order.Lines[0])
	}
}

func TestChangeOrderZeroQuantityNamesTheItem(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/orders/change",
		`{"wallet_code":"W1","lines":[{"item_id":1,"quantity":0}]}`)
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	if resp.Msg != "Invalid quantity for item 1" {
		t.Fatalf("unexpected msg: %s", resp.Msg)
	}
}

func TestChangeOrderRejectsUnavailableItem(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/orders/change",
		`{"wallet_code":"W1","lines":[{"item_id":99,"quantity":1}]}`)
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	if resp.Msg != "One or more items not found or inactive" {
		t.Fatalf("unexpected msg: %s", resp.Msg)
	}
}

func TestBulkOrdersReportsPerGroupErrors(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/orders/bulk",
		`{"orders":[
			{"wallet_code":"W1","lines":[{"item_id":1,"quantity":1}]},
			{"wallet_code":"W2","lines":[{"item_id":99,"quantity":1}]}
		]}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var result service.BulkOrdersResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("unmarshal result failed: %v", err)
	}
	if result.Created != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected bulk result: %+v", result)
	}
	if result.Errors[0].WalletCode != "W2" {
		t.Fatalf("failure wallet want W2 got %s", result.Errors[0].WalletCode)
	}
}

func TestRedeemAndRemoveCoupon(t *testing.T) {
	r, db := setupHandlerTest(t)
	seedHandlerCatalog(t, db)
	coupon := models.Coupon{Code: "WELCOME10", Percent: 10, IsActive: true}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/orders/change",
		`{"wallet_code":"W1","lines":[{"item_id":1,"quantity":1}]}`)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/coupons/redeem",
		`{"wallet_code":"W1","code":"WELCOME10"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("redeem status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var payload struct {
		ID         uint   `json:"id"`
		CouponID   uint   `json:"coupon_id"`
		CouponCode string `json:"coupon_code"`
		Percent    int    `json:"percent"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("unmarshal redeem payload failed: %v", err)
	}
	if payload.CouponID != coupon.ID || payload.CouponCode != "WELCOME10" || payload.Percent != 10 {
		t.Fatalf("unexpected redeem payload: %+v", payload)
	}

	// 重复核销
	again := doJSON(t, r, http.MethodPost, "/api/v1/coupons/redeem",
		`{"wallet_code":"W1","code":"WELCOME10"}`)
	if again.StatusCode != 400 || again.Msg != "Already used" {
		t.Fatalf("second redeem want 400/Already used got %d/%s", again.StatusCode, again.Msg)
	}

	removed := doJSON(t, r, http.MethodPost, "/api/v1/coupons/remove",
		fmt.Sprintf(`{"wallet_code":"W1","coupon_id":%d}`, coupon.ID))
	if removed.StatusCode != 0 {
		t.Fatalf("remove status_code want 0 got %d (%s)", removed.StatusCode, removed.Msg)
	}
}

func TestRedeemWithoutOrderReturnsNotFound(t *testing.T) {
	r, db := setupHandlerTest(t)
	coupon := models.Coupon{Code: "WELCOME10", Percent: 10, IsActive: true}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("seed coupon failed: %v", err)
	}

	resp := doJSON(t, r, http.MethodPost, "/api/v1/coupons/redeem",
		`{"wallet_code":"nobody","code":"WELCOME10"}`)
	if resp.StatusCode != 404 || resp.Msg != "No current order" {
		t.Fatalf("want 404/No current order got %d/%s", resp.StatusCode, resp.Msg)
	}
}
