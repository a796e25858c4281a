package main

import (
	"github.com/walletkart/internal/config"
	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/repository"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	itemRepo := repository.NewItemRepository(models.DB)
	couponRepo := repository.NewCouponRepository(models.DB)

	// 演示商品目录（固定 ID，重复执行跳过已有记录）
	items := []models.Item{
		{ID: 1, Name: "Gift Card 10", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("10.00")), IsActive: true},
		{ID: 2, Name: "Gift Card 5", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("5.00")), IsActive: true},
		{ID: 3, Name: "Gift Card 20", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("20.00")), IsActive: true},
		{ID: 4, Name: "Retired Card", Price: models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")), IsActive: false},
	}
	for _, item := range items {
		existing, err := itemRepo.GetByID(item.ID)
		if err != nil {
			stdLog.Fatalf("Failed to check item %d: %v", item.ID, err)
		}
		if existing != nil {
			stdLog.Printf("Item already exists: %s", existing.Name)
			continue
		}
		if err := itemRepo.Create(&item); err != nil {
			stdLog.Printf("Failed to create item %s: %v", item.Name, err)
			continue
		}
		stdLog.Printf("Created item: %s (%s)", item.Name, item.Price.String())
	}

	// 演示优惠券
	coupons := []models.Coupon{
		{ID: 1, Code: "WELCOME10", Percent: 10, IsActive: true},
		{ID: 2, Code: "SPRING25", Percent: 25, IsActive: true},
		{ID: 3, Code: "EXPIRED50", Percent: 50, IsActive: false},
	}
	for _, coupon := range coupons {
		existing, err := couponRepo.GetByID(coupon.ID)
		if err != nil {
			stdLog.Fatalf("Failed to check coupon %d: %v", coupon.ID, err)
		}
		if existing != nil {
			stdLog.Printf("Coupon already exists: %s", existing.Code)
			continue
		}
		if err := couponRepo.Create(&coupon); err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			continue
		}
		stdLog.Printf("Created coupon: %s (%d%%)", coupon.Code, coupon.Percent)
	}

	stdLog.Printf("Seed finished")
}
