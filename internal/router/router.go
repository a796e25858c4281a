package router

import (
	"fmt"
	"strings"

	"github.com/walletkart/internal/cache"
	"github.com/walletkart/internal/config"
	publichandlers "github.com/walletkart/internal/http/handlers/public"
	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "wk"
	}
	redisClient := cache.Client()
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		Message:       "Too many redeem attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		orders := apiV1.Group("/orders")
		{
			orders.GET("/:wallet_code", publicHandler.GetOrder)
			orders.POST("/change", publicHandler.ChangeOrder)
			orders.POST("/bulk", publicHandler.BulkOrders)
			orders.POST("/bulk-upload", publicHandler.BulkOrdersUpload)
		}

		coupons := apiV1.Group("/coupons")
		{
			coupons.POST("/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("wallet_code")), publicHandler.RedeemCoupon)
			coupons.POST("/remove", publicHandler.RemoveCoupon)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
