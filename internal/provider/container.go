package provider

import (
	"github.com/walletkart/internal/cache"
	"github.com/walletkart/internal/config"
	"github.com/walletkart/internal/logger"
	"github.com/walletkart/internal/models"
	"github.com/walletkart/internal/queue"
	"github.com/walletkart/internal/repository"
	"github.com/walletkart/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ItemRepo             repository.ItemRepository
	OrderRepo            repository.OrderRepository
	CouponRepo           repository.CouponRepository
	CouponRedemptionRepo repository.CouponRedemptionRepository

	// Services
	OrderService      *service.OrderService
	CouponService     *service.CouponService
	BulkUploadService *service.BulkUploadService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ItemRepo = repository.NewItemRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponRedemptionRepo = repository.NewCouponRedemptionRepository(db)
}

func (c *Container) initServices() {
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ItemRepo, c.QueueClient)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponRedemptionRepo, c.OrderRepo, c.QueueClient)
	c.BulkUploadService = service.NewBulkUploadService(c.Config)
}
