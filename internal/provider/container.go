package provider

import (
	"github.com/candy-store/internal/authz"
	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/models"
	"github.com/candy-store/internal/queue"
	"github.com/candy-store/internal/repository"
	"github.com/candy-store/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	PreferenceRepo      repository.PreferenceRepository
	ProductRepo         repository.ProductRepository
	CartRepo            repository.CartRepository
	OrderRepo           repository.OrderRepository
	WatchlistRepo       repository.WatchlistRepository
	StockAlertRepo      repository.StockAlertRepository
	FavoriteRepo        repository.FavoriteRepository
	ReviewRepo          repository.ReviewRepository
	NotificationLogRepo repository.NotificationLogRepository

	// Services
	AuthzService           *authz.Service
	AuthService            *service.AuthService
	UserAuthService        *service.UserAuthService
	UserAdminService       *service.UserAdminService
	EmailService           *service.EmailService
	CaptchaService         *service.CaptchaService
	NotificationEngine     *service.NotificationEngine
	StockChangeNotifier    *service.StockChangeNotifier
	ProductService         *service.ProductService
	InventoryService       *service.InventoryService
	CartService            *service.CartService
	OrderService           *service.OrderService
	WatchlistService       *service.WatchlistService
	StockAlertService      *service.StockAlertService
	PreferenceService      *service.PreferenceService
	FavoriteService        *service.FavoriteService
	ReviewService          *service.ReviewService
	AccountService         *service.AccountService
	InventoryAlertSweep    *service.InventoryAlertSweep
	NotificationLogService *service.NotificationLogService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用指定数据库与队列客户端组装容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	if queueClient == nil {
		queueClient, _ = queue.NewClient(nil)
	}
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories(db)
	c.initServices(db)
	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.PreferenceRepo = repository.NewPreferenceRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WatchlistRepo = repository.NewWatchlistRepository(db)
	c.StockAlertRepo = repository.NewStockAlertRepository(db)
	c.FavoriteRepo = repository.NewFavoriteRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.NotificationLogRepo = repository.NewNotificationLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.PreferenceRepo)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo, c.PreferenceRepo, c.WatchlistRepo, c.StockAlertRepo, c.CartRepo, c.FavoriteRepo)

	c.NotificationEngine = service.NewNotificationEngine(c.Config, c.OrderRepo, c.UserRepo, c.PreferenceRepo, c.WatchlistRepo, c.StockAlertRepo, c.NotificationLogRepo, c.EmailService)
	c.StockChangeNotifier = service.NewStockChangeNotifier(c.Config, c.NotificationEngine, c.QueueClient)
	c.InventoryAlertSweep = service.NewInventoryAlertSweep(c.Config, c.WatchlistRepo, c.StockAlertRepo, c.PreferenceRepo, c.UserRepo, c.NotificationLogRepo, c.EmailService, c.NotificationEngine)
	c.NotificationLogService = service.NewNotificationLogService(c.NotificationLogRepo)

	c.ProductService = service.NewProductService(c.ProductRepo, c.ReviewRepo)
	c.InventoryService = service.NewInventoryService(c.ProductRepo, c.StockChangeNotifier)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.ProductRepo, c.CartRepo, c.WatchlistRepo, c.UserRepo, c.NotificationLogRepo, c.QueueClient, c.EmailService, c.StockChangeNotifier)
	c.WatchlistService = service.NewWatchlistService(c.WatchlistRepo, c.ProductRepo, c.StockAlertRepo, c.PreferenceRepo, c.NotificationEngine)
	c.StockAlertService = service.NewStockAlertService(c.StockAlertRepo, c.ProductRepo)
	c.PreferenceService = service.NewPreferenceService(c.Config, c.PreferenceRepo)
	c.FavoriteService = service.NewFavoriteService(c.FavoriteRepo, c.ProductRepo)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.ProductRepo)
	c.AccountService = service.NewAccountService(c.UserAuthService, c.PreferenceService, c.FavoriteService, c.ReviewService, c.WatchlistService, c.StockAlertService, c.OrderService)
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	cache.CloseRedis()
}
