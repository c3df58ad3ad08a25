package router

import (
	"sort"
	"strings"

	"github.com/candy-store/internal/cache"
	"github.com/candy-store/internal/config"
	"github.com/candy-store/internal/constants"
	adminhandlers "github.com/candy-store/internal/http/handlers/admin"
	publichandlers "github.com/candy-store/internal/http/handlers/public"
	"github.com/candy-store/internal/http/response"
	"github.com/candy-store/internal/logger"
	"github.com/candy-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := NewRateLimitRule(redisPrefix+":rate:login", cfg.Security.LoginRateLimit)
	adminLoginRule := NewRateLimitRule(redisPrefix+":rate:admin_login", cfg.Security.LoginRateLimit)
	checkoutRule := NewRateLimitRule(redisPrefix+":rate:checkout", cfg.Security.CheckoutRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/products/:id/reviews", publicHandler.GetProductReviews)
			public.GET("/categories", publicHandler.GetCategories)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("identifier")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/me/account", publicHandler.GetAccount)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.GET("/me/preferences", publicHandler.GetPreferences)
			user.PUT("/me/preferences", publicHandler.UpdatePreferences)
			user.GET("/me/reviews", publicHandler.ListMyReviews)

			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:product_id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.DeleteCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)

			user.POST("/orders", RateLimitMiddleware(redisClient, checkoutRule, KeyByUser), publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/:id/status", publicHandler.GetOrderStatus)
			user.GET("/orders/:id/invoice", publicHandler.GetOrderInvoice)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			user.GET("/watchlist", publicHandler.ListWatchlist)
			user.POST("/watchlist", publicHandler.AddWatchlist)
			user.PUT("/watchlist/:id", publicHandler.UpdateWatchlistThreshold)
			user.DELETE("/watchlist/:id", publicHandler.RemoveWatchlist)

			user.GET("/stock-alerts", publicHandler.ListStockAlerts)
			user.POST("/stock-alerts", publicHandler.RequestStockAlert)
			user.DELETE("/stock-alerts/:id", publicHandler.CancelStockAlert)

			user.GET("/favorites", publicHandler.ListFavorites)
			user.POST("/products/:id/favorite", publicHandler.AddFavorite)
			user.DELETE("/products/:id/favorite", publicHandler.RemoveFavorite)
			user.POST("/products/:id/reviews", publicHandler.CreateReview)
			user.PUT("/reviews/:id", publicHandler.UpdateReview)
			user.DELETE("/reviews/:id", publicHandler.DeleteReview)
		}

		// 管理端登录
		apiV1.POST("/admin/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

		// 管理员自身接口（仅 JWT）
		self := apiV1.Group("/admin")
		self.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
		{
			self.PUT("/password", adminHandler.ChangePassword)
			self.GET("/authz/me", adminHandler.GetAuthzMe)
		}

		// 管理端接口（JWT + RBAC）
		authorized := apiV1.Group("/admin")
		authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
		authorized.Use(AdminRBACMiddleware(c.AuthzService))
		{
			authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
			authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
			authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			authorized.POST("/authz/roles/:role/inherits", adminHandler.InheritAuthzRole)
			authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
			authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)

			authorized.GET("/products", adminHandler.GetAdminProducts)
			authorized.POST("/products", adminHandler.CreateProduct)
			authorized.GET("/products/:id", adminHandler.GetAdminProduct)
			authorized.PUT("/products/:id", adminHandler.UpdateProduct)
			authorized.DELETE("/products/:id", adminHandler.DeleteProduct)
			authorized.POST("/products/:id/stock", adminHandler.AdjustProductStock)

			authorized.GET("/users", adminHandler.GetAdminUsers)
			authorized.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			authorized.DELETE("/users/:id", adminHandler.DeleteUser)

			authorized.GET("/orders", adminHandler.AdminListOrders)
			authorized.GET("/orders/:id", adminHandler.AdminGetOrder)

			authorized.POST("/alerts/sweep", adminHandler.TriggerAlertSweep)
			authorized.GET("/notification-logs", adminHandler.ListNotificationLogs)
		}
	}

	logRoutes(r)
	return r
}

// logRoutes 启动时按路径输出已注册路由
func logRoutes(r *gin.Engine) {
	routes := r.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	for _, route := range routes {
		logger.Debugw("route_registered", "method", route.Method, "path", route.Path)
	}
}
