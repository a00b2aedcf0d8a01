package routes

import (
	_ "iotlab-http-service/docs"
	"iotlab-http-service/internal/app/controllers"
	"iotlab-http-service/internal/app/middleware"
	"iotlab-http-service/internal/domain/services/container"
	"iotlab-http-service/internal/infrastructure/config"
	"iotlab-http-service/internal/infrastructure/database"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, pool *database.ConnectionPool, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, nil)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, pool, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	pool *database.ConnectionPool,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 全局IP限流
	api.Use(middleware.IPRateLimiter(50, 100))
	// 注册公共路由
	registerPublicRoutes(api, pool, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	pool *database.ConnectionPool,
	container *container.ServiceContainer,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController(pool, container)
	api.GET("/ping", healthController.Ping)
	api.GET("/status", healthController.Status)

	// 认证路由，登录接口单独收紧限流防止暴力破解
	api.POST("/auth/login", middleware.CombinedRateLimiter(5, 10), controllers.HandleJWTFunc(container, "login"))
	api.POST("/auth/register", middleware.CombinedRateLimiter(5, 10), controllers.HandleJWTFunc(container, "register"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 任何已登录角色可访问的路由
	auth := api.Group("/")
	auth.Use(middleware.Authentication())

	// 中继路由 - 角色差异在编排层逐台判定，这里只要求已登录
	relay := auth.Group("/relay")
	relay.POST("/live-state", controllers.HandleRelayFunc(container, "getLiveState"))
	relay.POST("/control", middleware.PathRateLimiter(10, 20), controllers.HandleRelayFunc(container, "controlDevices"))
	relay.GET("/history/device/:id", controllers.HandleRelayFunc(container, "getDeviceHistory"))
	relay.GET("/history/user/:id", controllers.HandleRelayFunc(container, "getUserHistory"))
	relay.GET("/history/all", controllers.HandleRelayFunc(container, "getAllLogs"))

	// 实验室与设备的只读路由，目录数据变化少，挂短时缓存
	auth.Group("/labs").GET("", middleware.Cache(), controllers.HandleLabFunc(container, "getLabs"))
	auth.Group("/labs").GET("/:id", controllers.HandleLabFunc(container, "getLab"))
	auth.Group("/labs").GET("/:id/devices", controllers.HandleLabFunc(container, "getLabDevices"))
	auth.Group("/devices").GET("", middleware.Cache(), controllers.HandleDeviceFunc(container, "getDevices"))
	auth.Group("/devices").GET("/:id", controllers.HandleDeviceFunc(container, "getDevice"))

	// 管理员路由
	admin := api.Group("/")
	admin.Use(middleware.AuthenticateAdmin())

	// 目录维护只开放给管理员
	admin.Group("/labs").POST("", controllers.HandleLabFunc(container, "createLab"))
	admin.Group("/labs").PUT("/:id", controllers.HandleLabFunc(container, "updateLab"))
	admin.Group("/labs").DELETE("/:id", controllers.HandleLabFunc(container, "deleteLab"))

	admin.Group("/devices").POST("", controllers.HandleDeviceFunc(container, "createDevice"))
	admin.Group("/devices").PUT("/:id", controllers.HandleDeviceFunc(container, "updateDevice"))
	admin.Group("/devices").DELETE("/:id", controllers.HandleDeviceFunc(container, "deleteDevice"))

	// 用户路由
	admin.Group("/users").GET("", controllers.HandleUserFunc(container, "getUsers"))
	admin.Group("/users").GET("/:id", controllers.HandleUserFunc(container, "getUser"))
}
