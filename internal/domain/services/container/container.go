package container

import (
	"context"
	"log"
	"sync"
	"time"

	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService *services.RedisService

	// MQTT事件发布服务
	mqttService services.InterfaceMQTTService

	// 中控传输服务
	esp32Service services.InterfaceESP32Service

	// 业务服务
	userService   services.InterfaceUserService
	labService    services.InterfaceLabService
	deviceService services.InterfaceDeviceService
	relayService  services.InterfaceRelayService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)

	// 初始化Redis服务。不可达时停用快照缓存，读请求直连中控
	c.redisService = services.NewRedisService(c.config)
	var liveCache services.InterfaceLiveStateCache
	if err := c.redisService.Ping(); err != nil {
		log.Printf("Redis不可用: %v，实时状态快照缓存停用", err)
	} else {
		liveCache = c.redisService
	}

	// 初始化中控传输服务
	c.esp32Service = services.NewESP32Service(c.config)

	// 初始化MQTT事件发布服务 - 未配置Broker时禁用
	if c.config.MQTTBrokerURL != "" {
		c.mqttService = services.NewMQTTService(c.config)

		// 连接MQTT服务器
		if err := c.mqttService.Connect(); err != nil {
			log.Printf("MQTT服务连接失败: %v", err)
		}
	}

	// 初始化业务服务
	c.userService = services.NewUserService(c.db, c.config)
	c.labService = services.NewLabService(c.db, c.config)
	c.deviceService = services.NewDeviceService(c.db, c.config)

	// 中继服务依赖中控传输、事件发布与快照缓存
	c.relayService = services.NewRelayService(c.db, c.config, c.esp32Service, c.mqttService, liveCache)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "mqtt":
		return c.mqttService
	case "esp32":
		return c.esp32Service
	case "user":
		return c.userService
	case "lab":
		return c.labService
	case "device":
		return c.deviceService
	case "relay":
		return c.relayService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
