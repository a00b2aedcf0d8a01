package controllers

import (
	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/domain/services/container"
	"iotlab-http-service/internal/infrastructure/database"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Pool      *database.ConnectionPool
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(pool *database.ConnectionPool, container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Pool:      pool,
		Container: container,
	}
}

// Ping 健康检查端点
func (h *HealthCheckController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"status":  "healthy",
	})
}

// Status 带依赖状态的健康检查端点
func (h *HealthCheckController) Status(c *gin.Context) {
	dbStatus := "up"
	if h.Pool != nil {
		if err := h.Pool.HealthCheck(); err != nil {
			dbStatus = "down: " + err.Error()
		}
	}

	redisStatus := "up"
	if redisService, ok := h.Container.GetService("redis").(*services.RedisService); ok && redisService != nil {
		if err := redisService.Ping(); err != nil {
			redisStatus = "down: " + err.Error()
		}
	} else {
		redisStatus = "disabled"
	}

	var poolStats map[string]interface{}
	if h.Pool != nil {
		if stats, err := h.Pool.Stats(); err == nil {
			poolStats = stats
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"database": gin.H{
			"status": dbStatus,
			"pool":   poolStats,
		},
		"redis": gin.H{
			"status": redisStatus,
		},
	})
}
