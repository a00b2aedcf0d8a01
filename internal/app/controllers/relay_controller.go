package controllers

import (
	"errors"
	"iotlab-http-service/internal/app/middleware"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/domain/services/container"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// InterfaceRelayController 定义中继控制器接口
type InterfaceRelayController interface {
	GetLiveState()
	ControlDevices()
	GetDeviceHistory()
	GetUserHistory()
	GetAllLogs()
}

// RelayController 处理继电器控制与指令历史相关的请求
type RelayController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewRelayController 创建一个新的中继控制器
func NewRelayController(ctx *gin.Context, container *container.ServiceContainer) *RelayController {
	return &RelayController{
		Ctx:       ctx,
		Container: container,
	}
}

// LiveStateRequest 实时状态查询请求
type LiveStateRequest struct {
	Pins []int `json:"pins" binding:"required" example:"[23,22,21]"`
}

// ControlRequest 批量控制请求
type ControlRequest struct {
	DeviceIDs []uint `json:"deviceIds" binding:"required" example:"[1,2]"`
	State     string `json:"state" binding:"required" example:"on"` // on 或 off
}

// HandleRelayFunc 返回一个处理中继请求的Gin处理函数
func HandleRelayFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewRelayController(ctx, container)

		switch method {
		case "getLiveState":
			controller.GetLiveState()
		case "controlDevices":
			controller.ControlDevices()
		case "getDeviceHistory":
			controller.GetDeviceHistory()
		case "getUserHistory":
			controller.GetUserHistory()
		case "getAllLogs":
			controller.GetAllLogs()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// 1. GetLiveState 查询引脚实时状态
// @Summary 查询引脚实时状态
// @Description 逐个向中控查询引脚状态，结果与请求顺序一一对应，不可达的引脚以error标记
// @Tags relay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LiveStateRequest true "引脚列表"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /relay/live-state [post]
func (c *RelayController) GetLiveState() {
	var req LiveStateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request: pins array is required",
		})
		return
	}

	relayService := c.Container.GetService("relay").(services.InterfaceRelayService)

	states := relayService.ReadLiveState(req.Pins)

	c.Ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(states),
		"states":  states,
	})
}

// 2. ControlDevices 批量控制设备开关
// @Summary 批量控制设备
// @Description 向中控逐台下发开关指令。校验和全局鉴权通过后固定返回200，单台设备的成败在results中逐条给出
// @Tags relay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ControlRequest true "控制请求"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /relay/control [post]
func (c *RelayController) ControlDevices() {
	var req ControlRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request: deviceIds and state are required",
		})
		return
	}

	caller, ok := middleware.GetCaller(c.Ctx)
	if !ok {
		c.Ctx.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Unauthorized",
		})
		return
	}

	relayService := c.Container.GetService("relay").(services.InterfaceRelayService)

	results, err := relayService.ControlDevices(caller, req.DeviceIDs, req.State)
	if err != nil {
		// 批次级失败，逐台处理尚未开始
		switch {
		case errors.Is(err, services.ErrInvalidControlRequest):
			c.Ctx.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid request: deviceIds must be non-empty and state must be 'on' or 'off'",
			})
		case errors.Is(err, services.ErrStudentForbidden):
			c.Ctx.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Students are not allowed to control devices",
			})
		case errors.Is(err, services.ErrNoDevicesFound):
			c.Ctx.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "No devices found for the given ids",
			})
		default:
			c.Ctx.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Internal server error",
			})
		}
		return
	}

	// 校验通过后固定200，调用方必须逐条检查results
	c.Ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Relay command dispatched",
		"results": results,
	})
}

// 3. GetDeviceHistory 获取设备的指令历史
// @Summary 获取设备指令历史
// @Description 获取指定设备的指令历史，按请求时间倒序
// @Tags relay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /relay/history/device/{id} [get]
func (c *RelayController) GetDeviceHistory() {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid device id",
		})
		return
	}

	relayService := c.Container.GetService("relay").(services.InterfaceRelayService)

	history, err := relayService.GetDeviceHistory(uint(deviceID))
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch device history",
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(history),
		"history": history,
	})
}

// 4. GetUserHistory 获取用户的指令历史
// @Summary 获取用户指令历史
// @Description 获取指定用户发出的指令历史，按请求时间倒序
// @Tags relay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /relay/history/user/{id} [get]
func (c *RelayController) GetUserHistory() {
	id := c.Ctx.Param("id")
	userID, err := strconv.Atoi(id)
	if err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid user id",
		})
		return
	}

	relayService := c.Container.GetService("relay").(services.InterfaceRelayService)

	history, err := relayService.GetUserHistory(uint(userID))
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch user history",
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(history),
		"history": history,
	})
}

// 5. GetAllLogs 获取全量指令历史
// @Summary 获取全量指令历史
// @Description 获取所有指令历史，仅管理员可用，按请求时间倒序
// @Tags relay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /relay/history/all [get]
func (c *RelayController) GetAllLogs() {
	// 全量台账只开放给管理员
	role, _ := c.Ctx.Get("role")
	if r, ok := role.(string); !ok || r != string(models.RoleAdmin) {
		c.Ctx.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Admin access required",
		})
		return
	}

	relayService := c.Container.GetService("relay").(services.InterfaceRelayService)

	logs, err := relayService.GetAllCommands()
	if err != nil {
		c.Ctx.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to fetch command logs",
		})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	})
}
