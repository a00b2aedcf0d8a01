package controllers

import (
	"iotlab-http-service/internal/app/middleware"
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/domain/services/container"
	"iotlab-http-service/internal/error/code"
	"iotlab-http-service/internal/error/response"
	"strconv"

	"github.com/gin-gonic/gin"
)

// InterfaceDeviceController 定义设备控制器接口
type InterfaceDeviceController interface {
	GetDevices()
	GetDevice()
	CreateDevice()
	UpdateDevice()
	DeleteDevice()
}

// DeviceController 处理设备相关的请求
type DeviceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceController 创建一个新的设备控制器
func NewDeviceController(ctx *gin.Context, container *container.ServiceContainer) *DeviceController {
	return &DeviceController{
		Ctx:       ctx,
		Container: container,
	}
}

// DeviceRequest 表示设备创建请求结构
type DeviceRequest struct {
	Name              string `json:"name" binding:"required" example:"排气扇1号"`
	PinNumber         *int   `json:"pin_number" binding:"required" example:"23"` // 中控上的继电器引脚，全局唯一
	LabID             uint   `json:"lab_id" binding:"required" example:"1"`
	AllowedForFaculty *bool  `json:"allowed_for_faculty" example:"true"` // 缺省为true
}

// DeviceUpdateRequest 表示设备更新请求结构，所有字段可选
type DeviceUpdateRequest struct {
	Name              *string `json:"name" example:"排气扇1号"`
	PinNumber         *int    `json:"pin_number" example:"23"`
	LabID             *uint   `json:"lab_id" example:"1"`
	AllowedForFaculty *bool   `json:"allowed_for_faculty" example:"false"`
}

// HandleDeviceFunc 返回一个处理设备请求的Gin处理函数
func HandleDeviceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceController(ctx, container)

		switch method {
		case "getDevices":
			controller.GetDevices()
		case "getDevice":
			controller.GetDevice()
		case "createDevice":
			controller.CreateDevice()
		case "updateDevice":
			controller.UpdateDevice()
		case "deleteDevice":
			controller.DeleteDevice()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetDevices 获取所有设备列表
// @Summary 获取所有设备
// @Description 获取所有设备的列表
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Device
// @Failure 500 {object} ErrorResponse
// @Router /devices [get]
func (c *DeviceController) GetDevices() {
	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	devices, err := deviceService.GetAllDevices()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取设备列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, devices)
}

// 2. GetDevice 获取单个设备详情
// @Summary 获取单个设备
// @Description 根据ID获取设备信息
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} models.Device
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [get]
func (c *DeviceController) GetDevice() {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	device, err := deviceService.GetDeviceByID(uint(deviceID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrDeviceNotFound, nil)
		return
	}

	response.Success(c.Ctx, device)
}

// 3. CreateDevice 创建新设备
// @Summary 创建设备
// @Description 注册一个新的继电器设备，引脚号全局唯一，仅管理员可用
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body DeviceRequest true "设备信息"
// @Success 200 {object} models.Device
// @Failure 400 {object} ErrorResponse
// @Router /devices [post]
func (c *DeviceController) CreateDevice() {
	var req DeviceRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	device := &models.Device{
		Name:              req.Name,
		PinNumber:         *req.PinNumber,
		LabID:             req.LabID,
		AllowedForFaculty: true,
	}
	if req.AllowedForFaculty != nil {
		device.AllowedForFaculty = *req.AllowedForFaculty
	}

	if err := deviceService.CreateDevice(device); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDevicePinExists, "创建设备失败: "+err.Error(), nil)
		return
	}

	// 目录变更后清掉列表缓存，避免读到旧数据
	middleware.PurgeCacheByPrefix("/api/devices")
	response.Success(c.Ctx, device)
}

// 4. UpdateDevice 更新设备信息
// @Summary 更新设备
// @Description 更新设备信息，支持部分字段更新，仅管理员可用
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Param request body DeviceUpdateRequest true "设备信息"
// @Success 200 {object} models.Device
// @Failure 400 {object} ErrorResponse
// @Router /devices/{id} [put]
func (c *DeviceController) UpdateDevice() {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	var req DeviceUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	// 只更新请求中出现的字段
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.PinNumber != nil {
		updates["pin_number"] = *req.PinNumber
	}
	if req.LabID != nil {
		updates["lab_id"] = *req.LabID
	}
	if req.AllowedForFaculty != nil {
		updates["allowed_for_faculty"] = *req.AllowedForFaculty
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	device, err := deviceService.UpdateDevice(uint(deviceID), updates)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "更新设备失败: "+err.Error(), nil)
		return
	}

	middleware.PurgeCacheByPrefix("/api/devices")
	response.Success(c.Ctx, device)
}

// 5. DeleteDevice 删除设备
// @Summary 删除设备
// @Description 删除设备，仅管理员可用
// @Tags device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} ErrorResponse
// @Router /devices/{id} [delete]
func (c *DeviceController) DeleteDevice() {
	id := c.Ctx.Param("id")
	deviceID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)

	if err := deviceService.DeleteDevice(uint(deviceID)); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "删除设备失败: "+err.Error(), nil)
		return
	}

	middleware.PurgeCacheByPrefix("/api/devices")
	response.Success(c.Ctx, nil)
}
