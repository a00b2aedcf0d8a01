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

// InterfaceLabController 定义实验室控制器接口
type InterfaceLabController interface {
	GetLabs()
	GetLab()
	CreateLab()
	UpdateLab()
	DeleteLab()
	GetLabDevices()
}

// LabController 处理实验室相关的请求
type LabController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewLabController 创建一个新的实验室控制器
func NewLabController(ctx *gin.Context, container *container.ServiceContainer) *LabController {
	return &LabController{
		Ctx:       ctx,
		Container: container,
	}
}

// LabRequest 表示实验室请求结构
type LabRequest struct {
	Name string `json:"name" binding:"required" example:"物联网实验室A301"`
}

// HandleLabFunc 返回一个处理实验室请求的Gin处理函数
func HandleLabFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewLabController(ctx, container)

		switch method {
		case "getLabs":
			controller.GetLabs()
		case "getLab":
			controller.GetLab()
		case "createLab":
			controller.CreateLab()
		case "updateLab":
			controller.UpdateLab()
		case "deleteLab":
			controller.DeleteLab()
		case "getLabDevices":
			controller.GetLabDevices()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetLabs 获取所有实验室列表
// @Summary 获取所有实验室
// @Description 获取所有实验室的列表
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Lab
// @Failure 500 {object} ErrorResponse
// @Router /labs [get]
func (c *LabController) GetLabs() {
	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	labs, err := labService.GetAllLabs()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取实验室列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, labs)
}

// 2. GetLab 获取单个实验室详情
// @Summary 获取单个实验室
// @Description 根据ID获取实验室信息
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "实验室ID"
// @Success 200 {object} models.Lab
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /labs/{id} [get]
func (c *LabController) GetLab() {
	id := c.Ctx.Param("id")
	labID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的实验室ID")
		return
	}

	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	lab, err := labService.GetLabByID(uint(labID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrLabNotFound, nil)
		return
	}

	response.Success(c.Ctx, lab)
}

// 3. CreateLab 创建新实验室
// @Summary 创建实验室
// @Description 创建一个新的实验室，仅管理员可用
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LabRequest true "实验室信息"
// @Success 200 {object} models.Lab
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /labs [post]
func (c *LabController) CreateLab() {
	var req LabRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	lab := &models.Lab{Name: req.Name}
	if err := labService.CreateLab(lab); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLabAlreadyExist, "创建实验室失败: "+err.Error(), nil)
		return
	}

	// 目录变更后清掉列表缓存，避免读到旧数据
	middleware.PurgeCacheByPrefix("/api/labs")
	response.Success(c.Ctx, lab)
}

// 4. UpdateLab 更新实验室信息
// @Summary 更新实验室
// @Description 更新实验室信息，仅管理员可用
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "实验室ID"
// @Param request body LabRequest true "实验室信息"
// @Success 200 {object} models.Lab
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /labs/{id} [put]
func (c *LabController) UpdateLab() {
	id := c.Ctx.Param("id")
	labID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的实验室ID")
		return
	}

	var req LabRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	lab, err := labService.UpdateLab(uint(labID), map[string]interface{}{"name": req.Name})
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "更新实验室失败: "+err.Error(), nil)
		return
	}

	middleware.PurgeCacheByPrefix("/api/labs")
	response.Success(c.Ctx, lab)
}

// 5. DeleteLab 删除实验室
// @Summary 删除实验室
// @Description 删除实验室，实验室下还有设备时拒绝删除，仅管理员可用
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "实验室ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} ErrorResponse
// @Router /labs/{id} [delete]
func (c *LabController) DeleteLab() {
	id := c.Ctx.Param("id")
	labID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的实验室ID")
		return
	}

	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	if err := labService.DeleteLab(uint(labID)); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "删除实验室失败: "+err.Error(), nil)
		return
	}

	middleware.PurgeCacheByPrefix("/api/labs")
	response.Success(c.Ctx, nil)
}

// 6. GetLabDevices 获取实验室下的所有设备
// @Summary 获取实验室设备
// @Description 获取指定实验室下的所有设备
// @Tags lab
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "实验室ID"
// @Success 200 {array} models.Device
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /labs/{id}/devices [get]
func (c *LabController) GetLabDevices() {
	id := c.Ctx.Param("id")
	labID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的实验室ID")
		return
	}

	labService := c.Container.GetService("lab").(services.InterfaceLabService)

	devices, err := labService.GetLabDevices(uint(labID))
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrLabNotFound, "获取实验室设备失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, devices)
}
