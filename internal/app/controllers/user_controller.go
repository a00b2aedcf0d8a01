package controllers

import (
	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/domain/services/container"
	"iotlab-http-service/internal/error/code"
	"iotlab-http-service/internal/error/response"
	"strconv"

	"github.com/gin-gonic/gin"
)

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	GetUsers()
	GetUser()
}

// UserController 处理用户相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "getUser":
			controller.GetUser()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// 1. GetUsers 获取所有用户列表
// @Summary 获取所有用户
// @Description 获取所有用户的列表，仅管理员可用
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 500 {object} ErrorResponse
// @Router /users [get]
func (c *UserController) GetUsers() {
	userService := c.Container.GetService("user").(services.InterfaceUserService)

	users, err := userService.GetAllUsers()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取用户列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, users)
}

// 2. GetUser 获取单个用户详情
// @Summary 获取单个用户
// @Description 根据ID获取用户信息，仅管理员可用
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (c *UserController) GetUser() {
	id := c.Ctx.Param("id")
	userID, err := strconv.Atoi(id)
	if err != nil {
		response.ParamError(c.Ctx, "无效的用户ID")
		return
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)

	user, err := userService.GetUserByID(uint(userID))
	if err != nil {
		response.Fail(c.Ctx, code.ErrUserNotFound, nil)
		return
	}

	response.Success(c.Ctx, user)
}
