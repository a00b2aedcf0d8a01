package controllers

import (
	"iotlab-http-service/internal/domain/models"
	"iotlab-http-service/internal/domain/services"
	"iotlab-http-service/internal/domain/services/container"
	"iotlab-http-service/internal/error/code"
	"iotlab-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceJWTController 定义认证控制器接口
type InterfaceJWTController interface {
	Login()
	Register()
}

// JWTController 处理身份验证请求
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"admin@iotlab.local"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// RegisterRequest 表示注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"张三"`
	Email    string `json:"email" binding:"required" example:"zhangsan@iotlab.local"`
	Password string `json:"password" binding:"required" example:"secret123"`
	IDNumber string `json:"id_number" example:"20230001"`
	Role     string `json:"role" example:"STUDENT"` // ADMIN, FACULTY, STUDENT
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID uint   `json:"user_id" example:"1"`
	Role   string `json:"role" example:"ADMIN"`
	Name   string `json:"name" example:"admin"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"100003"`
	Message string      `json:"message" example:"请求参数验证错误"`
	Data    interface{} `json:"data"`
}

// HandleJWTFunc 返回一个处理JWT认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "register":
			controller.Register()
		default:
			response.ParamError(ctx, "无效的方法")
		}
	}
}

// Login 处理用户登录
// @Summary      User Login
// @Description  Process user login and return JWT token with different permissions based on user role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request parameters"
// @Success      200  {object}  response.Response{data=LoginData}  "Success response with token"
// @Failure      400  {object}  ErrorResponse  "Bad request"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	// 获取用户服务和JWT服务
	userService := c.Container.GetService("user").(services.InterfaceUserService)
	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)

	// 校验邮箱和密码。邮箱不存在和密码错误统一应答，避免账号探测
	user, err := userService.Authenticate(req.Email, req.Password)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUserPasswordIncorrect, "邮箱或密码错误", nil)
		return
	}

	// 生成令牌
	token, err := jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		response.ServerError(c.Ctx)
		return
	}

	response.Success(c.Ctx, LoginData{
		Token:  token,
		UserID: user.ID,
		Role:   string(user.Role),
		Name:   user.Name,
	})
}

// Register 处理用户注册
// @Summary      User Registration
// @Description  Create a new user account, defaults to STUDENT role when not specified
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration request parameters"
// @Success      200  {object}  response.Response{data=models.User}  "Success response with created user"
// @Failure      400  {object}  ErrorResponse  "Bad request"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /auth/register [post]
func (c *JWTController) Register() {
	var req RegisterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数")
		return
	}

	// 未指定角色时默认注册为学生
	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleStudent
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)

	user, err := userService.Register(req.Name, req.Email, req.Password, req.IDNumber, role)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUserAlreadyExist, "注册失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, user)
}
