package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/identity/application"
	"github.com/venturecrest/angelnet/internal/identity/domain"
	"github.com/venturecrest/angelnet/pkg/logger"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// IdentityHandler HTTP 处理器
type IdentityHandler struct {
	svc       *application.IdentityService
	jwtSecret string
}

func NewIdentityHandler(svc *application.IdentityService, jwtSecret string) *IdentityHandler {
	return &IdentityHandler{svc: svc, jwtSecret: jwtSecret}
}

// RegisterRoutes 注册路由
func (h *IdentityHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.GET("/me", middleware.JWTAuthMiddleware(h.jwtSecret), h.Me)
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	// investor 或 founder
	Intent string `json:"intent" binding:"required,oneof=investor founder"`
}

// Register 注册
func (h *IdentityHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.FullName, req.Intent)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "EMAIL_TAKEN")
			return
		}
		logger.Error(c.Request.Context(), "Failed to register user", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Created(c, gin.H{"user_id": user.UserID, "email": user.Email, "roles": user.RoleList()})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录，签发 JWT
func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	token, expiresAt, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
			return
		}
		logger.Error(c.Request.Context(), "Failed to login", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"token": token, "expires_at": expiresAt})
}

// Me 当前用户信息
func (h *IdentityHandler) Me(c *gin.Context) {
	user, err := h.svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{
		"user_id":   user.UserID,
		"email":     user.Email,
		"full_name": user.FullName,
		"roles":     user.RoleList(),
	})
}
