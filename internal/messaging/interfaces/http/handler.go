package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/venturecrest/angelnet/internal/messaging/application"
	"github.com/venturecrest/angelnet/internal/messaging/domain"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/response"
)

// MessagingHandler 消息模块 HTTP 接入层
type MessagingHandler struct {
	svc *application.MessagingService
}

func NewMessagingHandler(svc *application.MessagingService) *MessagingHandler {
	return &MessagingHandler{svc: svc}
}

func (h *MessagingHandler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/conversations")
	{
		conversations.POST("", h.StartConversation)
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id/messages", h.ListMessages)
		conversations.POST("/:id/messages", h.SendMessage)
	}
	r.GET("/messages/unread-count", h.UnreadCount)

	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkNotificationRead)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
	}
}

func (h *MessagingHandler) StartConversation(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id" binding:"required"`
		Subject       string `json:"subject"`
		DealID        string `json:"deal_id"`
		Body          string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	conversation, err := h.svc.StartConversation(c.Request.Context(), middleware.UserID(c), req.ParticipantID, req.Subject, req.DealID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, conversation)
}

func (h *MessagingHandler) ListConversations(c *gin.Context) {
	conversations, err := h.svc.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, conversations)
}

func (h *MessagingHandler) ListMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	messages, pagination, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"), middleware.UserID(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": messages, "pagination": pagination})
}

func (h *MessagingHandler) SendMessage(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		return
	}

	message, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, message)
}

func (h *MessagingHandler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

func (h *MessagingHandler) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	unreadOnly := c.Query("unread") == "true"

	notifications, pagination, err := h.svc.ListNotifications(c.Request.Context(), middleware.UserID(c), unreadOnly, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"notifications": notifications, "pagination": pagination})
}

func (h *MessagingHandler) MarkNotificationRead(c *gin.Context) {
	notification, err := h.svc.MarkNotificationRead(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, notification)
}

func (h *MessagingHandler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.svc.MarkAllNotificationsRead(c.Request.Context(), middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound), errors.Is(err, domain.ErrNotificationNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, domain.ErrNotParticipant):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, domain.ErrEmptyMessage):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	default:
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}
