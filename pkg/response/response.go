// Package response 提供统一的 HTTP JSON 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应体
type Body struct {
	// 业务错误码，成功时为空
	Code string `json:"code,omitempty"`
	// 提示信息
	Message string `json:"message"`
	// 业务数据
	Data interface{} `json:"data,omitempty"`
}

// Success 返回 200 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Message: "ok",
		Data:    data,
	})
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{
		Message: "ok",
		Data:    data,
	})
}

// ErrorWithStatus 返回指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, Body{
		Code:    code,
		Message: message,
	})
}
