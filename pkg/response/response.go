package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail 结构化错误信息，Type 取值 VALIDATION_FAILED / RATE_LIMITED / UNAUTHORIZED / INTERNAL_ERROR
type ErrorDetail struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, "BAD_REQUEST", "", message)
}

func ValidationFailed(c *gin.Context, field, message string) {
	Fail(c, http.StatusBadRequest, "VALIDATION_FAILED", field, message)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "", message)
}

func TooManyRequests(c *gin.Context, message string) {
	Fail(c, http.StatusTooManyRequests, "RATE_LIMITED", "", message)
}

// InternalError 不向调用方暴露 err 细节
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "", message)
}

// Fail 写入错误响应并中止后续 handler
func Fail(c *gin.Context, status int, errType, field, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: message,
		Error:   &ErrorDetail{Type: errType, Field: field},
	})
}
