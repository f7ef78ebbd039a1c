package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/emoji-feed/pkg/response"
)

// Health 存活与依赖检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
    ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
    defer cancel()

    status := map[string]string{"status": "ok"}
    healthy := true
    for name, ping := range h.checks {
        if err := ping(ctx); err != nil {
            status[name] = "down"
            healthy = false
            continue
        }
        status[name] = "up"
    }
    if !healthy {
        status["status"] = "degraded"
        c.JSON(http.StatusServiceUnavailable, response.Response{Code: http.StatusServiceUnavailable, Message: "degraded", Data: status})
        return
    }
    response.Success(c, status)
}
