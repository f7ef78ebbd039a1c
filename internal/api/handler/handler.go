package handler

import (
    "context"
    "errors"
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/d60-Lab/emoji-feed/internal/service"
    "github.com/d60-Lab/emoji-feed/pkg/response"
)

// Pinger 健康检查依赖（数据库、redis）
type Pinger func(ctx context.Context) error

// Handler 聚合所有 HTTP handler 的依赖
type Handler struct {
    postService service.PostService
    checks      map[string]Pinger
}

func New(postService service.PostService, checks map[string]Pinger) *Handler {
    if checks == nil { checks = map[string]Pinger{} }
    return &Handler{postService: postService, checks: checks}
}

// writeError 把服务层错误映射为统一响应，内部错误不暴露原因
func writeError(c *gin.Context, err error) {
    var ae *service.AppError
    if !errors.As(err, &ae) {
        _ = c.Error(err)
        response.InternalError(c, "")
        return
    }
    if ae.Err != nil {
        _ = c.Error(ae.Err)
    }
    switch ae.Kind {
    case service.KindValidation:
        response.ValidationFailed(c, ae.Field, ae.Message)
    case service.KindRateLimited:
        if ae.RetryAfter > 0 {
            c.Header("Retry-After", strconv.FormatInt(ae.RetryAfter, 10))
        }
        response.TooManyRequests(c, ae.Message)
    case service.KindUnauthorized:
        response.Unauthorized(c, ae.Message)
    default:
        response.InternalError(c, ae.Message)
    }
}
