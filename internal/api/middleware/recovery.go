package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/emoji-feed/pkg/logger"
	"github.com/d60-Lab/emoji-feed/pkg/response"
)

// Recovery 捕获 panic 并返回统一的 500。需放在 sentrygin（Repanic）之外，上报由 sentrygin 完成
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("panic recovered",
				zap.String("panic", fmt.Sprint(rec)),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			response.InternalError(c, "")
		}()
		c.Next()
	}
}
