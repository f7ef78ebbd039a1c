package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/emoji-feed/docs"
	"github.com/d60-Lab/emoji-feed/internal/api/handler"
	"github.com/d60-Lab/emoji-feed/internal/api/middleware"
)

type RouterOptions struct {
	ServiceName string
	Tracing     bool
	Swagger     bool
}

// SetupRouter 注册中间件与路由
func SetupRouter(h *handler.Handler, verifier *middleware.Verifier, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		sentrygin.New(sentrygin.Options{Repanic: true}),
		gzip.Gzip(gzip.DefaultCompression),
	)
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}

	r.GET("/health", h.Health)
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		posts.GET("", h.ListFeed)
		posts.POST("", middleware.RequireAuth(verifier), h.CreatePost)
	}
	return r
}
