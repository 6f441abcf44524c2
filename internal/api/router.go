package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/social-graph/docs"
	"github.com/d60-Lab/social-graph/internal/api/handler"
	"github.com/d60-Lab/social-graph/internal/api/middleware"
	"github.com/d60-Lab/social-graph/internal/metrics"
)

// Options toggles the optional parts of the router.
type Options struct {
	Metrics     *metrics.Collector
	RateRPS     float64
	RateBurst   int
	Tracing     bool
	ServiceName string
	Swagger     bool
}

// NewRouter 注册全部路由
func NewRouter(h *handler.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.RequestLogger(opts.Metrics))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Swagger {
		docs.SwaggerInfo.BasePath = "/api"
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.RateLimit(opts.RateRPS, opts.RateBurst))
	apiGroup.Use(middleware.CircuitBreaker(middleware.DefaultBreakerConfig("api")))
	{
		users := apiGroup.Group("/users")
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.POST("/:id/friends/:friendId", h.AddFriend)
		users.DELETE("/:id/friends/:friendId", h.RemoveFriend)

		thoughts := apiGroup.Group("/thoughts")
		thoughts.GET("", h.ListThoughts)
		thoughts.POST("", h.CreateThought)
		thoughts.GET("/:id", h.GetThought)
		thoughts.PUT("/:id", h.UpdateThought)
		thoughts.DELETE("/:id", h.DeleteThought)
		thoughts.POST("/:id/reactions", h.AddReaction)
		thoughts.DELETE("/:id/reactions/:reactionId", h.RemoveReaction)
	}
	return r
}
