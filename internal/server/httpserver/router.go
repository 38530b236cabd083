package httpserver

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the optional middleware settings of NewRouter.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimiter        *RateLimiter
}

// NewRouter wires the routes and middleware.
func NewRouter(h *Handler, resolver UserResolver, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.logger))
	r.Use(CORS(cfg.CORSAllowedOrigins))

	r.GET("/", h.Root)
	r.OPTIONS("/", h.Options)
	r.GET("/status", h.Status)

	authGroup := r.Group("/auth")
	authGroup.Use(cfg.RateLimiter.Handler())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)

		requireUser := h.RequireUser(resolver)
		authGroup.GET("/me", requireUser, h.Me)
		authGroup.PUT("/me", requireUser, h.UpdateMe)
	}

	return r
}
