package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/logging"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	currentUserKey  = "currentUser"
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
)

// UserResolver turns an Authorization header value into a user.
type UserResolver interface {
	Resolve(ctx context.Context, authorization string) (*models.User, error)
}

// RequireUser resolves the caller from the Authorization header and stores the
// user in the gin context. Failures abort with 401.
func (h *Handler) RequireUser(r UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := r.Resolve(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// RequestLogger logs every request with its status and latency. A request id
// is taken from X-Request-ID or generated.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			l.Error(ctx, "http_request", args...)
		case status >= 400:
			l.Warn(ctx, "http_request", args...)
		default:
			l.Info(ctx, "http_request", args...)
		}
	}
}

// CORS answers preflight requests and sets the allow headers for allowed
// origins. A "*" entry allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	methods := strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""

		if !wildcard && !originAllowed(origin, allowedOrigins) {
			if preflight {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Methods", methods)
		if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
			header.Set("Access-Control-Allow-Headers", requested)
		} else {
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}
