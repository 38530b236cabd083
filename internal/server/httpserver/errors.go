package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	kindInvalidRequest  = "invalid_request"
	kindValidationError = "validation_error"
	kindRateLimited     = "rate_limited"
)

var kindStatus = map[string]int{
	common.KindDuplicateIdentity:      http.StatusBadRequest,
	common.KindIncorrectPassword:      http.StatusBadRequest,
	common.KindMissingCurrentPassword: http.StatusBadRequest,
	common.KindInvalidCredentials:     http.StatusUnauthorized,
	common.KindInvalidToken:           http.StatusUnauthorized,
	common.KindMissingBearerPrefix:    http.StatusUnauthorized,
	common.KindUserNotFound:           http.StatusUnauthorized,
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// statusOf maps a service error to its HTTP status and machine kind.
func statusOf(err error) (int, string) {
	kind := common.KindOf(err)
	if status, ok := kindStatus[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, common.KindInternal
}

func abortWithError(c *gin.Context, status int, kind, description string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: kind, Description: description})
}

// respondError writes err using the auth error taxonomy. Internal errors are
// logged and never echoed to the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, kind := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		abortWithError(c, status, kind, "internal server error")
		return
	}

	description := err.Error()
	var dup *common.DuplicateIdentityError
	if errors.As(err, &dup) {
		description = dup.Error()
	}
	abortWithError(c, status, kind, description)
}
