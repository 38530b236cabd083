package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/promptlazy/internal/common"
	"github.com/dmitrijs2005/promptlazy/internal/logging"
	"github.com/dmitrijs2005/promptlazy/internal/server/models"
	"github.com/dmitrijs2005/promptlazy/internal/server/services"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Handler serves the /auth endpoints and the informational root routes.
type Handler struct {
	auth   *services.AuthService
	logger logging.Logger
}

func NewHandler(a *services.AuthService, l logging.Logger) *Handler {
	return &Handler{auth: a, logger: l.With("module", "http_handler")}
}

// bind decodes the JSON body into req and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handler) bind(c *gin.Context, req validation.Validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, kindInvalidRequest, "invalid JSON payload")
		return false
	}
	if err := req.Validate(); err != nil {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			h.respondError(c, err)
			return false
		}
		abortWithError(c, http.StatusUnprocessableEntity, kindValidationError, err.Error())
		return false
	}
	return true
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	h.logger.Info(ctx, "Registration request")

	user, err := h.auth.Register(ctx, req.Email, req.Password, req.Username, req.FullName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondTokenPair(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondTokenPair(c, user)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: access, TokenType: common.TokenTypeBearer})
}

func (h *Handler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		h.respondError(c, common.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		h.respondError(c, common.ErrUserNotFound)
		return
	}

	var req updateProfileRequest
	if !h.bind(c, &req) {
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, services.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		FullName:        req.FullName,
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(updated))
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the PromptLazy API!"})
}

func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"methods":   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		"endpoints": []string{"/", "/status", "/auth"},
	})
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "message": "The API is alive and kicking!"})
}

func (h *Handler) respondTokenPair(c *gin.Context, user *models.User) {
	pair, err := h.auth.IssueTokenPair(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    common.TokenTypeBearer,
	})
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		Username: u.UserName,
		FullName: u.FullName,
	}
}
