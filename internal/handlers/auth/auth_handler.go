// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"studylink-service/internal/domain/user"
	"studylink-service/internal/middleware"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.Service
}

func NewAuthHandler(authService *service.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, "too many login attempts", nil)
		case xerrors.Is(err, xerrors.ErrUnauthorized):
			response.Unauthorized(c, "invalid credentials")
		default:
			response.Error(c, http.StatusInternalServerError, "login failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "login successful", result)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	u, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrUnauthorized) || xerrors.Is(err, xerrors.ErrNotFound) {
			response.Unauthorized(c, "account unavailable")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", u)
}
