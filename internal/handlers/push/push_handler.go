// internal/handlers/push/push_handler.go
package push

import (
	"net/http"

	"studylink-service/internal/domain/push"
	"studylink-service/internal/middleware"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/push"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	pushService *service.Service
	vapidPublic string
}

func NewPushHandler(pushService *service.Service, vapidPublic string) *PushHandler {
	return &PushHandler{pushService: pushService, vapidPublic: vapidPublic}
}

// PublicKey returns the VAPID public key the browser needs to subscribe
func (h *PushHandler) PublicKey(c *gin.Context) {
	response.Success(c, http.StatusOK, "public key retrieved", gin.H{
		"public_key": h.vapidPublic,
	})
}

// Subscribe registers a browser push subscription for the current user
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req push.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sub, err := h.pushService.Register(c.Request.Context(), userID, &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, "invalid subscription", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to register subscription", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription registered", sub)
}

// Unsubscribe removes one of the current user's subscriptions
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req push.UnregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.pushService.Unregister(c.Request.Context(), userID, req.Endpoint); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "subscription not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to remove subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription removed", nil)
}
