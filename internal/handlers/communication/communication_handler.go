// internal/handlers/communication/communication_handler.go
package communication

import (
	"net/http"
	"strconv"

	"studylink-service/internal/domain/communication"
	"studylink-service/internal/middleware"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/communication"
	"studylink-service/internal/service/dispatch"

	"github.com/gin-gonic/gin"
)

type CommunicationHandler struct {
	commService *service.Service
	dispatcher  *dispatch.Orchestrator
}

func NewCommunicationHandler(commService *service.Service, dispatcher *dispatch.Orchestrator) *CommunicationHandler {
	return &CommunicationHandler{commService: commService, dispatcher: dispatcher}
}

// Send delivers an admin-authored message to selected recipients
func (h *CommunicationHandler) Send(c *gin.Context) {
	senderID := middleware.MustGetUserID(c)

	var req communication.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	report, err := h.dispatcher.SendManual(c.Request.Context(), senderID, &req)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to send communication", err)
		return
	}

	response.Success(c, http.StatusOK, "communication dispatched", report)
}

// Inbox lists the current user's received communications
func (h *CommunicationHandler) Inbox(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		limit = 50
	}

	items, err := h.commService.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list communications", err)
		return
	}

	response.Success(c, http.StatusOK, "communications retrieved", gin.H{
		"communications": items,
		"count":          len(items),
	})
}

// MarkRead acknowledges one communication
func (h *CommunicationHandler) MarkRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	id := c.Param("id")

	if err := h.commService.MarkRead(c.Request.Context(), id, userID); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "communication not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to mark communication read", err)
		return
	}

	response.Success(c, http.StatusOK, "communication marked read", nil)
}
