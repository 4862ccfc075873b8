// internal/handlers/alert/alert_handler.go
package alert

import (
	"net/http"
	"strconv"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/alerts"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	alertService *service.Service
}

func NewAlertHandler(alertService *service.Service) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List retrieves paginated alerts with optional filters
func (h *AlertHandler) List(c *gin.Context) {
	var filters alert.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	if filters.Type != nil && !filters.Type.IsValid() {
		response.Error(c, http.StatusBadRequest, "unknown alert type", nil)
		return
	}

	result, err := h.alertService.List(c.Request.Context(), &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list alerts", err)
		return
	}

	response.Success(c, http.StatusOK, "alerts retrieved", result)
}

// Get retrieves a single alert by ID
func (h *AlertHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid alert ID", err)
		return
	}

	a, err := h.alertService.Get(c.Request.Context(), id)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to get alert", err)
		return
	}

	response.Success(c, http.StatusOK, "alert retrieved", a)
}

// Resolve marks an alert as resolved
func (h *AlertHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid alert ID", err)
		return
	}

	a, err := h.alertService.Resolve(c.Request.Context(), id)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "alert not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to resolve alert", err)
		return
	}

	response.Success(c, http.StatusOK, "alert resolved", a)
}
