// internal/handlers/config/config_handler.go
package config

import (
	"net/http"

	"studylink-service/internal/domain/alert"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/alertconfig"

	"github.com/gin-gonic/gin"
)

type ConfigHandler struct {
	configService *service.Service
}

func NewConfigHandler(configService *service.Service) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// List retrieves every alert rule configuration
func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list configurations", err)
		return
	}

	response.Success(c, http.StatusOK, "configurations retrieved", gin.H{
		"configurations": configs,
	})
}

// Get retrieves one rule configuration by alert type
func (h *ConfigHandler) Get(c *gin.Context) {
	ruleType := alert.RuleType(c.Param("type"))

	cfg, err := h.configService.Get(c.Request.Context(), ruleType)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "unknown alert type", nil)
		case xerrors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "configuration not found")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to get configuration", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "configuration retrieved", cfg)
}

// Update applies a partial update to one rule configuration
func (h *ConfigHandler) Update(c *gin.Context) {
	ruleType := alert.RuleType(c.Param("type"))

	var req alert.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cfg, err := h.configService.Update(c.Request.Context(), ruleType, &req)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "invalid configuration", err)
		case xerrors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "configuration or template not found")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to update configuration", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "configuration updated", cfg)
}
