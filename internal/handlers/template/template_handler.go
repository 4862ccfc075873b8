// internal/handlers/template/template_handler.go
package template

import (
	"net/http"
	"strconv"

	"studylink-service/internal/domain/communication"
	"studylink-service/internal/pkg/response"
	"studylink-service/internal/pkg/xerrors"
	service "studylink-service/internal/service/template"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateService *service.Service
}

func NewTemplateHandler(templateService *service.Service) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// Create adds a new message template
func (h *TemplateHandler) Create(c *gin.Context) {
	var req communication.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	t, err := h.templateService.Create(c.Request.Context(), &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicate) {
			response.Error(c, http.StatusConflict, "template name already exists", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to create template", err)
		return
	}

	response.Success(c, http.StatusCreated, "template created", t)
}

// List retrieves templates, optionally filtered by category
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list templates", err)
		return
	}

	response.Success(c, http.StatusOK, "templates retrieved", gin.H{
		"templates": templates,
		"count":     len(templates),
	})
}

// Get retrieves one template by ID
func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid template ID", err)
		return
	}

	t, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to get template", err)
		return
	}

	response.Success(c, http.StatusOK, "template retrieved", t)
}

// Update applies a partial update to a template
func (h *TemplateHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid template ID", err)
		return
	}

	var req communication.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	t, err := h.templateService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to update template", err)
		return
	}

	response.Success(c, http.StatusOK, "template updated", t)
}

// Delete removes a template
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid template ID", err)
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to delete template", err)
		return
	}

	response.Success(c, http.StatusOK, "template deleted", nil)
}

// Preview renders a template with caller-supplied variables
func (h *TemplateHandler) Preview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid template ID", err)
		return
	}

	var req struct {
		Variables map[string]string `json:"variables"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rendered, err := h.templateService.Preview(c.Request.Context(), id, req.Variables)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "template not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to render template", err)
		return
	}

	response.Success(c, http.StatusOK, "template rendered", rendered)
}
