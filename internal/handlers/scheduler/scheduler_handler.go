// internal/handlers/scheduler/scheduler_handler.go
package scheduler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"studylink-service/internal/pkg/response"
	service "studylink-service/internal/service/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SchedulerHandler exposes the trigger endpoint the external cron service
// calls. It authenticates with a shared secret, not a user token.
type SchedulerHandler struct {
	runner *service.Runner
	secret string
	logger *zap.Logger
}

func NewSchedulerHandler(runner *service.Runner, secret string, logger *zap.Logger) *SchedulerHandler {
	return &SchedulerHandler{runner: runner, secret: secret, logger: logger}
}

// RunAlertChecks executes one full alert-check run and returns its summary.
// The summary is 200 even when individual rules failed; only a bad secret
// or a missing one turns the request away.
//
// The cron caller parses `results`, so this endpoint keeps its own body
// shape instead of the user-facing response envelope.
func (h *SchedulerHandler) RunAlertChecks(c *gin.Context) {
	if !h.authorized(c) {
		response.Unauthorized(c, "invalid scheduler token")
		return
	}

	summary := h.runner.RunAllAlertChecks(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": summary,
	})
}

func (h *SchedulerHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		h.logger.Error("scheduler token not configured, rejecting trigger")
		return false
	}

	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
