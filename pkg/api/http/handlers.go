package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aescanero/dropship/internal/application/orchestrator"
	"github.com/aescanero/dropship/internal/application/policy"
	"github.com/aescanero/dropship/pkg/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// LifecycleResponse is returned by the start and stop endpoints
type LifecycleResponse struct {
	State     orchestrator.State          `json:"state"`
	StartedAt *time.Time                  `json:"started_at,omitempty"`
	Runners   []orchestrator.RunnerResult `json:"runners,omitempty"`
}

// StatusResponse describes the orchestrator and every workflow
type StatusResponse struct {
	State     orchestrator.State      `json:"state"`
	Running   bool                    `json:"running"`
	StartedAt *time.Time              `json:"started_at,omitempty"`
	Workflows []domain.WorkflowStatus `json:"workflows"`
	Health    interface{}             `json:"health"`
}

func abortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func (s *Server) startedAt() *time.Time {
	t := s.orchestrator.StartedAt()
	if t.IsZero() {
		return nil
	}
	return &t
}

// handleHealth reports healthy while the runners are live and none is
// backing off. A stopped orchestrator is not an error.
func (s *Server) handleHealth(c *gin.Context) {
	health := s.orchestrator.Health()
	running := s.orchestrator.Running()

	status := "stopped"
	code := http.StatusOK
	switch {
	case running && health.Healthy:
		status = "healthy"
	case running:
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks": gin.H{
			"orchestrator": s.orchestrator.State(),
			"runners":      health,
		},
	})
}

// handleStart launches the runners
func (s *Server) handleStart(c *gin.Context) {
	if err := s.orchestrator.Initialize(c.Request.Context()); err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyRunning) {
			abortWithError(c, http.StatusConflict, "ALREADY_RUNNING", err.Error(), nil)
			return
		}
		if errors.Is(err, orchestrator.ErrStillStopping) {
			abortWithError(c, http.StatusConflict, "STILL_STOPPING", err.Error(), nil)
			return
		}
		s.logger.Error("failed to start automation", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "START_FAILED", err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, LifecycleResponse{
		State:     s.orchestrator.State(),
		StartedAt: s.startedAt(),
	})
}

// handleStop stops the runners, waiting at most the stop timeout
func (s *Server) handleStop(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.stopTimeout)
	defer cancel()

	results, err := s.orchestrator.Shutdown(ctx)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNotRunning) {
			abortWithError(c, http.StatusConflict, "NOT_RUNNING", err.Error(), nil)
			return
		}
		s.logger.Warn("automation stopped with errors", zap.Error(err))
		abortWithError(c, http.StatusGatewayTimeout, "STOP_TIMEOUT", err.Error(), results)
		return
	}

	c.JSON(http.StatusOK, LifecycleResponse{
		State:   s.orchestrator.State(),
		Runners: results,
	})
}

// handleStatus returns the orchestrator state with every workflow
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		State:     s.orchestrator.State(),
		Running:   s.orchestrator.Running(),
		StartedAt: s.startedAt(),
		Workflows: s.orchestrator.Status(),
		Health:    s.orchestrator.Health(),
	})
}

// handleListWorkflows lists the in-memory status of every workflow
func (s *Server) handleListWorkflows(c *gin.Context) {
	workflows := s.orchestrator.Status()
	c.JSON(http.StatusOK, gin.H{
		"workflows": workflows,
		"total":     len(workflows),
	})
}

// handleGetWorkflow returns one workflow status
func (s *Server) handleGetWorkflow(c *gin.Context) {
	status, err := s.orchestrator.WorkflowStatus(c.Param("name"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Workflow not found", nil)
		return
	}

	c.JSON(http.StatusOK, status)
}

// handleListStoredStatuses returns what the status store holds, which
// survives restarts of this process when the store is Redis
func (s *Server) handleListStoredStatuses(c *gin.Context) {
	if s.statuses == nil {
		abortWithError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "status storage is not configured", nil)
		return
	}

	statuses, err := s.statuses.ListStatuses(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list stored statuses", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": statuses,
		"total":    len(statuses),
	})
}

// handleGetPolicy returns the policy currently applied by the gate
func (s *Server) handleGetPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, s.policy.Snapshot())
}

// handleUpdatePolicy merges the request body into the stored overrides
// and reloads the policy. Keys are the fields of the policy document.
func (s *Server) handleUpdatePolicy(c *gin.Context) {
	if s.overrides == nil || s.reloader == nil {
		abortWithError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "policy overrides are not configured", nil)
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	updates := make(map[string]string, len(body))
	for key, value := range body {
		raw, err := overrideValue(value)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("%s: %v", key, err), nil)
			return
		}
		updates[key] = raw
	}

	if _, err := s.policy.Snapshot().Apply(updates); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_POLICY", err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	current, err := s.overrides.LoadOverrides(ctx)
	if err != nil {
		s.logger.Error("failed to load policy overrides", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error(), nil)
		return
	}
	merged := make(map[string]string, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}

	if err := s.overrides.SaveOverrides(ctx, merged); err != nil {
		s.logger.Error("failed to save policy overrides", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err.Error(), nil)
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		abortWithError(c, http.StatusInternalServerError, "RELOAD_FAILED", err.Error(), nil)
		return
	}

	s.logger.Info("policy overrides updated", zap.Int("keys", len(updates)))
	c.JSON(http.StatusOK, s.policy.Snapshot())
}

// overrideValue renders a JSON scalar the way overrides are stored
func overrideValue(v interface{}) (string, error) {
	switch value := v.(type) {
	case bool:
		return strconv.FormatBool(value), nil
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), nil
	case string:
		return value, nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}

var _ PolicyView = (*policy.Gate)(nil)
