package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gitsecureops/access-reconciler/internal/audit"
	"github.com/gitsecureops/access-reconciler/internal/domain"
	apperrors "github.com/gitsecureops/access-reconciler/internal/errors"
	"github.com/gitsecureops/access-reconciler/internal/githubapi"
	"github.com/gitsecureops/access-reconciler/internal/reconcile"
)

// Handler handles API requests
type Handler struct {
	github   githubapi.Service
	recorder audit.Recorder
	runs     *RunRegistry
}

// NewHandler creates a new API handler
func NewHandler(gh githubapi.Service, recorder audit.Recorder) *Handler {
	return &Handler{
		github:   gh,
		recorder: recorder,
		runs:     NewRunRegistry(),
	}
}

// ScanRequest is the body of POST /api/v1/scans
type ScanRequest struct {
	Scope   domain.ScopeSelector `json:"scope"`
	Targets []string             `json:"targets"`
}

// StartScan runs an access scan for the requested scope and targets
// POST /api/v1/scans
func (h *Handler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	runID := uuid.New().String()
	scanner := reconcile.NewScanner(h.github, h.github, h.github, h.runs.Sink(runID))

	result, err := scanner.Scan(c.Request.Context(), req.Scope, req.Targets)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recorder.RecordScan(c.Request.Context(), h.actor(c), req.Scope, req.Targets, result)

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"data":   result,
	})
}

// RemovalRequest is the body of POST /api/v1/removals
type RemovalRequest struct {
	Records []domain.AccessRecord `json:"records"`
}

// StartRemoval removes collaborator access for the submitted records
// POST /api/v1/removals
func (h *Handler) StartRemoval(c *gin.Context) {
	var req RemovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	if len(req.Records) == 0 {
		respondError(c, apperrors.NewBadRequestError("at least one access record is required"))
		return
	}

	runID := uuid.New().String()
	remover := reconcile.NewRemover(h.github, h.runs.Sink(runID))

	summary, err := remover.Remove(c.Request.Context(), req.Records)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recorder.RecordRemoval(c.Request.Context(), h.actor(c), targetUsers(req.Records), summary)

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"data":   summary,
	})
}

// GetRunProgress returns the latest progress snapshot of a run
// GET /api/v1/runs/:id/progress
func (h *Handler) GetRunProgress(c *gin.Context) {
	id := c.Param("id")

	progress, ok := h.runs.Get(id)
	if !ok {
		respondError(c, apperrors.NewNotFoundError("run"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": progress,
	})
}

// GetAuditEntries lists recorded audit entries
// GET /api/v1/audit/entries?action=&limit=
func (h *Handler) GetAuditEntries(c *gin.Context) {
	action := domain.AuditAction(c.Query("action"))
	limit := parseIntQuery(c, "limit", 100)

	entries, err := h.recorder.List(c.Request.Context(), action, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": entries,
	})
}

// GetTwoFactorReport audits an organization's two-factor compliance
// GET /api/v1/orgs/:org/two-factor
func (h *Handler) GetTwoFactorReport(c *gin.Context) {
	org := c.Param("org")

	report, err := h.github.TwoFactorAudit(c.Request.Context(), org)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recorder.RecordTwoFactorAudit(c.Request.Context(), h.actor(c), report)

	c.JSON(http.StatusOK, gin.H{
		"data": report,
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// actor resolves the acting user for audit entries, best-effort
func (h *Handler) actor(c *gin.Context) string {
	user, err := h.github.AuthenticatedUser(c.Request.Context())
	if err != nil {
		return "unknown"
	}
	return user
}

func targetUsers(records []domain.AccessRecord) []string {
	seen := make(map[string]bool, len(records))
	var users []string
	for _, r := range records {
		if seen[r.Username] {
			continue
		}
		seen[r.Username] = true
		users = append(users, r.Username)
	}
	return users
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeForbidden, apperrors.ErrCodeOwnerNotRemovable:
			status = http.StatusForbidden
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
