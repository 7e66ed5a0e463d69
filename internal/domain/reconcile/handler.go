package reconcile

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spheroseg/internal/pkg/response"
)

// Handler exposes the reconciliation sweeps to operators. Dry-run is the
// default on every destructive endpoint; callers opt into mutation with
// ?dry_run=false.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) SweepOrphans(c *gin.Context) {
	report, err := h.engine.SweepOrphans(c.Request.Context(), dryRun(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "SWEEP_FAILED", "orphan sweep failed")
		return
	}
	response.Success(c, http.StatusOK, report)
}

func (h *Handler) Audit(c *gin.Context) {
	report, err := h.engine.Audit(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "AUDIT_FAILED", "consistency audit failed")
		return
	}
	response.Success(c, http.StatusOK, report)
}

func (h *Handler) Repair(c *gin.Context) {
	report, err := h.engine.Repair(c.Request.Context(), dryRun(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "REPAIR_FAILED", "repair failed")
		return
	}
	response.Success(c, http.StatusOK, report)
}

func dryRun(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("dry_run", "true"))
	if err != nil {
		return true
	}
	return v
}
