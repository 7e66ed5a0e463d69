package reconcile

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the operator endpoints. Callers are expected to
// wrap the group in an admin-only middleware.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	rec := r.Group("/reconcile")
	{
		rec.POST("/orphans", h.SweepOrphans)
		rec.GET("/audit", h.Audit)
		rec.POST("/repair", h.Repair)
	}
}
