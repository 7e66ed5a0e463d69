package asset

import "github.com/gin-gonic/gin"

// RegisterRoutes registers asset routes under the protected group. The
// project-scoped routes reuse the ":id" param name the project module
// registers its own routes with.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/projects/:id/images", h.Upload)
	r.GET("/projects/:id/images", h.List)

	images := r.Group("/images")
	{
		images.GET("/:id", h.GetByID)
		images.GET("/:id/status", h.Status)
		images.DELETE("/:id", h.Delete)
		images.POST("/batch-delete", h.BatchDelete)
	}
}
