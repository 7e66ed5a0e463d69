package project

import "github.com/gin-gonic/gin"

// RegisterRoutes registers project routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	projects := r.Group("/projects")
	{
		projects.POST("", h.Create)
		projects.GET("", h.ListMy)
		projects.GET("/:id", h.GetByID)
	}
}
