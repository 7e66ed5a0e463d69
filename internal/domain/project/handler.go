package project

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spheroseg/internal/pkg/response"
	"spheroseg/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) Create(c *gin.Context) {
	actorID := c.GetString("user_id")

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", errs)
		return
	}

	p, err := h.service.Create(c.Request.Context(), actorID, req.Name, req.Description)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "failed to create project")
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) ListMy(c *gin.Context) {
	actorID := c.GetString("user_id")

	projects, err := h.service.ListByOwner(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list projects")
		return
	}
	response.Success(c, http.StatusOK, projects)
}

func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "project not found")
		return
	}
	response.Success(c, http.StatusOK, p)
}
