package asset

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spheroseg/internal/pkg/response"
	"spheroseg/internal/pkg/validator"
	"spheroseg/internal/storage"
)

// Handler exposes the asset operations over HTTP. It owns the one step
// before the pipeline starts: spooling uploaded parts into the project's
// blob directory.
type Handler struct {
	service  *Service
	batch    *BatchCoordinator
	retire   *RetirementCoordinator
	auth     Authorizer
	paths    *storage.Translator
	maxBytes int64
	logger   *slog.Logger
}

func NewHandler(
	service *Service,
	batch *BatchCoordinator,
	retire *RetirementCoordinator,
	auth Authorizer,
	paths *storage.Translator,
	maxBytes int64,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		batch:    batch,
		retire:   retire,
		auth:     auth,
		paths:    paths,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload ingests one or more image files into a project as a single
// all-or-nothing batch.
func (h *Handler) Upload(c *gin.Context) {
	actorID := c.GetString("user_id")
	projectID := c.Param("id")

	ok, err := h.auth.CanMutate(c.Request.Context(), projectID, actorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "AUTH_CHECK_FAILED", "permission check failed")
		return
	}
	if !ok {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "you do not own this project")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FORM", "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		if single, ferr := c.FormFile("file"); ferr == nil {
			headers = []*multipart.FileHeader{single}
		}
	}
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, "NO_FILES", "no files provided")
		return
	}

	for _, fh := range headers {
		if fh.Size == 0 {
			response.Error(c, http.StatusBadRequest, "EMPTY_FILE", "file is empty: "+fh.Filename)
			return
		}
		if fh.Size > h.maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				"file exceeds maximum allowed size: "+fh.Filename)
			return
		}
	}

	inputs, err := h.spool(c, projectID, actorID, headers)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "SPOOL_FAILED", "failed to store uploaded files")
		return
	}

	assets, err := h.batch.Ingest(c.Request.Context(), projectID, actorID, inputs)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, assets)
}

// spool writes each uploaded part to <root>/<projectID>/<uuid><ext>. A
// spool failure removes everything already written; files that make it
// into pipeline inputs are cleaned up by the coordinator from then on.
func (h *Handler) spool(c *gin.Context, projectID, actorID string, headers []*multipart.FileHeader) ([]PipelineInput, error) {
	dir := filepath.Join(h.paths.Root(), projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	inputs := make([]PipelineInput, 0, len(headers))
	for _, fh := range headers {
		dst := filepath.Join(dir, uuid.New().String()+filepath.Ext(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			for _, in := range inputs {
				_ = os.Remove(in.SourcePath)
			}
			return nil, err
		}
		inputs = append(inputs, PipelineInput{
			SourcePath:   dst,
			OriginalName: fh.Filename,
			ProjectID:    projectID,
			OwnerID:      actorID,
			DeclaredMime: fh.Header.Get("Content-Type"),
			OriginalSize: fh.Size,
		})
	}
	return inputs, nil
}

func (h *Handler) writeIngestError(c *gin.Context, err error) {
	var denial *QuotaDenial
	if errors.As(err, &denial) {
		response.ErrorWithDetails(c, http.StatusInsufficientStorage, "QUOTA_EXCEEDED", denial.Error(), gin.H{
			"limit":     denial.Limit,
			"used":      denial.Used,
			"incoming":  denial.Incoming,
			"available": denial.Available(),
		})
		return
	}

	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		status := http.StatusUnprocessableEntity
		for _, f := range batchErr.Failures {
			if f.ClientFault() {
				status = http.StatusBadRequest
				break
			}
		}
		response.ErrorWithDetails(c, status, "BATCH_REJECTED", "batch upload rejected",
			failuresToDTO(batchErr.Failures))
		return
	}

	response.Error(c, http.StatusInternalServerError, "INGEST_FAILED", "upload failed")
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.service.ListByProject(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.writeReadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) GetByID(c *gin.Context) {
	a, err := h.service.GetByID(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.writeReadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

func (h *Handler) Status(c *gin.Context) {
	st, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.writeReadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": st})
}

func (h *Handler) Delete(c *gin.Context) {
	err := h.retire.Retire(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.writeReadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) BatchDelete(c *gin.Context) {
	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "validation failed", errs)
		return
	}

	outcomes := h.retire.RetireBatch(c.Request.Context(), req.IDs, c.GetString("user_id"))
	response.Success(c, http.StatusOK, outcomesToDTO(outcomes))
}

func (h *Handler) writeReadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAssetNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "asset not found")
	case errors.Is(err, ErrNotPermitted):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "you may not access this asset")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "request failed")
	}
}
