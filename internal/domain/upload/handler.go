package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"packetdrop/internal/domain"
	"packetdrop/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the upload endpoints. POST /uploads accepts anonymous
// callers (the optional-auth middleware resolves a token when present);
// listing and download sit behind required auth.
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes wires the endpoints. public carries the optional-auth
// middleware, protected the required one.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/uploads", h.Upload)
	public.POST("/uploads/check-hash", h.CheckHash)

	protected.GET("/uploads", h.List)
	protected.GET("/uploads/:id/download", h.Download)
}

func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}

	// Reject oversized declarations before buffering anything; the service
	// re-checks against the actual byte count.
	if fileHeader.Size > MaxFileSize {
		response.Error(c, http.StatusBadRequest, "FILE_TOO_LARGE", "File too large (max 2GB)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "Unable to read file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "Unable to read file")
		return
	}

	record, err := h.service.Ingest(c.Request.Context(), IngestInput{
		Content:      content,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		ClientHash:   c.PostForm("clientHash"),
		OwnerID:      optionalOwnerID(c),
	})
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, UploadResponse{
		ID:           record.ID,
		OriginalName: record.OriginalName,
		SizeBytes:    record.SizeBytes,
		ContentHash:  record.ContentHash,
		CreatedAt:    record.CreatedAt,
	})
}

func (h *Handler) CheckHash(c *gin.Context) {
	var req CheckHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	exists, err := h.service.CheckHashExists(c.Request.Context(), req.Hash)
	if err != nil {
		h.log.Error("check-hash failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check hash")
		return
	}

	response.Success(c, http.StatusOK, CheckHashResponse{Exists: exists})
}

func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))

	result, err := h.service.List(c.Request.Context(), callerFrom(c), page, pageSize)
	if err != nil {
		h.log.Error("list uploads failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list uploads")
		return
	}

	items := make([]ListItem, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, ListItem{
			ID:           u.ID,
			OriginalName: u.OriginalName,
			SizeBytes:    u.SizeBytes,
			MimeType:     u.MimeType,
			OwnerID:      u.OwnerID,
			CreatedAt:    u.CreatedAt,
		})
	}

	response.Success(c, http.StatusOK, ListResponse{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	})
}

func (h *Handler) Download(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid upload ID")
		return
	}

	result, err := h.service.Download(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Upload not found")
		case errors.Is(err, ErrFileMissing):
			response.Error(c, http.StatusNotFound, "FILE_MISSING", "File missing from storage")
		default:
			h.log.Error("download failed", zap.Int64("id", id), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to download upload")
		}
		return
	}
	defer result.Content.Close()

	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.Content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", result.OriginalName),
	})
}

func (h *Handler) writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidFileType):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed. Allowed: .7z, .rar, .zip, .pkt, .tar.gz")
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusBadRequest, "FILE_TOO_LARGE", "File too large (max 2GB)")
	case errors.Is(err, ErrMalformedHash):
		response.Error(c, http.StatusBadRequest, "INVALID_HASH", "Invalid clientHash (expected sha256 hex)")
	case errors.Is(err, ErrHashMismatch):
		response.Error(c, http.StatusBadRequest, "HASH_MISMATCH", "Hash mismatch")
	case errors.Is(err, ErrDuplicateUpload):
		response.Error(c, http.StatusConflict, "DUPLICATE", "File already exists")
	default:
		h.log.Error("ingest failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Upload failed")
	}
}

// callerFrom rebuilds the caller identity placed in the context by the auth
// middleware. Absent keys mean an anonymous request.
func callerFrom(c *gin.Context) domain.Caller {
	id := c.GetInt64("user_id")
	if id <= 0 {
		return domain.Anonymous()
	}
	return domain.Authenticated(id, c.GetString("role") == "admin")
}

func optionalOwnerID(c *gin.Context) *int64 {
	if id := c.GetInt64("user_id"); id > 0 {
		return &id
	}
	return nil
}
