package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/services"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	upload *services.UploadService
	verify *services.VerificationService
	files  *services.FileService
	logger logging.Logger
}

func NewHandler(upload *services.UploadService, verify *services.VerificationService, files *services.FileService, logger logging.Logger) *Handler {
	return &Handler{upload: upload, verify: verify, files: files, logger: logger}
}

// statusFromError maps the shared error taxonomy onto HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrConstraintViolation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFromError(err), gin.H{"error": err.Error()})
}

// uploadEvent is one NDJSON line in the upload response stream.
type uploadEvent struct {
	Type         string  `json:"type"`
	Percent      float64 `json:"percent,omitempty"`
	Filename     string  `json:"filename,omitempty"`
	CID          string  `json:"cid,omitempty"`
	FileRecordID string  `json:"file_record_id,omitempty"`
	Stage        string  `json:"stage,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Upload accepts a multipart batch under repeated "file" fields and
// streams NDJSON progress and per-file results back while the pipeline
// runs.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}

	parts := form.File["file"]
	if len(parts) == 0 {
		abortWithError(c, fmt.Errorf("%w: no files", common.ErrInvalidInput))
		return
	}

	files := make([]services.UploadFile, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
			return
		}
		files = append(files, services.UploadFile{
			Filename: part.Filename,
			MimeType: part.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Writer)
	emit := func(ev uploadEvent) {
		if err := enc.Encode(ev); err != nil {
			h.logger.Warn(c.Request.Context(), "upload stream write failed", "error", err)
			return
		}
		c.Writer.Flush()
	}

	outcomes, err := h.upload.Upload(c.Request.Context(), currentUserID(c), files, func(pct float64) {
		emit(uploadEvent{Type: "progress", Percent: pct})
	})
	if err != nil {
		emit(uploadEvent{Type: "error", Error: err.Error()})
		return
	}

	for _, out := range outcomes {
		if out.Err != nil {
			emit(uploadEvent{Type: "error", Filename: out.Filename, Stage: out.Stage, Error: out.Err.Error()})
			continue
		}
		emit(uploadEvent{Type: "result", Filename: out.Filename, CID: out.CID, FileRecordID: out.FileRecordID})
	}
}

type fileResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
	CID       string `json:"cid"`
	CreatedAt string `json:"created_at"`
	Verified  bool   `json:"verified"`
}

// List returns the caller's records, newest first.
func (h *Handler) List(c *gin.Context) {
	records, err := h.files.ListFiles(c.Request.Context(), currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := make([]fileResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, fileResponse{
			ID:        r.ID,
			Filename:  r.Filename,
			SizeBytes: r.SizeBytes,
			MimeType:  r.MimeType,
			CID:       r.CID,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
			Verified:  r.Verified,
		})
	}
	c.JSON(http.StatusOK, gin.H{"files": resp})
}

// Download streams the stored payload as an attachment.
func (h *Handler) Download(c *gin.Context) {
	record, body, err := h.files.DownloadFile(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	c.DataFromReader(http.StatusOK, record.SizeBytes, record.MimeType, body, nil)
}

// Delete removes a record and, best effort, its payload.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.files.DeleteFile(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Verify answers the public CID lookup.
func (h *Handler) Verify(c *gin.Context) {
	result, err := h.verify.Verify(c.Request.Context(), c.Param("cid"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
