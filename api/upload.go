package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/okanon/oracle/internal/chunk"
	"github.com/okanon/oracle/internal/rag"
)

// maxUploadMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temp files.
const maxUploadMemory = 32 << 20

// uploadHandler serves document ingestion.
type uploadHandler struct {
	assistant *rag.Service
	logger    *slog.Logger
}

func newUploadHandler(assistant *rag.Service, logger *slog.Logger) *uploadHandler {
	return &uploadHandler{assistant: assistant, logger: logger}
}

func (h *uploadHandler) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/upload", h.upload)
}

// uploadResponse mirrors the ingestion result.
type uploadResponse struct {
	Status         string `json:"status"`
	FilesProcessed int    `json:"files_processed"`
	Message        string `json:"message"`
}

func (h *uploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed multipart body", h.logger)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	userID := r.FormValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required", h.logger)
		return
	}

	headers := r.MultipartForm.File["files"]
	files := make([]chunk.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("reading uploaded file %q", fh.Filename), h.logger)
			return
		}
		defer func() {
			_ = f.Close()
		}()
		files = append(files, chunk.File{Name: fh.Filename, Content: f})
	}

	n, err := h.assistant.Ingest(r.Context(), userID, files)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:         "success",
		FilesProcessed: n,
		Message:        fmt.Sprintf("processed %d file(s)", n),
	}, h.logger)
}

func (h *uploadHandler) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rag.ErrInvalidTenant):
		writeError(w, http.StatusBadRequest, "invalid_tenant", err.Error(), h.logger)
	case errors.Is(err, rag.ErrLoad):
		writeError(w, http.StatusBadRequest, "load_failed", err.Error(), h.logger)
	case errors.Is(err, rag.ErrEmbedding):
		h.logger.Error("ingestion failed", "error", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", "embedding provider failed", h.logger)
	default:
		h.logger.Error("ingestion failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "ingestion failed", h.logger)
	}
}
