package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type UploadHandlers struct {
	store    *services.Store
	logger   *slog.Logger
	maxBytes int64
}

func NewUploadHandlers(store *services.Store, logger *slog.Logger, maxBytes int64) *UploadHandlers {
	return &UploadHandlers{
		store:    store,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

type uploadResponse struct {
	Message    string `json:"message"`
	Records    int    `json:"records"`
	BackupFile string `json:"backup_file"`
}

// HandleUpload replaces the active dataset with an uploaded CSV. The upload
// is staged under a unique name first, so a rejected file never touches the
// active dataset and is always cleaned up.
func (h *UploadHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		errors.WriteError(w, h.logger,
			errors.ValidationWrap(err, fmt.Sprintf("upload must be multipart form data of at most %d bytes", h.maxBytes)),
			requestID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.WriteError(w, h.logger, errors.Validation("no file provided"), requestID)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		errors.WriteError(w, h.logger, errors.Validation("no file selected"), requestID)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		errors.WriteError(w, h.logger, errors.Validation("invalid file type, only CSV files are allowed"), requestID)
		return
	}

	stagedPath, err := h.stage(file)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	records, backupFile, err := h.store.Replace(r.Context(), stagedPath)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	h.logger.Info("dataset upload accepted",
		"filename", header.Filename,
		"records", records,
		"backup_file", backupFile,
		"request_id", requestID,
	)

	errors.WriteJSON(w, http.StatusOK, uploadResponse{
		Message:    "File uploaded successfully",
		Records:    records,
		BackupFile: backupFile,
	})
}

// stage copies the uploaded content to a uniquely named file next to the
// active dataset. The caller hands ownership of the file to store.Replace.
func (h *UploadHandlers) stage(src io.Reader) (string, error) {
	dir := h.store.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.InternalWrap(err, "failed to create data directory")
	}

	stagedPath := filepath.Join(dir, fmt.Sprintf("upload_%s.csv", uuid.NewString()))

	out, err := os.Create(stagedPath)
	if err != nil {
		return "", errors.InternalWrap(err, "failed to stage uploaded file")
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(stagedPath)
		return "", errors.InternalWrap(err, "failed to write uploaded file")
	}
	if err := out.Close(); err != nil {
		os.Remove(stagedPath)
		return "", errors.InternalWrap(err, "failed to write uploaded file")
	}
	return stagedPath, nil
}
