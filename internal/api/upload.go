package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sheetqa/sheetqa/internal/ingest"
)

// maxUploadBytes bounds the multipart body. Workbooks beyond this are
// rejected before parsing.
const maxUploadBytes = 100 << 20

func handleUpload(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ingestor == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "upload dependencies are not configured", true, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "FILE_REQUIRED", "multipart field \"file\" is required", false, map[string]any{"details": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "UPLOAD_READ_FAILED", "failed to read upload", false, map[string]any{"details": err.Error()})
		return
	}

	filename := strings.TrimSpace(filepath.Base(header.Filename))
	if filename == "" || filename == "." {
		filename = "upload.xlsx"
	}

	report, err := deps.Ingestor.Ingest(r.Context(), filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrBadWorkbook):
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_WORKBOOK", err.Error(), false, nil)
		case errors.Is(err, ingest.ErrStoreUnavailable):
			writeError(r.Context(), w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", err.Error(), true, nil)
		default:
			writeError(r.Context(), w, http.StatusInternalServerError, "INGEST_FAILED", err.Error(), true, nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"tables":   report,
	})
}
