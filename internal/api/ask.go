package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sheetqa/sheetqa/internal/answer"
)

type askRequest struct {
	Question string `json:"question"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Asker == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ASK_UNAVAILABLE", "question dependencies are not configured", true, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	envelope, err := deps.Asker.Ask(r.Context(), request.Question)
	if err != nil {
		switch {
		case errors.Is(err, answer.ErrValidationRejected):
			writeError(r.Context(), w, http.StatusBadRequest, "SQL_REJECTED", err.Error(), false, nil)
		case errors.Is(err, answer.ErrUnavailable):
			writeError(r.Context(), w, http.StatusServiceUnavailable, "ASK_UNAVAILABLE", err.Error(), true, nil)
		default:
			writeError(r.Context(), w, http.StatusInternalServerError, "ASK_FAILED", err.Error(), true, nil)
		}
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}
