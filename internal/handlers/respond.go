package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// apiResponse is the uniform success envelope.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the uniform failure envelope. No partial payload ever
// accompanies a failure.
type apiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// listResponse wraps paginated collections.
type listResponse struct {
	Items      any               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeBody(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeBody(ctx, w, status, apiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
	})
}

// respondStoreError translates repository sentinels into the error envelope.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, resource+" already exists")
	default:
		logging.FromContext(ctx).Error("storage failure", "resource", resource, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unexpected server error")
	}
}

func writeBody(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}
