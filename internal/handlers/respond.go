package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
)

// apiResponse is the envelope every successful endpoint answers with.
type apiResponse struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// apiError is the body returned for every failed request.
type apiError struct {
	Message string `json:"message"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	respondJSON(ctx, w, status, apiResponse{Data: data, Message: message})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, apiError{Message: message})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}
