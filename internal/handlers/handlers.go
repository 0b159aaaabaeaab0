package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"itinerary-planner/internal/database"
	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
	"itinerary-planner/internal/routing"
)

// DefaultMaxBodyBytes caps optimize request bodies
const DefaultMaxBodyBytes int64 = 4 << 20

// Optimizer runs one optimization
type Optimizer interface {
	Optimize(ctx context.Context, req routing.Request) (*routing.Result, error)
}

// DistanceCache is the operator view of the travel estimator
type DistanceCache interface {
	ClearCache(ctx context.Context) error
	CacheStats() distance.CacheStats
	PersistentEntries(ctx context.Context) (int, error)
	HasStore() bool
	HasProvider() bool
	ProviderAvailable() bool
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Optimizer Optimizer
	Estimator DistanceCache
	// Store is nil when no persistent tier is configured
	Store  database.HealthChecker
	Logger *zap.Logger

	// FixedSeed seeds the genetic refiner when a request carries no seed; 0 seeds from the clock
	FixedSeed    uint64
	MaxBodyBytes int64
	Now          func() time.Time
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger().Warn("failed to encode response", zap.Error(err))
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string, details interface{}) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// handleMethodNotAllowed handles 405 errors
func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
}

// handleOptimizeError maps optimizer errors onto status codes
func (h *Handler) handleOptimizeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		h.handleValidationError(w, verr.Error(), verr.Fields)
		return
	}

	var rerr *routing.ErrRoutingFailed
	if errors.As(err, &rerr) {
		h.logger().Error("routing failed", zap.String("algorithm", string(rerr.Algorithm)), zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, "ROUTING_FAILED", rerr.Reason, map[string]interface{}{
			"algorithm": rerr.Algorithm,
		})
		return
	}

	h.handleInternalError(w, err)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	h.logger().Error("internal error", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}
