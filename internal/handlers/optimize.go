package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"itinerary-planner/internal/models"
	"itinerary-planner/internal/routing"
)

// OptimizeRequest is the body of POST /api/v1/optimize
type OptimizeRequest struct {
	Places      []models.Place     `json:"places"`
	Constraints models.Constraints `json:"constraints"`
	Weights     models.Weights     `json:"weights"`
	Algorithm   string             `json:"algorithm"`
	// Seed overrides constraints.genetic.seed
	Seed *uint64 `json:"seed,omitempty"`
}

// HandleOptimize handles POST /api/v1/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.handleMethodNotAllowed(w, http.MethodPost)
		return
	}

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large", nil)
			return
		}
		h.logger().Debug("invalid optimize body", zap.Error(err))
		h.handleValidationError(w, "Invalid request body", nil)
		return
	}

	constraints := req.Constraints
	switch {
	case req.Seed != nil:
		constraints.Genetic.Seed = *req.Seed
	case constraints.Genetic.Seed == 0 && h.FixedSeed != 0:
		constraints.Genetic.Seed = h.FixedSeed
	case constraints.Genetic.Seed == 0:
		constraints.Genetic.Seed = uint64(h.now().UnixNano())
	}

	res, err := h.Optimizer.Optimize(r.Context(), routing.Request{
		Places:      req.Places,
		Constraints: constraints,
		Weights:     req.Weights,
		Algorithm:   routing.Algorithm(req.Algorithm),
	})
	if err != nil {
		h.handleOptimizeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}
