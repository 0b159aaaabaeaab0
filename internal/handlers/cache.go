package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"itinerary-planner/internal/distance"
)

// CacheStatsResponse is the body of GET /api/v1/distance-cache/stats
type CacheStatsResponse struct {
	Memory            distance.CacheStats `json:"memory"`
	StoreEnabled      bool                `json:"store_enabled"`
	PersistentEntries *int                `json:"persistent_entries,omitempty"`
	ProviderEnabled   bool                `json:"provider_enabled"`
	ProviderAvailable bool                `json:"provider_available"`
}

// HandleDistanceCache handles DELETE /api/v1/distance-cache
func (h *Handler) HandleDistanceCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.handleMethodNotAllowed(w, http.MethodDelete)
		return
	}

	if err := h.Estimator.ClearCache(r.Context()); err != nil {
		h.handleInternalError(w, err)
		return
	}
	h.logger().Info("distance cache cleared by operator")
	w.WriteHeader(http.StatusNoContent)
}

// HandleDistanceCacheStats handles GET /api/v1/distance-cache/stats
func (h *Handler) HandleDistanceCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.handleMethodNotAllowed(w, http.MethodGet)
		return
	}

	resp := CacheStatsResponse{
		Memory:            h.Estimator.CacheStats(),
		StoreEnabled:      h.Estimator.HasStore(),
		ProviderEnabled:   h.Estimator.HasProvider(),
		ProviderAvailable: h.Estimator.ProviderAvailable(),
	}
	if resp.StoreEnabled {
		n, err := h.Estimator.PersistentEntries(r.Context())
		if err != nil {
			h.logger().Warn("failed to count persistent distance cache", zap.Error(err))
		} else {
			resp.PersistentEntries = &n
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}
