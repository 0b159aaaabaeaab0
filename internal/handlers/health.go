package handlers

import (
	"net/http"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	storeStatus := "disabled"
	if h.Store != nil {
		storeStatus = "connected"
		if err := h.Store.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			storeStatus = "error"
		}
	}

	providerStatus := "disabled"
	if h.Estimator.HasProvider() {
		providerStatus = "available"
		if !h.Estimator.ProviderAvailable() {
			status = "degraded"
			providerStatus = "cooldown"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"version":  Version,
		"store":    storeStatus,
		"provider": providerStatus,
	})
}
