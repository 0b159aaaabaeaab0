package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

// NearestNeighbor always moves to the closest remaining place. It applies no
// feasibility filter; the optimizer reports whether the result fits the constraints.
type NearestNeighbor struct {
	estimator TravelEstimator
	logger    *zap.Logger
}

// NewNearestNeighbor creates the nearest-neighbour constructor
func NewNearestNeighbor(estimator TravelEstimator, logger *zap.Logger) *NearestNeighbor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NearestNeighbor{estimator: estimator, logger: logger}
}

// Build implements Strategy. Without a start location the first input place is visited first.
func (n *NearestNeighbor) Build(ctx context.Context, places []models.Place, c models.Constraints) (*Construction, error) {
	n.logger.Debug("nearest-neighbour construction started", zap.Int("places", len(places)))

	state := newRouteState(c.Start)
	remaining := make([]int, len(places))
	for i := range remaining {
		remaining[i] = i
	}

	cancelled := false
	for len(remaining) > 0 {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		bestPos := -1
		var bestKm float64
		var bestLeg distance.Estimate

		for pos, idx := range remaining {
			leg, err := state.legTo(ctx, n.estimator, &places[idx], c.Mode)
			if err != nil {
				return nil, fmt.Errorf("failed to estimate leg to %s: %w", places[idx].ID, err)
			}
			if bestPos == -1 || leg.DistanceKm < bestKm {
				bestPos = pos
				bestKm = leg.DistanceKm
				bestLeg = leg
			}
			if state.current == nil {
				// every leg is zero; input order decides
				break
			}
		}

		idx := remaining[bestPos]
		state.add(idx, &places[idx], bestLeg)
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	report := Report{Cancelled: cancelled}
	report.Reason = selectionReason(len(state.order), len(places), cancelled)

	n.logger.Debug("nearest-neighbour construction finished", zap.Int("selected", len(state.order)), zap.Bool("cancelled", cancelled))

	return state.construction(places, report), nil
}
