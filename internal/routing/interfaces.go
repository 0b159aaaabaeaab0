package routing

import (
	"context"
	"fmt"
	"strings"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

// Algorithm selects the construction strategy used by the optimizer
type Algorithm string

const (
	AlgorithmAdvancedGreedy  Algorithm = "advancedGreedy"
	AlgorithmNearestNeighbor Algorithm = "nearestNeighbor"
	AlgorithmGenetic         Algorithm = "genetic"
)

// ParseAlgorithm resolves a user-supplied name. Matching ignores case, '-' and '_'.
func ParseAlgorithm(name string) (Algorithm, bool) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	switch normalized {
	case "advancedgreedy", "greedy":
		return AlgorithmAdvancedGreedy, true
	case "nearestneighbor", "nearestneighbour", "nn":
		return AlgorithmNearestNeighbor, true
	case "genetic", "ga":
		return AlgorithmGenetic, true
	default:
		return AlgorithmAdvancedGreedy, false
	}
}

// TravelEstimator is what the strategies need from the distance estimator
type TravelEstimator interface {
	Estimate(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (distance.Estimate, error)
	Prewarm(ctx context.Context, points []models.Coordinates, mode models.TravelMode) error
	HasProvider() bool
}

// Strategy builds an ordered route from a place pool
type Strategy interface {
	Build(ctx context.Context, places []models.Place, c models.Constraints) (*Construction, error)
}

// Construction is a strategy's output. Metrics are the totals the strategy
// tracked while building, not a re-evaluation.
type Construction struct {
	Order   []int
	Route   models.Route
	Metrics models.RouteMetrics
	Report  Report
}

// Report describes how a strategy treated its input
type Report struct {
	Processed         int
	Selected          int
	Rejections        map[string]int
	Reason            string
	Cancelled         bool
	Generations       int
	FinalFitness      float64
	FailedEvaluations int
}

// Rejection reasons for places left out of a route
const (
	RejectTime          = "time"
	RejectBudget        = "budget"
	RejectAccessibility = "accessibility"
)

// ErrRoutingFailed is returned when a strategy cannot run at all
type ErrRoutingFailed struct {
	Algorithm Algorithm
	Reason    string
	Err       error
}

func (e *ErrRoutingFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("routing failed (%s): %s: %v", e.Algorithm, e.Reason, e.Err)
	}
	return fmt.Sprintf("routing failed (%s): %s", e.Algorithm, e.Reason)
}

func (e *ErrRoutingFailed) Unwrap() error {
	return e.Err
}
