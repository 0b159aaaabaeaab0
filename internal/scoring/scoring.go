package scoring

import (
	"context"
	"fmt"
	"math"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

const (
	// distanceHorizonKm is the leg length at which the distance score reaches 0
	distanceHorizonKm = 100.0
	// budgetShare is the fraction of the remaining budget one place may use before scoring 0
	budgetShare = 0.3
	// reviewSaturation is the review count at which the review component saturates
	reviewSaturation = 100.0
	neutralScore     = 0.5
)

// TravelEstimator is the subset of the estimator scoring needs
type TravelEstimator interface {
	Estimate(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (distance.Estimate, error)
}

// State is the route-building state a candidate is scored against
type State struct {
	Current           *models.Coordinates
	Categories        map[models.Category]int
	RemainingBudget   *float64
	PreferredDuration float64
	Mode              models.TravelMode
}

// Breakdown holds the per-criterion scores in [0,1], the weighted total and the
// leg estimate from the current location (zero without one)
type Breakdown struct {
	Rating     float64           `json:"rating"`
	Distance   float64           `json:"distance"`
	TimeFit    float64           `json:"time_fit"`
	CostFit    float64           `json:"cost_fit"`
	Popularity float64           `json:"popularity"`
	Diversity  float64           `json:"diversity"`
	Total      float64           `json:"total"`
	Travel     distance.Estimate `json:"travel"`
}

// Model scores candidate places for the greedy constructor
type Model struct {
	estimator TravelEstimator
	weights   models.Weights
}

// NewModel creates a scoring model. Weights need not sum to 1.
func NewModel(estimator TravelEstimator, weights models.Weights) *Model {
	return &Model{estimator: estimator, weights: weights}
}

// Weights returns the configured weights
func (m *Model) Weights() models.Weights {
	return m.weights
}

// Score rates a place against the current state
func (m *Model) Score(ctx context.Context, place *models.Place, state State) (Breakdown, error) {
	var b Breakdown

	b.Rating = RatingScore(place.Rating)

	b.Distance = neutralScore
	if state.Current != nil {
		est, err := m.estimator.Estimate(ctx, *state.Current, place.GetCoords(), state.Mode)
		if err != nil {
			return Breakdown{}, fmt.Errorf("failed to estimate travel to %s: %w", place.ID, err)
		}
		b.Travel = est
		b.Distance = DistanceScore(est.DistanceKm)
	}

	b.TimeFit = TimeFitScore(place.VisitDuration, state.PreferredDuration)
	b.CostFit = CostFitScore(place.EntryCost, state.RemainingBudget)
	b.Popularity = PopularityScore(place.Rating, place.ReviewCount)
	b.Diversity = DiversityScore(state.Categories[place.Category])

	b.Total = m.total(b)
	return b, nil
}

func (m *Model) total(b Breakdown) float64 {
	w := m.weights
	sum := w.Sum()
	if sum <= 0 {
		return 0
	}
	weighted := w.Rating*b.Rating +
		w.Distance*b.Distance +
		w.TimeFit*b.TimeFit +
		w.CostFit*b.CostFit +
		w.Popularity*b.Popularity +
		w.Diversity*b.Diversity
	return weighted / sum
}

// RatingScore maps a 1–5 rating onto [0,1]
func RatingScore(rating float64) float64 {
	return clamp01((rating - 1) / 4)
}

// DistanceScore decays linearly to 0 at 100 km
func DistanceScore(km float64) float64 {
	return math.Max(0, 1-km/distanceHorizonKm)
}

// TimeFitScore rewards visit durations close to the preferred one; 0.5 when none is set
func TimeFitScore(visit, preferred float64) float64 {
	if preferred <= 0 {
		return neutralScore
	}
	return math.Max(0, 1-math.Abs(visit-preferred)/preferred)
}

// CostFitScore compares the entry cost to 30% of the remaining budget; 1 when unbounded
func CostFitScore(cost float64, remaining *float64) float64 {
	if remaining == nil {
		return 1
	}
	if *remaining <= 0 {
		if cost == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-cost/(*remaining*budgetShare))
}

// PopularityScore blends rating with a log-scaled review count
func PopularityScore(rating float64, reviews int) float64 {
	if reviews < 0 {
		reviews = 0
	}
	reviewScore := math.Min(1, math.Log1p(float64(reviews))/math.Log1p(reviewSaturation))
	return 0.7*RatingScore(rating) + 0.3*reviewScore
}

// DiversityScore is 1 for an unseen category and decays by 0.25 per prior visit, floored at 0.2
func DiversityScore(seen int) float64 {
	if seen <= 0 {
		return 1
	}
	return math.Max(0.2, 1-0.25*float64(seen))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
