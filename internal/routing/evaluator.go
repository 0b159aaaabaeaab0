package routing

import (
	"context"
	"fmt"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

// Evaluator computes aggregate metrics for an ordered route
type Evaluator struct {
	estimator TravelEstimator
}

// NewEvaluator creates a route evaluator
func NewEvaluator(estimator TravelEstimator) *Evaluator {
	return &Evaluator{estimator: estimator}
}

// Evaluate walks the route from start (or from the first place when start is nil)
// and sums visits, legs and costs. An empty route yields zero metrics.
func (e *Evaluator) Evaluate(ctx context.Context, places []models.Place, start *models.Coordinates, mode models.TravelMode) (models.RouteMetrics, error) {
	state := newRouteState(start)
	for i := range places {
		leg, err := state.legTo(ctx, e.estimator, &places[i], mode)
		if err != nil {
			return models.RouteMetrics{}, fmt.Errorf("failed to evaluate leg %d: %w", i, err)
		}
		state.add(i, &places[i], leg)
	}
	return state.metrics(places), nil
}

// routeState holds the running totals shared by every strategy and the evaluator.
// Visit and travel time are kept apart so incremental and batch sums agree exactly.
type routeState struct {
	order        []int
	current      *models.Coordinates
	visitTime    float64
	travelTime   float64
	distanceKm   float64
	cost         float64
	fallbackLegs int
	categories   map[models.Category]int
}

func newRouteState(start *models.Coordinates) *routeState {
	s := &routeState{categories: make(map[models.Category]int)}
	if start != nil {
		c := *start
		s.current = &c
	}
	return s
}

func (s *routeState) elapsed() float64 {
	return s.visitTime + s.travelTime
}

// legTo estimates travel from the current location; zero when there is none yet
func (s *routeState) legTo(ctx context.Context, est TravelEstimator, p *models.Place, mode models.TravelMode) (distance.Estimate, error) {
	if s.current == nil {
		return distance.Estimate{}, nil
	}
	return est.Estimate(ctx, *s.current, p.GetCoords(), mode)
}

func (s *routeState) add(idx int, p *models.Place, leg distance.Estimate) {
	s.order = append(s.order, idx)
	s.visitTime += p.VisitDuration
	s.travelTime += leg.DurationMin
	s.distanceKm += leg.DistanceKm
	s.cost += p.EntryCost
	if leg.IsFallback {
		s.fallbackLegs++
	}
	s.categories[p.Category]++
	coords := p.GetCoords()
	s.current = &coords
}

func (s *routeState) remainingBudget(budget *float64) *float64 {
	if budget == nil {
		return nil
	}
	remaining := *budget - s.cost
	return &remaining
}

func (s *routeState) route(places []models.Place) models.Route {
	route := models.Route{Places: make([]models.Place, len(s.order))}
	for i, idx := range s.order {
		route.Places[i] = places[idx]
	}
	return route
}

func (s *routeState) metrics(places []models.Place) models.RouteMetrics {
	m := models.RouteMetrics{
		PlaceCount:      len(s.order),
		TotalVisitTime:  s.visitTime,
		TotalTravelTime: s.travelTime,
		TotalTime:       s.visitTime + s.travelTime,
		TotalDistance:   s.distanceKm,
		TotalCost:       s.cost,
		FallbackLegs:    s.fallbackLegs,
	}
	if len(s.order) == 0 {
		return m
	}

	var ratingSum float64
	for _, idx := range s.order {
		ratingSum += places[idx].Rating
	}
	m.AverageRating = ratingSum / float64(len(s.order))
	if m.TotalTime > 0 {
		m.Efficiency = float64(len(s.order)) / (m.TotalTime / 60)
	}
	return m
}

func (s *routeState) construction(places []models.Place, report Report) *Construction {
	report.Processed = len(places)
	report.Selected = len(s.order)
	return &Construction{
		Order:   append([]int(nil), s.order...),
		Route:   s.route(places),
		Metrics: s.metrics(places),
		Report:  report,
	}
}

// classifyRejections explains why each unselected place is missing from the route,
// judged against the final state
func classifyRejections(places []models.Place, s *routeState, c *models.Constraints) map[string]int {
	selected := make([]bool, len(places))
	for _, idx := range s.order {
		selected[idx] = true
	}

	rejections := make(map[string]int)
	for i := range places {
		if selected[i] {
			continue
		}
		p := &places[i]
		switch {
		case !c.Accessible(p):
			rejections[RejectAccessibility]++
		case c.MaxBudget != nil && s.cost+p.EntryCost > *c.MaxBudget:
			rejections[RejectBudget]++
		default:
			rejections[RejectTime]++
		}
	}
	return rejections
}

func selectionReason(selected, total int, cancelled bool) string {
	switch {
	case cancelled:
		return "cancelled; returning the best route found so far"
	case total > 0 && selected == 0:
		return "no place fits the time, budget and accessibility constraints"
	case selected < total:
		return fmt.Sprintf("%d of %d places did not fit the constraints", total-selected, total)
	default:
		return ""
	}
}
