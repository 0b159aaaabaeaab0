package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"itinerary-planner/internal/models"
	"itinerary-planner/internal/scoring"
)

// AdvancedGreedy repeatedly appends the best-scoring feasible place
type AdvancedGreedy struct {
	estimator TravelEstimator
	model     *scoring.Model
	logger    *zap.Logger
}

// NewAdvancedGreedy creates the multi-criteria greedy constructor
func NewAdvancedGreedy(estimator TravelEstimator, model *scoring.Model, logger *zap.Logger) *AdvancedGreedy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvancedGreedy{estimator: estimator, model: model, logger: logger}
}

// Build implements Strategy. Candidates are scanned in input order and only a
// strictly higher score replaces the current best, so ties keep the earliest place.
func (g *AdvancedGreedy) Build(ctx context.Context, places []models.Place, c models.Constraints) (*Construction, error) {
	g.logger.Debug("greedy construction started", zap.Int("places", len(places)), zap.Float64("max_duration", c.MaxDuration))

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

		best, bestPos := -1, -1
		var bestScore float64
		var bestBreakdown scoring.Breakdown

		for pos, idx := range remaining {
			p := &places[idx]

			if !c.Accessible(p) {
				continue
			}
			if c.MaxBudget != nil && state.cost+p.EntryCost > *c.MaxBudget {
				continue
			}

			leg, err := state.legTo(ctx, g.estimator, p, c.Mode)
			if err != nil {
				return nil, fmt.Errorf("failed to estimate leg to %s: %w", p.ID, err)
			}
			if state.elapsed()+leg.DurationMin+p.VisitDuration > c.MaxDuration {
				continue
			}

			b, err := g.model.Score(ctx, p, scoring.State{
				Current:           state.current,
				Categories:        state.categories,
				RemainingBudget:   state.remainingBudget(c.MaxBudget),
				PreferredDuration: c.PreferredVisitDuration,
				Mode:              c.Mode,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to score %s: %w", p.ID, err)
			}
			b.Travel = leg

			if best == -1 || b.Total > bestScore {
				best = idx
				bestScore = b.Total
				bestPos = pos
				bestBreakdown = b
			}
		}

		if best == -1 {
			break
		}

		state.add(best, &places[best], bestBreakdown.Travel)
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)

		g.logger.Debug("greedy selected place",
			zap.String("place", places[best].ID),
			zap.Float64("score", bestScore),
			zap.Float64("elapsed", state.elapsed()),
			zap.Float64("cost", state.cost))
	}

	report := Report{Cancelled: cancelled}
	if !cancelled {
		report.Rejections = classifyRejections(places, state, &c)
	}
	report.Reason = selectionReason(len(state.order), len(places), cancelled)

	g.logger.Debug("greedy construction finished",
		zap.Int("selected", len(state.order)),
		zap.Int("processed", len(places)),
		zap.Bool("cancelled", cancelled))

	return state.construction(places, report), nil
}
