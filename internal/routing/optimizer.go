package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"itinerary-planner/internal/metrics"
	"itinerary-planner/internal/models"
	"itinerary-planner/internal/scoring"
)

// constraintTolerance absorbs float drift when checking a finished route
const constraintTolerance = 1e-9

// Request is the input of a single optimize call
type Request struct {
	Places      []models.Place     `json:"places"`
	Constraints models.Constraints `json:"constraints"`
	Weights     models.Weights     `json:"weights"`
	Algorithm   Algorithm          `json:"algorithm"`
}

// Result is the output of a single optimize call
type Result struct {
	RequestID     uuid.UUID           `json:"request_id"`
	Route         models.Route        `json:"route"`
	Metrics       models.RouteMetrics `json:"metrics"`
	AlgorithmUsed Algorithm           `json:"algorithm_used"`
	Diagnostics   Diagnostics         `json:"diagnostics"`
}

// Diagnostics reports how the call went without turning outcomes into errors
type Diagnostics struct {
	PlacesProcessed      int            `json:"places_processed"`
	PlacesSelected       int            `json:"places_selected"`
	Feasible             bool           `json:"feasible"`
	ConstraintsSatisfied bool           `json:"constraints_satisfied"`
	Reason               string         `json:"reason,omitempty"`
	Rejections           map[string]int `json:"rejections,omitempty"`
	Degraded             bool           `json:"degraded"`
	FallbackLegs         int            `json:"fallback_legs"`
	Generations          int            `json:"generations,omitempty"`
	FinalFitness         float64        `json:"final_fitness,omitempty"`
	FailedEvaluations    int            `json:"failed_evaluations,omitempty"`
	Cancelled            bool           `json:"cancelled"`
	Notes                []string       `json:"notes,omitempty"`
	Elapsed              time.Duration  `json:"elapsed_ns"`
}

// Optimizer is the single entry point for route optimization
type Optimizer struct {
	estimator        TravelEstimator
	evaluator        *Evaluator
	logger           *zap.Logger
	defaultAlgorithm Algorithm
	defaultWeights   models.Weights
	defaultGenetic   models.GeneticParams
}

// OptimizerOption configures an Optimizer
type OptimizerOption func(*Optimizer)

// WithDefaultAlgorithm sets the algorithm used when a request names none
func WithDefaultAlgorithm(a Algorithm) OptimizerOption {
	return func(o *Optimizer) { o.defaultAlgorithm = a }
}

// WithDefaultWeights sets the weights used when a request supplies none
func WithDefaultWeights(w models.Weights) OptimizerOption {
	return func(o *Optimizer) { o.defaultWeights = w }
}

// WithDefaultGenetic sets genetic parameters used for fields a request leaves at zero
func WithDefaultGenetic(p models.GeneticParams) OptimizerOption {
	return func(o *Optimizer) { o.defaultGenetic = p.WithDefaults() }
}

// WithOptimizerLogger sets the logger
func WithOptimizerLogger(l *zap.Logger) OptimizerOption {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOptimizer creates an optimizer over a shared estimator
func NewOptimizer(estimator TravelEstimator, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		estimator:        estimator,
		evaluator:        NewEvaluator(estimator),
		logger:           zap.NewNop(),
		defaultAlgorithm: AlgorithmAdvancedGreedy,
		defaultWeights:   models.DefaultWeights(),
		defaultGenetic:   models.DefaultGeneticParams(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "routing"))
	return o
}

// Optimize validates the request, runs the selected strategy and evaluates the result.
// Only malformed input is an error (*models.ValidationError); infeasibility, provider
// failure and cancellation are reported through Diagnostics.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	requestID := uuid.New()

	if err := models.ValidateInput(req.Places, req.Constraints, req.Weights); err != nil {
		metrics.OptimizationsTotal.WithLabelValues(string(o.resolveAlgorithm(req.Algorithm, nil)), "invalid").Inc()
		return nil, err
	}

	var notes []string
	algorithm := o.resolveAlgorithm(req.Algorithm, &notes)
	constraints := o.applyDefaults(req.Constraints)
	weights := req.Weights
	if weights.IsZero() {
		weights = o.defaultWeights
	}

	logger := o.logger.With(zap.String("request_id", requestID.String()), zap.String("algorithm", string(algorithm)))
	logger.Info("optimization started",
		zap.Int("places", len(req.Places)),
		zap.Float64("max_duration", constraints.MaxDuration),
		zap.String("mode", string(constraints.Mode)))

	if o.estimator.HasProvider() {
		if err := o.estimator.Prewarm(ctx, prewarmPoints(req.Places, constraints.Start), constraints.Mode); err != nil {
			logger.Warn("distance prewarm failed", zap.Error(err))
		}
	}

	strategy := o.strategy(algorithm, weights, constraints.Genetic.Seed, logger)
	cons, err := strategy.Build(ctx, req.Places, constraints)
	if err != nil {
		metrics.OptimizationsTotal.WithLabelValues(string(algorithm), "error").Inc()
		return nil, &ErrRoutingFailed{Algorithm: algorithm, Reason: "strategy failed", Err: err}
	}

	routeMetrics, err := o.evaluator.Evaluate(context.WithoutCancel(ctx), cons.Route.Places, constraints.Start, constraints.Mode)
	if err != nil {
		metrics.OptimizationsTotal.WithLabelValues(string(algorithm), "error").Inc()
		return nil, &ErrRoutingFailed{Algorithm: algorithm, Reason: "evaluation failed", Err: err}
	}

	diag := Diagnostics{
		PlacesProcessed:      cons.Report.Processed,
		PlacesSelected:       cons.Report.Selected,
		Feasible:             len(cons.Route.Places) > 0,
		ConstraintsSatisfied: satisfiesConstraints(cons.Route.Places, routeMetrics, &constraints),
		Reason:               cons.Report.Reason,
		Rejections:           cons.Report.Rejections,
		Degraded:             o.estimator.HasProvider() && routeMetrics.FallbackLegs > 0,
		FallbackLegs:         routeMetrics.FallbackLegs,
		Generations:          cons.Report.Generations,
		FinalFitness:         cons.Report.FinalFitness,
		FailedEvaluations:    cons.Report.FailedEvaluations,
		Cancelled:            cons.Report.Cancelled,
		Notes:                notes,
		Elapsed:              time.Since(started),
	}
	if diag.Degraded {
		diag.Notes = append(diag.Notes, fmt.Sprintf("routing provider unavailable for %d legs; fallback estimates used", routeMetrics.FallbackLegs))
	}

	outcome := "feasible"
	switch {
	case diag.Cancelled:
		outcome = "cancelled"
	case !diag.Feasible:
		outcome = "empty"
	}
	metrics.OptimizationsTotal.WithLabelValues(string(algorithm), outcome).Inc()
	metrics.OptimizationDuration.WithLabelValues(string(algorithm)).Observe(diag.Elapsed.Seconds())

	logger.Info("optimization finished",
		zap.String("outcome", outcome),
		zap.Int("selected", diag.PlacesSelected),
		zap.Float64("total_time", routeMetrics.TotalTime),
		zap.Float64("total_distance_km", routeMetrics.TotalDistance),
		zap.Bool("degraded", diag.Degraded),
		zap.Duration("elapsed", diag.Elapsed))

	return &Result{
		RequestID:     requestID,
		Route:         cons.Route,
		Metrics:       routeMetrics,
		AlgorithmUsed: algorithm,
		Diagnostics:   diag,
	}, nil
}

// resolveAlgorithm maps the requested name onto the closed set; unknown names
// run AdvancedGreedy and leave a note
func (o *Optimizer) resolveAlgorithm(requested Algorithm, notes *[]string) Algorithm {
	if requested == "" {
		return o.defaultAlgorithm
	}
	algorithm, ok := ParseAlgorithm(string(requested))
	if !ok && notes != nil {
		*notes = append(*notes, fmt.Sprintf("unknown algorithm %q; used %s", requested, algorithm))
	}
	return algorithm
}

func (o *Optimizer) applyDefaults(c models.Constraints) models.Constraints {
	c.Genetic = c.Genetic.Merge(o.defaultGenetic)
	return c.WithDefaults()
}

func (o *Optimizer) strategy(algorithm Algorithm, weights models.Weights, seed uint64, logger *zap.Logger) Strategy {
	model := scoring.NewModel(o.estimator, weights)

	switch algorithm {
	case AlgorithmNearestNeighbor:
		return NewNearestNeighbor(o.estimator, logger)
	case AlgorithmGenetic:
		return NewGenetic(o.estimator, NewRand(seed), logger,
			NewAdvancedGreedy(o.estimator, model, logger),
			NewNearestNeighbor(o.estimator, logger))
	default:
		return NewAdvancedGreedy(o.estimator, model, logger)
	}
}

func prewarmPoints(places []models.Place, start *models.Coordinates) []models.Coordinates {
	points := make([]models.Coordinates, 0, len(places)+1)
	if start != nil {
		points = append(points, *start)
	}
	for i := range places {
		points = append(points, places[i].GetCoords())
	}
	return points
}

// satisfiesConstraints checks a finished route against every hard constraint
func satisfiesConstraints(places []models.Place, m models.RouteMetrics, c *models.Constraints) bool {
	for i := range places {
		if !c.Accessible(&places[i]) {
			return false
		}
	}
	if m.TotalTime > c.MaxDuration+constraintTolerance {
		return false
	}
	if c.MaxBudget != nil && m.TotalCost > *c.MaxBudget+constraintTolerance {
		return false
	}
	return true
}

// IsValidationError reports whether err is an input validation failure
func IsValidationError(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr)
}
