package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itinerary-planner/internal/metrics"
	"itinerary-planner/internal/models"
)

const (
	// MinFitness keeps every individual selectable
	MinFitness = 0.01
	// parallelFitnessThreshold is the population size from which fitness runs on the worker pool
	parallelFitnessThreshold = 16
	// DefaultSeed is used when no seed is supplied so runs stay reproducible
	DefaultSeed uint64 = 0x5eed_1a7e_c0ff_ee00
)

var errMalformedIndividual = errors.New("malformed individual")

// NewRand returns a PCG source for seed; 0 selects DefaultSeed
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Genetic refines visit order and selection over permutations of the whole pool.
// Each permutation decodes to the feasible prefix a greedy walk accepts.
type Genetic struct {
	estimator TravelEstimator
	evaluator *Evaluator
	seeds     []Strategy
	rng       *rand.Rand
	logger    *zap.Logger

	// fitnessHook replaces fitness evaluation in tests
	fitnessHook func(ctx context.Context, perm []int) (float64, error)
}

// NewGenetic creates the refiner. Seed strategies (normally AdvancedGreedy and
// NearestNeighbor) contribute one individual each when the pool has two or more places.
func NewGenetic(estimator TravelEstimator, rng *rand.Rand, logger *zap.Logger, seeds ...Strategy) *Genetic {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Genetic{
		estimator: estimator,
		evaluator: NewEvaluator(estimator),
		seeds:     seeds,
		rng:       rng,
		logger:    logger,
	}
}

type geneticRun struct {
	g      *Genetic
	places []models.Place
	c      models.Constraints
	params models.GeneticParams
	failed atomic.Int64
}

// Build implements Strategy
func (g *Genetic) Build(ctx context.Context, places []models.Place, c models.Constraints) (*Construction, error) {
	params := c.Genetic.WithDefaults()
	run := &geneticRun{g: g, places: places, c: c, params: params}

	if len(places) == 0 {
		state := newRouteState(c.Start)
		return state.construction(places, Report{}), nil
	}

	population, err := run.initPopulation(ctx)
	if err != nil {
		return nil, err
	}
	fitness := run.evaluate(ctx, population)

	bestIdx := argmax(fitness)
	best := slices.Clone(population[bestIdx])
	bestFit := fitness[bestIdx]

	generations, stagnant := 0, 0
	cancelled := false
	for generations < params.Generations {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		population = run.nextGeneration(population, fitness)
		fitness = run.evaluate(ctx, population)
		generations++

		genBest := argmax(fitness)
		if fitness[genBest] > bestFit {
			bestFit = fitness[genBest]
			best = slices.Clone(population[genBest])
			stagnant = 0
		} else {
			stagnant++
			if stagnant >= params.StagnationLimit {
				g.logger.Debug("genetic refiner stagnated", zap.Int("generation", generations))
				break
			}
		}
	}

	state, err := run.decode(ctx, best)
	if err != nil {
		return nil, fmt.Errorf("failed to decode best individual: %w", err)
	}

	failed := int(run.failed.Load())
	metrics.GeneticGenerations.Observe(float64(generations))
	if failed > 0 {
		metrics.GeneticFailedEvaluations.Add(float64(failed))
	}

	report := Report{
		Cancelled:         cancelled,
		Generations:       generations,
		FinalFitness:      bestFit,
		FailedEvaluations: failed,
	}
	if !cancelled {
		report.Rejections = classifyRejections(places, state, &c)
	}
	report.Reason = selectionReason(len(state.order), len(places), cancelled)

	g.logger.Debug("genetic refiner finished",
		zap.Int("generations", generations),
		zap.Float64("fitness", bestFit),
		zap.Int("selected", len(state.order)),
		zap.Int("failed_evaluations", failed))

	return state.construction(places, report), nil
}

func (r *geneticRun) initPopulation(ctx context.Context) ([][]int, error) {
	n := len(r.places)
	size := max(r.params.PopulationSize, 1)
	population := make([][]int, 0, size)

	if n >= 2 {
		for _, seed := range r.g.seeds {
			if len(population) == size {
				break
			}
			cons, err := seed.Build(ctx, r.places, r.c)
			if err != nil {
				return nil, fmt.Errorf("failed to build seed individual: %w", err)
			}
			population = append(population, seedPermutation(cons.Order, n))
		}
	}

	for len(population) < size {
		population = append(population, r.g.rng.Perm(n))
	}
	return population, nil
}

// seedPermutation appends the unselected indices, in input order, to a construction's order
func seedPermutation(order []int, n int) []int {
	perm := make([]int, 0, n)
	used := make([]bool, n)
	for _, idx := range order {
		perm = append(perm, idx)
		used[idx] = true
	}
	for i := 0; i < n; i++ {
		if !used[i] {
			perm = append(perm, i)
		}
	}
	return perm
}

func (r *geneticRun) nextGeneration(population [][]int, fitness []float64) [][]int {
	size := len(population)
	next := make([][]int, 0, size)

	ranked := make([]int, size)
	for i := range ranked {
		ranked[i] = i
	}
	slices.SortStableFunc(ranked, func(a, b int) int {
		switch {
		case fitness[a] > fitness[b]:
			return -1
		case fitness[a] < fitness[b]:
			return 1
		default:
			return 0
		}
	})
	for _, idx := range ranked[:min(*r.params.EliteCount, size)] {
		next = append(next, slices.Clone(population[idx]))
	}

	rng := r.g.rng
	for len(next) < size {
		a := population[r.tournament(fitness)]
		b := population[r.tournament(fitness)]

		var child []int
		if rng.Float64() < *r.params.CrossoverRate {
			child = orderCrossover(a, b, rng)
		} else {
			child = slices.Clone(a)
		}
		if rng.Float64() < *r.params.MutationRate {
			mutate(child, rng)
		}
		next = append(next, child)
	}
	return next
}

// tournament draws TournamentSize individuals with replacement and returns the fittest
func (r *geneticRun) tournament(fitness []float64) int {
	rng := r.g.rng
	best := rng.IntN(len(fitness))
	for i := 1; i < r.params.TournamentSize; i++ {
		if c := rng.IntN(len(fitness)); fitness[c] > fitness[best] {
			best = c
		}
	}
	return best
}

// orderCrossover copies a random segment of a into the child at the same
// positions, then fills the other positions left to right with b's remaining genes
func orderCrossover(a, b []int, rng *rand.Rand) []int {
	n := len(a)
	if n < 2 {
		return slices.Clone(a)
	}

	i, j := rng.IntN(n), rng.IntN(n)
	if i > j {
		i, j = j, i
	}

	child := make([]int, n)
	used := make([]bool, n)
	for k := i; k <= j; k++ {
		child[k] = a[k]
		used[a[k]] = true
	}

	pos := 0
	for _, gene := range b {
		if used[gene] {
			continue
		}
		if pos == i {
			pos = j + 1
		}
		child[pos] = gene
		pos++
	}
	return child
}

// mutate applies a swap of two distinct positions or a segment reversal
// (length ≥ 2) with equal probability, so the order always changes
func mutate(perm []int, rng *rand.Rand) {
	n := len(perm)
	if n < 2 {
		return
	}
	if rng.IntN(2) == 0 {
		i := rng.IntN(n)
		j := rng.IntN(n - 1)
		if j >= i {
			j++
		}
		perm[i], perm[j] = perm[j], perm[i]
		return
	}
	i := rng.IntN(n - 1)
	j := i + 1 + rng.IntN(n-1-i)
	slices.Reverse(perm[i : j+1])
}

func (r *geneticRun) evaluate(ctx context.Context, population [][]int) []float64 {
	fitness := make([]float64, len(population))

	if len(population) < parallelFitnessThreshold || r.params.Workers <= 1 {
		for i, perm := range population {
			fitness[i] = r.safeFitness(ctx, perm)
		}
		return fitness
	}

	var g errgroup.Group
	g.SetLimit(r.params.Workers)
	for i, perm := range population {
		g.Go(func() error {
			fitness[i] = r.safeFitness(ctx, perm)
			return nil
		})
	}
	g.Wait()

	return fitness
}

// safeFitness floors errors and panics to MinFitness so one individual cannot abort a generation
func (r *geneticRun) safeFitness(ctx context.Context, perm []int) (fit float64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.failed.Add(1)
			r.g.logger.Warn("fitness evaluation panicked", zap.Any("panic", rec))
			fit = MinFitness
		}
	}()

	var err error
	if r.g.fitnessHook != nil {
		fit, err = r.g.fitnessHook(ctx, perm)
	} else {
		fit, err = r.fitness(ctx, perm)
	}
	if err != nil {
		r.failed.Add(1)
		r.g.logger.Debug("fitness evaluation failed", zap.Error(err))
		return MinFitness
	}
	return fit
}

func (r *geneticRun) fitness(ctx context.Context, perm []int) (float64, error) {
	state, err := r.decode(ctx, perm)
	if err != nil {
		return 0, err
	}
	if len(state.order) == 0 {
		return MinFitness, nil
	}

	route := state.route(r.places)
	m, err := r.g.evaluator.Evaluate(ctx, route.Places, r.c.Start, r.c.Mode)
	if err != nil {
		return 0, err
	}

	w := r.params.Fitness
	distanceScore := math.Max(0, 1-m.TotalDistance/100)
	timeScore := math.Max(0, 1-math.Abs(m.TotalTime-r.c.MaxDuration)/r.c.MaxDuration)
	ratingScore := (m.AverageRating - 1) / 4
	diversityScore := float64(len(state.categories)) / float64(len(state.order))

	fit := w.Distance*distanceScore + w.Time*timeScore + w.Rating*ratingScore + w.Diversity*diversityScore
	return math.Max(MinFitness, fit), nil
}

// decode walks a permutation: inaccessible places are skipped and the first
// place that breaks the time or budget limit ends the route
func (r *geneticRun) decode(ctx context.Context, perm []int) (*routeState, error) {
	if !isPermutation(perm, len(r.places)) {
		return nil, errMalformedIndividual
	}

	state := newRouteState(r.c.Start)
	for _, idx := range perm {
		p := &r.places[idx]
		if !r.c.Accessible(p) {
			continue
		}
		if r.c.MaxBudget != nil && state.cost+p.EntryCost > *r.c.MaxBudget {
			break
		}
		leg, err := state.legTo(ctx, r.g.estimator, p, r.c.Mode)
		if err != nil {
			return nil, err
		}
		if state.elapsed()+leg.DurationMin+p.VisitDuration > r.c.MaxDuration {
			break
		}
		state.add(idx, p, leg)
	}
	return state, nil
}

func isPermutation(perm []int, n int) bool {
	if len(perm) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
