package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-planner/internal/distance"
	"itinerary-planner/internal/models"
)

type stubEstimator struct {
	est   distance.Estimate
	err   error
	calls int
}

func (s *stubEstimator) Estimate(ctx context.Context, origin, dest models.Coordinates, mode models.TravelMode) (distance.Estimate, error) {
	s.calls++
	return s.est, s.err
}

func budget(v float64) *float64 { return &v }

func TestCriterionScores(t *testing.T) {
	assert.Equal(t, 0.0, RatingScore(1))
	assert.Equal(t, 1.0, RatingScore(5))
	assert.InDelta(t, 0.75, RatingScore(4), 1e-12)

	assert.Equal(t, 1.0, DistanceScore(0))
	assert.InDelta(t, 0.75, DistanceScore(25), 1e-12)
	assert.Equal(t, 0.0, DistanceScore(150))

	assert.Equal(t, 0.5, TimeFitScore(90, 0))
	assert.Equal(t, 1.0, TimeFitScore(60, 60))
	assert.InDelta(t, 0.5, TimeFitScore(90, 60), 1e-12)
	assert.Equal(t, 0.0, TimeFitScore(200, 60))

	assert.Equal(t, 1.0, CostFitScore(500, nil))
	assert.Equal(t, 1.0, CostFitScore(0, budget(0)))
	assert.Equal(t, 0.0, CostFitScore(5, budget(0)))
	assert.InDelta(t, 0.5, CostFitScore(15, budget(100)), 1e-12)
	assert.Equal(t, 0.0, CostFitScore(40, budget(100)))

	assert.Equal(t, 1.0, DiversityScore(0))
	assert.Equal(t, 0.75, DiversityScore(1))
	assert.Equal(t, 0.5, DiversityScore(2))
	assert.Equal(t, 0.2, DiversityScore(4))
	assert.Equal(t, 0.2, DiversityScore(10))
}

func TestPopularityScore(t *testing.T) {
	assert.InDelta(t, 0.7, PopularityScore(5, 0), 1e-12)
	assert.InDelta(t, 1.0, PopularityScore(5, 100), 1e-12)
	assert.InDelta(t, 1.0, PopularityScore(5, 100000), 1e-12)

	tenReviews := 0.3 * math.Log(11) / math.Log(101)
	assert.InDelta(t, tenReviews, PopularityScore(1, 10), 1e-12)
}

func TestScoreWithoutCurrentLocation(t *testing.T) {
	est := &stubEstimator{}
	model := NewModel(est, models.DefaultWeights())

	place := models.Place{ID: "a", Category: models.CategoryMuseum, Rating: 5, ReviewCount: 100, VisitDuration: 60}
	b, err := model.Score(context.Background(), &place, State{})
	require.NoError(t, err)

	assert.Equal(t, 0, est.calls)
	assert.Equal(t, 0.5, b.Distance)
	assert.Equal(t, 0.5, b.TimeFit)
	assert.Equal(t, 1.0, b.CostFit)
	assert.Equal(t, distance.Estimate{}, b.Travel)

	// 0.3*1 + 0.25*0.5 + 0.2*0.5 + 0.15*1 + 0.1*1
	assert.InDelta(t, 0.775, b.Total, 1e-12)
}

func TestScoreUsesTravelEstimate(t *testing.T) {
	est := &stubEstimator{est: distance.Estimate{DistanceKm: 50, DurationMin: 75}}
	model := NewModel(est, models.Weights{Distance: 1})

	place := models.Place{ID: "a", Category: models.CategoryPark, Rating: 3, VisitDuration: 30}
	b, err := model.Score(context.Background(), &place, State{Current: &models.Coordinates{Lat: 1, Lng: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, est.calls)
	assert.InDelta(t, 0.5, b.Distance, 1e-12)
	assert.InDelta(t, 0.5, b.Total, 1e-12)
	assert.Equal(t, 75.0, b.Travel.DurationMin)
}

func TestScoreNormalizesWeights(t *testing.T) {
	place := models.Place{ID: "a", Category: models.CategoryPark, Rating: 4, VisitDuration: 30}

	unit := NewModel(&stubEstimator{}, models.Weights{Rating: 0.5, Diversity: 0.5})
	doubled := NewModel(&stubEstimator{}, models.Weights{Rating: 2, Diversity: 2})

	a, err := unit.Score(context.Background(), &place, State{})
	require.NoError(t, err)
	b, err := doubled.Score(context.Background(), &place, State{})
	require.NoError(t, err)

	assert.InDelta(t, a.Total, b.Total, 1e-12)
	assert.InDelta(t, (0.75+1)/2, a.Total, 1e-12)
}

func TestScoreZeroWeightsGivesZero(t *testing.T) {
	model := NewModel(&stubEstimator{}, models.Weights{})
	place := models.Place{ID: "a", Category: models.CategoryPark, Rating: 5, VisitDuration: 30}

	b, err := model.Score(context.Background(), &place, State{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Total)
}

func TestScoreDiversityTracksCategories(t *testing.T) {
	model := NewModel(&stubEstimator{}, models.Weights{Diversity: 1})
	place := models.Place{ID: "a", Category: models.CategoryMuseum, Rating: 5, VisitDuration: 30}

	b, err := model.Score(context.Background(), &place, State{
		Categories: map[models.Category]int{models.CategoryMuseum: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, b.Total)
}

func TestScorePropagatesEstimatorError(t *testing.T) {
	model := NewModel(&stubEstimator{err: errors.New("boom")}, models.DefaultWeights())
	place := models.Place{ID: "a", Category: models.CategoryPark, Rating: 5, VisitDuration: 30}

	_, err := model.Score(context.Background(), &place, State{Current: &models.Coordinates{}})
	assert.Error(t, err)
}

func TestScoreIsDeterministic(t *testing.T) {
	est := distance.NewEstimator(distance.NewMemoryCache(10))
	model := NewModel(est, models.DefaultWeights())
	place := models.Place{ID: "a", Category: models.CategoryPark, Lat: 48.85, Lng: 2.35, Rating: 4.2, ReviewCount: 37, EntryCost: 8, VisitDuration: 50}
	state := State{Current: &models.Coordinates{Lat: 48.86, Lng: 2.33}, RemainingBudget: budget(60), PreferredDuration: 45}

	first, err := model.Score(context.Background(), &place, state)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := model.Score(context.Background(), &place, state)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.GreaterOrEqual(t, first.Total, 0.0)
	assert.LessOrEqual(t, first.Total, 1.0)
}
