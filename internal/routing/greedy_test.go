package routing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itinerary-planner/internal/models"
	"itinerary-planner/internal/scoring"
	"itinerary-planner/internal/testutil"
)

func newTestGreedy(t *testing.T, est TravelEstimator) *AdvancedGreedy {
	t.Helper()
	return NewAdvancedGreedy(est, scoring.NewModel(est, models.DefaultWeights()), zaptest.NewLogger(t))
}

func TestAdvancedGreedyEmptyInput(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())

	cons, err := g.Build(context.Background(), nil, dayConstraints(480))
	require.NoError(t, err)

	assert.Empty(t, cons.Route.Places)
	assert.Equal(t, models.RouteMetrics{}, cons.Metrics)
	assert.Equal(t, 0, cons.Report.Processed)
	assert.Empty(t, cons.Report.Reason)
}

func TestAdvancedGreedySinglePlace(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	places := []models.Place{testutil.NewPlace("only", 48.85, 2.35)}

	cons, err := g.Build(context.Background(), places, dayConstraints(480))
	require.NoError(t, err)

	require.Len(t, cons.Route.Places, 1)
	assert.Equal(t, "only", cons.Route.Places[0].ID)
	assert.Equal(t, 0.0, cons.Metrics.TotalDistance)
	assert.Equal(t, 60.0, cons.Metrics.TotalTime)
}

func TestAdvancedGreedyTwoPlacesFiftyKmApart(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())

	a := testutil.NewPlace("a", 0, 0)
	b := testutil.NewPlace("b", fiftyKmLat, 0)
	a.VisitDuration, b.VisitDuration = 90, 90

	cons, err := g.Build(context.Background(), []models.Place{a, b}, dayConstraints(480))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, cons.Route.IDs())
	assert.InDelta(t, 285.0, cons.Metrics.TotalTime, 0.01)
	assert.Equal(t, 2, cons.Report.Selected)
	assert.Empty(t, cons.Report.Reason)
}

func TestAdvancedGreedyZeroBudgetSelectsNothing(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	c := dayConstraints(480)
	c.MaxBudget = testutil.Float64(0)

	places := testutil.GridPlaces(5)
	cons, err := g.Build(context.Background(), places, c)
	require.NoError(t, err)

	assert.Empty(t, cons.Route.Places)
	assert.Equal(t, models.RouteMetrics{}, cons.Metrics)
	assert.Equal(t, map[string]int{RejectBudget: 5}, cons.Report.Rejections)
	assert.NotEmpty(t, cons.Report.Reason)
}

func TestAdvancedGreedyZeroBudgetKeepsFreePlaces(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	c := dayConstraints(480)
	c.MaxBudget = testutil.Float64(0)

	places := testutil.GridPlaces(3)
	places[1].EntryCost = 0

	cons, err := g.Build(context.Background(), places, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1"}, cons.Route.IDs())
}

func TestAdvancedGreedyIdenticalPlacesKeepInputOrder(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())

	places := make([]models.Place, 8)
	for i := range places {
		places[i] = testutil.NewPlace(fmt.Sprintf("same-%d", i), 48.85, 2.35)
	}

	cons, err := g.Build(context.Background(), places, dayConstraints(480))
	require.NoError(t, err)

	want := make([]string, 8)
	for i := range want {
		want[i] = fmt.Sprintf("same-%d", i)
	}
	assert.Equal(t, want, cons.Route.IDs())
}

func TestAdvancedGreedyInsertionFeasibility(t *testing.T) {
	est := newFallbackEstimator()
	g := newTestGreedy(t, est)
	eval := NewEvaluator(est)

	start := models.Coordinates{Lat: 48.8566, Lng: 2.3522}
	tests := []struct {
		name string
		c    models.Constraints
	}{
		{"tight time", models.Constraints{MaxDuration: 200, Start: &start}},
		{"tight budget", models.Constraints{MaxDuration: 480, MaxBudget: testutil.Float64(30)}},
		{"wheelchair", models.Constraints{MaxDuration: 480, RequireWheelchair: true}},
		{"kids and budget", models.Constraints{MaxDuration: 300, RequireKidFriendly: true, MaxBudget: testutil.Float64(25), Start: &start}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c.WithDefaults()
			places := testutil.ParisPlaces()

			cons, err := g.Build(context.Background(), places, c)
			require.NoError(t, err)
			require.NotEmpty(t, cons.Route.Places)

			// every prefix satisfies the constraints current when its last place was inserted
			for k := 1; k <= len(cons.Route.Places); k++ {
				prefix := cons.Route.Places[:k]
				m, err := eval.Evaluate(context.Background(), prefix, c.Start, c.Mode)
				require.NoError(t, err)

				assert.LessOrEqual(t, m.TotalTime, c.MaxDuration+1e-9)
				if c.MaxBudget != nil {
					assert.LessOrEqual(t, m.TotalCost, *c.MaxBudget)
				}
				assert.True(t, c.Accessible(&prefix[k-1]))
			}

			rejected := 0
			for _, n := range cons.Report.Rejections {
				rejected += n
			}
			assert.Equal(t, len(places)-len(cons.Route.Places), rejected)
		})
	}
}

func TestAdvancedGreedyAccessibilityRejections(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	c := dayConstraints(480)
	c.RequireWheelchair = true

	places := testutil.ParisPlaces()
	cons, err := g.Build(context.Background(), places, c)
	require.NoError(t, err)

	assert.NotContains(t, cons.Route.IDs(), "sacre-coeur")
	assert.Equal(t, 1, cons.Report.Rejections[RejectAccessibility])
}

func TestAdvancedGreedyTimeRejections(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())

	places := testutil.GridPlaces(4)
	for i := range places {
		places[i].VisitDuration = 200
	}

	cons, err := g.Build(context.Background(), places, dayConstraints(480))
	require.NoError(t, err)

	assert.Len(t, cons.Route.Places, 2)
	assert.Equal(t, map[string]int{RejectTime: 2}, cons.Report.Rejections)
	assert.Equal(t, "2 of 4 places did not fit the constraints", cons.Report.Reason)
}

func TestAdvancedGreedyPrefersHigherRating(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())

	low := testutil.NewPlace("low", 48.85, 2.35)
	low.Rating = 3
	high := testutil.NewPlace("high", 48.85, 2.35)
	high.Rating = 5

	cons, err := g.Build(context.Background(), []models.Place{low, high}, dayConstraints(480))
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "low"}, cons.Route.IDs())
}

func TestAdvancedGreedyIsDeterministic(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	c := dayConstraints(360)

	first, err := g.Build(context.Background(), testutil.ParisPlaces(), c)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := g.Build(context.Background(), testutil.ParisPlaces(), c)
		require.NoError(t, err)
		assert.Equal(t, first.Route.IDs(), again.Route.IDs())
		assert.Equal(t, first.Metrics, again.Metrics)
	}
}

func TestAdvancedGreedyCancelled(t *testing.T) {
	g := newTestGreedy(t, newFallbackEstimator())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cons, err := g.Build(ctx, testutil.ParisPlaces(), dayConstraints(480))
	require.NoError(t, err)

	assert.True(t, cons.Report.Cancelled)
	assert.Empty(t, cons.Route.Places)
	assert.Nil(t, cons.Report.Rejections)
}

func TestConstructionTotalsMatchEvaluator(t *testing.T) {
	est := newFallbackEstimator()
	eval := NewEvaluator(est)
	start := models.Coordinates{Lat: 48.8566, Lng: 2.3522}

	strategies := map[string]Strategy{
		"greedy":  newTestGreedy(t, est),
		"nearest": NewNearestNeighbor(est, zaptest.NewLogger(t)),
	}
	starts := map[string]*models.Coordinates{"with start": &start, "without start": nil}

	for name, s := range strategies {
		for startName, st := range starts {
			t.Run(name+"/"+startName, func(t *testing.T) {
				c := dayConstraints(420)
				c.Start = st
				c.Mode = models.ModeWalking

				cons, err := s.Build(context.Background(), testutil.ParisPlaces(), c)
				require.NoError(t, err)
				require.NotEmpty(t, cons.Route.Places)

				m, err := eval.Evaluate(context.Background(), cons.Route.Places, c.Start, c.Mode)
				require.NoError(t, err)
				assert.Equal(t, cons.Metrics, m)
			})
		}
	}
}
