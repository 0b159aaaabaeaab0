package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"itinerary-planner/internal/models"
)

func newTestOSRM(t *testing.T, handler http.HandlerFunc) *OSRMProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOSRMProvider(srv.URL, zaptest.NewLogger(t))
}

func TestOSRMMatrixSuccess(t *testing.T) {
	var gotPath, gotQuery string
	p := newTestOSRM(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","distances":[[1500,3000]],"durations":[[120,600]]}`))
	})

	origins := []models.Coordinates{{Lat: 48.8606, Lng: 2.3376}}
	dests := []models.Coordinates{{Lat: 48.8530, Lng: 2.3499}, {Lat: 48.8584, Lng: 2.2945}}

	legs, err := p.Matrix(context.Background(), origins, dests, models.ModeWalking)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	require.Len(t, legs[0], 2)

	assert.InDelta(t, 1.5, legs[0][0].DistanceKm, 1e-9)
	assert.InDelta(t, 2.0, legs[0][0].DurationMin, 1e-9)
	assert.InDelta(t, 3.0, legs[0][1].DistanceKm, 1e-9)
	assert.InDelta(t, 10.0, legs[0][1].DurationMin, 1e-9)

	assert.True(t, strings.HasPrefix(gotPath, "/table/v1/foot/"))
	assert.Contains(t, gotPath, "2.337600,48.860600;2.349900,48.853000;2.294500,48.858400")
	assert.Contains(t, gotQuery, "sources=0")
	assert.Contains(t, gotQuery, "destinations=1;2")
	assert.Contains(t, gotQuery, "annotations=distance,duration")
}

func TestOSRMProfiles(t *testing.T) {
	assert.Equal(t, "driving", osrmProfile(models.ModeDriving))
	assert.Equal(t, "driving", osrmProfile(""))
	assert.Equal(t, "foot", osrmProfile(models.ModeWalking))
	assert.Equal(t, "bike", osrmProfile(models.ModeCycling))
}

func TestOSRMMatrixFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusTooManyRequests, `slow down`, "HTTP 429"},
		{"bad json", http.StatusOK, `{`, "decode response"},
		{"osrm error code", http.StatusOK, `{"code":"InvalidQuery","message":"bad"}`, "InvalidQuery"},
		{"shape mismatch", http.StatusOK, `{"code":"Ok","distances":[],"durations":[]}`, "shape mismatch"},
		{"unroutable pair", http.StatusOK, `{"code":"Ok","distances":[[null]],"durations":[[null]]}`, "no route"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOSRM(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Matrix(context.Background(),
				[]models.Coordinates{{Lat: 1, Lng: 1}}, []models.Coordinates{{Lat: 2, Lng: 2}}, models.ModeDriving)
			require.Error(t, err)

			var perr *ErrProviderFailed
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "osrm", perr.Provider)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOSRMMatrixTooManyCoordinates(t *testing.T) {
	called := false
	p := newTestOSRM(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	points := make([]models.Coordinates, 41)
	_, err := p.Matrix(context.Background(), points, points, models.ModeDriving)

	require.Error(t, err)
	assert.False(t, called)
}

func TestOSRMMatrixEmpty(t *testing.T) {
	p := NewOSRMProvider("http://127.0.0.1:1", nil)

	legs, err := p.Matrix(context.Background(), nil, []models.Coordinates{{Lat: 1, Lng: 1}}, models.ModeDriving)
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestOSRMMatrixHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	p := newTestOSRM(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Matrix(ctx, []models.Coordinates{{Lat: 1, Lng: 1}}, []models.Coordinates{{Lat: 2, Lng: 2}}, models.ModeDriving)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
