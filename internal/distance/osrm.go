package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"itinerary-planner/internal/models"
)

// DefaultOSRMBaseURL is the public OSRM demo server
const DefaultOSRMBaseURL = "https://router.project-osrm.org"

// maxOSRMCoordinates is the maximum number of coordinates OSRM public API accepts
const maxOSRMCoordinates = 80

// OSRMProvider fetches distance matrices from an OSRM /table endpoint
type OSRMProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// NewOSRMProvider creates an OSRM client. The HTTP timeout is a safety net;
// callers bound each request with their own context deadline.
func NewOSRMProvider(baseURL string, logger *zap.Logger) *OSRMProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OSRMProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(zap.String("component", "osrm")),
	}
}

func osrmProfile(mode models.TravelMode) string {
	switch mode {
	case models.ModeWalking:
		return "foot"
	case models.ModeCycling:
		return "bike"
	default:
		return "driving"
	}
}

// MaxCoordinates implements CoordinateLimiter
func (p *OSRMProvider) MaxCoordinates() int {
	return maxOSRMCoordinates
}

// Matrix implements RoutingProvider
func (p *OSRMProvider) Matrix(ctx context.Context, origins, destinations []models.Coordinates, mode models.TravelMode) ([][]Leg, error) {
	if len(origins) == 0 || len(destinations) == 0 {
		return [][]Leg{}, nil
	}
	if len(origins)+len(destinations) > maxOSRMCoordinates {
		return nil, &ErrProviderFailed{
			Provider: "osrm",
			Reason:   fmt.Sprintf("too many coordinates: %d > %d", len(origins)+len(destinations), maxOSRMCoordinates),
		}
	}

	coords := make([]string, 0, len(origins)+len(destinations))
	for _, c := range origins {
		coords = append(coords, fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat))
	}
	for _, c := range destinations {
		coords = append(coords, fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat))
	}

	sources := make([]string, len(origins))
	for i := range origins {
		sources[i] = strconv.Itoa(i)
	}
	dests := make([]string, len(destinations))
	for j := range destinations {
		dests[j] = strconv.Itoa(len(origins) + j)
	}

	queryURL := fmt.Sprintf("%s/table/v1/%s/%s?annotations=distance,duration&sources=%s&destinations=%s",
		p.baseURL, osrmProfile(mode), strings.Join(coords, ";"),
		strings.Join(sources, ";"), strings.Join(dests, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrProviderFailed{Provider: "osrm", Reason: err.Error()}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("table request failed", zap.Int("origins", len(origins)), zap.Int("destinations", len(destinations)), zap.Error(err))
		return nil, &ErrProviderFailed{Provider: "osrm", Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Warn("table request rejected", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, &ErrProviderFailed{
			Provider: "osrm",
			Reason:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var tableResp osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tableResp); err != nil {
		return nil, &ErrProviderFailed{Provider: "osrm", Reason: fmt.Sprintf("decode response: %v", err)}
	}

	if tableResp.Code != "Ok" {
		return nil, &ErrProviderFailed{Provider: "osrm", Reason: fmt.Sprintf("OSRM error: %s %s", tableResp.Code, tableResp.Message)}
	}

	if len(tableResp.Distances) != len(origins) || len(tableResp.Durations) != len(origins) {
		return nil, &ErrProviderFailed{Provider: "osrm", Reason: "matrix shape mismatch"}
	}

	legs := make([][]Leg, len(origins))
	for i := range origins {
		if len(tableResp.Distances[i]) != len(destinations) || len(tableResp.Durations[i]) != len(destinations) {
			return nil, &ErrProviderFailed{Provider: "osrm", Reason: "matrix shape mismatch"}
		}
		legs[i] = make([]Leg, len(destinations))
		for j := range destinations {
			dist, dur := tableResp.Distances[i][j], tableResp.Durations[i][j]
			if dist == nil || dur == nil {
				return nil, &ErrProviderFailed{
					Provider: "osrm",
					Reason:   fmt.Sprintf("no route between origin %d and destination %d", i, j),
				}
			}
			legs[i][j] = Leg{
				DistanceKm:  *dist / 1000,
				DurationMin: *dur / 60,
			}
		}
	}

	p.logger.Debug("table response", zap.Int("origins", len(origins)), zap.Int("destinations", len(destinations)))
	return legs, nil
}
