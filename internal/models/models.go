package models

import (
	"fmt"
	"math"
)

// CoordinatePrecision is the number of decimal places used when keying coordinates
const CoordinatePrecision = 6

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Valid reports whether the point lies within latitude/longitude bounds
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return math.Abs(c.Lat) <= 90 && math.Abs(c.Lng) <= 180
}

// RoundCoordinate rounds a coordinate to CoordinatePrecision decimal places (~0.1m)
func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Rounded returns the point rounded to CoordinatePrecision
func (c Coordinates) Rounded() Coordinates {
	return Coordinates{Lat: RoundCoordinate(c.Lat), Lng: RoundCoordinate(c.Lng)}
}

// Category is a place category tag
type Category string

const (
	CategoryHistorical    Category = "historical"
	CategoryReligious     Category = "religious"
	CategoryMuseum        Category = "museum"
	CategoryNature        Category = "nature"
	CategoryPark          Category = "park"
	CategoryBeach         Category = "beach"
	CategoryMarket        Category = "market"
	CategoryShopping      Category = "shopping"
	CategoryFood          Category = "food"
	CategoryEntertainment Category = "entertainment"
	CategoryViewpoint     Category = "viewpoint"
	CategoryAdventure     Category = "adventure"
	CategoryOther         Category = "other"
)

// TravelMode selects the routing profile used for travel estimates
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

// OrDefault returns driving when the mode is unset
func (m TravelMode) OrDefault() TravelMode {
	if m == "" {
		return ModeDriving
	}
	return m
}

// Place is a candidate sightseeing stop. Callers own it; the optimizer never mutates it.
type Place struct {
	ID                   string   `json:"id" validate:"required"`
	Name                 string   `json:"name"`
	Category             Category `json:"category" validate:"required,oneof=historical religious museum nature park beach market shopping food entertainment viewpoint adventure other"`
	Lat                  float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng                  float64  `json:"lng" validate:"gte=-180,lte=180"`
	VisitDuration        float64  `json:"visit_duration" validate:"gt=0"`
	Rating               float64  `json:"rating" validate:"gte=1,lte=5"`
	ReviewCount          int      `json:"review_count" validate:"gte=0"`
	EntryCost            float64  `json:"entry_cost" validate:"gte=0"`
	WheelchairAccessible bool     `json:"wheelchair_accessible"`
	KidFriendly          bool     `json:"kid_friendly"`
	BestTimes            []string `json:"best_times,omitempty" validate:"dive,oneof=morning afternoon evening night"`
}

// GetCoords returns the coordinates of the place
func (p *Place) GetCoords() Coordinates {
	return Coordinates{Lat: p.Lat, Lng: p.Lng}
}

// FitnessWeights weights the whole-route criteria of the genetic refiner
type FitnessWeights struct {
	Distance  float64 `json:"distance" mapstructure:"distance" validate:"gte=0"`
	Time      float64 `json:"time" mapstructure:"time" validate:"gte=0"`
	Rating    float64 `json:"rating" mapstructure:"rating" validate:"gte=0"`
	Diversity float64 `json:"diversity" mapstructure:"diversity" validate:"gte=0"`
}

// DefaultFitnessWeights returns the 0.30/0.25/0.35/0.10 blend
func DefaultFitnessWeights() FitnessWeights {
	return FitnessWeights{Distance: 0.30, Time: 0.25, Rating: 0.35, Diversity: 0.10}
}

// GeneticParams tunes the genetic refiner. Zero values take the defaults, except
// the rates and elite count where nil means default and 0 is a valid setting.
type GeneticParams struct {
	PopulationSize  int            `json:"population_size" mapstructure:"population_size" validate:"gte=0"`
	Generations     int            `json:"generations" mapstructure:"generations" validate:"gte=0"`
	MutationRate    *float64       `json:"mutation_rate,omitempty" mapstructure:"mutation_rate" validate:"omitempty,gte=0,lte=1"`
	CrossoverRate   *float64       `json:"crossover_rate,omitempty" mapstructure:"crossover_rate" validate:"omitempty,gte=0,lte=1"`
	EliteCount      *int           `json:"elite_count,omitempty" mapstructure:"elite_count" validate:"omitempty,gte=0"`
	TournamentSize  int            `json:"tournament_size" mapstructure:"tournament_size" validate:"gte=0"`
	StagnationLimit int            `json:"stagnation_limit" mapstructure:"stagnation_limit" validate:"gte=0"`
	Workers         int            `json:"workers" mapstructure:"workers" validate:"gte=0"`
	Seed            uint64         `json:"seed" mapstructure:"seed"`
	Fitness         FitnessWeights `json:"fitness" mapstructure:"fitness"`
}

// Float64 returns a pointer to v
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// DefaultGeneticParams returns the documented defaults
func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		PopulationSize:  30,
		Generations:     50,
		MutationRate:    Float64(0.15),
		CrossoverRate:   Float64(0.8),
		EliteCount:      Int(5),
		TournamentSize:  3,
		StagnationLimit: 15,
		Workers:         4,
		Fitness:         DefaultFitnessWeights(),
	}
}

// WithDefaults fills every zero field from DefaultGeneticParams
func (g GeneticParams) WithDefaults() GeneticParams {
	return g.Merge(DefaultGeneticParams())
}

// Merge fills every zero field of g from d
func (g GeneticParams) Merge(d GeneticParams) GeneticParams {
	if g.PopulationSize == 0 {
		g.PopulationSize = d.PopulationSize
	}
	if g.Generations == 0 {
		g.Generations = d.Generations
	}
	if g.MutationRate == nil {
		g.MutationRate = d.MutationRate
	}
	if g.CrossoverRate == nil {
		g.CrossoverRate = d.CrossoverRate
	}
	if g.EliteCount == nil {
		g.EliteCount = d.EliteCount
	}
	if g.TournamentSize == 0 {
		g.TournamentSize = d.TournamentSize
	}
	if g.StagnationLimit == 0 {
		g.StagnationLimit = d.StagnationLimit
	}
	if g.Workers == 0 {
		g.Workers = d.Workers
	}
	if g.Seed == 0 {
		g.Seed = d.Seed
	}
	if g.Fitness == (FitnessWeights{}) {
		g.Fitness = d.Fitness
	}
	return g
}

// DefaultMaxDuration is a full sightseeing day in minutes
const DefaultMaxDuration = 480.0

// Constraints bounds a single optimization call
type Constraints struct {
	Start                  *Coordinates  `json:"start,omitempty"`
	MaxDuration            float64       `json:"max_duration" validate:"gte=0"`
	MaxBudget              *float64      `json:"max_budget,omitempty" validate:"omitempty,gte=0"`
	PreferredVisitDuration float64       `json:"preferred_visit_duration" validate:"gte=0"`
	RequireWheelchair      bool          `json:"require_wheelchair"`
	RequireKidFriendly     bool          `json:"require_kid_friendly"`
	Mode                   TravelMode    `json:"mode" validate:"omitempty,oneof=driving walking cycling"`
	Genetic                GeneticParams `json:"genetic"`
}

// WithDefaults returns a copy with the time budget, mode and genetic params filled in
func (c Constraints) WithDefaults() Constraints {
	if c.MaxDuration == 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	c.Mode = c.Mode.OrDefault()
	c.Genetic = c.Genetic.WithDefaults()
	return c
}

// Accessible reports whether a place satisfies the required accessibility flags
func (c *Constraints) Accessible(p *Place) bool {
	if c.RequireWheelchair && !p.WheelchairAccessible {
		return false
	}
	if c.RequireKidFriendly && !p.KidFriendly {
		return false
	}
	return true
}

// Weights are the scoring preferences. They need not sum to 1.
type Weights struct {
	Rating     float64 `json:"rating" mapstructure:"rating" validate:"gte=0"`
	Distance   float64 `json:"distance" mapstructure:"distance" validate:"gte=0"`
	TimeFit    float64 `json:"time_fit" mapstructure:"time_fit" validate:"gte=0"`
	CostFit    float64 `json:"cost_fit" mapstructure:"cost_fit" validate:"gte=0"`
	Popularity float64 `json:"popularity" mapstructure:"popularity" validate:"gte=0"`
	Diversity  float64 `json:"diversity" mapstructure:"diversity" validate:"gte=0"`
}

// DefaultWeights returns the 0.3/0.25/0.2/0.15/0.1 greedy blend
func DefaultWeights() Weights {
	return Weights{Rating: 0.30, Distance: 0.25, TimeFit: 0.20, CostFit: 0.15, Popularity: 0.10}
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Rating + w.Distance + w.TimeFit + w.CostFit + w.Popularity + w.Diversity
}

// IsZero reports whether no weight was supplied
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Route is an ordered list of places, visit order = slice order
type Route struct {
	Places []Place `json:"places"`
}

// IDs returns the place IDs in visit order
func (r Route) IDs() []string {
	ids := make([]string, len(r.Places))
	for i := range r.Places {
		ids[i] = r.Places[i].ID
	}
	return ids
}

// RouteMetrics are derived aggregates for a route
type RouteMetrics struct {
	PlaceCount      int     `json:"place_count"`
	TotalVisitTime  float64 `json:"total_visit_time"`
	TotalTravelTime float64 `json:"total_travel_time"`
	TotalTime       float64 `json:"total_time"`
	TotalDistance   float64 `json:"total_distance_km"`
	TotalCost       float64 `json:"total_cost"`
	AverageRating   float64 `json:"average_rating"`
	Efficiency      float64 `json:"efficiency"`
	FallbackLegs    int     `json:"fallback_legs"`
}

// DistanceCacheEntry represents a cached distance lookup
type DistanceCacheEntry struct {
	Origin      Coordinates `json:"origin"`
	Destination Coordinates `json:"destination"`
	Mode        TravelMode  `json:"mode"`
	DistanceKm  float64     `json:"distance_km"`
	DurationMin float64     `json:"duration_min"`
	Fallback    bool        `json:"fallback"`
}

// DistanceCacheKey creates a unique key for a coordinate pair and travel mode
func DistanceCacheKey(origin, dest Coordinates, mode TravelMode) string {
	return fmt.Sprintf("%.6f,%.6f->%.6f,%.6f|%s",
		RoundCoordinate(origin.Lat), RoundCoordinate(origin.Lng),
		RoundCoordinate(dest.Lat), RoundCoordinate(dest.Lng),
		mode.OrDefault())
}
