package testutil

import (
	"fmt"

	"itinerary-planner/internal/models"
)

// NewPlace builds a valid place with sensible defaults
func NewPlace(id string, lat, lng float64) models.Place {
	return models.Place{
		ID:                   id,
		Name:                 "Place " + id,
		Category:             models.CategoryHistorical,
		Lat:                  lat,
		Lng:                  lng,
		VisitDuration:        60,
		Rating:               4.0,
		ReviewCount:          100,
		EntryCost:            10,
		WheelchairAccessible: true,
		KidFriendly:          true,
	}
}

// ParisPlaces returns a small pool of real central-Paris sights
func ParisPlaces() []models.Place {
	return []models.Place{
		{ID: "louvre", Name: "Louvre", Category: models.CategoryMuseum, Lat: 48.8606, Lng: 2.3376, VisitDuration: 120, Rating: 4.7, ReviewCount: 250000, EntryCost: 22, WheelchairAccessible: true, KidFriendly: true},
		{ID: "notre-dame", Name: "Notre-Dame", Category: models.CategoryReligious, Lat: 48.8530, Lng: 2.3499, VisitDuration: 45, Rating: 4.7, ReviewCount: 180000, EntryCost: 0, WheelchairAccessible: true, KidFriendly: true},
		{ID: "eiffel", Name: "Eiffel Tower", Category: models.CategoryViewpoint, Lat: 48.8584, Lng: 2.2945, VisitDuration: 90, Rating: 4.6, ReviewCount: 400000, EntryCost: 29, WheelchairAccessible: true, KidFriendly: true},
		{ID: "orsay", Name: "Musée d'Orsay", Category: models.CategoryMuseum, Lat: 48.8600, Lng: 2.3266, VisitDuration: 90, Rating: 4.8, ReviewCount: 90000, EntryCost: 16, WheelchairAccessible: true, KidFriendly: false},
		{ID: "sacre-coeur", Name: "Sacré-Cœur", Category: models.CategoryReligious, Lat: 48.8867, Lng: 2.3431, VisitDuration: 40, Rating: 4.7, ReviewCount: 120000, EntryCost: 0, WheelchairAccessible: false, KidFriendly: true},
		{ID: "luxembourg", Name: "Jardin du Luxembourg", Category: models.CategoryPark, Lat: 48.8462, Lng: 2.3372, VisitDuration: 60, Rating: 4.7, ReviewCount: 80000, EntryCost: 0, WheelchairAccessible: true, KidFriendly: true},
		{ID: "marais", Name: "Marché des Enfants Rouges", Category: models.CategoryMarket, Lat: 48.8630, Lng: 2.3618, VisitDuration: 45, Rating: 4.3, ReviewCount: 9000, EntryCost: 0, WheelchairAccessible: true, KidFriendly: true},
		{ID: "pantheon", Name: "Panthéon", Category: models.CategoryHistorical, Lat: 48.8462, Lng: 2.3464, VisitDuration: 60, Rating: 4.6, ReviewCount: 40000, EntryCost: 13, WheelchairAccessible: true, KidFriendly: true},
	}
}

// GridPlaces returns n places on a small grid, IDs p0..p(n-1)
func GridPlaces(n int) []models.Place {
	places := make([]models.Place, n)
	for i := range places {
		places[i] = NewPlace(fmt.Sprintf("p%d", i), 48.85+float64(i/4)*0.01, 2.33+float64(i%4)*0.01)
	}
	return places
}

// Float64 returns a pointer to v
func Float64(v float64) *float64 {
	return &v
}
