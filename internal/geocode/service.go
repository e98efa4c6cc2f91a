package geocode

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/techtern/backend/internal"
	"github.com/techtern/backend/internal/geocode/nominatim"
)

// Source labels every successful response with the upstream provider.
const Source = "OpenStreetMap Nominatim API"

// Location is the forward-geocoding projection of a Nominatim place.
type Location struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	DisplayName string            `json:"displayName"`
	Address     map[string]string `json:"address"`
	BoundingBox []string          `json:"boundingBox"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
}

// Address is the reverse-geocoding projection.
type Address struct {
	DisplayName string            `json:"displayName"`
	Address     map[string]string `json:"address"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
}

// Candidate is one row of a place search.
type Candidate struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	DisplayName string            `json:"displayName"`
	Address     map[string]string `json:"address"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
}

// Geocoder is the slice of the Nominatim client the service needs.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]nominatim.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*nominatim.Place, error)
}

// Service is a stateless pass-through to the geocoding upstream. Nothing is
// stored; every call costs one rate-limited upstream request.
type Service struct {
	client Geocoder
	logger *slog.Logger
}

func NewService(client Geocoder, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// Geocode resolves a free-form location string to its best-ranked match.
func (s *Service) Geocode(ctx context.Context, location string) (*Location, error) {
	places, err := s.client.Search(ctx, location, 1)
	if err != nil {
		s.logger.Error("forward geocoding failed", "location", location, "error", err)
		return nil, internal.NewExternalError("Server error during geocoding", internal.ErrCodeGeocodeUpstream, err)
	}

	if len(places) == 0 {
		return nil, internal.NewNotFoundError("Location not found", internal.ErrCodeLocationNotFound)
	}

	p := places[0]
	return &Location{
		Latitude:    parseCoord(p.Lat),
		Longitude:   parseCoord(p.Lon),
		DisplayName: p.DisplayName,
		Address:     p.Address,
		BoundingBox: p.BoundingBox,
		Type:        p.Type,
		Importance:  p.Importance,
	}, nil
}

// Reverse resolves coordinates to the nearest known address.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	place, err := s.client.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.Error("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return nil, internal.NewExternalError("Server error during reverse geocoding", internal.ErrCodeGeocodeUpstream, err)
	}

	if place == nil {
		return nil, internal.NewNotFoundError("Location not found for coordinates", internal.ErrCodeLocationNotFound)
	}

	return &Address{
		DisplayName: place.DisplayName,
		Address:     place.Address,
		Latitude:    parseCoord(place.Lat),
		Longitude:   parseCoord(place.Lon),
	}, nil
}

// Search returns up to limit ranked candidates for a place query. An empty
// result is a successful response with count zero, not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if limit < 1 {
		limit = 5
	}

	places, err := s.client.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("location search failed", "query", query, "error", err)
		return nil, internal.NewExternalError("Server error during location search", internal.ErrCodeGeocodeUpstream, err)
	}

	candidates := make([]Candidate, 0, len(places))
	for _, p := range places {
		candidates = append(candidates, Candidate{
			Latitude:    parseCoord(p.Lat),
			Longitude:   parseCoord(p.Lon),
			DisplayName: p.DisplayName,
			Address:     p.Address,
			Type:        p.Type,
			Importance:  p.Importance,
		})
	}

	return candidates, nil
}

func parseCoord(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
