package geocode

import (
	"context"
	"net/http"
	"strconv"

	"github.com/techtern/backend/internal/transport"
	"github.com/techtern/backend/pkg/logger"
)

type ServiceAPI interface {
	Geocode(ctx context.Context, location string) (*Location, error)
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

type geocodeResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Source  string    `json:"source"`
	Data    *Location `json:"data"`
}

// Geocode resolves ?location= to coordinates.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		h.WriteError(w, http.StatusBadRequest, "Location query parameter is required")
		return
	}

	result, err := h.Service.Geocode(r.Context(), location)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, geocodeResponse{
		Success: true,
		Message: "Location geocoded successfully",
		Source:  Source,
		Data:    result,
	})
}

type reverseResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Source  string   `json:"source"`
	Data    *Address `json:"data"`
}

// Reverse resolves ?lat=&lon= to an address.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	rawLat := r.URL.Query().Get("lat")
	rawLon := r.URL.Query().Get("lon")
	if rawLat == "" || rawLon == "" {
		h.WriteError(w, http.StatusBadRequest, "Both lat and lon query parameters are required")
		return
	}

	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lon, lonErr := strconv.ParseFloat(rawLon, 64)
	if latErr != nil || lonErr != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid coordinates. lat and lon must be numbers")
		return
	}

	result, err := h.Service.Reverse(r.Context(), lat, lon)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reverseResponse{
		Success: true,
		Message: "Reverse geocoding successful",
		Source:  Source,
		Data:    result,
	})
}

type searchResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Source  string      `json:"source"`
	Count   int         `json:"count"`
	Data    []Candidate `json:"data"`
}

// Search returns ranked candidates for ?q=, up to ?limit= (default 5).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.WriteError(w, http.StatusBadRequest, "Search query (q) parameter is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	candidates, err := h.Service.Search(r.Context(), query, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Message: "Location search successful",
		Source:  Source,
		Count:   len(candidates),
		Data:    candidates,
	})
}
