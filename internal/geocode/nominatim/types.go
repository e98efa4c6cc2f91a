package nominatim

// Place is one Nominatim result row (format=json). Search returns a ranked
// slice of these; Reverse returns a single one. Address components vary by
// place kind, so the structured address is passed through untyped.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Class       string            `json:"class"`
	Importance  float64           `json:"importance"`
	BoundingBox []string          `json:"boundingbox"`
	OSMID       int64             `json:"osm_id"`
	OSMType     string            `json:"osm_type"`
	Address     map[string]string `json:"address,omitempty"`

	// Error is set instead of the place fields when reverse geocoding
	// finds nothing; Nominatim still answers 200 in that case.
	Error string `json:"error,omitempty"`
}
