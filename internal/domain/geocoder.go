package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat         float64
	Lon         float64
	DisplayName string
	PlaceName   string
	Confidence  float64 // 0.0–1.0 provider confidence score
}

// Empty reports whether the provider returned no match. Providers signal
// "no result" with a zero GeocodingResult and a nil error; errors are reserved
// for transport failures.
func (r GeocodingResult) Empty() bool {
	return r.DisplayName == "" && r.Lat == 0 && r.Lon == 0
}

// Geocoder resolves a free-form place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (GeocodingResult, error)
}
