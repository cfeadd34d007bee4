package worldview

import (
	"context"
	"fmt"
	"strings"
)

// Fetcher retrieves current weather for a resolved location or a bare city name.
type Fetcher struct {
	provider WeatherProvider
}

// NewFetcher creates a Fetcher backed by provider.
func NewFetcher(provider WeatherProvider) *Fetcher {
	return &Fetcher{provider: provider}
}

// FetchByCoords fetches weather at lat/lon.
func (f *Fetcher) FetchByCoords(ctx context.Context, lat, lon float64) (WeatherReading, error) {
	if !ValidCoords(lat, lon) {
		return WeatherReading{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrInvalidInput, lat, lon)
	}
	return f.provider.FetchByCoords(ctx, lat, lon)
}

// FetchByName fetches weather for a city name.
func (f *Fetcher) FetchByName(ctx context.Context, city string) (WeatherReading, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return WeatherReading{}, fmt.Errorf("%w: empty city name", ErrInvalidInput)
	}
	return f.provider.FetchByName(ctx, city)
}

// FetchFor fetches weather for a resolved location. A resolved location
// always carries coordinates, so they take precedence over the name; the
// resolved name is kept while the coordinates in the reading stay the
// authoritative ones reported by the weather service.
func (f *Fetcher) FetchFor(ctx context.Context, loc Location) (WeatherReading, error) {
	reading, err := f.FetchByCoords(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return WeatherReading{}, err
	}
	if loc.CityName != "" {
		reading.Location.CityName = loc.CityName
	}
	return reading, nil
}
