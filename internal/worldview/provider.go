package worldview

import "context"

// Address is the locality record returned by a reverse geocoding lookup.
// Any field may be empty.
type Address struct {
	City    string
	Town    string
	Village string
	State   string
}

// Place is a forward geocoding candidate.
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Geocoder abstracts a forward/reverse geocoding service (e.g. Nominatim, Google).
type Geocoder interface {
	Name() string
	// Search returns candidates for a free-text query, best match first.
	Search(ctx context.Context, query string) ([]Place, error)
	// Reverse returns the address record at the given coordinates.
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// DeviceLocator asks the host for the device's current coordinates.
type DeviceLocator interface {
	Locate(ctx context.Context) (lat, lon float64, err error)
}

// WeatherProvider abstracts a current-weather source (e.g. OpenWeatherMap).
type WeatherProvider interface {
	Name() string
	FetchByCoords(ctx context.Context, lat, lon float64) (WeatherReading, error)
	FetchByName(ctx context.Context, city string) (WeatherReading, error)
}

// CountryProvider looks up country metadata by ISO-3166 alpha-2 code.
type CountryProvider interface {
	Name() string
	Country(ctx context.Context, code string) (CountryProfile, error)
}

// History is the contract the pipeline needs from the history store.
type History interface {
	Record(city string)
	List() []string
	Save(ctx context.Context) error
}

// LanguageStore persists the UI language preference.
type LanguageStore interface {
	SaveLanguage(ctx context.Context, lang Language) error
}
