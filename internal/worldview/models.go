package worldview

import (
	"time"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0088

// Location is a canonical place produced by the resolver.
// CityName is non-empty when it comes from a successful lookup.
type Location struct {
	CityName  string  `json:"cityName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are within [-90,90] x [-180,180].
func (l Location) Valid() bool {
	return ValidCoords(l.Latitude, l.Longitude)
}

// DistanceKm returns the great-circle distance between two locations.
func (l Location) DistanceKm(other Location) float64 {
	a := s2.LatLngFromDegrees(l.Latitude, l.Longitude)
	b := s2.LatLngFromDegrees(other.Latitude, other.Longitude)
	return a.Distance(b).Radians() * earthRadiusKm
}

// ValidCoords reports whether lat/lon form a valid WGS84 position.
func ValidCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// WeatherReading is a single current-conditions observation. The Location
// carries the authoritative coordinates reported by the weather service.
type WeatherReading struct {
	TemperatureC float64  `json:"temperatureC"`
	Description  string   `json:"description"`
	IconID       string   `json:"iconId"`
	CountryCode  string   `json:"countryCode"`
	Location     Location `json:"location"`
}

// CountryProfile is the country metadata shown in the culture panel.
// Languages keep the upstream record order.
type CountryProfile struct {
	CommonName string   `json:"commonName"`
	FlagURL    string   `json:"flagUrl"`
	Languages  []string `json:"languages"`
}

// CultureTemplate holds illustrative per-country culture strings.
type CultureTemplate struct {
	Food      string `json:"food"`
	Greeting  string `json:"greeting"`
	Etiquette string `json:"etiquette"`
}

// WeatherPanel is the rendered weather section of the display.
type WeatherPanel struct {
	Title        string  `json:"title"`
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperatureC"`
	Description  string  `json:"description"`
	IconID       string  `json:"iconId"`
	IconURL      string  `json:"iconUrl"`
	CountryCode  string  `json:"countryCode"`
}

// CulturePanel is the rendered culture section of the display.
type CulturePanel struct {
	Title          string   `json:"title"`
	Country        string   `json:"country"`
	FlagURL        string   `json:"flagUrl"`
	LanguagesLabel string   `json:"languagesLabel"`
	Languages      []string `json:"languages"`
	FoodLabel      string   `json:"foodLabel"`
	Food           string   `json:"food"`
	GreetingLabel  string   `json:"greetingLabel"`
	Greeting       string   `json:"greeting"`
	EtiquetteLabel string   `json:"etiquetteLabel"`
	Etiquette      string   `json:"etiquette"`
}

// Display is the payload shown to the user. Exactly one of Error or the
// panels is populated; Culture is nil after a failure.
type Display struct {
	Token      uint64        `json:"token"`
	RunID      string        `json:"runId"`
	Language   Language      `json:"language"`
	Weather    *WeatherPanel `json:"weather,omitempty"`
	Culture    *CulturePanel `json:"culture,omitempty"`
	Error      string        `json:"error,omitempty"`
	RenderedAt time.Time     `json:"renderedAt"`
}

// Failed reports whether the display carries the error message.
func (d Display) Failed() bool {
	return d.Error != ""
}
