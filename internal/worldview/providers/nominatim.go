package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/worldview/internal/worldview"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder implements worldview.Geocoder against OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewNominatimGeocoder creates a Nominatim client. The usage policy requires
// an identifying User-Agent and at most one request per second.
func NewNominatimGeocoder(client *http.Client, cfg UpstreamConfig) *NominatimGeocoder {
	return &NominatimGeocoder{
		name:    "nominatim",
		baseURL: cfg.baseURLOr(defaultNominatimURL),
		httpCfg: cfg.httpConfig(client),
		circuit: newBreaker("nominatim"),
	}
}

func (g *NominatimGeocoder) Name() string {
	return g.name
}

type nominatimPlace struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat" validate:"required,latitude"`
	Lon         string `json:"lon" validate:"required,longitude"`
}

type nominatimReverse struct {
	Error   string `json:"error"`
	Address *struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
	} `json:"address"`
}

// Search performs a forward lookup; candidates keep Nominatim's ranking.
func (g *NominatimGeocoder) Search(ctx context.Context, query string) ([]worldview.Place, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("q", query)
		values.Set("limit", "5")

		u := fmt.Sprintf("%s/search?%s", g.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return nil, classify(g.name, err, only404)
	}
	defer resp.Body.Close()

	var payload []nominatimPlace
	if err := decodeJSON(g.name, resp.Body, &payload); err != nil {
		return nil, err
	}

	places := make([]worldview.Place, 0, len(payload))
	for _, p := range payload {
		if err := checkSchema(g.name, p); err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad lat %q", worldview.ErrTransport, g.name, p.Lat)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad lon %q", worldview.ErrTransport, g.name, p.Lon)
		}
		name := p.Name
		if name == "" {
			name = p.DisplayName
		}
		places = append(places, worldview.Place{
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return places, nil
}

// Reverse looks up the address record at lat/lon. Nominatim answers 200 with
// an "error" field when nothing is there.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (worldview.Address, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

		u := fmt.Sprintf("%s/reverse?%s", g.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return worldview.Address{}, classify(g.name, err, only404)
	}
	defer resp.Body.Close()

	var payload nominatimReverse
	if err := decodeJSON(g.name, resp.Body, &payload); err != nil {
		return worldview.Address{}, err
	}
	if payload.Address == nil {
		return worldview.Address{}, fmt.Errorf("%w: %s: no address at (%f, %f): %s",
			worldview.ErrNotFound, g.name, lat, lon, payload.Error)
	}

	return worldview.Address{
		City:    payload.Address.City,
		Town:    payload.Address.Town,
		Village: payload.Address.Village,
		State:   payload.Address.State,
	}, nil
}

var _ worldview.Geocoder = (*NominatimGeocoder)(nil)
