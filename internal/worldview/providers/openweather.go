package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/worldview/internal/worldview"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements worldview.WeatherProvider for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, cfg UpstreamConfig) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: cfg.baseURLOr(defaultOpenWeatherURL),
		httpCfg: cfg.httpConfig(client),
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherPayload struct {
	Name  string `json:"name"`
	Coord struct {
		Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
		Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
	} `json:"coord"`
	Main struct {
		Temp *float64 `json:"temp" validate:"required"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description" validate:"required"`
		Icon        string `json:"icon" validate:"required"`
	} `json:"weather" validate:"min=1,dive"`
	Sys struct {
		Country string `json:"country" validate:"len=2"`
	} `json:"sys"`
}

func (p *OpenWeatherProvider) FetchByCoords(ctx context.Context, lat, lon float64) (worldview.WeatherReading, error) {
	return p.fetch(ctx, func(values url.Values) {
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	})
}

func (p *OpenWeatherProvider) FetchByName(ctx context.Context, city string) (worldview.WeatherReading, error) {
	return p.fetch(ctx, func(values url.Values) {
		values.Set("q", city)
	})
}

func (p *OpenWeatherProvider) fetch(ctx context.Context, setQuery func(url.Values)) (worldview.WeatherReading, error) {
	if p.apiKey == "" {
		return worldview.WeatherReading{}, fmt.Errorf("%w: openweather api key is not configured", worldview.ErrTransport)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		setQuery(values)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		// Any client error means the location is unknown to OpenWeatherMap.
		return worldview.WeatherReading{}, classify(p.name, err, func(code int) bool {
			return code >= 400 && code < 500 && code != http.StatusTooManyRequests
		})
	}
	defer resp.Body.Close()

	var payload openWeatherPayload
	if err := decodeJSON(p.name, resp.Body, &payload); err != nil {
		return worldview.WeatherReading{}, err
	}
	if err := checkSchema(p.name, payload); err != nil {
		return worldview.WeatherReading{}, err
	}

	return worldview.WeatherReading{
		TemperatureC: *payload.Main.Temp,
		Description:  payload.Weather[0].Description,
		IconID:       payload.Weather[0].Icon,
		CountryCode:  strings.ToUpper(payload.Sys.Country),
		Location: worldview.Location{
			CityName:  payload.Name,
			Latitude:  *payload.Coord.Lat,
			Longitude: *payload.Coord.Lon,
		},
	}, nil
}

var _ worldview.WeatherProvider = (*OpenWeatherProvider)(nil)
