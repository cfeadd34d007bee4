package worldview_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/i474232898/worldview/internal/worldview"
)

func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

type fakeGeocoder struct {
	mu       sync.Mutex
	places   map[string][]worldview.Place
	addrs    map[string]worldview.Address
	searches int
	reverses int
}

func (g *fakeGeocoder) Name() string { return "fake-geocoder" }

func (g *fakeGeocoder) Search(_ context.Context, query string) ([]worldview.Place, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.searches++
	return g.places[query], nil
}

func (g *fakeGeocoder) Reverse(_ context.Context, lat, lon float64) (worldview.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reverses++
	addr, ok := g.addrs[coordKey(lat, lon)]
	if !ok {
		return worldview.Address{}, fmt.Errorf("%w: nothing at %s", worldview.ErrNotFound, coordKey(lat, lon))
	}
	return addr, nil
}

func (g *fakeGeocoder) counts() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.searches, g.reverses
}

type fakeWeather struct {
	mu       sync.Mutex
	readings map[string]worldview.WeatherReading
	gates    map[string]chan struct{}
	entered  map[string]chan struct{}
	calls    int
}

func newFakeWeather() *fakeWeather {
	return &fakeWeather{
		readings: make(map[string]worldview.WeatherReading),
		gates:    make(map[string]chan struct{}),
		entered:  make(map[string]chan struct{}),
	}
}

// hold makes the next fetch at key block until the returned release is called.
// The returned entered channel closes once that fetch has started.
func (w *fakeWeather) hold(key string) (entered <-chan struct{}, release func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	gate := make(chan struct{})
	ent := make(chan struct{})
	w.gates[key] = gate
	w.entered[key] = ent
	return ent, func() { close(gate) }
}

func (w *fakeWeather) Name() string { return "fake-weather" }

func (w *fakeWeather) FetchByCoords(_ context.Context, lat, lon float64) (worldview.WeatherReading, error) {
	key := coordKey(lat, lon)

	w.mu.Lock()
	w.calls++
	r, ok := w.readings[key]
	gate := w.gates[key]
	ent := w.entered[key]
	delete(w.gates, key)
	delete(w.entered, key)
	w.mu.Unlock()

	if ent != nil {
		close(ent)
	}
	if gate != nil {
		<-gate
	}
	if !ok {
		return worldview.WeatherReading{}, fmt.Errorf("%w: no weather at %s", worldview.ErrNotFound, key)
	}
	return r, nil
}

func (w *fakeWeather) FetchByName(_ context.Context, city string) (worldview.WeatherReading, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	for _, r := range w.readings {
		if r.Location.CityName == city {
			return r, nil
		}
	}
	return worldview.WeatherReading{}, fmt.Errorf("%w: %s", worldview.ErrNotFound, city)
}

func (w *fakeWeather) callCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type fakeCountries struct {
	mu       sync.Mutex
	profiles map[string]worldview.CountryProfile
	calls    int
}

func (c *fakeCountries) Name() string { return "fake-countries" }

func (c *fakeCountries) Country(_ context.Context, code string) (worldview.CountryProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	p, ok := c.profiles[code]
	if !ok {
		return worldview.CountryProfile{}, fmt.Errorf("%w: country %s", worldview.ErrNotFound, code)
	}
	return p, nil
}

type fakeLocator struct {
	lat, lon float64
	err      error
}

func (l fakeLocator) Locate(context.Context) (float64, float64, error) {
	return l.lat, l.lon, l.err
}

type fakePrefs struct {
	saved []worldview.Language
}

func (p *fakePrefs) SaveLanguage(_ context.Context, lang worldview.Language) error {
	p.saved = append(p.saved, lang)
	return nil
}

// world is a small fixture: Tokyo and Paris with authoritative coordinates
// that differ slightly from the geocoder's.
type world struct {
	geocoder  *fakeGeocoder
	weather   *fakeWeather
	countries *fakeCountries
}

const (
	tokyoQueryLat, tokyoQueryLon = 35.6768601, 139.7638947
	tokyoLat, tokyoLon           = 35.6895, 139.6917
	parisQueryLat, parisQueryLon = 48.8588897, 2.3200410
	parisLat, parisLon           = 48.8534, 2.3488
)

func newWorld() *world {
	w := &world{
		geocoder: &fakeGeocoder{
			places: map[string][]worldview.Place{
				"Tokyo": {{Name: "東京都", Latitude: tokyoQueryLat, Longitude: tokyoQueryLon}},
				"Paris": {{Name: "Paris", Latitude: parisQueryLat, Longitude: parisQueryLon}},
			},
			addrs: map[string]worldview.Address{
				coordKey(tokyoQueryLat, tokyoQueryLon): {City: "Tokyo", State: "Tokyo"},
				coordKey(43.0, 11.0):                   {State: "Tuscany"},
			},
		},
		weather: newFakeWeather(),
		countries: &fakeCountries{profiles: map[string]worldview.CountryProfile{
			"JP": {CommonName: "Japan", FlagURL: "https://flagcdn.com/jp.svg", Languages: []string{"Japanese"}},
			"FR": {CommonName: "France", FlagURL: "https://flagcdn.com/fr.svg", Languages: []string{"French"}},
			"IT": {CommonName: "Italy", FlagURL: "https://flagcdn.com/it.svg", Languages: []string{"Italian", "Catalan", "German", "Latin"}},
		}},
	}
	w.weather.readings[coordKey(tokyoQueryLat, tokyoQueryLon)] = worldview.WeatherReading{
		TemperatureC: 18.4, Description: "few clouds", IconID: "02d", CountryCode: "JP",
		Location: worldview.Location{CityName: "Tokyo", Latitude: tokyoLat, Longitude: tokyoLon},
	}
	w.weather.readings[coordKey(parisQueryLat, parisQueryLon)] = worldview.WeatherReading{
		TemperatureC: 12.1, Description: "light rain", IconID: "10d", CountryCode: "FR",
		Location: worldview.Location{CityName: "Paris", Latitude: parisLat, Longitude: parisLon},
	}
	w.weather.readings[coordKey(43.0, 11.0)] = worldview.WeatherReading{
		TemperatureC: 21, Description: "clear sky", IconID: "01d", CountryCode: "IT",
		Location: worldview.Location{CityName: "Siena", Latitude: 43.0, Longitude: 11.0},
	}
	return w
}

func (w *world) resolver(device worldview.DeviceLocator) *worldview.Resolver {
	return worldview.NewResolver(w.geocoder, device)
}

func (w *world) pipeline(opts worldview.Options) *worldview.Pipeline {
	return worldview.NewPipeline(
		w.resolver(nil),
		worldview.NewFetcher(w.weather),
		worldview.NewEnricher(w.countries),
		opts,
	)
}
