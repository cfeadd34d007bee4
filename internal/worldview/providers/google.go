package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
	"golang.org/x/time/rate"

	"github.com/i474232898/worldview/internal/common"
	"github.com/i474232898/worldview/internal/worldview"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements worldview.Geocoder with the Google Geocoding API.
type GoogleGeocoder struct {
	name    string
	apiKey  string
	limiter *rate.Limiter
}

// NewGoogleGeocoder creates a Google geocoder. rps of 0 means unlimited.
func NewGoogleGeocoder(apiKey string, rps float64) *GoogleGeocoder {
	g := &GoogleGeocoder{name: "google", apiKey: apiKey}
	if rps > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return g
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

func (g *GoogleGeocoder) Search(ctx context.Context, query string) ([]worldview.Place, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	googleKeyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	googleKeyMu.Unlock()
	if err != nil {
		if isNoResult(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", worldview.ErrTransport, g.name, err)
	}

	return []worldview.Place{{
		Name:      query,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}}, nil
}

// Reverse maps Google's address components; Google has no town/village split,
// so only city and state are filled.
func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) (worldview.Address, error) {
	if err := g.wait(ctx); err != nil {
		return worldview.Address{}, err
	}

	googleKeyMu.Lock()
	geocoder.ApiKey = g.apiKey
	addrs, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	googleKeyMu.Unlock()
	if err != nil {
		if isNoResult(err) {
			return worldview.Address{}, fmt.Errorf("%w: %s: no address at (%f, %f)", worldview.ErrNotFound, g.name, lat, lon)
		}
		return worldview.Address{}, fmt.Errorf("%w: %s: %v", worldview.ErrTransport, g.name, err)
	}
	if len(addrs) == 0 {
		return worldview.Address{}, fmt.Errorf("%w: %s: no address at (%f, %f)", worldview.ErrNotFound, g.name, lat, lon)
	}

	return worldview.Address{
		City:  addrs[0].City,
		State: addrs[0].State,
	}, nil
}

func (g *GoogleGeocoder) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", worldview.ErrTransport, g.name, err)
	}
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: rate limit wait canceled: %v", worldview.ErrTransport, g.name, err)
	}
	return nil
}

func isNoResult(err error) bool {
	return common.HasAny(err.Error(), "ZERO_RESULTS", "no results", "not found", "empty")
}

var _ worldview.Geocoder = (*GoogleGeocoder)(nil)
