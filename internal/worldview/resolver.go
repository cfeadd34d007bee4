package worldview

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/worldview/internal/common"
)

// Resolver turns a city name, explicit coordinates or the device position
// into a canonical Location.
type Resolver struct {
	geocoder Geocoder
	device   DeviceLocator
}

// NewResolver creates a Resolver. device may be nil, in which case device
// lookups fail with ErrUnsupported.
func NewResolver(geocoder Geocoder, device DeviceLocator) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		device:   device,
	}
}

// ResolveByName geocodes a free-text city name and takes the first candidate.
// The typed name is kept as the display name; geocoders tend to return the
// local-language spelling.
func (r *Resolver) ResolveByName(ctx context.Context, city string) (Location, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Location{}, fmt.Errorf("%w: empty city name", ErrInvalidInput)
	}

	places, err := r.geocoder.Search(ctx, city)
	if err != nil {
		return Location{}, err
	}
	if len(places) == 0 {
		return Location{}, fmt.Errorf("%w: no geocoding match for %q", ErrNotFound, city)
	}

	first := places[0]
	loc := Location{
		CityName:  city,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
	}
	if !loc.Valid() {
		return Location{}, fmt.Errorf("%w: %s returned out-of-range coordinates (%f, %f)",
			ErrTransport, r.geocoder.Name(), loc.Latitude, loc.Longitude)
	}
	return loc, nil
}

// ResolveByCoords reverse geocodes lat/lon to recover a display name.
func (r *Resolver) ResolveByCoords(ctx context.Context, lat, lon float64) (Location, error) {
	if !ValidCoords(lat, lon) {
		return Location{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrInvalidInput, lat, lon)
	}

	addr, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return Location{}, err
	}

	name := LocalityName(addr)
	if name == "" {
		return Location{}, fmt.Errorf("%w: no locality at (%f, %f)", ErrNotFound, lat, lon)
	}

	return Location{
		CityName:  name,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// ResolveByDevice asks the host for the device position and reverse geocodes it.
func (r *Resolver) ResolveByDevice(ctx context.Context) (Location, error) {
	return r.ResolveByDeviceWith(ctx, r.device)
}

// ResolveByDeviceWith is ResolveByDevice with an explicit locator, used when
// the position is reported per request.
func (r *Resolver) ResolveByDeviceWith(ctx context.Context, device DeviceLocator) (Location, error) {
	if device == nil {
		return Location{}, ErrUnsupported
	}
	lat, lon, err := device.Locate(ctx)
	if err != nil {
		return Location{}, err
	}
	return r.ResolveByCoords(ctx, lat, lon)
}

// LocalityName probes city, town, village, then state.
func LocalityName(addr Address) string {
	return common.FirstNonEmpty(addr.City, addr.Town, addr.Village, addr.State)
}
