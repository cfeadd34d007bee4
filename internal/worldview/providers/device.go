package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/worldview/internal/worldview"
)

const defaultIPAPIURL = "http://ip-api.com/json/"

// IPLocator locates the host through the geolocation of its public IP.
type IPLocator struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewIPLocator(client *http.Client, cfg UpstreamConfig) *IPLocator {
	return &IPLocator{
		name:    "ip-api",
		baseURL: cfg.baseURLOr(defaultIPAPIURL),
		httpCfg: cfg.httpConfig(client),
		circuit: newBreaker("ip-api"),
	}
}

type ipAPIPayload struct {
	Status  string   `json:"status" validate:"required"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon     *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
}

// Locate asks ip-api for the host position. A "fail" status means the host
// cannot be placed, which is reported as ErrUnsupported.
func (l *IPLocator) Locate(ctx context.Context) (float64, float64, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?fields=status,message,lat,lon", nil)
	}

	resp, err := doRequestWithResilience(ctx, l.httpCfg, l.circuit, buildRequest)
	if err != nil {
		return 0, 0, classify(l.name, err, func(int) bool { return false })
	}
	defer resp.Body.Close()

	var payload ipAPIPayload
	if err := decodeJSON(l.name, resp.Body, &payload); err != nil {
		return 0, 0, err
	}
	if err := checkSchema(l.name, payload); err != nil {
		return 0, 0, err
	}
	if payload.Status != "success" {
		return 0, 0, fmt.Errorf("%w: %s: %s", worldview.ErrUnsupported, l.name, payload.Message)
	}
	if payload.Lat == nil || payload.Lon == nil {
		return 0, 0, fmt.Errorf("%w: %s: success without coordinates", worldview.ErrTransport, l.name)
	}
	return *payload.Lat, *payload.Lon, nil
}

// FixedLocator reports a configured position.
type FixedLocator struct {
	Lat float64
	Lon float64
}

func (f FixedLocator) Locate(context.Context) (float64, float64, error) {
	return f.Lat, f.Lon, nil
}

// Reported position errors sent by a browser client.
const (
	ReportDenied      = "denied"
	ReportUnsupported = "unsupported"
)

// ReportedLocator replays a reading (or refusal) reported by the client.
type ReportedLocator struct {
	Lat   *float64
	Lon   *float64
	Error string
}

func (r ReportedLocator) Locate(context.Context) (float64, float64, error) {
	switch r.Error {
	case "":
	case ReportDenied:
		return 0, 0, worldview.ErrPermissionDenied
	case ReportUnsupported:
		return 0, 0, worldview.ErrUnsupported
	default:
		return 0, 0, fmt.Errorf("%w: unknown geolocation error %q", worldview.ErrUnsupported, r.Error)
	}
	if r.Lat == nil || r.Lon == nil {
		return 0, 0, fmt.Errorf("%w: no position reported", worldview.ErrUnsupported)
	}
	return *r.Lat, *r.Lon, nil
}

var (
	_ worldview.DeviceLocator = (*IPLocator)(nil)
	_ worldview.DeviceLocator = FixedLocator{}
	_ worldview.DeviceLocator = ReportedLocator{}
)
