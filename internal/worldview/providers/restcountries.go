package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/worldview/internal/worldview"
)

const defaultRestCountriesURL = "https://restcountries.com/v3.1"

// RestCountriesProvider implements worldview.CountryProvider for restcountries.com.
type RestCountriesProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRestCountriesProvider(client *http.Client, cfg UpstreamConfig) *RestCountriesProvider {
	return &RestCountriesProvider{
		name:    "restcountries",
		baseURL: cfg.baseURLOr(defaultRestCountriesURL),
		httpCfg: cfg.httpConfig(client),
		circuit: newBreaker("restcountries"),
	}
}

func (p *RestCountriesProvider) Name() string {
	return p.name
}

type countryRecord struct {
	Name struct {
		Common string `json:"common" validate:"required"`
	} `json:"name"`
	Flags struct {
		SVG string `json:"svg" validate:"omitempty,url"`
	} `json:"flags"`
	Languages orderedValues `json:"languages"`
}

// orderedValues decodes a JSON object's values in document order.
type orderedValues []string

func (o *orderedValues) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("languages: expected object, got %v", tok)
	}

	values := make([]string, 0, 4)
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var v string
		if err := dec.Decode(&v); err != nil {
			return err
		}
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = values
	return nil
}

// Country fetches the profile for an alpha-2 code. The endpoint answers with
// a single-element array.
func (p *RestCountriesProvider) Country(ctx context.Context, code string) (worldview.CountryProfile, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/alpha/%s", p.baseURL, url.PathEscape(code))
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return worldview.CountryProfile{}, classify(p.name, err, func(code int) bool {
			return code == http.StatusNotFound || code == http.StatusBadRequest
		})
	}
	defer resp.Body.Close()

	var records []countryRecord
	if err := decodeJSON(p.name, resp.Body, &records); err != nil {
		return worldview.CountryProfile{}, err
	}
	if len(records) == 0 {
		return worldview.CountryProfile{}, fmt.Errorf("%w: %s: no record for %q", worldview.ErrNotFound, p.name, code)
	}

	rec := records[0]
	if err := checkSchema(p.name, rec); err != nil {
		return worldview.CountryProfile{}, err
	}

	return worldview.CountryProfile{
		CommonName: rec.Name.Common,
		FlagURL:    rec.Flags.SVG,
		Languages:  []string(rec.Languages),
	}, nil
}

var _ worldview.CountryProvider = (*RestCountriesProvider)(nil)
