package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/worldview/internal/worldview"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client    *http.Client
	Backoff   BackoffConfig
	UserAgent string
	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter
}

// UpstreamConfig is the per-upstream configuration supplied by the caller.
type UpstreamConfig struct {
	BaseURL   string
	UserAgent string
	// MaxRetries is the number of retries after a failed attempt; 0 disables retrying.
	MaxRetries int
	// RPS limits requests per second; 0 means unlimited.
	RPS float64
}

func (c UpstreamConfig) baseURLOr(def string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return def
}

func (c UpstreamConfig) httpConfig(client *http.Client) HTTPClientConfig {
	cfg := HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      c.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		UserAgent: c.UserAgent,
	}
	if c.RPS > 0 {
		cfg.Limiter = rate.NewLimiter(rate.Limit(c.RPS), 1)
	}
	return cfg
}

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

var validate = validator.New()

// newBreaker creates a circuit breaker that only trips on transport-level
// failures; client errors such as 404 are answers, not outages.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err)
		},
	})
}

func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests
}

// doRequestWithResilience executes the HTTP request behind the rate limiter and
// circuit breaker, retrying with exponential backoff when configured to.
// Client errors are never retried.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait canceled: %w", err)
			}
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.UserAgent != "" {
			req.Header.Set("User-Agent", cfg.UserAgent)
		}
		req.Header.Set("Accept", "application/json")

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, &StatusError{Code: resp.StatusCode}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if isClientError(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// classify maps a request error onto the worldview taxonomy. notFound decides
// which HTTP status codes mean "no such record" for this upstream.
func classify(provider string, err error, notFound func(code int) bool) error {
	var se *StatusError
	if errors.As(err, &se) && notFound(se.Code) {
		return fmt.Errorf("%w: %s: %v", worldview.ErrNotFound, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", worldview.ErrTransport, provider, err)
}

func only404(code int) bool {
	return code == http.StatusNotFound
}

// decodeJSON decodes body into out, rejecting malformed JSON as a transport error.
func decodeJSON(provider string, body io.Reader, out any) error {
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %v", worldview.ErrTransport, provider, err)
	}
	return nil
}

// checkSchema validates a decoded response against its struct tags.
func checkSchema(provider string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: malformed response: %v", worldview.ErrTransport, provider, err)
	}
	return nil
}
