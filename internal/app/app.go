package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/worldview/internal/config"
	"github.com/i474232898/worldview/internal/store"
	"github.com/i474232898/worldview/internal/worldview"
	"github.com/i474232898/worldview/internal/worldview/providers"
)

// App holds the wired application: the pipeline and the stores it persists to.
type App struct {
	Pipeline    *worldview.Pipeline
	History     *store.HistoryStore
	Preferences *store.Preferences

	closer io.Closer
}

// New wires providers, storage and the pipeline from cfg, restoring history
// and the language preference from durable storage.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	kv, closer, err := newKV(ctx, cfg)
	if err != nil {
		return nil, err
	}

	history := store.NewHistoryStore(kv)
	restored := history.Load(ctx)
	log.Printf("INFO: restored %d history entries", len(restored))

	prefs := store.NewPreferences(kv, cfg.DefaultLanguage)

	upstream := providers.UpstreamConfig{
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.UpstreamMaxRetries,
	}

	var geocoder worldview.Geocoder
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey, cfg.GeocoderRPS)
	} else {
		nc := upstream
		nc.BaseURL = cfg.NominatimBaseURL
		nc.RPS = cfg.GeocoderRPS
		geocoder = providers.NewNominatimGeocoder(httpClient, nc)
	}

	wc := upstream
	wc.BaseURL = cfg.OpenWeatherBaseURL
	weatherProvider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, wc)
	if cfg.OpenWeatherAPIKey == "" {
		log.Printf("INFO: OPENWEATHER_API_KEY is not set; weather lookups will fail")
	}

	cc := upstream
	cc.BaseURL = cfg.RestCountriesBaseURL
	var countries worldview.CountryProvider = providers.NewRestCountriesProvider(httpClient, cc)
	if cfg.CountryCacheTTL > 0 {
		countries = providers.NewCachedCountryProvider(countries, cfg.CountryCacheTTL)
	}

	pipeline := worldview.NewPipeline(
		worldview.NewResolver(geocoder, newDeviceLocator(cfg, httpClient, upstream)),
		worldview.NewFetcher(weatherProvider),
		worldview.NewEnricher(countries),
		worldview.Options{
			Policy:      cfg.SupersedePolicy,
			Language:    prefs.Language(ctx),
			History:     history,
			Preferences: prefs,
		},
	)

	log.Printf("INFO: geocoder=%s weather=%s countries=%s policy=%s",
		geocoder.Name(), weatherProvider.Name(), countries.Name(), cfg.SupersedePolicy)

	return &App{
		Pipeline:    pipeline,
		History:     history,
		Preferences: prefs,
		closer:      closer,
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func newKV(ctx context.Context, cfg *config.AppConfig) (store.KV, io.Closer, error) {
	if cfg.RedisAddr == "" {
		log.Printf("INFO: persisting state to %s", cfg.StatePath)
		return store.NewFileKV(cfg.StatePath), nil, nil
	}

	kv := store.NewRedisKV(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), "worldview:")
	if err := kv.Ping(ctx); err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("INFO: persisting state to redis at %s", cfg.RedisAddr)
	return kv, kv, nil
}

func newDeviceLocator(cfg *config.AppConfig, client *http.Client, upstream providers.UpstreamConfig) worldview.DeviceLocator {
	switch cfg.DeviceLocator {
	case config.DeviceIP:
		ic := upstream
		ic.BaseURL = cfg.IPAPIBaseURL
		return providers.NewIPLocator(client, ic)
	case config.DeviceFixed:
		return providers.FixedLocator{Lat: cfg.DeviceLat, Lon: cfg.DeviceLon}
	default:
		return nil
	}
}
