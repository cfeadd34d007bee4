package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/worldview/internal/worldview"
)

// Device locator modes.
const (
	DeviceNone  = "none"
	DeviceIP    = "ip"
	DeviceFixed = "fixed"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	// GoogleGeocoderAPIKey switches geocoding from Nominatim to Google when set.
	GoogleGeocoderAPIKey string

	NominatimBaseURL     string
	OpenWeatherBaseURL   string
	RestCountriesBaseURL string
	IPAPIBaseURL         string
	UserAgent            string

	HTTPTimeout        time.Duration
	UpstreamMaxRetries int
	GeocoderRPS        float64

	// CountryCacheTTL of 0 re-fetches country metadata on every render.
	CountryCacheTTL time.Duration

	DeviceLocator string
	DeviceLat     float64
	DeviceLon     float64

	// Durable state: Redis when RedisAddr is set, otherwise a JSON file.
	StatePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RefreshInterval re-renders the displayed city periodically (0 = disabled).
	RefreshInterval time.Duration

	SupersedePolicy worldview.SupersedePolicy
	DefaultLanguage worldview.Language

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.NominatimBaseURL = os.Getenv("NOMINATIM_BASE_URL")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.RestCountriesBaseURL = os.Getenv("RESTCOUNTRIES_BASE_URL")
	cfg.IPAPIBaseURL = os.Getenv("IPAPI_BASE_URL")
	cfg.UserAgent = getenvDefault("USER_AGENT", "worldview/1.0 (+https://github.com/i474232898/worldview)")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CountryCacheTTL, err = getenvDuration("COUNTRY_CACHE_TTL", "0s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	if cfg.UpstreamMaxRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_MAX_RETRIES: %d", cfg.UpstreamMaxRetries)
	}
	if cfg.GeocoderRPS, err = getenvFloat("GEOCODER_RPS", 1); err != nil {
		return nil, err
	}

	cfg.DeviceLocator = getenvDefault("DEVICE_LOCATOR", DeviceNone)
	switch cfg.DeviceLocator {
	case DeviceNone, DeviceIP:
	case DeviceFixed:
		if cfg.DeviceLat, err = getenvFloat("DEVICE_LAT", 0); err != nil {
			return nil, err
		}
		if cfg.DeviceLon, err = getenvFloat("DEVICE_LON", 0); err != nil {
			return nil, err
		}
		if !worldview.ValidCoords(cfg.DeviceLat, cfg.DeviceLon) {
			return nil, fmt.Errorf("invalid DEVICE_LAT/DEVICE_LON: %f,%f", cfg.DeviceLat, cfg.DeviceLon)
		}
	default:
		return nil, fmt.Errorf("invalid DEVICE_LOCATOR: %q", cfg.DeviceLocator)
	}

	cfg.StatePath = getenvDefault("STATE_PATH", ".worldview/state.json")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.SupersedePolicy = worldview.SupersedePolicy(getenvDefault("SUPERSEDE_POLICY", string(worldview.PolicyLastArrival)))
	switch cfg.SupersedePolicy {
	case worldview.PolicyLastArrival, worldview.PolicyLatestRequest:
	default:
		return nil, fmt.Errorf("invalid SUPERSEDE_POLICY: %q", cfg.SupersedePolicy)
	}

	cfg.DefaultLanguage = worldview.Language(getenvDefault("DEFAULT_LANGUAGE", string(worldview.LangEnglish)))
	if !cfg.DefaultLanguage.Supported() {
		return nil, fmt.Errorf("invalid DEFAULT_LANGUAGE: %q", cfg.DefaultLanguage)
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}
