package providers

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/worldview/internal/worldview"
)

// CachedCountryProvider wraps a CountryProvider with a TTL cache keyed by
// country code. Failures are not cached.
type CachedCountryProvider struct {
	source worldview.CountryProvider
	ttl    time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	cache  map[string]countryEntry
	hits   int
	misses int
}

type countryEntry struct {
	profile   worldview.CountryProfile
	fetchedAt time.Time
}

// NewCachedCountryProvider creates a cache in front of source.
func NewCachedCountryProvider(source worldview.CountryProvider, ttl time.Duration) *CachedCountryProvider {
	return &CachedCountryProvider{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]countryEntry),
	}
}

func (c *CachedCountryProvider) Name() string {
	return c.source.Name() + " [Cached]"
}

func (c *CachedCountryProvider) Country(ctx context.Context, code string) (worldview.CountryProfile, error) {
	key := strings.ToUpper(code)

	c.mu.RLock()
	entry, found := c.cache[key]
	c.mu.RUnlock()

	if found && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		log.Printf("DEBUG: country cache hit for %s (age %s)", key, c.now().Sub(entry.fetchedAt).Round(time.Second))
		return entry.profile, nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	profile, err := c.source.Country(ctx, code)
	if err != nil {
		return worldview.CountryProfile{}, err
	}

	c.mu.Lock()
	c.cache[key] = countryEntry{profile: profile, fetchedAt: c.now()}
	c.mu.Unlock()

	return profile, nil
}

// Stats returns cache hits and misses.
func (c *CachedCountryProvider) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

var _ worldview.CountryProvider = (*CachedCountryProvider)(nil)
