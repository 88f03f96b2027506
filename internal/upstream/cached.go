package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/snowlineapp/snowline/internal/models"
)

// ResponseCache is the injected store the caching decorators sit on. Values
// are opaque serialized responses keyed by request parameters.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// HistoricalProvider is the surface of FrostClient the cache decorator wraps.
type HistoricalProvider interface {
	Configured() bool
	NearestSources(ctx context.Context, coord models.Coordinate, maxCount int, elements []string) ([]models.Station, error)
	RegionSources(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]models.Station, error)
	CountrySources(ctx context.Context, countryCode string) ([]models.Station, error)
	Observations(ctx context.Context, stationID string, elements []string, from, to time.Time) ([]models.ObservationRecord, error)
}

// ForecastProvider is the surface of ForecastClient the cache decorator wraps.
type ForecastProvider interface {
	Forecast(ctx context.Context, coord models.Coordinate) ([]models.ForecastPoint, error)
}

// GeocodeProvider is the surface of GeocodeClient the cache decorator wraps.
type GeocodeProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.Place, error)
}

// CachedFrostClient decorates a FrostClient with per-call response caching.
// Errors, including ErrNotConfigured, are never cached.
type CachedFrostClient struct {
	inner HistoricalProvider
	cache ResponseCache
	ttl   time.Duration
}

func NewCachedFrostClient(inner HistoricalProvider, cache ResponseCache, ttl time.Duration) *CachedFrostClient {
	return &CachedFrostClient{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedFrostClient) Configured() bool {
	return c.inner.Configured()
}

func (c *CachedFrostClient) NearestSources(ctx context.Context, coord models.Coordinate, maxCount int, elements []string) ([]models.Station, error) {
	key := fmt.Sprintf("sources:nearest:%.4f,%.4f:%d:%s", coord.Lat, coord.Lon, maxCount, strings.Join(elements, ","))
	var cached []models.Station
	if c.lookup(key, &cached) {
		return cached, nil
	}
	found, err := c.inner.NearestSources(ctx, coord, maxCount, elements)
	if err != nil {
		return nil, err
	}
	c.store(key, found)
	return found, nil
}

func (c *CachedFrostClient) RegionSources(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]models.Station, error) {
	key := fmt.Sprintf("sources:bbox:%.4f,%.4f,%.4f,%.4f", minLon, minLat, maxLon, maxLat)
	var cached []models.Station
	if c.lookup(key, &cached) {
		return cached, nil
	}
	found, err := c.inner.RegionSources(ctx, minLon, minLat, maxLon, maxLat)
	if err != nil {
		return nil, err
	}
	c.store(key, found)
	return found, nil
}

func (c *CachedFrostClient) CountrySources(ctx context.Context, countryCode string) ([]models.Station, error) {
	key := "sources:country:" + countryCode
	var cached []models.Station
	if c.lookup(key, &cached) {
		return cached, nil
	}
	found, err := c.inner.CountrySources(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	c.store(key, found)
	return found, nil
}

func (c *CachedFrostClient) Observations(ctx context.Context, stationID string, elements []string, from, to time.Time) ([]models.ObservationRecord, error) {
	key := fmt.Sprintf("obs:%s:%s:%s/%s",
		stationID, strings.Join(elements, ","),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	var cached []models.ObservationRecord
	if c.lookup(key, &cached) {
		return cached, nil
	}
	records, err := c.inner.Observations(ctx, stationID, elements, from, to)
	if err != nil {
		return nil, err
	}
	c.store(key, records)
	return records, nil
}

func (c *CachedFrostClient) lookup(key string, out any) bool {
	b, ok := c.cache.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (c *CachedFrostClient) store(key string, v any) {
	if b, err := json.Marshal(v); err == nil {
		c.cache.Set(key, b, c.ttl)
	}
}

// CachedForecastClient decorates a ForecastClient with response caching.
type CachedForecastClient struct {
	inner ForecastProvider
	cache ResponseCache
	ttl   time.Duration
}

func NewCachedForecastClient(inner ForecastProvider, cache ResponseCache, ttl time.Duration) *CachedForecastClient {
	return &CachedForecastClient{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedForecastClient) Forecast(ctx context.Context, coord models.Coordinate) ([]models.ForecastPoint, error) {
	key := fmt.Sprintf("forecast:%.4f,%.4f", coord.Lat, coord.Lon)
	if b, ok := c.cache.Get(key); ok {
		var points []models.ForecastPoint
		if json.Unmarshal(b, &points) == nil {
			return points, nil
		}
	}
	points, err := c.inner.Forecast(ctx, coord)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(points); err == nil {
		c.cache.Set(key, b, c.ttl)
	}
	return points, nil
}

// CachedGeocodeClient decorates a GeocodeClient with response caching.
type CachedGeocodeClient struct {
	inner GeocodeProvider
	cache ResponseCache
	ttl   time.Duration
}

func NewCachedGeocodeClient(inner GeocodeProvider, cache ResponseCache, ttl time.Duration) *CachedGeocodeClient {
	return &CachedGeocodeClient{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedGeocodeClient) Search(ctx context.Context, query string, limit int) ([]models.Place, error) {
	key := fmt.Sprintf("geocode:%s:%d", strings.ToLower(query), limit)
	if b, ok := c.cache.Get(key); ok {
		var places []models.Place
		if json.Unmarshal(b, &places) == nil {
			return places, nil
		}
	}
	places, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(places); err == nil {
		c.cache.Set(key, b, c.ttl)
	}
	return places, nil
}
