package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/snowlineapp/snowline/internal/httputil"
	"github.com/snowlineapp/snowline/internal/metrics"
	"github.com/snowlineapp/snowline/internal/models"
)

const DefaultGeocodeBaseURL = "https://nominatim.openstreetmap.org"

// GeocodeClient resolves free-text place names to coordinates.
type GeocodeClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewGeocodeClient(baseURL string) *GeocodeClient {
	if baseURL == "" {
		baseURL = DefaultGeocodeBaseURL
	}
	return &GeocodeClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: httputil.UserAgent,
		client:    httputil.NewClient(),
	}
}

type geocodeEntry struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Search returns up to limit matches for a place-name query. No match is a
// successful empty slice, never an error.
func (g *GeocodeClient) Search(ctx context.Context, query string, limit int) ([]models.Place, error) {
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.UpstreamLatency.WithLabelValues("geocode", "search").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("geocode", "search", "error").Inc()
		return nil, fmt.Errorf("geocode search: %w", err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues("geocode", "search", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Provider: "geocode", Status: resp.StatusCode, Body: string(b)}
	}

	var entries []geocodeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	places := make([]models.Place, 0, len(entries))
	for _, e := range entries {
		lat, latErr := strconv.ParseFloat(e.Lat, 64)
		lon, lonErr := strconv.ParseFloat(e.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		places = append(places, models.Place{
			Name:        e.DisplayName,
			Coord:       models.Coordinate{Lat: lat, Lon: lon},
			CountryCode: e.Address.CountryCode,
		})
	}
	return places, nil
}
