package upstream

import (
	"context"
	"encoding/json"
	"errors"
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

const DefaultFrostBaseURL = "https://frost.met.no"

// FrostClient talks to the historical station-observation provider. All
// calls use basic auth with the configured client ID and an empty secret.
// A client with an empty ID is valid to construct but refuses every call
// with ErrNotConfigured before any I/O.
type FrostClient struct {
	clientID  string
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewFrostClient(clientID, baseURL string) *FrostClient {
	if baseURL == "" {
		baseURL = DefaultFrostBaseURL
	}
	return &FrostClient{
		clientID:  clientID,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: httputil.UserAgent,
		client:    httputil.NewClient(),
	}
}

// Configured reports whether a client ID is present.
func (f *FrostClient) Configured() bool {
	return f.clientID != ""
}

type sourcesResponse struct {
	Data []sourceEntry `json:"data"`
}

type sourceEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Distance *float64 `json:"distance"` // km from the query point
	Geometry *struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

// NearestSources returns stations nearest the coordinate, closest first,
// optionally filtered to stations exposing the given elements. A provider
// "not found" is an empty list, not an error.
func (f *FrostClient) NearestSources(ctx context.Context, coord models.Coordinate, maxCount int, elements []string) ([]models.Station, error) {
	params := url.Values{
		"types":           {"SensorSystem"},
		"geometry":        {fmt.Sprintf("nearest(POINT(%f %f))", coord.Lon, coord.Lat)},
		"nearestmaxcount": {strconv.Itoa(maxCount)},
	}
	if len(elements) > 0 {
		params.Set("elements", strings.Join(elements, ","))
	}
	return f.fetchSources(ctx, "sources", params)
}

// RegionSources returns stations inside a bounding box, for map display.
// minLon,minLat,maxLon,maxLat order.
func (f *FrostClient) RegionSources(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]models.Station, error) {
	polygon := fmt.Sprintf("POLYGON((%f %f, %f %f, %f %f, %f %f, %f %f))",
		minLon, minLat, maxLon, minLat, maxLon, maxLat, minLon, maxLat, minLon, minLat)
	params := url.Values{
		"types":    {"SensorSystem"},
		"geometry": {polygon},
	}
	return f.fetchSources(ctx, "sources", params)
}

// CountrySources returns all stations in a country, for map display.
func (f *FrostClient) CountrySources(ctx context.Context, countryCode string) ([]models.Station, error) {
	params := url.Values{
		"types":   {"SensorSystem"},
		"country": {countryCode},
	}
	return f.fetchSources(ctx, "sources", params)
}

func (f *FrostClient) fetchSources(ctx context.Context, endpoint string, params url.Values) ([]models.Station, error) {
	body, err := f.doRequest(ctx, endpoint, "/sources/v0.jsonld?"+params.Encode())
	if errors.Is(err, errNotFound) {
		return []models.Station{}, nil
	}
	if err != nil {
		return nil, err
	}

	var data sourcesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}

	stations := make([]models.Station, 0, len(data.Data))
	for _, src := range data.Data {
		st := models.Station{ID: src.ID, Name: src.Name}
		if src.Geometry != nil && len(src.Geometry.Coordinates) == 2 {
			st.Coord = models.Coordinate{Lon: src.Geometry.Coordinates[0], Lat: src.Geometry.Coordinates[1]}
		}
		if src.Distance != nil {
			m := *src.Distance * 1000 // provider reports km
			st.DistanceM = &m
		}
		stations = append(stations, st)
	}
	return stations, nil
}

type observationsResponse struct {
	Data []observationEntry `json:"data"`
}

type observationEntry struct {
	SourceID      string `json:"sourceId"`
	ReferenceTime string `json:"referenceTime"`
	Observations  []struct {
		ElementID string  `json:"elementId"`
		Value     float64 `json:"value"`
		Unit      string  `json:"unit"`
	} `json:"observations"`
}

// Observations fetches measured values for one station over a time range.
// A provider "not found" (no data in the period) is an empty slice.
func (f *FrostClient) Observations(ctx context.Context, stationID string, elements []string, from, to time.Time) ([]models.ObservationRecord, error) {
	params := url.Values{
		"sources":       {stationID},
		"elements":      {strings.Join(elements, ",")},
		"referencetime": {from.UTC().Format(time.RFC3339) + "/" + to.UTC().Format(time.RFC3339)},
	}

	body, err := f.doRequest(ctx, "observations", "/observations/v0.jsonld?"+params.Encode())
	if errors.Is(err, errNotFound) {
		return []models.ObservationRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var data observationsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal observations: %w", err)
	}

	records := make([]models.ObservationRecord, 0, len(data.Data))
	for _, entry := range data.Data {
		ts, err := time.Parse(time.RFC3339, entry.ReferenceTime)
		if err != nil {
			continue
		}
		rec := models.ObservationRecord{
			ReferenceTime: ts.UTC(),
			Elements:      make(map[string]models.ElementValue, len(entry.Observations)),
		}
		for _, obs := range entry.Observations {
			rec.Elements[obs.ElementID] = models.ElementValue{Value: obs.Value, Unit: obs.Unit}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (f *FrostClient) doRequest(ctx context.Context, endpoint, path string) ([]byte, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(f.clientID, "")
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.UpstreamLatency.WithLabelValues("frost", endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("frost", endpoint, "error").Inc()
		return nil, fmt.Errorf("frost %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues("frost", endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Provider: "frost"}
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Provider: "frost", Status: resp.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
