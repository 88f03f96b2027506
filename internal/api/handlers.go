package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/series"
	"github.com/snowlineapp/snowline/internal/stations"
	"github.com/snowlineapp/snowline/internal/upstream"
)

const defaultMaxStations = 10

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoord(r)
	if err != nil {
		writeError(w, err)
		return
	}

	points, err := s.forecast.Forecast(r.Context(), coord)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[models.ForecastPoint]{Data: points})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoord(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var maxDistance float64
	if v := r.URL.Query().Get("maxDistance"); v != "" {
		maxDistance, err = strconv.ParseFloat(v, 64)
		if err != nil || maxDistance <= 0 {
			writeError(w, &upstream.InputError{Msg: "maxDistance must be a positive number of meters"})
			return
		}
	}

	list, err := s.resolver.NearestStations(r.Context(), coord, defaultMaxStations)
	if err != nil {
		writeError(w, err)
		return
	}
	if maxDistance > 0 {
		kept := make([]models.Station, 0, len(list))
		for _, st := range list {
			if st.DistanceM != nil && *st.DistanceM <= maxDistance {
				kept = append(kept, st)
			}
		}
		list = kept
	}
	if list == nil {
		list = []models.Station{}
	}
	writeJSON(w, http.StatusOK, dataResponse[models.Station]{Data: list})
}

func (s *Server) handleStationsRegion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		list []models.Station
		err  error
	)
	switch {
	case q.Get("bbox") != "":
		parts := strings.Split(q.Get("bbox"), ",")
		if len(parts) != 4 {
			writeError(w, &upstream.InputError{Msg: "bbox must be minLon,minLat,maxLon,maxLat"})
			return
		}
		vals := make([]float64, 4)
		for i, p := range parts {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				writeError(w, &upstream.InputError{Msg: "bbox must be minLon,minLat,maxLon,maxLat"})
				return
			}
		}
		list, err = s.historical.RegionSources(r.Context(), vals[0], vals[1], vals[2], vals[3])
	case q.Get("country") != "":
		list, err = s.historical.CountrySources(r.Context(), q.Get("country"))
	default:
		writeError(w, &upstream.InputError{Msg: "either bbox or country is required"})
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Station{}
	}
	writeJSON(w, http.StatusOK, dataResponse[models.Station]{Data: list})
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stationID := q.Get("sources")
	if stationID == "" {
		writeError(w, &upstream.InputError{Msg: "sources is required"})
		return
	}

	elements := upstream.ObservationElements
	if v := q.Get("elements"); v != "" {
		elements = strings.Split(v, ",")
	}

	from, to, err := parseReferenceTime(q.Get("referencetime"))
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.historical.Observations(r.Context(), stationID, elements, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.ObservationRecord{}
	}
	writeJSON(w, http.StatusOK, dataResponse[models.ObservationRecord]{Data: records})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, &upstream.InputError{Msg: "q is required"})
		return
	}

	places, err := s.geocoder.Search(r.Context(), query, defaultMaxStations)
	if err != nil {
		writeError(w, err)
		return
	}
	if places == nil {
		places = []models.Place{}
	}
	writeJSON(w, http.StatusOK, dataResponse[models.Place]{Data: places})
}

type seriesResponse struct {
	Data    []models.UnifiedDataPoint `json:"data"`
	Status  series.SourceStatus       `json:"status"`
	Station *models.Station           `json:"station,omitempty"`
}

// handleSeries runs the full pipeline: nearest station, concurrent
// historical and forecast fetches, merge, snow depth estimation. Upstream
// trouble on the historical side degrades to forecast-only rather than
// failing the request.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	coord, err := parseCoord(r)
	if err != nil {
		writeError(w, err)
		return
	}
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, &upstream.InputError{Msg: "from must be RFC3339 or YYYY-MM-DD"})
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, &upstream.InputError{Msg: "to must be RFC3339 or YYYY-MM-DD"})
		return
	}
	if to.Before(from) {
		writeError(w, &upstream.InputError{Msg: "to must not be before from"})
		return
	}

	var (
		station       *models.Station
		notConfigured bool
		lookupFailed  bool
	)
	list, err := s.resolver.NearestStations(r.Context(), coord, 1)
	switch {
	case errors.Is(err, upstream.ErrNotConfigured):
		notConfigured = true
	case err != nil:
		log.Printf("station lookup failed, continuing forecast-only: %v", err)
		lookupFailed = true
	default:
		station = stations.SelectedStation(list)
	}

	points, status := s.merger.BuildUnifiedSeries(r.Context(), station, coord, from, to)
	if notConfigured {
		status.HistoricalNotConfigured = true
	}
	if lookupFailed {
		status.HistoricalFailed = true
	}

	series.EstimateSnowDepth(points)

	writeJSON(w, http.StatusOK, seriesResponse{Data: points, Status: status, Station: station})
}

type dataResponse[T any] struct {
	Data []T `json:"data"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func parseCoord(r *http.Request) (models.Coordinate, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" || lonStr == "" {
		return models.Coordinate{}, &upstream.InputError{Msg: "lat and lon are required"}
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Coordinate{}, &upstream.InputError{Msg: "lat must be a number"}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.Coordinate{}, &upstream.InputError{Msg: "lon must be a number"}
	}
	coord := models.Coordinate{Lat: lat, Lon: lon}
	if !coord.Valid() {
		return models.Coordinate{}, &upstream.InputError{Msg: "lat/lon outside valid ranges"}
	}
	return coord, nil
}

// parseReferenceTime splits the provider-style "<ISO8601>/<ISO8601>" range.
func parseReferenceTime(v string) (time.Time, time.Time, error) {
	parts := strings.SplitN(v, "/", 2)
	if v == "" || len(parts) != 2 {
		return time.Time{}, time.Time{}, &upstream.InputError{Msg: "referencetime must be <ISO8601>/<ISO8601>"}
	}
	from, err := parseTimeParam(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, &upstream.InputError{Msg: "invalid referencetime start"}
	}
	to, err := parseTimeParam(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, &upstream.InputError{Msg: "invalid referencetime end"}
	}
	return from, to, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var (
		authErr *upstream.AuthError
		upErr   *upstream.UpstreamError
		inErr   *upstream.InputError
	)
	switch {
	case errors.Is(err, upstream.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:  "not_configured",
			Detail: "FROST_CLIENT_ID is not set; historical data endpoints are unavailable",
		})
	case errors.As(err, &inErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: inErr.Msg})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "upstream_auth", Detail: authErr.Error()})
	case errors.As(err, &upErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:  "upstream_error",
			Detail: fmt.Sprintf("%s returned status %d", upErr.Provider, upErr.Status),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Detail: err.Error()})
	}
}
