package series

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snowlineapp/snowline/internal/metrics"
	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/upstream"
)

// HistoricalSource is the slice of the historical gateway the merge needs.
type HistoricalSource interface {
	Observations(ctx context.Context, stationID string, elements []string, from, to time.Time) ([]models.ObservationRecord, error)
}

// ForecastSource is the slice of the forecast gateway the merge needs.
type ForecastSource interface {
	Forecast(ctx context.Context, coord models.Coordinate) ([]models.ForecastPoint, error)
}

// SourceStatus tells the caller how each upstream fared. A missing
// credential on the historical side is an advisory, not an error: the
// pipeline continues forecast-only.
type SourceStatus struct {
	HistoricalUsed          bool `json:"historicalUsed"`
	HistoricalNotConfigured bool `json:"historicalNotConfigured"`
	HistoricalFailed        bool `json:"historicalFailed"`
	ForecastUsed            bool `json:"forecastUsed"`
	ForecastFailed          bool `json:"forecastFailed"`
}

// Merger reconciles historical observation records and forecast points for
// one location into a single ordered, deduplicated series.
type Merger struct {
	historical HistoricalSource
	forecast   ForecastSource
	clock      clockwork.Clock
}

func NewMerger(historical HistoricalSource, forecast ForecastSource) *Merger {
	return NewMergerWithClock(historical, forecast, clockwork.NewRealClock())
}

// NewMergerWithClock injects the time source the historical/forecast window
// split is derived from, so tests can pin "now".
func NewMergerWithClock(historical HistoricalSource, forecast ForecastSource, clock clockwork.Clock) *Merger {
	return &Merger{historical: historical, forecast: forecast, clock: clock}
}

// BuildUnifiedSeries merges both sources for [from, to]. Historical records
// are fetched when the range reaches into the past and a station is known;
// forecast points when it reaches into the future. The two fetches run
// concurrently and a failure of one never aborts the other. On overlap the
// historical point wins; the output never holds two points with the same
// timestamp and is sorted ascending.
func (m *Merger) BuildUnifiedSeries(ctx context.Context, station *models.Station, coord models.Coordinate, from, to time.Time) ([]models.UnifiedDataPoint, SourceStatus) {
	now := m.clock.Now().UTC()
	today := startOfDay(now)

	wantHistorical := from.Before(today) && station != nil
	// Forecast is wanted when the range reaches into the future, or starts
	// today or within the next day.
	wantForecast := to.After(now) || (!from.Before(today) && from.Before(now.Add(24*time.Hour)))

	var (
		wg       sync.WaitGroup
		records  []models.ObservationRecord
		fcPoints []models.ForecastPoint
		histErr  error
		fcErr    error
	)

	if wantHistorical {
		histTo := to
		if histTo.After(now) {
			histTo = now
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, histErr = m.historical.Observations(ctx, station.ID, upstream.ObservationElements, from, histTo)
		}()
	}
	if wantForecast {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fcPoints, fcErr = m.forecast.Forecast(ctx, coord)
		}()
	}
	wg.Wait()

	var status SourceStatus
	switch {
	case !wantHistorical:
	case errors.Is(histErr, upstream.ErrNotConfigured):
		status.HistoricalNotConfigured = true
	case histErr != nil:
		log.Printf("historical fetch failed, continuing without observations: %v", histErr)
		status.HistoricalFailed = true
	default:
		status.HistoricalUsed = true
	}
	switch {
	case !wantForecast:
	case fcErr != nil:
		log.Printf("forecast fetch failed, continuing without forecast: %v", fcErr)
		status.ForecastFailed = true
	default:
		status.ForecastUsed = true
	}

	seen := make(map[int64]struct{})
	points := make([]models.UnifiedDataPoint, 0, len(records)+len(fcPoints))

	// Historical first: on timestamp overlap the measured record takes
	// precedence over the prediction. The provider may repeat timestamps
	// within one batch, so dedup applies here too.
	for _, rec := range records {
		p := historicalPoint(rec)
		key := p.Time.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		points = append(points, p)
		metrics.SeriesPointsTotal.WithLabelValues("historical").Inc()
	}

	winStart := startOfDay(from.UTC())
	winEnd := endOfDay(to.UTC())
	for _, fp := range fcPoints {
		t := fp.Time.UTC()
		if t.Before(winStart) || t.After(winEnd) {
			continue
		}
		key := t.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		points = append(points, forecastPoint(fp))
		metrics.SeriesPointsTotal.WithLabelValues("forecast").Inc()
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	return points, status
}

func historicalPoint(rec models.ObservationRecord) models.UnifiedDataPoint {
	p := models.UnifiedDataPoint{
		Time:       rec.ReferenceTime.UTC(),
		IsForecast: false,
	}
	for id, ev := range rec.Elements {
		v := ev.Value
		switch {
		case upstream.IsPrecipitationElement(id):
			p.PrecipitationMM = v
		case id == upstream.ElementSnowDepth:
			p.SnowDepthCM = &v
		case id == upstream.ElementTemperature:
			p.TemperatureC = &v
		case id == upstream.ElementWindSpeed:
			p.WindSpeedMS = &v
		case id == upstream.ElementWindDirection:
			p.WindDirectionDeg = &v
		}
	}
	return p
}

func forecastPoint(fp models.ForecastPoint) models.UnifiedDataPoint {
	p := models.UnifiedDataPoint{
		Time:             fp.Time.UTC(),
		TemperatureC:     fp.Instant.TemperatureC,
		WindSpeedMS:      fp.Instant.WindSpeedMS,
		WindDirectionDeg: fp.Instant.WindDirectionDeg,
		IsForecast:       true,
	}
	switch {
	case fp.Next1Hours != nil && fp.Next1Hours.PrecipitationMM != nil:
		p.PrecipitationMM = *fp.Next1Hours.PrecipitationMM
	case fp.Next6Hours != nil && fp.Next6Hours.PrecipitationMM != nil:
		p.PrecipitationMM = *fp.Next6Hours.PrecipitationMM
	}
	return p
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
