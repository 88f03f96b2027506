package series

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/upstream"
)

type stubHistorical struct {
	records []models.ObservationRecord
	err     error
	calls   int
	gotFrom time.Time
	gotTo   time.Time
}

func (s *stubHistorical) Observations(_ context.Context, _ string, _ []string, from, to time.Time) ([]models.ObservationRecord, error) {
	s.calls++
	s.gotFrom, s.gotTo = from, to
	return s.records, s.err
}

type stubForecast struct {
	points []models.ForecastPoint
	err    error
	calls  int
}

func (s *stubForecast) Forecast(_ context.Context, _ models.Coordinate) ([]models.ForecastPoint, error) {
	s.calls++
	return s.points, s.err
}

var (
	testNow   = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	testCoord = models.Coordinate{Lat: 61.11, Lon: 8.51}
	testStn   = &models.Station{ID: "SN55290", Name: "Testfjell"}
)

func newTestMerger(h *stubHistorical, f *stubForecast) *Merger {
	return NewMergerWithClock(h, f, clockwork.NewFakeClockAt(testNow))
}

func obsRecord(t time.Time, elements map[string]float64) models.ObservationRecord {
	rec := models.ObservationRecord{ReferenceTime: t, Elements: map[string]models.ElementValue{}}
	for id, v := range elements {
		rec.Elements[id] = models.ElementValue{Value: v}
	}
	return rec
}

func fcPoint(t time.Time, tempC float64, precip1h *float64, precip6h *float64) models.ForecastPoint {
	p := models.ForecastPoint{Time: t}
	p.Instant.TemperatureC = &tempC
	if precip1h != nil {
		p.Next1Hours = &models.ForecastPeriod{PrecipitationMM: precip1h}
	}
	if precip6h != nil {
		p.Next6Hours = &models.ForecastPeriod{PrecipitationMM: precip6h}
	}
	return p
}

func TestBuildUnifiedSeries_MergeRules(t *testing.T) {
	t10 := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	t11 := t10.Add(time.Hour)
	t13 := t10.Add(3 * time.Hour)
	t14 := t10.Add(4 * time.Hour)

	hist := &stubHistorical{records: []models.ObservationRecord{
		// Deliberately unsorted, with a duplicate timestamp.
		obsRecord(t11, map[string]float64{
			"sum(precipitation_amount PT1H)": 1.2,
			upstream.ElementSnowDepth:        42,
			upstream.ElementTemperature:      -3,
		}),
		obsRecord(t10, map[string]float64{
			"sum(precipitation_amount PT6H)": 0.4,
			upstream.ElementWindSpeed:        5,
			upstream.ElementWindDirection:    270,
		}),
		obsRecord(t11, map[string]float64{upstream.ElementTemperature: -99}),
	}}
	fc := &stubForecast{points: []models.ForecastPoint{
		fcPoint(t14, -1, fptr(0.5), nil),
		fcPoint(t11, -2, fptr(9), nil), // overlaps historical, must be dropped
		fcPoint(t13, -1, nil, fptr(3)),
		fcPoint(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), 0, nil, nil), // outside range
	}}

	from := time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	points, status := newTestMerger(hist, fc).BuildUnifiedSeries(context.Background(), testStn, testCoord, from, to)

	if !status.HistoricalUsed || !status.ForecastUsed {
		t.Fatalf("both sources should be used, got %+v", status)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4 (t10, t11, t13, t14)", len(points))
	}

	// Sorted, unique timestamps.
	seen := map[int64]bool{}
	for i, p := range points {
		if i > 0 && points[i-1].Time.After(p.Time) {
			t.Error("series not sorted ascending")
		}
		if seen[p.Time.UnixNano()] {
			t.Errorf("duplicate timestamp %v in output", p.Time)
		}
		seen[p.Time.UnixNano()] = true
	}

	// Historical wins on overlap.
	if points[1].Time != t11 || points[1].IsForecast {
		t.Error("overlapping timestamp must come from the historical source")
	}
	if points[1].PrecipitationMM != 1.2 || points[1].SnowDepthCM == nil || *points[1].SnowDepthCM != 42 {
		t.Errorf("element extraction wrong: %+v", points[1])
	}

	// Precipitation matched by prefix regardless of aggregation suffix.
	if points[0].PrecipitationMM != 0.4 {
		t.Errorf("PT6H-suffixed precipitation not extracted, got %v", points[0].PrecipitationMM)
	}
	if points[0].SnowDepthCM != nil || points[0].TemperatureC != nil {
		t.Error("missing elements must stay nil, not zero")
	}
	if points[0].WindSpeedMS == nil || *points[0].WindSpeedMS != 5 {
		t.Error("wind speed not extracted")
	}

	// Forecast precipitation prefers next-1-hour, falls back to next-6-hour.
	if points[2].Time != t13 || points[2].PrecipitationMM != 3 {
		t.Errorf("next-6-hour fallback precipitation wrong: %+v", points[2])
	}
	if points[3].PrecipitationMM != 0.5 || !points[3].IsForecast {
		t.Errorf("next-1-hour precipitation wrong: %+v", points[3])
	}

	// Historical fetch clamped at "now".
	if !hist.gotTo.Equal(testNow) {
		t.Errorf("historical fetch end = %v, want clamped to now %v", hist.gotTo, testNow)
	}
}

func TestBuildUnifiedSeries_NoStationSkipsHistorical(t *testing.T) {
	hist := &stubHistorical{}
	fc := &stubForecast{points: []models.ForecastPoint{
		fcPoint(testNow.Add(time.Hour), -1, fptr(1), nil),
	}}

	points, status := newTestMerger(hist, fc).BuildUnifiedSeries(
		context.Background(), nil, testCoord, testNow.Add(-48*time.Hour), testNow.Add(24*time.Hour))

	if hist.calls != 0 {
		t.Error("historical gateway must not be called without a station")
	}
	if status.HistoricalUsed || status.HistoricalFailed || status.HistoricalNotConfigured {
		t.Errorf("unexpected historical status: %+v", status)
	}
	if len(points) != 1 || !points[0].IsForecast {
		t.Fatalf("expected one forecast point, got %+v", points)
	}
}

func TestBuildUnifiedSeries_NotConfiguredIsAdvisory(t *testing.T) {
	hist := &stubHistorical{err: upstream.ErrNotConfigured}
	fc := &stubForecast{points: []models.ForecastPoint{
		fcPoint(testNow.Add(time.Hour), -1, fptr(1), nil),
	}}

	points, status := newTestMerger(hist, fc).BuildUnifiedSeries(
		context.Background(), testStn, testCoord, testNow.Add(-48*time.Hour), testNow.Add(24*time.Hour))

	if !status.HistoricalNotConfigured {
		t.Error("missing credential must be reported as not-configured")
	}
	if status.HistoricalFailed {
		t.Error("not-configured is distinct from failed")
	}
	if fc.calls != 1 || len(points) != 1 {
		t.Error("forecast fetch must proceed when historical is not configured")
	}
}

func TestBuildUnifiedSeries_PartialFailureIsNonFatal(t *testing.T) {
	t.Run("historical fails", func(t *testing.T) {
		hist := &stubHistorical{err: errors.New("boom")}
		fc := &stubForecast{points: []models.ForecastPoint{
			fcPoint(testNow.Add(time.Hour), -1, fptr(1), nil),
		}}
		points, status := newTestMerger(hist, fc).BuildUnifiedSeries(
			context.Background(), testStn, testCoord, testNow.Add(-48*time.Hour), testNow.Add(24*time.Hour))
		if !status.HistoricalFailed || status.HistoricalNotConfigured {
			t.Errorf("bad status: %+v", status)
		}
		if len(points) != 1 {
			t.Error("forecast points must survive a historical failure")
		}
	})

	t.Run("forecast fails", func(t *testing.T) {
		hist := &stubHistorical{records: []models.ObservationRecord{
			obsRecord(testNow.Add(-2*time.Hour), map[string]float64{upstream.ElementSnowDepth: 10}),
		}}
		fc := &stubForecast{err: errors.New("boom")}
		points, status := newTestMerger(hist, fc).BuildUnifiedSeries(
			context.Background(), testStn, testCoord, testNow.Add(-48*time.Hour), testNow.Add(24*time.Hour))
		if !status.ForecastFailed || !status.HistoricalUsed {
			t.Errorf("bad status: %+v", status)
		}
		if len(points) != 1 || points[0].IsForecast {
			t.Error("historical points must survive a forecast failure")
		}
	})
}

func TestBuildUnifiedSeries_PastRangeSkipsForecast(t *testing.T) {
	hist := &stubHistorical{}
	fc := &stubForecast{}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	_, status := newTestMerger(hist, fc).BuildUnifiedSeries(context.Background(), testStn, testCoord, from, to)

	if fc.calls != 0 {
		t.Error("forecast must not be fetched for a wholly past range")
	}
	if status.ForecastUsed || status.ForecastFailed {
		t.Errorf("unexpected forecast status: %+v", status)
	}
}
