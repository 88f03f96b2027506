package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/snowlineapp/snowline/internal/httputil"
	"github.com/snowlineapp/snowline/internal/metrics"
	"github.com/snowlineapp/snowline/internal/models"
)

const DefaultForecastBaseURL = "https://api.met.no/weatherapi/locationforecast/2.0"

// ForecastClient talks to the gridded forecast provider. The provider needs
// no credentials but rejects requests without an identifying User-Agent.
type ForecastClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewForecastClient(baseURL string) *ForecastClient {
	if baseURL == "" {
		baseURL = DefaultForecastBaseURL
	}
	return &ForecastClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: httputil.UserAgent,
		client:    httputil.NewClient(),
	}
}

type forecastResponse struct {
	Properties struct {
		Timeseries []forecastStep `json:"timeseries"`
	} `json:"properties"`
}

type forecastStep struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details struct {
				AirTemperature        *float64 `json:"air_temperature"`
				WindSpeed             *float64 `json:"wind_speed"`
				WindFromDirection     *float64 `json:"wind_from_direction"`
				RelativeHumidity      *float64 `json:"relative_humidity"`
				AirPressureAtSeaLevel *float64 `json:"air_pressure_at_sea_level"`
			} `json:"details"`
		} `json:"instant"`
		Next1Hours *nextHours `json:"next_1_hours"`
		Next6Hours *nextHours `json:"next_6_hours"`
	} `json:"data"`
}

type nextHours struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount *float64 `json:"precipitation_amount"`
	} `json:"details"`
}

// Forecast fetches the full forecast time series for a coordinate. The
// forecast is location-based, not station-based.
func (c *ForecastClient) Forecast(ctx context.Context, coord models.Coordinate) ([]models.ForecastPoint, error) {
	u := fmt.Sprintf("%s/compact?lat=%.4f&lon=%.4f", c.baseURL, coord.Lat, coord.Lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.UpstreamLatency.WithLabelValues("locationforecast", "compact").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("locationforecast", "compact", "error").Inc()
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequestsTotal.WithLabelValues("locationforecast", "compact", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Provider: "locationforecast", Status: resp.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal forecast: %w", err)
	}

	points := make([]models.ForecastPoint, 0, len(data.Properties.Timeseries))
	for _, step := range data.Properties.Timeseries {
		p := models.ForecastPoint{
			Time: step.Time.UTC(),
			Instant: models.ForecastInstant{
				TemperatureC:     step.Data.Instant.Details.AirTemperature,
				WindSpeedMS:      step.Data.Instant.Details.WindSpeed,
				WindDirectionDeg: step.Data.Instant.Details.WindFromDirection,
				HumidityPct:      step.Data.Instant.Details.RelativeHumidity,
				PressureHpa:      step.Data.Instant.Details.AirPressureAtSeaLevel,
			},
		}
		if step.Data.Next1Hours != nil {
			p.Next1Hours = &models.ForecastPeriod{
				PrecipitationMM: step.Data.Next1Hours.Details.PrecipitationAmount,
				SymbolCode:      step.Data.Next1Hours.Summary.SymbolCode,
			}
		}
		if step.Data.Next6Hours != nil {
			p.Next6Hours = &models.ForecastPeriod{
				PrecipitationMM: step.Data.Next6Hours.Details.PrecipitationAmount,
				SymbolCode:      step.Data.Next6Hours.Summary.SymbolCode,
			}
		}
		points = append(points, p)
	}
	return points, nil
}
