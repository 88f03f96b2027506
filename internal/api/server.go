package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/series"
	"github.com/snowlineapp/snowline/internal/stations"
)

// HistoricalGateway is the historical observations provider as the handlers
// see it, usually a cache-decorated frost client.
type HistoricalGateway interface {
	Configured() bool
	NearestSources(ctx context.Context, coord models.Coordinate, maxCount int, elements []string) ([]models.Station, error)
	RegionSources(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]models.Station, error)
	CountrySources(ctx context.Context, countryCode string) ([]models.Station, error)
	Observations(ctx context.Context, stationID string, elements []string, from, to time.Time) ([]models.ObservationRecord, error)
}

// ForecastGateway is the gridded forecast provider.
type ForecastGateway interface {
	Forecast(ctx context.Context, coord models.Coordinate) ([]models.ForecastPoint, error)
}

// Geocoder resolves place names.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]models.Place, error)
}

type Server struct {
	historical HistoricalGateway
	forecast   ForecastGateway
	geocoder   Geocoder
	resolver   *stations.Resolver
	merger     *series.Merger
	port       string
}

func NewServer(historical HistoricalGateway, forecast ForecastGateway, geocoder Geocoder, port string) *Server {
	return NewServerWithClock(historical, forecast, geocoder, port, clockwork.NewRealClock())
}

// NewServerWithClock pins the time source used for the historical/forecast
// window split, for tests.
func NewServerWithClock(historical HistoricalGateway, forecast ForecastGateway, geocoder Geocoder, port string, clock clockwork.Clock) *Server {
	return &Server{
		historical: historical,
		forecast:   forecast,
		geocoder:   geocoder,
		resolver:   stations.NewResolver(historical),
		merger:     series.NewMergerWithClock(historical, forecast, clock),
		port:       port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /forecast", s.handleForecast)
	mux.HandleFunc("GET /stations", s.handleStations)
	mux.HandleFunc("GET /stations-region", s.handleStationsRegion)
	mux.HandleFunc("GET /observations", s.handleObservations)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /series", s.handleSeries)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
