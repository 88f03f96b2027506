package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/snowlineapp/snowline/internal/api"
	"github.com/snowlineapp/snowline/internal/cache"
	"github.com/snowlineapp/snowline/internal/upstream"
)

var cli struct {
	Port            string        `help:"HTTP server port." default:"8080" env:"PORT"`
	FrostClientID   string        `help:"Client ID for the historical observations provider. When absent, historical endpoints respond 503 and the pipeline runs forecast-only." env:"FROST_CLIENT_ID"`
	FrostBaseURL    string        `help:"Override the historical observations base URL." env:"FROST_BASE_URL"`
	ForecastBaseURL string        `help:"Override the forecast provider base URL." env:"FORECAST_BASE_URL"`
	GeocodeBaseURL  string        `help:"Override the geocoding provider base URL." env:"GEOCODE_BASE_URL"`
	ForecastTTL     time.Duration `help:"Forecast response cache TTL." default:"30m" env:"FORECAST_CACHE_TTL"`
	StationTTL      time.Duration `help:"Station and observation response cache TTL." default:"1h" env:"STATION_CACHE_TTL"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("snowline"),
		kong.Description("Unified snow depth series over station observations and gridded forecasts."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	if cli.FrostClientID == "" {
		log.Println("FROST_CLIENT_ID not set: historical observations disabled, serving forecast-only")
	}

	respCache := cache.New()

	frost := upstream.NewCachedFrostClient(
		upstream.NewFrostClient(cli.FrostClientID, cli.FrostBaseURL),
		respCache, cli.StationTTL)
	forecast := upstream.NewCachedForecastClient(
		upstream.NewForecastClient(cli.ForecastBaseURL),
		respCache, cli.ForecastTTL)
	geocoder := upstream.NewCachedGeocodeClient(
		upstream.NewGeocodeClient(cli.GeocodeBaseURL),
		respCache, cli.StationTTL)

	server := api.NewServer(frost, forecast, geocoder, cli.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
