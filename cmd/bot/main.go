package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/tabuasmare/marebot/internal/alert"
	"github.com/tabuasmare/marebot/internal/api"
	"github.com/tabuasmare/marebot/internal/bot"
	"github.com/tabuasmare/marebot/internal/cache"
	"github.com/tabuasmare/marebot/internal/chart"
	"github.com/tabuasmare/marebot/internal/config"
	"github.com/tabuasmare/marebot/internal/geocode"
	"github.com/tabuasmare/marebot/internal/query"
	"github.com/tabuasmare/marebot/internal/store"
	"github.com/tabuasmare/marebot/internal/tide"
	"github.com/tabuasmare/marebot/internal/weather"
	"github.com/tabuasmare/marebot/pkg/http/client"
)

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Bot exited with error")
	}
	log.Info().Msg("Bot stopped")
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geocoder, err := newGeocoder(cfg)
	if err != nil {
		return err
	}

	tideService := tide.NewService(client.New(client.Options{
		BaseURL:     cfg.WorldTidesBaseURL,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   cfg.UserAgent,
		BreakerName: "worldtides",
	}), cfg.WorldTidesAPIKey, loc)

	weatherService := weather.NewService(client.New(client.Options{
		BaseURL:     cfg.OpenWeatherBaseURL,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   cfg.UserAgent,
		BreakerName: "openweather",
	}), cfg.OpenWeatherAPIKey, cfg.WeatherLang)

	var archiver chart.Archiver
	if cfg.ChartBucket != "" {
		s3Client, err := chart.NewS3Client(ctx, cfg.ChartS3Endpoint)
		if err != nil {
			return err
		}
		archiver = chart.NewS3Archiver(s3Client, cfg.ChartBucket, cfg.ChartPrefix)
		log.Info().Str("bucket", cfg.ChartBucket).Msg("Chart archiving enabled")
	}
	renderer := chart.NewRenderer(cfg.ChartDir, cfg.ChartBackground, archiver)

	memStore := store.NewMemoryStore()
	resolver := query.NewResolver(geocoder, tideService, weatherService, renderer, memStore)

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}
	log.Info().Str("username", botAPI.Self.UserName).Msg("Authorized on Telegram")

	b := bot.New(botAPI, resolver, memStore, cfg.QueryTimeout)

	policy, err := alert.PolicyByName(cfg.AlertPolicy)
	if err != nil {
		return err
	}
	scheduler := alert.New(memStore, geocoder, tideService, b, policy, cfg.AlertInterval, cfg.AlertEvalTimeout)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	if cfg.HTTPAddr != "" {
		app := api.NewApp(resolver, cfg.QueryTimeout)
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
			if err := app.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Error during HTTP shutdown")
			}
		}()
	}

	updates := bot.NewUpdatesChannel(botAPI)
	go func() {
		<-ctx.Done()
		botAPI.StopReceivingUpdates()
	}()

	log.Info().Msg("Bot running")
	b.Run(ctx, updates)
	return nil
}

func newGeocoder(cfg *config.Config) (*geocode.NominatimGeocoder, error) {
	var coordCache *cache.CoordinateCache
	if cacheCfg := config.GetCacheConfig(); cacheCfg.EnableGeocodeCache {
		var err error
		coordCache, err = cache.NewCoordinateCache(cacheCfg)
		if err != nil {
			return nil, err
		}
	}

	return geocode.NewNominatimGeocoder(client.New(client.Options{
		BaseURL:     cfg.NominatimBaseURL,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   cfg.UserAgent,
		BreakerName: "nominatim",
	}), coordCache), nil
}
