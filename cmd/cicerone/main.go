package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cicerone/internal/api"
	"cicerone/pkg/audio"
	"cicerone/pkg/backend"
	"cicerone/pkg/cache"
	"cicerone/pkg/config"
	"cicerone/pkg/db"
	"cicerone/pkg/guide"
	"cicerone/pkg/logging"
	"cicerone/pkg/narration"
	"cicerone/pkg/pinfeed"
	"cicerone/pkg/probe"
	"cicerone/pkg/tracker"
	"cicerone/pkg/tts"
	"cicerone/pkg/tts/elevenlabs"
	"cicerone/pkg/version"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/cicerone.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/cicerone.yaml")
		return
	}

	if err := run(context.Background(), "configs/cicerone.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Secrets may live in a local .env during development
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env")
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Cicerone Started", "version", version.Version)

	tr := tracker.New()

	audioCache, closeCache, err := initCache(appCfg, tr)
	if err != nil {
		return err
	}
	defer closeCache()

	synth := initSynth(appCfg, tr)
	defer synth.Close()

	if err := runStartupChecks(ctx, synth); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	player := audio.New()
	defer player.Close()

	queue := narration.NewQueue(narration.Options{
		Synth:       synth,
		Player:      player,
		Cache:       audioCache,
		Voice:       appCfg.TTS.ElevenLabs.Voice,
		Model:       appCfg.TTS.ElevenLabs.Model,
		ItemTimeout: time.Duration(appCfg.Narration.ItemTimeout),
	})

	be := backend.New(
		appCfg.Backend.ProxyURL,
		time.Duration(appCfg.Backend.Timeout),
		appCfg.Backend.Retries,
		time.Duration(appCfg.Backend.BaseDelay),
		tr,
	)

	var sensorH *api.SensorHandler
	g := guide.New(guide.Options{
		Backend:       be,
		Source:        initSource(appCfg, be),
		Queue:         queue,
		FusionConfig:  appCfg.Fusion,
		PollInterval:  time.Duration(appCfg.Feed.Interval),
		MinSpacing:    time.Duration(appCfg.Feed.MinSpacing),
		DefaultPrompt: appCfg.Feed.Prompt,
		OnStateChange: func() {
			if sensorH != nil {
				sensorH.Broadcast()
			}
		},
	})

	sessionH := api.NewSessionHandler(g)
	sensorH = api.NewSensorHandler(g, sessionH)

	return runServer(ctx, appCfg, g, sessionH, sensorH, tr)
}

func runStartupChecks(ctx context.Context, synth tts.Provider) error {
	type healthChecker interface {
		Health(ctx context.Context) error
	}

	var checks []probe.Check
	if hc, ok := synth.(healthChecker); ok {
		checks = append(checks, probe.Check{Name: "TTS API", Vital: true, Fn: hc.Health})
	}
	if len(checks) == 0 {
		return nil
	}

	return probe.Run(ctx, checks)
}

func initCache(cfg *config.Config, tr *tracker.Tracker) (cache.Cacher, func(), error) {
	if !cfg.Cache.Enabled {
		return cache.NullCache{}, func() {}, nil
	}
	dbConn, err := db.Init(cfg.Cache.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbConn.PruneAudio(30 * 24 * time.Hour); err != nil {
		slog.Warn("Audio cache pruning failed", "error", err)
	}
	return cache.NewSQLiteCache(dbConn, tr), func() { dbConn.Close() }, nil
}

func initSynth(cfg *config.Config, tr *tracker.Tracker) tts.Provider {
	switch cfg.TTS.Provider {
	case "mock":
		slog.Warn("Using mock TTS provider, narration will be silent")
		return &tts.Mock{}
	default:
		return elevenlabs.New(cfg.TTS.ElevenLabs.Key, cfg.TTS.ElevenLabs.Voice, cfg.TTS.ElevenLabs.Model, tr)
	}
}

func initSource(cfg *config.Config, be *backend.Client) pinfeed.Source {
	if cfg.Feed.Provider == "mock" {
		slog.Warn("Using mock pin feed")
		return pinfeed.NewMockSource(0)
	}
	return be
}

func runServer(ctx context.Context, cfg *config.Config, g *guide.Controller, sessionH *api.SessionHandler, sensorH *api.SensorHandler, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Addr,
		sessionH,
		sensorH,
		api.NewPinsHandler(g),
		api.NewPhotoHandler(g),
		api.NewTripHandler(g),
		api.NewStatsHandler(tr),
		api.NewConfigHandler(cfg.Maps.Key),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
