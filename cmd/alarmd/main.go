package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ewilliams-labs/reveille/internal/adapters/jsonstore"
	"github.com/ewilliams-labs/reveille/internal/adapters/launcher"
	"github.com/ewilliams-labs/reveille/internal/adapters/mp3file"
	"github.com/ewilliams-labs/reveille/internal/adapters/rest"
	"github.com/ewilliams-labs/reveille/internal/adapters/spotify"
	"github.com/ewilliams-labs/reveille/internal/adapters/sqlite"
	"github.com/ewilliams-labs/reveille/internal/adapters/tone"
	"github.com/ewilliams-labs/reveille/internal/config"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
	"github.com/ewilliams-labs/reveille/internal/core/services"
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "reveille.yaml"
	}
	return filepath.Join(home, ".reveille", "config.yaml")
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: failed to load config %s: %v", *configPath, err)
	}

	// Environment wins over the config file for credentials.
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.Spotify.ClientSecret = v
	}

	// Alarm store
	var store ports.AlarmStore
	var storeCloser func() error

	switch cfg.StoreDriver {
	case "json":
		store = jsonstore.New(cfg.StorePath)
	case "sqlite":
		adapter, err := sqlite.NewAdapter(cfg.StorePath)
		if err != nil {
			log.Fatalf("FATAL: failed to initialize database: %v", err)
		}
		store = adapter
		storeCloser = adapter.Close
	default:
		log.Fatalf("Unknown store driver: %s", cfg.StoreDriver)
	}
	if storeCloser != nil {
		defer storeCloser()
	}

	// Audio sink for the tone and mp3 players
	var sink io.Writer
	if cfg.Tone.Device != "" {
		f, err := os.OpenFile(cfg.Tone.Device, os.O_WRONLY, 0)
		if err != nil {
			log.Fatalf("FATAL: failed to open audio device %s: %v", cfg.Tone.Device, err)
		}
		defer f.Close()
		sink = f
	}

	// Player registry
	registry := services.NewRegistry()
	registry.Register("tone", tone.NewPlayer(sink, cfg.Tone.SampleRate))
	registry.Register("app", launcher.NewPlayer(cfg.OpenCommand))
	registry.Register("file", mp3file.NewPlayer(sink))
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		registry.Register("spotify", spotify.NewClientCredentials(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.DeviceID))
	} else {
		log.Printf("WARN alarmd: no spotify credentials, spotify alarms will fail playback")
	}

	sched := services.NewScheduler(store, registry)
	if err := sched.Start(context.Background()); err != nil {
		log.Fatalf("FATAL: failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Periodic heartbeat: log each alarm's next occurrence.
	heartbeat := cron.New()
	if _, err := heartbeat.AddFunc(cfg.HeartbeatCron, func() {
		now := time.Now().UTC()
		for id, alarm := range sched.Snapshot() {
			next, ok := alarm.NextOccurrence(now)
			if !ok {
				continue
			}
			log.Printf("alarmd: alarm %q (%s) next fires at %s", id, alarm.Label, next.Format(time.RFC3339))
		}
	}); err != nil {
		log.Fatalf("FATAL: invalid heartbeat cron %q: %v", cfg.HeartbeatCron, err)
	}
	heartbeat.Start()
	defer heartbeat.Stop()

	handler := rest.NewHandler(sched)

	log.Printf("alarmd: control API listening on http://%s (store: %s %s)", cfg.Listen, cfg.StoreDriver, cfg.StorePath)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("alarmd: shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("alarmd: shutdown error: %v", err)
		}
	}
}
