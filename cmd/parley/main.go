// Package main provides the parley server entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/parleybot/parley/internal/bot"
	"github.com/parleybot/parley/internal/config"
	"github.com/parleybot/parley/internal/db/sqlite"
	"github.com/parleybot/parley/internal/nlp"
	"github.com/parleybot/parley/internal/respond"
	"github.com/parleybot/parley/internal/respond/watch"
	"github.com/parleybot/parley/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	host := flag.String("host", "", "Bind address (default: from config)")
	port := flag.Int("port", 0, "Listen port (default: from config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		cancel()
	}()

	store, err := sqlite.NewStore(sqlite.StoreConfig{Path: config.DBPath(), MaxConns: cfg.MaxConns})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer store.Close()
	sessions := sqlite.NewSessionStore(store)

	// Seed and load the response catalog; reload it when the file changes.
	catalogPath := config.ResponsesPath()
	if err := respond.EnsureDefault(catalogPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed response catalog")
	}
	catalog, err := respond.LoadCatalog(catalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load response catalog")
	}

	watcher, err := watch.New(catalogPath, func() {
		if err := catalog.Reload(); err != nil {
			log.Warn().Err(err).Msg("Catalog reload failed, keeping previous catalog")
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Catalog watcher unavailable, hot reload disabled")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Catalog watcher failed to start, hot reload disabled")
	} else {
		defer watcher.Stop()
	}

	analyzer := nlp.NewAnalyzer(cfg.Topics)
	composer := respond.NewComposer(catalog, cfg.SimilarityThreshold, rand.NewSource(time.Now().UnixNano()))
	b := bot.New(cfg, analyzer, composer, sessions)
	svc := server.NewService(b)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", Version).Msg("Starting parley server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Retention janitor: periodically purge sessions past the retention
	// window.
	g.Go(func() error {
		interval := time.Duration(cfg.PurgeIntervalMins) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				purged, err := sessions.PurgeInactive(gctx, cfg.RetentionDays)
				if err != nil {
					log.Warn().Err(err).Msg("Retention purge failed")
					continue
				}
				if purged > 0 {
					log.Info().Int("sessions", purged).Msg("Purged inactive sessions")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
