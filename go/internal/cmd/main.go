package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/icebreaker/go/internal/config"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("icebreaker stopped with error")
	}
	log.Info().Msg("icebreaker stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	id := instanceID(cfg)

	services, err := setupServices(ctx, cfg, id)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close services")
		}
	}()

	warmUp(ctx, services)

	server := setupServer(cfg, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		services.Hub.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return services.Session.Run(gctx)
	})
	if services.Subscriber != nil {
		g.Go(func() error {
			return services.Subscriber.Run(gctx, services.handleRemoteEvent)
		})
	}
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("instance", id).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// warmUp loads the question pool, the allow-list, the record feed and, for
// the local strategy, the draw history concurrently. Failures are logged; the
// service starts either way with fallbacks in place.
func warmUp(ctx context.Context, s *Services) {
	var g errgroup.Group

	g.Go(func() error {
		if err := s.Loader.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("starting with fallback question pool")
		}
		return nil
	})
	if s.names != nil {
		g.Go(func() error {
			if err := s.Names.Load(ctx, s.names); err != nil {
				log.Error().Err(err).Msg("allow-list unavailable, rejecting every name")
			}
			return nil
		})
	}
	g.Go(func() error {
		s.Feed.Refresh(ctx)
		return nil
	})
	if local, ok := s.History.(*records.LocalHistory); ok {
		g.Go(func() error {
			if err := local.Warm(ctx, s.store); err != nil {
				log.Warn().Err(err).Msg("local history warm-up failed, every participant starts fresh")
			}
			return nil
		})
	}

	_ = g.Wait()
}
