package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/clients/apps_script_client"
	"github.com/mcdev12/icebreaker/go/internal/allowlist"
	"github.com/mcdev12/icebreaker/go/internal/config"
	"github.com/mcdev12/icebreaker/go/internal/draw"
	"github.com/mcdev12/icebreaker/go/internal/eligibility"
	"github.com/mcdev12/icebreaker/go/internal/events"
	"github.com/mcdev12/icebreaker/go/internal/gateway"
	"github.com/mcdev12/icebreaker/go/internal/metrics"
	"github.com/mcdev12/icebreaker/go/internal/questions"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

type Services struct {
	InstanceID string

	Session *draw.Session
	Hub     *gateway.ConnectionManager
	Feed    *records.Feed
	Pool    *questions.Pool
	Loader  *questions.Loader
	Names   *allowlist.List
	History records.History
	Surveys *eligibility.Surveys

	// Publisher also reaches other instances when NATS is configured;
	// LocalPublisher reaches websocket clients and the log only.
	Publisher      events.Publisher
	LocalPublisher events.Publisher
	Subscriber     *events.Subscriber

	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	names   allowlist.Source
	store   records.Store
	closers []func() error
}

// Close releases connections opened by setupServices.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func setupServices(ctx context.Context, cfg config.Config, id string) (*Services, error) {
	// Wire up dependency injection chain
	// Clients → Record store → History/Feed → Selector → Session → Publishers

	s := &Services{
		InstanceID: id,
		Registry:   prometheus.NewRegistry(),
		Hub:        gateway.NewConnectionManager(gateway.DefaultConnectionConfig()),
	}
	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.Metrics = metrics.New(s.Registry)

	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	var script *apps_script_client.Client
	if cfg.ScriptURL != "" {
		script = apps_script_client.NewClient(cfg.ScriptURL, loc, cfg.QueryTimeout)
		script.SetTimeout(cfg.ScriptTimeout)
		s.Metrics.RegisterGauge("pending_callbacks", "Record reads waiting for their callback", func() float64 {
			return float64(script.PendingCallbacks())
		})
	}

	// Records
	store, sink, err := s.setupStore(ctx, cfg, script, clock, loc)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store
	instrumented := records.NewInstrumentedStore(store, cfg.RecordBackend, s.Metrics)

	s.History, err = records.NewHistory(cfg.HistoryStrategy, instrumented)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Feed = records.NewFeed(instrumented, clock, cfg.QueryTimeout)

	// Questions
	s.Pool = questions.NewPool(questions.DefaultPool())
	s.Loader = questions.NewLoader(questionSource(cfg, script), s.Pool)
	selector := questions.NewSelector(s.Pool, s.History, rand.New(rand.NewSource(clock.Now().UnixNano())))

	// Allow-list
	s.Names, s.names = setupAllowlist(cfg, script)
	s.Metrics.RegisterGauge("allowed_names", "Names on the loaded allow-list", func() float64 {
		return float64(s.Names.Len())
	})
	s.Metrics.RegisterGauge("websocket_connections", "Open session websocket connections", func() float64 {
		return float64(s.Hub.ConnectionCount())
	})

	s.Surveys = eligibility.NewSurveys(eligibility.NewGate(s.Names, s.Feed), sink)

	// Events
	s.LocalPublisher = events.NewMetricPublisher(events.Multi{s.Hub, events.LogPublisher{}}, s.Metrics)
	s.Publisher = s.LocalPublisher
	if cfg.NATSURL != "" {
		nc, err := events.Connect(events.DefaultConnectConfig(cfg.NATSURL))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.closers = append(s.closers, func() error { return nc.Drain() })

		s.Publisher = events.NewMetricPublisher(events.Multi{
			s.Hub,
			events.LogPublisher{},
			events.NewNATSPublisher(nc, cfg.NATSSubject),
		}, s.Metrics)
		s.Subscriber = events.NewSubscriber(nc, cfg.NATSSubject, id)
	}

	s.Feed.OnChange(func(snap records.Snapshot) {
		stats := snap.Stats()
		event, err := events.New(events.EventTypeRecordsRefreshed, id, snap.RefreshedAt, events.RecordsRefreshedPayload{
			TotalQuestions: stats.TotalQuestions,
			UniqueSpeakers: stats.UniqueSpeakers,
			Degraded:       snap.Degraded,
			RefreshedAt:    snap.RefreshedAt,
		})
		if err != nil {
			return
		}
		if err := s.LocalPublisher.Publish(context.Background(), event); err != nil {
			log.Warn().Err(err).Msg("failed to publish records refreshed event")
		}
	})

	// Session
	s.Session = draw.NewSession(cfg.DrawConfig(id), draw.Dependencies{
		Selector:  selector,
		Names:     s.Names,
		Store:     instrumented,
		History:   s.History,
		Feed:      s.Feed,
		Publisher: s.Publisher,
		Metrics:   s.Metrics,
		Clock:     clock,
	})

	log.Info().
		Str("instance", id).
		Str("record_backend", cfg.RecordBackend).
		Str("history", cfg.HistoryStrategy).
		Bool("allowlist_disabled", s.Names.Disabled()).
		Bool("nats", s.Subscriber != nil).
		Msg("services ready")
	return s, nil
}

func (s *Services) setupStore(ctx context.Context, cfg config.Config, script *apps_script_client.Client, clock clockwork.Clock, loc *time.Location) (records.Store, eligibility.SurveySink, error) {
	switch cfg.RecordBackend {
	case records.BackendAppsScript:
		if script == nil {
			return nil, nil, errors.New("apps_script backend needs SCRIPT_URL")
		}
		return records.NewRemoteStore(script, clock), script, nil

	case records.BackendPostgres:
		db, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, db.Close)
		pg := records.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return pg, pg, nil

	case records.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		rs := records.NewRedisStore(client, cfg.RedisKey, clock, loc)
		return rs, rs, nil

	case records.BackendMemory:
		ms := records.NewMemoryStore(clock, cfg.MemoryDelay)
		return ms, ms, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", records.ErrUnknownBackend, cfg.RecordBackend)
	}
}

func questionSource(cfg config.Config, script *apps_script_client.Client) questions.Source {
	switch {
	case cfg.QuestionsFile != "":
		return questions.NewFileSource(cfg.QuestionsFile)
	case script != nil:
		return script
	default:
		return questions.StaticSource{Pool: questions.DefaultPool()}
	}
}

// setupAllowlist picks the allow-list source. Without any source the list
// stays unloaded and rejects every name; only ALLOWLIST_DISABLED turns the
// gate off.
func setupAllowlist(cfg config.Config, script *apps_script_client.Client) (*allowlist.List, allowlist.Source) {
	switch {
	case cfg.AllowlistDisabled:
		return allowlist.NewDisabled(), nil
	case cfg.AllowlistFile != "":
		return allowlist.New(), allowlist.NewFileSource(cfg.AllowlistFile)
	case script != nil:
		return allowlist.New(), script
	default:
		log.Warn().Msg("no allow-list source configured, nobody is allowed")
		return allowlist.New(), nil
	}
}

// handleRemoteEvent reacts to events published by other instances.
func (s *Services) handleRemoteEvent(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.EventTypeRecordAppended:
		s.Feed.Refresh(ctx)
	case events.EventTypeQuestionsReloaded:
		if err := s.Loader.Load(ctx); err != nil {
			log.Warn().Err(err).Str("source", event.Source).Msg("remote-triggered question reload failed")
		}
	default:
		log.Debug().Str("event_type", string(event.Type)).Str("source", event.Source).Msg("ignoring remote event")
	}
}
