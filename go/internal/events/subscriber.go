package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ConnectConfig holds NATS connection settings.
type ConnectConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConnectConfig(url string) ConnectConfig {
	if url == "" {
		url = nats.DefaultURL
	}
	return ConnectConfig{
		URL:           url,
		Name:          "icebreaker",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Connect opens a NATS connection that logs disconnects and reconnects.
func Connect(config ConnectConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Handler processes one received event.
type Handler func(ctx context.Context, event Event)

// Subscriber receives events published by other instances. Events whose
// source is this instance are skipped.
type Subscriber struct {
	nc     *nats.Conn
	prefix string
	source string
}

func NewSubscriber(nc *nats.Conn, prefix, source string) *Subscriber {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Subscriber{
		nc:     nc,
		prefix: prefix,
		source: source,
	}
}

// Run subscribes to every event type and calls handle until ctx is done.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.nc.ChanSubscribe(s.prefix+".>", msgs)
	if err != nil {
		return fmt.Errorf("subscribe to %s.>: %w", s.prefix, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe from events")
		}
	}()

	log.Info().Str("subject", s.prefix+".>").Msg("event subscriber started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event subscriber stopped")
			return nil
		case msg := <-msgs:
			var event Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping undecodable event")
				continue
			}
			if event.Source == s.source {
				continue
			}
			handle(ctx, event)
		}
	}
}
