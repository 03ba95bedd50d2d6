package questions

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

var ErrEmptyPool = errors.New("question pool is empty")

// Loader fetches the pool from its source and publishes it. A failed fetch
// never leaves the pool empty: before the first successful load the bundled
// default is published, afterwards the last good pool stays in place.
type Loader struct {
	source Source
	pool   *Pool
	loaded atomic.Bool
}

func NewLoader(source Source, pool *Pool) *Loader {
	return &Loader{
		source: source,
		pool:   pool,
	}
}

// Load fetches and publishes the pool. The returned error is informational;
// the pool is usable either way.
func (l *Loader) Load(ctx context.Context) error {
	fetched, err := l.source.GetQuestions(ctx)
	if err == nil && fetched.Size() == 0 {
		err = ErrEmptyPool
	}
	if err != nil {
		if !l.loaded.Load() {
			l.pool.Replace(DefaultPool())
			log.Warn().Err(err).Msg("question pool load failed, using bundled default pool")
		} else {
			log.Warn().Err(err).Msg("question pool reload failed, keeping current pool")
		}
		return fmt.Errorf("load questions: %w", err)
	}

	l.pool.Replace(fetched)
	l.loaded.Store(true)

	log.Info().
		Int("ice_breaking", len(fetched.IceBreaking)).
		Int("getting_to_know", len(fetched.GettingToKnow)).
		Int("deep_connection", len(fetched.DeepConnection)).
		Msg("question pool loaded")
	return nil
}

// Loaded reports whether a pool from the source has ever been published.
func (l *Loader) Loaded() bool {
	return l.loaded.Load()
}
