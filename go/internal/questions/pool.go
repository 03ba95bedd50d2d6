package questions

import (
	_ "embed"
	"fmt"
	"sync/atomic"

	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed default_pool.yaml
var defaultPoolYAML []byte

// DefaultPool returns the bundled fallback pool.
func DefaultPool() models.QuestionPool {
	pool, err := ParsePoolYAML(defaultPoolYAML)
	if err != nil {
		log.Error().Err(err).Msg("bundled question pool is invalid")
		return models.QuestionPool{}
	}
	return pool
}

// ParsePoolYAML decodes a pool document with ice_breaking, getting_to_know
// and deep_connection lists.
func ParsePoolYAML(data []byte) (models.QuestionPool, error) {
	var pool models.QuestionPool
	if err := yaml.Unmarshal(data, &pool); err != nil {
		return models.QuestionPool{}, fmt.Errorf("failed to parse question pool: %w", err)
	}
	return pool, nil
}

// Pool is the currently published question pool. Readers always see a whole
// pool; Replace swaps it in one step.
type Pool struct {
	current atomic.Pointer[models.QuestionPool]
}

// NewPool starts out with initial published.
func NewPool(initial models.QuestionPool) *Pool {
	p := &Pool{}
	p.Replace(initial)
	return p
}

// Snapshot returns the published pool. The returned slices must not be
// modified.
func (p *Pool) Snapshot() models.QuestionPool {
	if cur := p.current.Load(); cur != nil {
		return *cur
	}
	return models.QuestionPool{}
}

// Replace publishes a private copy of pool.
func (p *Pool) Replace(pool models.QuestionPool) {
	cp := pool.Clone()
	p.current.Store(&cp)
}
