package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/internal/names"
)

// History strategies selectable with HISTORY_STRATEGY.
const (
	StrategyStore = "store"
	StrategyLocal = "local"
)

// History decides whether a participant has drawn before. Observe is told
// about every revealed draw.
type History interface {
	HasDrawn(ctx context.Context, name string) (bool, error)
	Observe(name string)
}

// NewHistory builds the history for strategy on top of store.
func NewHistory(strategy string, store Store) (History, error) {
	switch strategy {
	case "", StrategyStore:
		return NewStoreHistory(store), nil
	case StrategyLocal:
		return NewLocalHistory(), nil
	default:
		return nil, fmt.Errorf("unknown history strategy %q", strategy)
	}
}

// StoreHistory queries the store for every decision. A draw that has not
// become visible in the store yet is not seen.
type StoreHistory struct {
	store Store
}

func NewStoreHistory(store Store) *StoreHistory {
	return &StoreHistory{store: store}
}

func (h *StoreHistory) HasDrawn(ctx context.Context, name string) (bool, error) {
	records, err := h.store.Query(ctx)
	if err != nil {
		return false, err
	}
	return CountFor(records, name) > 0, nil
}

func (h *StoreHistory) Observe(string) {}

// LocalHistory remembers who has drawn in this process. It never reads the
// store after an optional warm-up.
type LocalHistory struct {
	mu    sync.RWMutex
	drawn map[string]struct{}
}

func NewLocalHistory() *LocalHistory {
	return &LocalHistory{drawn: make(map[string]struct{})}
}

func (h *LocalHistory) HasDrawn(_ context.Context, name string) (bool, error) {
	key := names.Normalize(name)
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.drawn[key]
	return ok, nil
}

func (h *LocalHistory) Observe(name string) {
	key := names.Normalize(name)
	if key == "" {
		return
	}
	h.mu.Lock()
	h.drawn[key] = struct{}{}
	h.mu.Unlock()
}

// Warm seeds the set from a single store query. A failed query leaves the
// set as it was.
func (h *LocalHistory) Warm(ctx context.Context, store Store) error {
	records, err := store.Query(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to warm local draw history")
		return fmt.Errorf("warm history: %w", err)
	}
	for _, r := range records {
		h.Observe(r.Name)
	}
	log.Info().Int("participants", h.Len()).Msg("local draw history warmed")
	return nil
}

func (h *LocalHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.drawn)
}
