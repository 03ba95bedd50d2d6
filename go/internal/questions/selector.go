package questions

import (
	"context"
	"math/rand"
	"sync"

	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/names"
	"github.com/rs/zerolog/log"
)

// NoQuestionsAvailable is returned in place of a question when the applicable
// pool is empty.
const NoQuestionsAvailable = "No questions are available right now."

// History answers whether a participant has drawn before.
type History interface {
	HasDrawn(ctx context.Context, name string) (bool, error)
}

// Selection is the outcome of one draw.
type Selection struct {
	Question  string
	Tier      models.Tier // empty when the sentinel was returned
	FirstDraw bool
}

// Selector picks a question tier from a participant's draw history and then
// samples uniformly within it.
type Selector struct {
	pool    *Pool
	history History

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(pool *Pool, history History, rng *rand.Rand) *Selector {
	return &Selector{
		pool:    pool,
		history: history,
		rng:     rng,
	}
}

// SelectQuestion returns only the question text.
func (s *Selector) SelectQuestion(ctx context.Context, participant string) string {
	return s.Select(ctx, participant).Question
}

// Select draws for participant. First-time participants draw from the
// ice-breaking tier; everyone else draws from getting-to-know and
// deep-connection combined.
func (s *Selector) Select(ctx context.Context, participant string) Selection {
	name := names.Normalize(participant)

	drawn, err := s.history.HasDrawn(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("participant", name).Msg("history lookup failed, treating as first draw")
		drawn = false
	}

	pool := s.pool.Snapshot()
	if !drawn {
		q, ok := s.pick(pool.Tier(models.TierIceBreaking))
		if !ok {
			return Selection{Question: NoQuestionsAvailable, FirstDraw: true}
		}
		return Selection{Question: q, Tier: models.TierIceBreaking, FirstDraw: true}
	}

	getting := pool.Tier(models.TierGettingToKnow)
	deep := pool.Tier(models.TierDeepConnection)
	combined := make([]string, 0, len(getting)+len(deep))
	combined = append(combined, getting...)
	combined = append(combined, deep...)

	idx, ok := s.index(len(combined))
	if !ok {
		return Selection{Question: NoQuestionsAvailable}
	}
	tier := models.TierGettingToKnow
	if idx >= len(getting) {
		tier = models.TierDeepConnection
	}
	return Selection{Question: combined[idx], Tier: tier}
}

func (s *Selector) pick(list []string) (string, bool) {
	idx, ok := s.index(len(list))
	if !ok {
		return "", false
	}
	return list[idx], true
}

func (s *Selector) index(n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n), true
}
