package records

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

type memoryEntry struct {
	record    models.QuestionRecord
	visibleAt time.Time
}

// MemoryStore keeps records in process. With a non-zero visibility delay an
// appended record only shows up in Query once the delay has passed on the
// store's clock, which reproduces the lag of the remote store.
type MemoryStore struct {
	clock clockwork.Clock
	delay time.Duration

	mu      sync.RWMutex
	entries []memoryEntry
	surveys []models.SurveyResponse
}

func NewMemoryStore(clock clockwork.Clock, visibilityDelay time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock: clock,
		delay: visibilityDelay,
	}
}

func (s *MemoryStore) Append(ctx context.Context, record models.QuestionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, memoryEntry{
		record:    record,
		visibleAt: s.clock.Now().Add(s.delay),
	})
	return nil
}

func (s *MemoryStore) Query(ctx context.Context) ([]models.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.QuestionRecord, 0, len(s.entries))
	for _, e := range s.entries {
		if now.Before(e.visibleAt) {
			continue
		}
		out = append(out, e.record)
	}
	return out, nil
}

// Len counts every appended record, visible or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) SubmitSurvey(ctx context.Context, response models.SurveyResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys = append(s.surveys, response)
	return nil
}

func (s *MemoryStore) Surveys(context.Context) ([]models.SurveyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SurveyResponse(nil), s.surveys...), nil
}
