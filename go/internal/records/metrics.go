package records

import (
	"context"
	"time"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

// MetricsCollector receives store call outcomes.
type MetricsCollector interface {
	RecordStoreCall(backend, op string, success bool, duration time.Duration)
}

type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordStoreCall(backend, op string, success bool, duration time.Duration) {
}

// InstrumentedStore wraps a Store with metrics collection.
type InstrumentedStore struct {
	store   Store
	backend string
	metrics MetricsCollector
}

func NewInstrumentedStore(store Store, backend string, metrics MetricsCollector) *InstrumentedStore {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &InstrumentedStore{
		store:   store,
		backend: backend,
		metrics: metrics,
	}
}

func (s *InstrumentedStore) Append(ctx context.Context, record models.QuestionRecord) error {
	start := time.Now()
	err := s.store.Append(ctx, record)
	s.metrics.RecordStoreCall(s.backend, "append", err == nil, time.Since(start))
	return err
}

func (s *InstrumentedStore) Query(ctx context.Context) ([]models.QuestionRecord, error) {
	start := time.Now()
	records, err := s.store.Query(ctx)
	s.metrics.RecordStoreCall(s.backend, "query", err == nil, time.Since(start))
	return records, err
}
