package records

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/names"
)

// Snapshot is one published view of the record store.
type Snapshot struct {
	Records     []models.QuestionRecord `json:"records"`
	RefreshedAt time.Time               `json:"refreshedAt"`
	Degraded    bool                    `json:"degraded"` // the query failed and Records is empty
	Seq         uint64                  `json:"seq"`
}

type Stats struct {
	TotalQuestions int `json:"totalQuestions"`
	UniqueSpeakers int `json:"uniqueSpeakers"`
}

// Stats counts the records in the snapshot and the distinct normalized names.
func (s Snapshot) Stats() Stats {
	speakers := make(map[string]struct{}, len(s.Records))
	for _, r := range s.Records {
		speakers[names.Normalize(r.Name)] = struct{}{}
	}
	return Stats{
		TotalQuestions: len(s.Records),
		UniqueSpeakers: len(speakers),
	}
}

// CountFor returns how many records belong to name.
func (s Snapshot) CountFor(name string) int {
	return CountFor(s.Records, name)
}

// CountFor returns how many of records belong to name, compared normalized.
func CountFor(records []models.QuestionRecord, name string) int {
	key := names.Normalize(name)
	if key == "" {
		return 0
	}
	n := 0
	for _, r := range records {
		if names.Normalize(r.Name) == key {
			n++
		}
	}
	return n
}

// Feed holds the latest sanitized snapshot of the store. Refreshes may
// overlap; a refresh that started earlier never replaces the result of one
// that started later.
type Feed struct {
	store   Store
	clock   clockwork.Clock
	timeout time.Duration

	seq       atomic.Uint64
	current   atomic.Pointer[Snapshot]
	publishMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []func(Snapshot)
}

func NewFeed(store Store, clock clockwork.Clock, timeout time.Duration) *Feed {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	f := &Feed{
		store:   store,
		clock:   clock,
		timeout: timeout,
	}
	f.current.Store(&Snapshot{})
	return f
}

// OnChange registers fn to be called with every newly published snapshot.
func (f *Feed) OnChange(fn func(Snapshot)) {
	f.listenersMu.Lock()
	defer f.listenersMu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Snapshot returns the latest published snapshot.
func (f *Feed) Snapshot() Snapshot {
	return *f.current.Load()
}

// Refresh queries the store and publishes the result. A failed query
// publishes an empty, degraded snapshot. The returned snapshot is whatever is
// current once this refresh is done.
func (f *Feed) Refresh(ctx context.Context) Snapshot {
	seq := f.seq.Add(1)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	records, err := f.store.Query(ctx)
	next := &Snapshot{
		Records:     records,
		RefreshedAt: f.clock.Now(),
		Seq:         seq,
	}
	if err != nil {
		log.Warn().Err(err).Uint64("seq", seq).Msg("record query failed, publishing empty snapshot")
		next.Records = nil
		next.Degraded = true
	}

	if !f.publish(next) {
		log.Debug().Uint64("seq", seq).Msg("discarding stale record snapshot")
		return f.Snapshot()
	}

	f.listenersMu.RLock()
	listeners := append([]func(Snapshot){}, f.listeners...)
	f.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(*next)
	}
	return *next
}

func (f *Feed) publish(next *Snapshot) bool {
	f.publishMu.Lock()
	defer f.publishMu.Unlock()
	if cur := f.current.Load(); cur != nil && cur.Seq >= next.Seq {
		return false
	}
	f.current.Store(next)
	return true
}
