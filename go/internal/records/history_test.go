package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, models.QuestionRecord) error { return s.err }
func (s failingStore) Query(context.Context) ([]models.QuestionRecord, error) {
	return nil, s.err
}

func TestStoreHistoryComparesNormalized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clockwork.NewFakeClock(), 0)
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Alice", Question: "Q"}))

	h := NewStoreHistory(store)
	for _, name := range []string{"alice", " ALICE ", "Alice"} {
		drawn, err := h.HasDrawn(ctx, name)
		require.NoError(t, err)
		assert.True(t, drawn, name)
	}
	drawn, err := h.HasDrawn(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, drawn)
}

func TestStoreHistoryMissesRecordsInsideStalenessWindow(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock, 5*time.Second)
	h := NewStoreHistory(store)

	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Bob"}))
	h.Observe("Bob")

	drawn, err := h.HasDrawn(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, drawn, "store strategy only sees what the store returns")

	clock.Advance(5 * time.Second)
	drawn, err = h.HasDrawn(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, drawn)
}

func TestStoreHistoryPropagatesQueryError(t *testing.T) {
	h := NewStoreHistory(failingStore{err: errors.New("down")})
	_, err := h.HasDrawn(context.Background(), "alice")
	assert.Error(t, err)
}

func TestLocalHistoryObserve(t *testing.T) {
	ctx := context.Background()
	h := NewLocalHistory()

	drawn, err := h.HasDrawn(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, drawn)

	h.Observe(" Bob ")
	drawn, err = h.HasDrawn(ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, drawn)

	h.Observe("   ")
	assert.Equal(t, 1, h.Len())
}

func TestLocalHistoryWarm(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clockwork.NewFakeClock(), 0)
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Alice"}))
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "alice"}))
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Carol"}))

	h := NewLocalHistory()
	require.NoError(t, h.Warm(ctx, store))
	assert.Equal(t, 2, h.Len())

	// later appends are not seen without Observe
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Dave"}))
	drawn, err := h.HasDrawn(ctx, "dave")
	require.NoError(t, err)
	assert.False(t, drawn)

	assert.Error(t, NewLocalHistory().Warm(ctx, failingStore{err: errors.New("down")}))
}

func TestNewHistory(t *testing.T) {
	store := NewMemoryStore(nil, 0)

	h, err := NewHistory(StrategyStore, store)
	require.NoError(t, err)
	assert.IsType(t, &StoreHistory{}, h)

	h, err = NewHistory("", store)
	require.NoError(t, err)
	assert.IsType(t, &StoreHistory{}, h)

	h, err = NewHistory(StrategyLocal, store)
	require.NoError(t, err)
	assert.IsType(t, &LocalHistory{}, h)

	_, err = NewHistory("mixed", store)
	assert.Error(t, err)
}
