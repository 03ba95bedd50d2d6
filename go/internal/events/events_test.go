package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndParsePayload(t *testing.T) {
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	event, err := New(EventTypeQuestionRevealed, "instance-a", at, QuestionRevealedPayload{
		Generation:   3,
		Name:         "Bob",
		Question:     "Q",
		Tier:         "iceBreaking",
		FirstDraw:    true,
		RevealedAt:   at,
		CountdownSec: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "instance-a", event.Source)
	assert.Equal(t, at, event.Timestamp)

	payload, err := ParsePayload(event)
	require.NoError(t, err)
	revealed, ok := payload.(QuestionRevealedPayload)
	require.True(t, ok)
	assert.Equal(t, "Bob", revealed.Name)
	assert.Equal(t, uint64(3), revealed.Generation)
	assert.True(t, revealed.FirstDraw)
}

func TestParsePayloadUnknownType(t *testing.T) {
	payload, err := ParsePayload(Event{Type: "Other", Data: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Nil(t, payload)
}

func TestParsePayloadBadData(t *testing.T) {
	_, err := ParsePayload(Event{Type: EventTypeSessionReset, Data: []byte(`[`)})
	assert.Error(t, err)
}

func TestEventIDsAreUnique(t *testing.T) {
	a, err := New(EventTypeSessionReset, "x", time.Now(), SessionResetPayload{})
	require.NoError(t, err)
	b, err := New(EventTypeSessionReset, "x", time.Now(), SessionResetPayload{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMultiPublishesToAllAndJoinsErrors(t *testing.T) {
	var got []EventType
	ok := PublisherFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	boom := errors.New("boom")
	failing := PublisherFunc(func(context.Context, Event) error { return boom })

	err := Multi{failing, nil, ok, LogPublisher{}, NopPublisher{}}.Publish(context.Background(), Event{Type: EventTypeCountdownTick, Data: []byte(`{}`)})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []EventType{EventTypeCountdownTick}, got)
}

type recordingMetrics struct {
	types   []string
	success []bool
}

func (m *recordingMetrics) RecordEventPublished(eventType string, success bool, _ time.Duration) {
	m.types = append(m.types, eventType)
	m.success = append(m.success, success)
}

func TestMetricPublisher(t *testing.T) {
	metrics := &recordingMetrics{}
	pub := NewMetricPublisher(PublisherFunc(func(_ context.Context, e Event) error {
		if e.Type == EventTypeRecordAppendFailed {
			return errors.New("nope")
		}
		return nil
	}), metrics)

	require.NoError(t, pub.Publish(context.Background(), Event{Type: EventTypeRecordAppended}))
	require.Error(t, pub.Publish(context.Background(), Event{Type: EventTypeRecordAppendFailed}))

	assert.Equal(t, []string{"RecordAppended", "RecordAppendFailed"}, metrics.types)
	assert.Equal(t, []bool{true, false}, metrics.success)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "icebreaker.events.DrawStarted", Subject(DefaultSubjectPrefix, EventTypeDrawStarted))
}
