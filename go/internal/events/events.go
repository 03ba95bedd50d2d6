package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a session or record event.
type EventType string

const (
	EventTypeDrawStarted        EventType = "DrawStarted"
	EventTypeQuestionRevealed   EventType = "QuestionRevealed"
	EventTypeCountdownTick      EventType = "CountdownTick"
	EventTypeSessionReset       EventType = "SessionReset"
	EventTypeRecordAppended     EventType = "RecordAppended"
	EventTypeRecordAppendFailed EventType = "RecordAppendFailed"
	EventTypeRecordsRefreshed   EventType = "RecordsRefreshed"
	EventTypeQuestionsReloaded  EventType = "QuestionsReloaded"

	// EventTypeSessionState carries a full draw state. It greets websocket
	// clients and is never published on the bus.
	EventTypeSessionState EventType = "SessionState"
)

// Event is the envelope for everything published on the bus and pushed to
// websocket clients.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"` // instance that emitted the event
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps payload in an event envelope.
func New(eventType EventType, source string, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: at,
		Data:      data,
	}, nil
}

// ParsePayload decodes the event data into the payload struct for its type.
func ParsePayload(event Event) (any, error) {
	switch event.Type {
	case EventTypeDrawStarted:
		return decode[DrawStartedPayload](event.Data)
	case EventTypeQuestionRevealed:
		return decode[QuestionRevealedPayload](event.Data)
	case EventTypeCountdownTick:
		return decode[CountdownTickPayload](event.Data)
	case EventTypeSessionReset:
		return decode[SessionResetPayload](event.Data)
	case EventTypeRecordAppended, EventTypeRecordAppendFailed:
		return decode[RecordAppendedPayload](event.Data)
	case EventTypeRecordsRefreshed:
		return decode[RecordsRefreshedPayload](event.Data)
	case EventTypeQuestionsReloaded:
		return decode[QuestionsReloadedPayload](event.Data)
	default:
		return nil, nil
	}
}

func decode[T any](data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
