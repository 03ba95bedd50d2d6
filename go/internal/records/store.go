package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mcdev12/icebreaker/go/clients/apps_script_client"
	"github.com/mcdev12/icebreaker/go/internal/models"
)

// Backends selectable with RECORD_BACKEND.
const (
	BackendAppsScript = "apps_script"
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	BackendMemory     = "memory"
)

var ErrUnknownBackend = errors.New("unknown record backend")

// Store is an append-only log of completed draws. Query returns the best
// known snapshot; a record appended a moment ago may not be in it yet.
type Store interface {
	Append(ctx context.Context, record models.QuestionRecord) error
	Query(ctx context.Context) ([]models.QuestionRecord, error)
}

// timestampLayouts are tried in order when reading a stored timestamp.
var timestampLayouts = []string{
	apps_script_client.TimestampLayout,
	time.RFC3339,
	"2006/1/2 15:04:05",
}

// ParseTimestamp reads a stored timestamp in loc. ok is false when no known
// layout matches.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sanitize turns raw rows into records. Rows without a name are dropped and a
// missing or unreadable timestamp becomes now; neither rejects the batch.
func Sanitize(raw []apps_script_client.RawRecord, now time.Time, loc *time.Location) []models.QuestionRecord {
	out := make([]models.QuestionRecord, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		drawnAt, ok := ParseTimestamp(r.Timestamp, loc)
		if !ok {
			drawnAt = now
		}
		out = append(out, models.QuestionRecord{
			Name:     name,
			Question: r.Question,
			DrawnAt:  drawnAt,
		})
	}
	return out
}
