package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/clients/apps_script_client"
	"github.com/mcdev12/icebreaker/go/internal/models"
)

// DefaultRedisKey is the list that holds the JSON encoded records.
const DefaultRedisKey = "icebreaker:records"

// RedisStore keeps records as a Redis list, oldest first.
type RedisStore struct {
	client *redis.Client
	key    string
	clock  clockwork.Clock
	loc    *time.Location
}

func NewRedisStore(client *redis.Client, key string, clock clockwork.Clock, loc *time.Location) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisStore{
		client: client,
		key:    key,
		clock:  clock,
		loc:    loc,
	}
}

func (s *RedisStore) Append(ctx context.Context, record models.QuestionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push record: %w", err)
	}
	return nil
}

// Query reads the whole list and sanitizes it like any other backend.
func (s *RedisStore) Query(ctx context.Context) ([]models.QuestionRecord, error) {
	values, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return sanitizeListValues(s.key, values, s.clock.Now(), s.loc), nil
}

// sanitizeListValues decodes list entries as raw rows; entries that are not
// JSON objects are skipped.
func sanitizeListValues(key string, values []string, now time.Time, loc *time.Location) []models.QuestionRecord {
	raw := make([]apps_script_client.RawRecord, 0, len(values))
	for i, v := range values {
		var row apps_script_client.RawRecord
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			log.Warn().Err(err).Int("index", i).Str("key", key).Msg("skipping undecodable record")
			continue
		}
		raw = append(raw, row)
	}
	return Sanitize(raw, now, loc)
}

func (s *RedisStore) surveyKey() string {
	return s.key + ":surveys"
}

// SubmitSurvey pushes response onto the survey list next to the records.
func (s *RedisStore) SubmitSurvey(ctx context.Context, response models.SurveyResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal survey: %w", err)
	}
	if err := s.client.RPush(ctx, s.surveyKey(), data).Err(); err != nil {
		return fmt.Errorf("failed to push survey: %w", err)
	}
	return nil
}

func (s *RedisStore) Surveys(ctx context.Context) ([]models.SurveyResponse, error) {
	values, err := s.client.LRange(ctx, s.surveyKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read surveys: %w", err)
	}
	out := make([]models.SurveyResponse, 0, len(values))
	for _, v := range values {
		var response models.SurveyResponse
		if err := json.Unmarshal([]byte(v), &response); err != nil {
			continue
		}
		out = append(out, response)
	}
	return out, nil
}
