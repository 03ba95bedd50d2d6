package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

// Schema creates the record and survey tables.
const Schema = `
CREATE TABLE IF NOT EXISTS question_records (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    question   TEXT NOT NULL,
    drawn_at   TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS survey_responses (
    id             UUID PRIMARY KEY,
    name           TEXT NOT NULL,
    satisfaction   SMALLINT NOT NULL,
    timing         SMALLINT NOT NULL,
    psych_safety   SMALLINT NOT NULL,
    self_awareness SMALLINT NOT NULL,
    suggestion     TEXT NOT NULL DEFAULT '',
    payload        JSONB,
    submitted_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore keeps records and survey answers in Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create record schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record models.QuestionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_records (id, name, question, drawn_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), record.Name, record.Question, record.DrawnAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context) ([]models.QuestionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, question, drawn_at FROM question_records ORDER BY drawn_at, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []models.QuestionRecord
	for rows.Next() {
		var (
			record  models.QuestionRecord
			drawnAt time.Time
		)
		if err := rows.Scan(&record.Name, &record.Question, &drawnAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.Name = strings.TrimSpace(record.Name)
		if record.Name == "" {
			continue
		}
		record.DrawnAt = drawnAt
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return out, nil
}

// SubmitSurvey stores one survey answer. The full response is kept as JSON
// next to the typed columns.
func (s *PostgresStore) SubmitSurvey(ctx context.Context, response models.SurveyResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal survey: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO survey_responses
            (id, name, satisfaction, timing, psych_safety, self_awareness, suggestion, payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), response.Name, response.Satisfaction, response.Timing,
		response.PsychSafety, response.SelfAwareness, response.Suggestion,
		pqtype.NullRawMessage{RawMessage: payload, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("failed to insert survey: %w", err)
	}
	return nil
}

// Surveys returns every stored survey answer in submission order.
func (s *PostgresStore) Surveys(ctx context.Context) ([]models.SurveyResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM survey_responses ORDER BY submitted_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query surveys: %w", err)
	}
	defer rows.Close()

	var out []models.SurveyResponse
	for rows.Next() {
		var payload pqtype.NullRawMessage
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan survey: %w", err)
		}
		if !payload.Valid {
			continue
		}
		var response models.SurveyResponse
		if err := json.Unmarshal(payload.RawMessage, &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal survey: %w", err)
		}
		out = append(out, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read surveys: %w", err)
	}
	return out, nil
}
