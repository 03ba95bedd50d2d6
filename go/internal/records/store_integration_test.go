//go:build integration

package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *sql.DB
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("icebreaker"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sql.Open("postgres", dsn)
	s.Require().NoError(err)
	s.Require().NoError(s.db.PingContext(ctx))

	s.store = NewPostgresStore(s.db)
	s.Require().NoError(s.store.EnsureSchema(ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE question_records, survey_responses`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestAppendAndQueryInDrawOrder() {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, models.QuestionRecord{Name: "Bob", Question: "Q2", DrawnAt: base.Add(time.Minute)}))
	s.Require().NoError(s.store.Append(ctx, models.QuestionRecord{Name: "Alice", Question: "Q1", DrawnAt: base}))

	got, err := s.store.Query(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Alice", got[0].Name)
	s.Equal("Bob", got[1].Name)
	s.True(base.Equal(got[0].DrawnAt))
}

func (s *PostgresStoreSuite) TestSubmitSurvey() {
	ctx := context.Background()
	in := models.SurveyResponse{Name: "Alice", Satisfaction: 5, Timing: 4, PsychSafety: 3, SelfAwareness: 2, Suggestion: "more rounds"}
	s.Require().NoError(s.store.SubmitSurvey(ctx, in))

	got, err := s.store.Surveys(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(in, got[0])
}

func (s *PostgresStoreSuite) TestSchemaIsIdempotent() {
	s.NoError(s.store.EnsureSchema(context.Background()))
}

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	store     *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
	s.store = NewRedisStore(s.client, "", clockwork.NewRealClock(), time.UTC)
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestAppendAndQuery() {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Append(ctx, models.QuestionRecord{Name: "Alice", Question: "Q1", DrawnAt: at}))
	s.Require().NoError(s.store.Append(ctx, models.QuestionRecord{Name: "Bob", Question: "Q2", DrawnAt: at}))

	got, err := s.store.Query(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Alice", got[0].Name)
	s.Equal("Bob", got[1].Name)
	s.True(at.Equal(got[0].DrawnAt))
}

func (s *RedisStoreSuite) TestSubmitSurveyKeepsSeparateList() {
	ctx := context.Background()
	s.Require().NoError(s.store.SubmitSurvey(ctx, models.SurveyResponse{Name: "Alice", Satisfaction: 5, Timing: 4, PsychSafety: 3, SelfAwareness: 2}))

	surveys, err := s.store.Surveys(ctx)
	s.Require().NoError(err)
	s.Require().Len(surveys, 1)
	s.Equal(5, surveys[0].Satisfaction)

	got, err := s.store.Query(ctx)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *RedisStoreSuite) TestQuerySkipsUndecodableEntries() {
	ctx := context.Background()
	s.Require().NoError(s.client.RPush(ctx, DefaultRedisKey, "not json").Err())
	s.Require().NoError(s.store.Append(ctx, models.QuestionRecord{Name: "Carol", Question: "Q"}))

	got, err := s.store.Query(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Carol", got[0].Name)
}

func (s *RedisStoreSuite) TestQuerySanitizesRows() {
	ctx := context.Background()
	s.Require().NoError(s.client.RPush(ctx, DefaultRedisKey,
		`{"name":"   ","question":"Q0","timestamp":"2025-06-01 09:00:00"}`,
		`{"name":"Dana","question":"Q1","timestamp":"whenever"}`,
	).Err())

	before := time.Now()
	got, err := s.store.Query(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Dana", got[0].Name)
	s.False(got[0].DrawnAt.Before(before), "unreadable timestamp becomes now")
}
