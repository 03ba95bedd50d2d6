package eligibility

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcdev12/icebreaker/go/internal/allowlist"
	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

type sinkFunc func(ctx context.Context, response models.SurveyResponse) error

func (f sinkFunc) SubmitSurvey(ctx context.Context, response models.SurveyResponse) error {
	return f(ctx, response)
}

type GateSuite struct {
	suite.Suite
	ctx   context.Context
	store *records.MemoryStore
	feed  *records.Feed
	gate  *Gate
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = records.NewMemoryStore(clockwork.NewFakeClock(), 0)
	s.feed = records.NewFeed(s.store, clockwork.NewFakeClock(), 0)
	s.gate = NewGate(allowlist.NewFromNames([]string{"alice", "bob"}), s.feed)
}

func (s *GateSuite) appendRecords(name string, n int) {
	for i := 0; i < n; i++ {
		s.Require().NoError(s.store.Append(s.ctx, models.QuestionRecord{Name: name, Question: "Q"}))
	}
}

func validSurvey(name string) models.SurveyResponse {
	return models.SurveyResponse{Name: name, Satisfaction: 5, Timing: 4, PsychSafety: 3, SelfAwareness: 1}
}

func (s *GateSuite) TestEligibleAcrossCase() {
	s.appendRecords("Alice", 2)

	check := s.gate.CheckSurvey(s.ctx, validSurvey("ALICE"))
	s.True(check.Eligible())
	s.Equal("alice", check.Name)
	s.Equal(2, check.RecordCount)
}

func (s *GateSuite) TestOneRecordIsNotEnough() {
	s.appendRecords("Alice", 1)

	check := s.gate.CheckSurvey(s.ctx, validSurvey("alice"))
	s.False(check.Eligible())
	s.True(check.NameAllowed)
	s.False(check.EnoughRecords)
	s.True(check.SatisfactionValid)
}

func (s *GateSuite) TestNameNotAllowed() {
	s.appendRecords("Carol", 3)

	check := s.gate.CheckSurvey(s.ctx, validSurvey("Carol"))
	s.False(check.NameAllowed)
	s.True(check.EnoughRecords, "conditions are evaluated independently")
	s.False(check.Eligible())
}

func (s *GateSuite) TestEmptyName() {
	check := s.gate.CheckSurvey(s.ctx, validSurvey("   "))
	s.False(check.NameAllowed)
	s.Equal(0, check.RecordCount)
	s.False(check.Eligible())
}

func (s *GateSuite) TestRatingsOutOfRange() {
	s.appendRecords("bob", 2)

	response := models.SurveyResponse{Name: "bob", Satisfaction: 0, Timing: 6, PsychSafety: 5, SelfAwareness: -1}
	check := s.gate.CheckSurvey(s.ctx, response)
	s.True(check.NameAllowed)
	s.True(check.EnoughRecords)
	s.False(check.SatisfactionValid)
	s.False(check.TimingValid)
	s.True(check.PsychSafetyValid)
	s.False(check.SelfAwarenessValid)
	s.False(check.Eligible())
}

func (s *GateSuite) TestUsesPublishedSnapshotOnceLoaded() {
	s.appendRecords("alice", 1)
	s.feed.Refresh(s.ctx)
	s.appendRecords("alice", 1)

	s.False(s.gate.CheckSurvey(s.ctx, validSurvey("alice")).EnoughRecords)

	s.feed.Refresh(s.ctx)
	s.True(s.gate.CheckSurvey(s.ctx, validSurvey("alice")).EnoughRecords)
}

func newSurveysFixture(t *testing.T, sink SurveySink) *Surveys {
	t.Helper()
	ctx := context.Background()
	store := records.NewMemoryStore(clockwork.NewFakeClock(), 0)
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "Alice"}))
	require.NoError(t, store.Append(ctx, models.QuestionRecord{Name: "alice"}))
	feed := records.NewFeed(store, nil, 0)
	return NewSurveys(NewGate(allowlist.NewFromNames([]string{"Alice"}), feed), sink)
}

func TestSubmitSendsOnce(t *testing.T) {
	var got []models.SurveyResponse
	surveys := newSurveysFixture(t, sinkFunc(func(_ context.Context, r models.SurveyResponse) error {
		got = append(got, r)
		return nil
	}))

	response := validSurvey(" Alice ")
	response.Suggestion = "  more time  "
	check, err := surveys.Submit(context.Background(), response)
	require.NoError(t, err)
	assert.True(t, check.Eligible())
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "more time", got[0].Suggestion)
}

func TestSubmitRejectsIneligible(t *testing.T) {
	called := false
	surveys := newSurveysFixture(t, sinkFunc(func(context.Context, models.SurveyResponse) error {
		called = true
		return nil
	}))

	_, err := surveys.Submit(context.Background(), validSurvey("Mallory"))
	require.ErrorIs(t, err, ErrNotEligible)
	assert.False(t, called)
}

func TestSubmitDoesNotRetry(t *testing.T) {
	calls := 0
	surveys := newSurveysFixture(t, sinkFunc(func(context.Context, models.SurveyResponse) error {
		calls++
		return errors.New("script down")
	}))

	_, err := surveys.Submit(context.Background(), validSurvey("alice"))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	surveys := newSurveysFixture(t, sinkFunc(func(context.Context, models.SurveyResponse) error {
		close(entered)
		<-release
		return nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := surveys.Submit(context.Background(), validSurvey("alice"))
		assert.NoError(t, err)
	}()
	<-entered

	_, err := surveys.Submit(context.Background(), validSurvey("alice"))
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(release)
	wg.Wait()
}
