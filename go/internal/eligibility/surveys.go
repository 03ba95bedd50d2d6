package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/internal/models"
)

var ErrSubmitInProgress = errors.New("a survey submission is already in progress")

// SurveySink stores a submitted survey. It is called once per submission and
// never retried.
type SurveySink interface {
	SubmitSurvey(ctx context.Context, response models.SurveyResponse) error
}

type Surveys struct {
	gate       *Gate
	sink       SurveySink
	submitting atomic.Bool
}

func NewSurveys(gate *Gate, sink SurveySink) *Surveys {
	return &Surveys{
		gate: gate,
		sink: sink,
	}
}

func (s *Surveys) Check(ctx context.Context, response models.SurveyResponse) SurveyCheck {
	return s.gate.CheckSurvey(ctx, response)
}

// Submit sends response when every condition holds and no other submission
// is running. The returned check is always populated.
func (s *Surveys) Submit(ctx context.Context, response models.SurveyResponse) (SurveyCheck, error) {
	check := s.gate.CheckSurvey(ctx, response)
	if !check.Eligible() {
		return check, ErrNotEligible
	}
	if !s.submitting.CompareAndSwap(false, true) {
		return check, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)

	response.Name = strings.TrimSpace(response.Name)
	response.Suggestion = strings.TrimSpace(response.Suggestion)
	if err := s.sink.SubmitSurvey(ctx, response); err != nil {
		log.Error().Err(err).Str("participant", check.Name).Msg("survey submission failed")
		return check, fmt.Errorf("failed to submit survey: %w", err)
	}

	log.Info().Str("participant", check.Name).Msg("survey submitted")
	return check, nil
}
