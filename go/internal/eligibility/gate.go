package eligibility

import (
	"context"
	"errors"

	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/names"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

// MinRecordsForSurvey is how many draws a participant needs before the
// survey opens for them.
const MinRecordsForSurvey = 2

var ErrNotEligible = errors.New("survey is not eligible for submission")

// NameChecker is satisfied by *allowlist.List.
type NameChecker interface {
	IsAllowed(name string) bool
}

// RecordFeed is satisfied by *records.Feed.
type RecordFeed interface {
	Snapshot() records.Snapshot
	Refresh(ctx context.Context) records.Snapshot
}

// SurveyCheck reports every survey condition separately.
type SurveyCheck struct {
	Name               string `json:"name"`
	NameAllowed        bool   `json:"nameAllowed"`
	RecordCount        int    `json:"recordCount"`
	EnoughRecords      bool   `json:"enoughRecords"`
	SatisfactionValid  bool   `json:"satisfactionValid"`
	TimingValid        bool   `json:"timingValid"`
	PsychSafetyValid   bool   `json:"psychSafetyValid"`
	SelfAwarenessValid bool   `json:"selfAwarenessValid"`
}

func (c SurveyCheck) Eligible() bool {
	return c.NameAllowed &&
		c.EnoughRecords &&
		c.SatisfactionValid &&
		c.TimingValid &&
		c.PsychSafetyValid &&
		c.SelfAwarenessValid
}

// Gate evaluates the survey conditions against the allow-list and the
// latest record snapshot.
type Gate struct {
	names   NameChecker
	records RecordFeed
}

func NewGate(names NameChecker, records RecordFeed) *Gate {
	return &Gate{
		names:   names,
		records: records,
	}
}

// CheckSurvey evaluates all conditions, none short-circuits another. The
// record feed is refreshed first if it has never been loaded.
func (g *Gate) CheckSurvey(ctx context.Context, response models.SurveyResponse) SurveyCheck {
	snap := g.records.Snapshot()
	if snap.Seq == 0 {
		snap = g.records.Refresh(ctx)
	}

	name := names.Normalize(response.Name)
	count := snap.CountFor(name)

	return SurveyCheck{
		Name:               name,
		NameAllowed:        name != "" && g.names.IsAllowed(name),
		RecordCount:        count,
		EnoughRecords:      count >= MinRecordsForSurvey,
		SatisfactionValid:  models.ValidRating(response.Satisfaction),
		TimingValid:        models.ValidRating(response.Timing),
		PsychSafetyValid:   models.ValidRating(response.PsychSafety),
		SelfAwarenessValid: models.ValidRating(response.SelfAwareness),
	}
}
