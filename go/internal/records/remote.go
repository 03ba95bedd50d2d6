package records

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/icebreaker/go/clients/apps_script_client"
	"github.com/mcdev12/icebreaker/go/internal/models"
)

// RemoteClient is the part of the Apps Script client the remote store needs.
type RemoteClient interface {
	AppendRecord(ctx context.Context, record models.QuestionRecord) error
	GetRecords(ctx context.Context) ([]apps_script_client.RawRecord, error)
	Location() *time.Location
}

// RemoteStore keeps records in the spreadsheet behind the Apps Script web
// app. Reads lag writes by an unbounded amount.
type RemoteStore struct {
	client RemoteClient
	clock  clockwork.Clock
}

func NewRemoteStore(client RemoteClient, clock clockwork.Clock) *RemoteStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RemoteStore{
		client: client,
		clock:  clock,
	}
}

func (s *RemoteStore) Append(ctx context.Context, record models.QuestionRecord) error {
	if err := s.client.AppendRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

func (s *RemoteStore) Query(ctx context.Context) ([]models.QuestionRecord, error) {
	raw, err := s.client.GetRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return Sanitize(raw, s.clock.Now(), s.client.Location()), nil
}
