package apps_script_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/mcdev12/icebreaker/go/clients"
	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/rs/zerolog/log"
)

var ErrUnexpectedStatus = errors.New("apps script returned non-success status")

// Client talks to the spreadsheet-backed Apps Script web app that stores
// questions, allowed names, draw records and survey answers.
type Client struct {
	*clients.BaseClient
	callbacks   *callbackRegistry
	location    *time.Location
	readTimeout time.Duration
}

func NewClient(scriptURL string, location *time.Location, readTimeout time.Duration) *Client {
	if location == nil {
		location = time.Local
	}
	return &Client{
		BaseClient:  clients.NewBaseClient(scriptURL),
		callbacks:   newCallbackRegistry(),
		location:    location,
		readTimeout: readTimeout,
	}
}

// PendingCallbacks returns the number of callback registrations still
// waiting for a response.
func (c *Client) PendingCallbacks() int {
	return c.callbacks.size()
}

func (c *Client) GetQuestions(ctx context.Context) (models.QuestionPool, error) {
	body, err := c.Get(ctx, "", url.Values{ActionParam: {ActionGetQuestions}})
	if err != nil {
		return models.QuestionPool{}, fmt.Errorf("failed to get questions: %w", err)
	}

	var response QuestionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.QuestionPool{}, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	if response.Status != StatusSuccess || response.Questions == nil {
		return models.QuestionPool{}, fmt.Errorf("get questions: %w (%q)", ErrUnexpectedStatus, response.Status)
	}

	return models.QuestionPool{
		IceBreaking:    response.Questions.IceBreaking,
		GettingToKnow:  response.Questions.GettingToKnow,
		DeepConnection: response.Questions.DeepConnection,
	}, nil
}

func (c *Client) GetAllowedNames(ctx context.Context) ([]string, error) {
	body, err := c.Get(ctx, "", url.Values{ActionParam: {ActionGetAllowedNames}})
	if err != nil {
		return nil, fmt.Errorf("failed to get allowed names: %w", err)
	}

	var response NamesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allowed names: %w", err)
	}
	if response.Status != StatusSuccess {
		return nil, fmt.Errorf("get allowed names: %w (%q)", ErrUnexpectedStatus, response.Status)
	}
	return response.Names, nil
}

// GetRecords reads every draw record through the callback endpoint. The
// request is registered under a fresh callback name before it is sent and
// deregistered when it completes, fails or times out.
func (c *Client) GetRecords(ctx context.Context) ([]RawRecord, error) {
	name, resultCh, release := c.callbacks.register()
	defer release()

	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}

	errCh := make(chan error, 1)
	go func() {
		body, err := c.Get(ctx, "", url.Values{CallbackParam: {name}})
		if err != nil {
			errCh <- err
			return
		}
		callback, payload, err := parseCallback(body)
		if err != nil {
			errCh <- err
			return
		}
		if !c.callbacks.deliver(callback, payload) {
			log.Warn().
				Str("callback", callback).
				Str("expected", name).
				Msg("dropping response for unknown or completed callback")
			errCh <- fmt.Errorf("%w: unexpected callback %q", ErrMalformedCallback, callback)
		}
	}()

	select {
	case payload := <-resultCh:
		var response RecordsResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		if response.Status != StatusSuccess {
			return nil, fmt.Errorf("get records: %w (%q)", ErrUnexpectedStatus, response.Status)
		}
		return response.Records, nil
	case err := <-errCh:
		return nil, fmt.Errorf("failed to get records: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("records callback %s: %w", name, ctx.Err())
	}
}

// AppendRecord posts one draw record. The response body is not inspected.
func (c *Client) AppendRecord(ctx context.Context, record models.QuestionRecord) error {
	payload := RecordPayload{
		Name:      record.Name,
		Question:  record.Question,
		Timestamp: c.FormatTimestamp(record.DrawnAt),
	}
	return c.postJSON(ctx, payload)
}

func (c *Client) SubmitSurvey(ctx context.Context, response models.SurveyResponse) error {
	payload := SurveyPayload{
		Action:        ActionSubmitSurvey,
		Name:          response.Name,
		Satisfaction:  response.Satisfaction,
		Timing:        response.Timing,
		PsychSafety:   response.PsychSafety,
		SelfAwareness: response.SelfAwareness,
		Suggestion:    response.Suggestion,
	}
	return c.postJSON(ctx, payload)
}

// FormatTimestamp renders t in the sheet's fixed 24-hour local format.
func (c *Client) FormatTimestamp(t time.Time) string {
	return t.In(c.location).Format(TimestampLayout)
}

func (c *Client) Location() *time.Location {
	return c.location
}

func (c *Client) postJSON(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if _, err := c.Post(ctx, "", bytes.NewReader(data), ContentTypeJSON); err != nil {
		return fmt.Errorf("failed to post to apps script: %w", err)
	}
	return nil
}
