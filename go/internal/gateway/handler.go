package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/internal/draw"
	"github.com/mcdev12/icebreaker/go/internal/eligibility"
	"github.com/mcdev12/icebreaker/go/internal/events"
	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/names"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

// Session is satisfied by *draw.Session.
type Session interface {
	State() draw.State
	StartDraw(ctx context.Context, name string) error
	Reset(ctx context.Context) error
}

// NameChecker is satisfied by *allowlist.List.
type NameChecker interface {
	IsAllowed(name string) bool
	Loaded() bool
	Disabled() bool
}

// RecordFeed is satisfied by *records.Feed.
type RecordFeed interface {
	Snapshot() records.Snapshot
	Refresh(ctx context.Context) records.Snapshot
}

// QuestionLoader is satisfied by *questions.Loader.
type QuestionLoader interface {
	Load(ctx context.Context) error
}

// QuestionPool is satisfied by *questions.Pool.
type QuestionPool interface {
	Snapshot() models.QuestionPool
}

// Surveys is satisfied by *eligibility.Surveys.
type Surveys interface {
	Check(ctx context.Context, response models.SurveyResponse) eligibility.SurveyCheck
	Submit(ctx context.Context, response models.SurveyResponse) (eligibility.SurveyCheck, error)
}

type Dependencies struct {
	Session   Session
	Names     NameChecker
	Feed      RecordFeed
	Loader    QuestionLoader
	Pool      QuestionPool
	Surveys   Surveys
	Publisher events.Publisher
	Source    string
}

// Handler serves the session API.
type Handler struct {
	deps Dependencies
	now  func() time.Time
}

func NewHandler(deps Dependencies) *Handler {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	return &Handler{deps: deps, now: time.Now}
}

// Register mounts the API endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.handleGetSession)
		r.Post("/session/reset", h.handleReset)
		r.Post("/draws", h.handleStartDraw)
		r.Get("/names/check", h.handleCheckName)
		r.Get("/records", h.handleGetRecords)
		r.Post("/records/refresh", h.handleRefreshRecords)
		r.Post("/questions/reload", h.handleReloadQuestions)
		r.Post("/surveys/check", h.handleCheckSurvey)
		r.Post("/surveys", h.handleSubmitSurvey)
	})
}

type sessionResponse struct {
	draw.State
	CanDraw      bool `json:"canDraw"`
	ShowQuestion bool `json:"showQuestion"`
}

func newSessionResponse(s draw.State) sessionResponse {
	return sessionResponse{State: s, CanDraw: s.CanDraw(), ShowQuestion: s.ShowQuestion()}
}

type drawRequest struct {
	Name string `json:"name"`
}

type nameCheckResponse struct {
	Name     string `json:"name"`
	Allowed  bool   `json:"allowed"`
	Loaded   bool   `json:"loaded"`
	Disabled bool   `json:"disabled"`
}

type recordsResponse struct {
	Records     []models.QuestionRecord `json:"records"`
	Stats       records.Stats           `json:"stats"`
	RefreshedAt time.Time               `json:"refreshedAt"`
	Degraded    bool                    `json:"degraded"`
}

type reloadResponse struct {
	Reloaded       bool   `json:"reloaded"`
	Error          string `json:"error,omitempty"`
	IceBreaking    int    `json:"iceBreaking"`
	GettingToKnow  int    `json:"gettingToKnow"`
	DeepConnection int    `json:"deepConnection"`
}

type surveyResponse struct {
	eligibility.SurveyCheck
	Eligible  bool   `json:"eligible"`
	Submitted bool   `json:"submitted"`
	Error     string `json:"error,omitempty"`
}

func newRecordsResponse(snap records.Snapshot) recordsResponse {
	recs := snap.Records
	if recs == nil {
		recs = []models.QuestionRecord{}
	}
	return recordsResponse{
		Records:     recs,
		Stats:       snap.Stats(),
		RefreshedAt: snap.RefreshedAt,
		Degraded:    snap.Degraded,
	}
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(h.deps.Session.State()))
}

func (h *Handler) handleStartDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.deps.Session.StartDraw(r.Context(), req.Name); err != nil {
		log.Debug().Err(err).Str("name", req.Name).Msg("draw rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, newSessionResponse(h.deps.Session.State()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Session.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(h.deps.Session.State()))
}

func (h *Handler) handleCheckName(w http.ResponseWriter, r *http.Request) {
	name := names.Normalize(r.URL.Query().Get("name"))
	writeJSON(w, http.StatusOK, nameCheckResponse{
		Name:     name,
		Allowed:  h.deps.Names.IsAllowed(name),
		Loaded:   h.deps.Names.Loaded(),
		Disabled: h.deps.Names.Disabled(),
	})
}

func (h *Handler) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	snap := h.deps.Feed.Snapshot()
	if snap.Seq == 0 {
		snap = h.deps.Feed.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, newRecordsResponse(snap))
}

func (h *Handler) handleRefreshRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newRecordsResponse(h.deps.Feed.Refresh(r.Context())))
}

func (h *Handler) handleReloadQuestions(w http.ResponseWriter, r *http.Request) {
	loadErr := h.deps.Loader.Load(r.Context())
	pool := h.deps.Pool.Snapshot()

	resp := reloadResponse{
		Reloaded:       loadErr == nil,
		IceBreaking:    len(pool.IceBreaking),
		GettingToKnow:  len(pool.GettingToKnow),
		DeepConnection: len(pool.DeepConnection),
	}
	if loadErr != nil {
		resp.Error = loadErr.Error()
	}

	now := h.now()
	event, err := events.New(events.EventTypeQuestionsReloaded, h.deps.Source, now, events.QuestionsReloadedPayload{
		IceBreaking:    resp.IceBreaking,
		GettingToKnow:  resp.GettingToKnow,
		DeepConnection: resp.DeepConnection,
		Fallback:       loadErr != nil,
		ReloadedAt:     now,
	})
	if err == nil {
		if err := h.deps.Publisher.Publish(r.Context(), event); err != nil {
			log.Warn().Err(err).Msg("failed to publish questions reloaded event")
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCheckSurvey(w http.ResponseWriter, r *http.Request) {
	var req models.SurveyResponse
	if !decodeJSON(w, r, &req) {
		return
	}

	check := h.deps.Surveys.Check(r.Context(), req)
	writeJSON(w, http.StatusOK, surveyResponse{SurveyCheck: check, Eligible: check.Eligible()})
}

func (h *Handler) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var req models.SurveyResponse
	if !decodeJSON(w, r, &req) {
		return
	}

	check, err := h.deps.Surveys.Submit(r.Context(), req)
	resp := surveyResponse{SurveyCheck: check, Eligible: check.Eligible()}
	if err != nil {
		log.Warn().Err(err).Str("name", check.Name).Msg("survey submission failed")
		resp.Error = err.Error()
		writeJSON(w, statusFor(err), resp)
		return
	}

	resp.Submitted = true
	writeJSON(w, http.StatusCreated, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, draw.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, draw.ErrNameNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, draw.ErrDrawInProgress), errors.Is(err, eligibility.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, eligibility.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, draw.ErrSessionClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
