package draw

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/icebreaker/go/internal/events"
	"github.com/mcdev12/icebreaker/go/internal/models"
	"github.com/mcdev12/icebreaker/go/internal/names"
	"github.com/mcdev12/icebreaker/go/internal/questions"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

// Config holds the session timings.
type Config struct {
	FlipDelay     time.Duration
	Countdown     time.Duration
	TickInterval  time.Duration
	SelectTimeout time.Duration
	AppendTimeout time.Duration
	InstanceID    string
}

func DefaultConfig() Config {
	return Config{
		FlipDelay:     800 * time.Millisecond,
		Countdown:     10 * time.Second,
		TickInterval:  time.Second,
		SelectTimeout: 10 * time.Second,
		AppendTimeout: 15 * time.Second,
	}
}

// Selector picks the question for a participant.
type Selector interface {
	Select(ctx context.Context, participant string) questions.Selection
}

// NameChecker is satisfied by *allowlist.List.
type NameChecker interface {
	IsAllowed(name string) bool
}

// HistoryObserver is told about every revealed draw.
type HistoryObserver interface {
	Observe(name string)
}

// FeedRefresher is satisfied by *records.Feed.
type FeedRefresher interface {
	Refresh(ctx context.Context) records.Snapshot
}

// Dependencies are the collaborators of a Session. Selector, Names and Store
// are required.
type Dependencies struct {
	Selector  Selector
	Names     NameChecker
	Store     records.Store
	History   HistoryObserver
	Feed      FeedRefresher
	Publisher events.Publisher
	Metrics   MetricsCollector
	Clock     clockwork.Clock
}

type commandKind int

const (
	commandStart commandKind = iota
	commandReset
)

type command struct {
	kind  commandKind
	name  string
	reply chan error
}

type selectionResult struct {
	generation uint64
	selection  questions.Selection
}

// Session runs one draw at a time: flip, reveal, countdown, reset. All
// session state is owned by the Run goroutine; timers and network
// completions reach it through channels.
type Session struct {
	cfg       Config
	clock     clockwork.Clock
	selector  Selector
	names     NameChecker
	store     records.Store
	history   HistoryObserver
	feed      FeedRefresher
	publisher events.Publisher
	metrics   MetricsCollector

	commands chan command
	selected chan selectionResult

	// owned by Run
	phases     *fsm.FSM
	state      State
	generation uint64
	flipTimer  clockwork.Timer
	tickTimer  clockwork.Timer

	current    atomic.Pointer[State]
	running    atomic.Bool
	done       chan struct{}
	background sync.WaitGroup
}

func NewSession(cfg Config, deps Dependencies) *Session {
	defaults := DefaultConfig()
	if cfg.FlipDelay <= 0 {
		cfg.FlipDelay = defaults.FlipDelay
	}
	if cfg.Countdown <= 0 {
		cfg.Countdown = defaults.Countdown
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.SelectTimeout <= 0 {
		cfg.SelectTimeout = defaults.SelectTimeout
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = defaults.AppendTimeout
	}

	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.History == nil {
		deps.History = records.NewStoreHistory(deps.Store)
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NoOpMetricsCollector{}
	}

	s := &Session{
		cfg:       cfg,
		clock:     deps.Clock,
		selector:  deps.Selector,
		names:     deps.Names,
		store:     deps.Store,
		history:   deps.History,
		feed:      deps.Feed,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		commands:  make(chan command),
		selected:  make(chan selectionResult),
		phases:    newPhaseMachine(),
		done:      make(chan struct{}),
	}
	s.publishState()
	return s
}

// State returns the latest session snapshot.
func (s *Session) State() State {
	return *s.current.Load()
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// StartDraw begins a draw for name. It fails without changing anything when
// the name is empty or not allowed, or while a flip is running. A draw
// started during the countdown cancels that countdown first.
func (s *Session) StartDraw(ctx context.Context, name string) error {
	return s.send(ctx, command{kind: commandStart, name: name})
}

// Reset cancels whatever is running and clears the session. It does nothing
// when the session is already idle.
func (s *Session) Reset(ctx context.Context) error {
	return s.send(ctx, command{kind: commandReset})
}

func (s *Session) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands, timers and completions until ctx is done. Timers
// are stopped and in-flight appends are waited for before it returns.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	log.Info().
		Str("instance", s.cfg.InstanceID).
		Dur("flip_delay", s.cfg.FlipDelay).
		Dur("countdown", s.cfg.Countdown).
		Msg("draw session started")

	defer func() {
		s.stopTimers()
		s.background.Wait()
		close(s.done)
		log.Info().Str("instance", s.cfg.InstanceID).Msg("draw session stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.commands:
			cmd.reply <- s.handle(ctx, cmd)
		case <-timerChan(s.flipTimer):
			s.flipTimer = nil
			s.onFlipElapsed(ctx)
		case <-timerChan(s.tickTimer):
			s.tickTimer = nil
			s.onTick(ctx)
		case res := <-s.selected:
			s.onSelected(ctx, res)
		}
	}
}

func (s *Session) handle(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case commandStart:
		err := s.startDraw(ctx, cmd.name)
		if err != nil {
			s.metrics.RecordRejected(rejectReason(err))
		}
		return err
	case commandReset:
		s.reset(ctx, ResetReasonManual)
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

func (s *Session) startDraw(ctx context.Context, name string) error {
	if s.phases.Is(string(PhaseFlipping)) {
		return ErrDrawInProgress
	}
	if names.Normalize(name) == "" {
		return ErrInvalidName
	}
	if !s.names.IsAllowed(name) {
		return ErrNameNotAllowed
	}

	if s.phases.Can(eventCancel) {
		s.cancelTickTimer()
		if err := s.transition(ctx, eventCancel); err != nil {
			return err
		}
		log.Debug().
			Uint64("generation", s.generation).
			Msg("countdown cancelled by new draw")
	}

	if err := s.transition(ctx, eventStart); err != nil {
		return err
	}
	s.generation++
	s.state = State{
		InputName:  name,
		Generation: s.generation,
	}
	s.flipTimer = s.clock.NewTimer(s.cfg.FlipDelay)
	s.publishState()

	now := s.clock.Now()
	s.emit(ctx, events.EventTypeDrawStarted, events.DrawStartedPayload{
		Generation: s.generation,
		Name:       names.Display(name),
		StartedAt:  now,
		RevealAt:   now.Add(s.cfg.FlipDelay),
	})
	log.Info().
		Str("participant", names.Display(name)).
		Uint64("generation", s.generation).
		Msg("draw started")
	return nil
}

func (s *Session) onFlipElapsed(ctx context.Context) {
	if !s.phases.Is(string(PhaseFlipping)) {
		return
	}
	s.state.DrawnName = names.Display(s.state.InputName)
	s.publishState()

	generation := s.generation
	participant := s.state.DrawnName

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		selectCtx, cancel := context.WithTimeout(ctx, s.cfg.SelectTimeout)
		defer cancel()

		selection := s.selector.Select(selectCtx, participant)
		select {
		case s.selected <- selectionResult{generation: generation, selection: selection}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) onSelected(ctx context.Context, res selectionResult) {
	if res.generation != s.generation || !s.phases.Is(string(PhaseFlipping)) {
		s.metrics.RecordStaleCompletion("selection")
		log.Debug().
			Uint64("generation", res.generation).
			Uint64("current", s.generation).
			Msg("dropping stale question selection")
		return
	}

	sel := res.selection
	if err := s.transition(ctx, eventReveal); err != nil {
		return
	}
	s.state.DrawnQuestion = sel.Question
	s.state.Tier = sel.Tier
	s.state.FirstDraw = sel.FirstDraw
	s.state.InputName = ""

	now := s.clock.Now()
	ticks := s.countdownTicks()
	s.publishState()
	s.emit(ctx, events.EventTypeQuestionRevealed, events.QuestionRevealedPayload{
		Generation:   s.generation,
		Name:         s.state.DrawnName,
		Question:     sel.Question,
		Tier:         string(sel.Tier),
		FirstDraw:    sel.FirstDraw,
		RevealedAt:   now,
		CountdownSec: int((time.Duration(ticks) * s.cfg.TickInterval).Seconds()),
	})

	if sel.Tier == "" {
		log.Warn().Str("participant", s.state.DrawnName).Msg("no question available, draw not recorded")
	} else {
		s.history.Observe(s.state.DrawnName)
		s.metrics.RecordDraw(string(sel.Tier), sel.FirstDraw)
		s.appendRecord(ctx, models.QuestionRecord{
			Name:     s.state.DrawnName,
			Question: sel.Question,
			DrawnAt:  now,
		})
	}

	s.startCountdown(ctx, ticks)
}

func (s *Session) startCountdown(ctx context.Context, ticks int) {
	if err := s.transition(ctx, eventCount); err != nil {
		return
	}
	s.state.CountdownRemaining = ticks
	s.tickTimer = s.clock.NewTimer(s.cfg.TickInterval)
	s.publishState()
}

func (s *Session) onTick(ctx context.Context) {
	if !s.phases.Is(string(PhaseCountingDown)) {
		return
	}
	s.state.CountdownRemaining--
	if s.state.CountdownRemaining <= 0 {
		s.reset(ctx, ResetReasonCountdown)
		return
	}

	s.tickTimer = s.clock.NewTimer(s.cfg.TickInterval)
	s.publishState()
	s.emit(ctx, events.EventTypeCountdownTick, events.CountdownTickPayload{
		Generation:       s.generation,
		TimeRemainingSec: s.state.CountdownRemaining,
		TickedAt:         s.clock.Now(),
	})
}

func (s *Session) reset(ctx context.Context, reason string) {
	if s.phases.Is(string(PhaseIdle)) {
		return
	}
	s.stopTimers()
	if err := s.transition(ctx, eventReset); err != nil {
		return
	}
	s.generation++
	s.state = State{Generation: s.generation}
	s.publishState()

	s.metrics.RecordReset(reason)
	s.emit(ctx, events.EventTypeSessionReset, events.SessionResetPayload{
		Generation: s.generation,
		Reason:     reason,
		ResetAt:    s.clock.Now(),
	})
	log.Debug().Str("reason", reason).Uint64("generation", s.generation).Msg("session reset")
}

// appendRecord writes record off the loop. The outcome is published and the
// feed refreshed; session state is never touched from here.
func (s *Session) appendRecord(ctx context.Context, record models.QuestionRecord) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AppendTimeout)
		defer cancel()

		payload := events.RecordAppendedPayload{
			Name:     record.Name,
			Question: record.Question,
			DrawnAt:  record.DrawnAt,
		}
		eventType := events.EventTypeRecordAppended

		if err := s.store.Append(appendCtx, record); err != nil {
			log.Error().Err(err).Str("participant", record.Name).Msg("failed to append draw record")
			payload.Error = err.Error()
			eventType = events.EventTypeRecordAppendFailed
		}
		s.emit(appendCtx, eventType, payload)

		if s.feed != nil {
			s.feed.Refresh(appendCtx)
		}
	}()
}

func (s *Session) transition(ctx context.Context, event string) error {
	if err := s.phases.Event(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("event", event).
			Str("phase", s.phases.Current()).
			Msg("invalid draw phase transition")
		return fmt.Errorf("draw transition %s: %w", event, err)
	}
	return nil
}

func (s *Session) publishState() {
	s.state.Phase = Phase(s.phases.Current())
	snapshot := s.state
	s.current.Store(&snapshot)
}

func (s *Session) emit(ctx context.Context, eventType events.EventType, payload any) {
	event, err := events.New(eventType, s.cfg.InstanceID, s.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}

func (s *Session) countdownTicks() int {
	ticks := int(s.cfg.Countdown / s.cfg.TickInterval)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

func rejectReason(err error) string {
	switch err {
	case ErrInvalidName:
		return "invalid_name"
	case ErrNameNotAllowed:
		return "not_allowed"
	case ErrDrawInProgress:
		return "in_progress"
	default:
		return "error"
	}
}
