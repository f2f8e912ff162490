// Package session implements the analyst workflow for Argus: confirm a
// date, pick an anomaly from that day's list, request an explanation.
// Each browser session owns one state machine; all mutation happens
// through explicit user actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"argus/internal/explain"
	"argus/internal/results"
)

// Phase names the workflow states.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseDateConfirmed     Phase = "date_confirmed"
	PhaseAnomalyChosen     Phase = "anomaly_chosen"
	PhaseExplanationReady  Phase = "explanation_ready"
	PhaseExplanationFailed Phase = "explanation_failed"
)

// State is the JSON snapshot of a session returned by every workflow
// endpoint. Selected is -1 while no anomaly is chosen.
type State struct {
	Phase       Phase                `json:"phase"`
	Date        string               `json:"date,omitempty"`
	Count       int                  `json:"count"`
	Anomalies   []results.Anomaly    `json:"anomalies"`
	Selected    int                  `json:"selected"`
	Explanation *explain.Explanation `json:"explanation,omitempty"`
	Failure     string               `json:"failure,omitempty"`
	InFlight    bool                 `json:"in_flight"`
}

// Session is one analyst's workflow state machine.
//
// Confirm is valid from any phase and unconditionally discards the
// prior selection and explanation. Choose requires a non-empty
// materialized list. RequestExplanation requires a selection, admits at
// most one in-flight generation, and discards results that arrive after
// the state they were requested for has been replaced. The generation
// counter implements that guard: every mutation bumps it, and a result
// only commits if the counter still matches the value captured when the
// request started.
type Session struct {
	id      uuid.UUID
	results results.System
	explain explain.System
	logger  *slog.Logger

	mu          sync.Mutex
	phase       Phase
	date        string
	anomalies   []results.Anomaly
	selected    int
	explanation *explain.Explanation
	failure     string
	inFlight    bool
	generation  uint64
	touched     time.Time
}

func newSession(id uuid.UUID, res results.System, exp explain.System, logger *slog.Logger) *Session {
	return &Session{
		id:       id,
		results:  res,
		explain:  exp,
		logger:   logger.With("session", id),
		phase:    PhaseIdle,
		selected: -1,
		touched:  time.Now(),
	}
}

// ID returns the session identifier carried by the browser cookie.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Snapshot returns the current state.
func (s *Session) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Confirm materializes the anomaly list for date and enters
// DateConfirmed, discarding any prior selection and explanation. Valid
// from every phase; an empty day is a valid outcome. On a query error
// the session state is left untouched.
func (s *Session) Confirm(ctx context.Context, date string) (*State, error) {
	anomalies, err := s.results.AnomaliesOn(ctx, date)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.phase = PhaseDateConfirmed
	s.date = date
	s.anomalies = anomalies
	s.selected = -1
	s.explanation = nil
	s.failure = ""
	s.touch()

	s.logger.Info("date confirmed", "date", date, "anomalies", len(anomalies))
	return s.snapshotLocked(), nil
}

// Choose selects the index-th anomaly of the materialized list and
// enters AnomalyChosen, clearing any prior explanation. Valid whenever
// a list is materialized; choosing out of bounds, including on an empty
// day, is rejected before any state changes.
func (s *Session) Choose(index int) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseIdle {
		return nil, ErrNoDate
	}

	if index < 0 || index >= len(s.anomalies) {
		return nil, fmt.Errorf("%w: index %d, %d anomalies on %s",
			explain.ErrInvalidIndex, index, len(s.anomalies), s.date)
	}

	s.generation++
	s.phase = PhaseAnomalyChosen
	s.selected = index
	s.explanation = nil
	s.failure = ""
	s.touch()

	return s.snapshotLocked(), nil
}

// RequestExplanation generates the report for the current selection.
// The lock is released for the duration of the generation call; the
// result commits only if no other action has touched the session in
// the meantime, otherwise it is discarded and ErrSuperseded returned.
// A generation failure enters ExplanationFailed with the selection
// intact, so the action can simply be retried.
func (s *Session) RequestExplanation(ctx context.Context) (*State, error) {
	s.mu.Lock()
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return nil, ErrNoDate
	}
	if s.selected < 0 {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrExplanationInFlight
	}

	s.inFlight = true
	generation := s.generation
	date, index := s.date, s.selected
	s.mu.Unlock()

	explanation, genErr := s.explain.Explain(ctx, date, index)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.generation != generation {
		s.logger.Info("stale explanation discarded", "date", date, "index", index)
		return nil, ErrSuperseded
	}

	if genErr != nil {
		if errors.Is(genErr, explain.ErrGenerationFailed) {
			s.phase = PhaseExplanationFailed
			s.failure = genErr.Error()
			s.touch()
		}
		return nil, genErr
	}

	s.phase = PhaseExplanationReady
	s.explanation = explanation
	s.failure = ""
	s.touch()

	return s.snapshotLocked(), nil
}

// Reset returns the session to Idle, discarding everything. An
// explanation still in flight will find the generation counter moved
// and be discarded on arrival.
func (s *Session) Reset() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.phase = PhaseIdle
	s.date = ""
	s.anomalies = nil
	s.selected = -1
	s.explanation = nil
	s.failure = ""
	s.touch()

	return s.snapshotLocked()
}

// Touched returns the time of the last completed action, for TTL
// expiry.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) touch() {
	s.touched = time.Now()
}

func (s *Session) snapshotLocked() *State {
	anomalies := s.anomalies
	if anomalies == nil {
		anomalies = []results.Anomaly{}
	}

	return &State{
		Phase:       s.phase,
		Date:        s.date,
		Count:       len(s.anomalies),
		Anomalies:   anomalies,
		Selected:    s.selected,
		Explanation: s.explanation,
		Failure:     s.failure,
		InFlight:    s.inFlight,
	}
}
