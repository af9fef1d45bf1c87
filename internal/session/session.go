// Package session holds per-user dashboard state: the selection set, the
// analysis status and the normalized result.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jackzampolin/regdesk/internal/normalize"
	"github.com/jackzampolin/regdesk/internal/types"
)

var (
	// ErrAnalysisInProgress rejects a second analysis while one is running.
	ErrAnalysisInProgress = errors.New("analysis already in progress")

	// ErrSelectionChanged reports an analysis outcome dropped because the
	// selection was added to or cleared while it ran.
	ErrSelectionChanged = errors.New("selection changed during analysis")
)

// AddResult reports the outcome of Session.Add.
type AddResult int

const (
	Added AddResult = iota
	DuplicateRejected
)

func (r AddResult) String() string {
	if r == Added {
		return "added"
	}
	return "duplicate_rejected"
}

// Session is one user's working state. Methods are safe for concurrent use;
// each call runs to completion before the next.
type Session struct {
	id        string
	createdAt time.Time

	mu            sync.Mutex
	lastSeen      time.Time
	selection     []types.Document
	lastAttempted *types.Document
	selectorKey   int
	state         AnalysisState
	result        *normalize.Result
	documents     []types.Document

	// generation changes with every selection change; an analysis outcome
	// is only applied to the generation it started on.
	generation int
	running    bool
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		lastSeen:  now,
		state:     IdleState(),
	}
}

// New creates a standalone session not tracked by a Store.
func New(id string) *Session {
	return newSession(id, time.Now())
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Add appends doc unless a document with the same ID is already selected.
// A successful add invalidates any previous result.
func (s *Session) Add(doc types.Document) AddResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempted := doc
	s.lastAttempted = &attempted

	if slices.ContainsFunc(s.selection, func(d types.Document) bool { return d.ID == doc.ID }) {
		return DuplicateRejected
	}

	s.selection = append(s.selection, doc)
	s.invalidate()
	return Added
}

// Clear empties the selection and resets status and result.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = nil
	s.lastAttempted = nil
	s.invalidate()
}

// invalidate drops the result and any running analysis. Callers hold mu.
func (s *Session) invalidate() {
	s.result = nil
	s.state = IdleState()
	s.selectorKey++
	s.generation++
	s.running = false
}

// UpdateStatus merges the provided fields into the analysis state.
func (s *Session) UpdateStatus(u StatusUpdate) AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.apply(&s.state)
	return s.state
}

// BeginAnalysis marks the session as processing and drops any previous
// result. It fails if an analysis started on the current selection is still
// running. The returned generation must be passed to Complete or Fail.
func (s *Session) BeginAnalysis(message string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return 0, ErrAnalysisInProgress
	}
	s.running = true
	s.result = nil
	Transition(StatusProcessing, 0, message).apply(&s.state)
	return s.generation, nil
}

// Complete stores r and applies u if the selection is unchanged since
// BeginAnalysis returned gen. It reports whether the outcome was applied.
func (s *Session) Complete(gen int, r *normalize.Result, u StatusUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.running = false
	s.result = r
	u.apply(&s.state)
	return true
}

// Fail applies u if the selection is unchanged since BeginAnalysis returned
// gen. It reports whether the outcome was applied.
func (s *Session) Fail(gen int, u StatusUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.running = false
	u.apply(&s.state)
	return true
}

// State returns the current analysis state.
func (s *Session) State() AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the normalized result, or nil.
func (s *Session) Result() *normalize.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Selection returns a copy of the selected documents in insertion order.
func (s *Session) Selection() []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selection)
}

// LastAttempted returns the document passed to the most recent Add, if any.
func (s *Session) LastAttempted() *types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAttempted == nil {
		return nil
	}
	d := *s.lastAttempted
	return &d
}

// SelectorKey is incremented whenever the selection widget must reset.
func (s *Session) SelectorKey() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectorKey
}

// Documents returns the cached catalog.
func (s *Session) Documents() []types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.documents)
}

// SetDocuments replaces the cached catalog.
func (s *Session) SetDocuments(docs []types.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = slices.Clone(docs)
}

// FindDocument looks up id in the cached catalog.
func (s *Session) FindDocument(id string) (types.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.documents, func(d types.Document) bool { return d.ID == id })
	if i < 0 {
		return types.Document{}, false
	}
	return s.documents[i], true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot is a point-in-time copy of a session for serialization.
type Snapshot struct {
	ID            string            `json:"id" yaml:"id"`
	CreatedAt     time.Time         `json:"created_at" yaml:"created_at"`
	Selection     []types.Document  `json:"selection" yaml:"selection"`
	LastAttempted *types.Document   `json:"last_attempted,omitempty" yaml:"last_attempted,omitempty"`
	SelectorKey   int               `json:"selector_key" yaml:"selector_key"`
	State         AnalysisState     `json:"state" yaml:"state"`
	Result        *normalize.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Documents     int               `json:"documents_cached" yaml:"documents_cached"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		CreatedAt:   s.createdAt,
		Selection:   slices.Clone(s.selection),
		SelectorKey: s.selectorKey,
		State:       s.state,
		Result:      s.result,
		Documents:   len(s.documents),
	}
	if snap.Selection == nil {
		snap.Selection = []types.Document{}
	}
	if s.lastAttempted != nil {
		d := *s.lastAttempted
		snap.LastAttempted = &d
	}
	return snap
}
