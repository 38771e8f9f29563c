// Package session holds the live query state of one reader: the text being
// typed, the debounced query that searches actually run against, and the
// active type filter.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/prism/internal/report"
	"github.com/dgallion1/prism/internal/search"
)

// DefaultDelay is the quiet period after the last keystroke before a query
// is committed.
const DefaultDelay = 300 * time.Millisecond

// Timer is a pending delayed call. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler starts delayed calls.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Phase is where a session sits in the typing cycle.
type Phase string

const (
	Idle      Phase = "idle"
	Typing    Phase = "typing"
	Committed Phase = "committed"
)

// State is a snapshot of a session.
type State struct {
	Raw       string        `json:"raw"`
	Committed string        `json:"committed"`
	Filter    search.Filter `json:"filter"`
	Phase     Phase         `json:"phase"`
	Searching bool          `json:"searching"`
	Closed    bool          `json:"closed,omitempty"`
}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Delay     time.Duration
	Scheduler Scheduler
	// OnCommit runs after a debounced commit, outside the session lock and on
	// the scheduler's goroutine. Close waits for a running OnCommit, so the
	// hook must not call Close or block on anything that does.
	OnCommit func(State)
	// Latency, when set, records every search the session runs.
	Latency *search.Latency
}

// pending is the single in-flight commit. The timer callback only commits if
// its handle is still the session's current one.
type pending struct {
	timer Timer
}

type memoKey struct {
	query  string
	filter search.Filter
}

// Session is safe for concurrent use.
type Session struct {
	doc  *report.Document
	opts Options

	mu        sync.Mutex
	raw       string
	committed string
	filter    search.Filter
	pending   *pending
	closed    bool
	// callbacks counts OnCommit calls in flight.
	callbacks sync.WaitGroup

	memoOK  bool
	memoKey memoKey
	results []search.Result
	groups  []search.Group
}

// New starts an idle session over doc with the "all" filter.
func New(doc *report.Document, opts Options) *Session {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = wallClock{}
	}
	return &Session{
		doc:    doc,
		opts:   opts,
		filter: search.FilterAll,
	}
}

// SetQuery records what the reader typed and restarts the commit timer. The
// raw text is visible immediately; the committed query changes only after
// the delay passes with no further SetQuery.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.raw = q
	s.cancelLocked()

	p := &pending{}
	p.timer = s.opts.Scheduler.AfterFunc(s.opts.Delay, func() { s.fire(p) })
	s.pending = p
}

func (s *Session) fire(p *pending) {
	s.mu.Lock()
	if s.closed || s.pending != p {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.committed = s.raw
	st := s.stateLocked()
	notify := s.opts.OnCommit != nil
	if notify {
		s.callbacks.Add(1)
	}
	s.mu.Unlock()

	if notify {
		defer s.callbacks.Done()
		s.opts.OnCommit(st)
	}
}

// Flush commits the raw query now, dropping any pending timer.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelLocked()
	s.committed = s.raw
}

// Clear resets the query and filter and drops any pending commit.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelLocked()
	s.raw = ""
	s.committed = ""
	s.filter = search.FilterAll
}

// SetFilter changes the type filter. It does not touch a pending commit.
func (s *Session) SetFilter(f search.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if f == "" {
		f = search.FilterAll
	}
	s.filter = f
}

// Close cancels any pending commit and waits for an OnCommit already under
// way. After Close returns no timer callback changes the session or calls
// OnCommit, and setters do nothing. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cancelLocked()
	}
	s.mu.Unlock()
	s.callbacks.Wait()
}

func (s *Session) cancelLocked() {
	if s.pending != nil {
		s.pending.timer.Stop()
		s.pending = nil
	}
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Raw:       s.raw,
		Committed: s.committed,
		Filter:    s.filter,
		Searching: strings.TrimSpace(s.committed) != "",
		Closed:    s.closed,
	}
	switch {
	case s.raw == "":
		st.Phase = Idle
	case s.pending != nil || s.committed != s.raw:
		st.Phase = Typing
	default:
		st.Phase = Committed
	}
	return st
}

// IsSearching reports whether the committed query is non-blank.
func (s *Session) IsSearching() bool {
	return s.State().Searching
}

// Results runs the committed query under the current filter. Results are
// cached until either of the two changes.
func (s *Session) Results() []search.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.results
}

// Groups returns Results grouped by chapter.
func (s *Session) Groups() []search.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.groups
}

// Snapshot returns the state together with the groups for its committed
// query and filter, taken under one lock.
func (s *Session) Snapshot() (State, []search.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s.stateLocked(), s.groups
}

func (s *Session) refreshLocked() {
	key := memoKey{query: s.committed, filter: s.filter}
	if s.memoOK && s.memoKey == key {
		return
	}
	run := func() []search.Result { return search.Search(s.doc, key.query, key.filter) }
	if s.opts.Latency != nil && strings.TrimSpace(key.query) != "" {
		s.results = s.opts.Latency.Observe(run)
	} else {
		s.results = run()
	}
	s.groups = search.GroupByChapter(s.results)
	s.memoKey = key
	s.memoOK = true
}
