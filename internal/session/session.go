// Package session tracks one guard run: a unique id, monotonic
// metrics, an ordered event log, and archive-on-end to a per-session
// directory, <dir>/<session-id>/, keyed by session id rather than by date.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chudeemeke/wow-guard/internal/authcommon"
)

// Event is one ordered entry in the session's log.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
}

// Session is a single guard run: a unique id, a namespaced metrics
// table, and an ordered event log. Safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	metrics   map[string]int64
	events    []Event
	now       func() time.Time
}

// Start begins a new session with a fresh id of shape
// "session_<uuid>".
func Start() *Session {
	return &Session{
		id:        "session_" + uuid.NewString(),
		startedAt: time.Now(),
		metrics:   make(map[string]int64),
		now:       time.Now,
	}
}

// StartWithID begins a new session using an explicit id, so a caller
// that already knows the conversation's session id (e.g. from the
// calling environment) can have multiple guard invocations share one
// session instead of each starting fresh. An empty id falls back to
// Start.
func StartWithID(id string) *Session {
	if id == "" {
		return Start()
	}
	return &Session{
		id:        id,
		startedAt: time.Now(),
		metrics:   make(map[string]int64),
		now:       time.Now,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Duration returns the elapsed time since the session started.
func (s *Session) Duration() time.Duration { return s.now().Sub(s.startedAt) }

// RecordEvent appends an event to the ordered log.
func (s *Session) RecordEvent(kind string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Timestamp: s.now(), Kind: kind, Payload: payload})
}

// IncrementMetric adds delta to the named counter and returns its new
// value.
func (s *Session) IncrementMetric(name string, delta int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[name] += delta
	return s.metrics[name]
}

// Metrics returns a snapshot of the current metrics table.
func (s *Session) Metrics() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.metrics))
	for k, v := range s.metrics {
		out[k] = v
	}
	return out
}

// Events returns a snapshot of the ordered event log.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

type metricsFile struct {
	SessionID string           `json:"session_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  string           `json:"duration"`
	Metrics   map[string]int64 `json:"metrics"`
}

// Archive persists the session under dir/<session-id>/ as
// metrics.json (a single JSON object) and events.log (newline-delimited
// JSON, one Event per line), matching the external interfaces layout.
func (s *Session) Archive(dir string) error {
	s.mu.Lock()
	snapshotMetrics := make(map[string]int64, len(s.metrics))
	for k, v := range s.metrics {
		snapshotMetrics[k] = v
	}
	snapshotEvents := append([]Event(nil), s.events...)
	s.mu.Unlock()

	sessionDir := filepath.Join(dir, s.id)
	if err := os.MkdirAll(sessionDir, 0o700); err != nil {
		return fmt.Errorf("session: mkdir %s: %w", sessionDir, err)
	}

	mf := metricsFile{
		SessionID: s.id,
		StartedAt: s.startedAt,
		Duration:  s.Duration().String(),
		Metrics:   snapshotMetrics,
	}
	data, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal metrics: %w", err)
	}
	if err := authcommon.WriteAtomic(filepath.Join(sessionDir, "metrics.json"), data, 0o600); err != nil {
		return err
	}

	return writeEventsLog(filepath.Join(sessionDir, "events.log"), snapshotEvents)
}

func writeEventsLog(path string, events []Event) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("session: open events log: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			f.Close()
			return fmt.Errorf("session: encode event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("session: flush events log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("session: close events log: %w", err)
	}
	return os.Rename(tmp, path)
}

// Restore reads back a previously archived session's metrics and event
// log from dir/<id>/.
func Restore(dir, id string) (*Session, error) {
	sessionDir := filepath.Join(dir, id)

	data, err := os.ReadFile(filepath.Join(sessionDir, "metrics.json"))
	if err != nil {
		return nil, fmt.Errorf("session: read metrics.json: %w", err)
	}
	var mf metricsFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("session: parse metrics.json: %w", err)
	}

	events, err := readEventsLog(filepath.Join(sessionDir, "events.log"))
	if err != nil {
		return nil, err
	}

	return &Session{
		id:        mf.SessionID,
		startedAt: mf.StartedAt,
		metrics:   mf.Metrics,
		events:    events,
		now:       time.Now,
	}, nil
}

func readEventsLog(path string) ([]Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: open events.log: %w", err)
	}
	defer f.Close()

	var events []Event
	dec := json.NewDecoder(f)
	for dec.More() {
		var e Event
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("session: decode event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}
