// Package correlator tracks a bounded, in-process sliding window of
// recent Write and Bash events to detect multi-step attacks that no
// single-invocation handler can see on its own: write-then-execute,
// download-then-execute, and config poisoning. A payload assembled in
// stages across several commands and then evaluated is not detected.
package correlator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Kind distinguishes the two event types the correlator tracks.
type Kind int

const (
	WriteEvent Kind = iota
	BashEvent
)

// Event is one recorded occurrence in the window.
type Event struct {
	Timestamp time.Time
	Kind      Kind
	Target    string // normalised file path (Write) or raw command (Bash)
	Digest    string // content fingerprint, opaque to the window itself
}

const (
	// DefaultWindowSize bounds the window at 50 entries (FIFO eviction).
	DefaultWindowSize = 50
	// DefaultWindowTTL is the time-based eviction horizon.
	DefaultWindowTTL = 5 * time.Minute
)

// Window is the bounded, thread-safe sliding window of recent events.
type Window struct {
	mu       sync.Mutex
	entries  []Event
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
}

// NewWindow returns a Window with the given bounds. A zero maxSize or
// ttl falls back to the documented defaults.
func NewWindow(maxSize int, ttl time.Duration) *Window {
	if maxSize <= 0 {
		maxSize = DefaultWindowSize
	}
	if ttl <= 0 {
		ttl = DefaultWindowTTL
	}
	return &Window{maxSize: maxSize, ttl: ttl, now: time.Now}
}

// Record appends event, evicting by time first then by count so the
// window never exceeds maxSize and never retains references to entries
// older than ttl.
func (w *Window) Record(e Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	w.evictLocked()
}

// Expire forces a time-based eviction pass without recording a new
// event, matching the "explicit expiry call" in the window's invariants.
func (w *Window) Expire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictLocked()
}

func (w *Window) evictLocked() {
	cutoff := w.now().Add(-w.ttl)
	kept := w.entries[:0]
	for _, e := range w.entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	w.entries = kept
	if len(w.entries) > w.maxSize {
		w.entries = append([]Event(nil), w.entries[len(w.entries)-w.maxSize:]...)
	}
}

// Snapshot returns a copy of the current window, oldest first.
func (w *Window) Snapshot() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictLocked()
	return append([]Event(nil), w.entries...)
}

// Finding is a correlator match surfaced to the caller as a BLOCK
// decision with a reason identifying the pattern.
type Finding struct {
	Pattern string
	Reason  string
	Risk    int // 0-100
}

var transientPrefixes = []string{"/tmp/", "/var/tmp/"}

func isTransient(path string) bool {
	for _, p := range transientPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

var shellInitPaths = regexp.MustCompile(`(\.bashrc|\.profile|\.zshrc|\.ssh/config)$`)

var executesTarget = regexp.MustCompile(`\b(bash|sh|zsh|source|\.)\s+["']?([^\s"']+)["']?|^\s*["']?(/[^\s"']+)["']?\s*$`)

var downloadWrite = regexp.MustCompile(`\b(curl|wget)\b[^|;&]*(-o|-O|--output)\s+["']?([^\s"']+)`)

// CheckBash evaluates a new Bash command against the window, looking
// for write-then-execute and download-then-execute sequences. It does
// not itself record the Bash event — callers record after checking, so
// a command can't correlate against itself.
func (w *Window) CheckBash(command string, projectDirs []string) *Finding {
	target := executedTarget(command)
	if target == "" {
		return nil
	}
	for _, e := range w.Snapshot() {
		if e.Kind != WriteEvent {
			continue
		}
		if !pathsRefer(e.Target, target) {
			continue
		}
		if isUnderAny(target, projectDirs) {
			continue // safe location: normal development workflow
		}
		if isTransient(e.Target) || isTransient(target) {
			return &Finding{
				Pattern: "write-then-execute",
				Reason:  fmt.Sprintf("write-then-execute of %s within %s", e.Target, w.ttl),
				Risk:    RiskScore(e.Target, e.Timestamp, w.now(), projectDirs),
			}
		}
	}
	return nil
}

// CheckDownloadThenExecute looks for a prior curl/wget writing to a
// transient location, now being executed.
func (w *Window) CheckDownloadThenExecute(command string) *Finding {
	target := executedTarget(command)
	if target == "" || !isTransient(target) {
		return nil
	}
	for _, e := range w.Snapshot() {
		if e.Kind != BashEvent {
			continue
		}
		if m := downloadWrite.FindStringSubmatch(e.Target); m != nil && pathsRefer(m[3], target) {
			return &Finding{
				Pattern: "download-then-execute",
				Reason:  fmt.Sprintf("download-then-execute of %s within %s", target, w.ttl),
				Risk:    90,
			}
		}
	}
	return nil
}

// CheckConfigPoisoning flags a Write to a shell init file at write-time,
// regardless of any follow-up command.
func CheckConfigPoisoning(path string) *Finding {
	if shellInitPaths.MatchString(path) {
		return &Finding{
			Pattern: "config-poisoning",
			Reason:  fmt.Sprintf("write to shell init path %s", path),
			Risk:    95,
		}
	}
	return nil
}

func executedTarget(command string) string {
	m := executesTarget.FindStringSubmatch(command)
	if m == nil {
		return ""
	}
	if m[2] != "" {
		return m[2]
	}
	return m[3]
}

func pathsRefer(a, b string) bool {
	return a != "" && (a == b || strings.HasSuffix(b, a) || strings.HasSuffix(a, b))
}

func isUnderAny(path string, dirs []string) bool {
	for _, d := range dirs {
		if d != "" && strings.HasPrefix(path, strings.TrimSuffix(d, "/")+"/") {
			return true
		}
	}
	return false
}

// RiskScore maps a write event to a 0-100 risk score: recently-written
// transient targets score highest, targets inside a recognised project
// directory are capped low even when recently written (so ordinary
// development is never flagged), and unrelated system binaries score
// low. See DESIGN.md for the documented boundary values.
func RiskScore(target string, writtenAt, now time.Time, projectDirs []string) int {
	if isUnderAny(target, projectDirs) {
		return 25
	}
	if !isTransient(target) {
		return 10
	}
	elapsed := now.Sub(writtenAt)
	const floor = 60
	const ceiling = 85
	const decayWindow = 5 * time.Minute
	if elapsed <= 0 {
		return ceiling
	}
	if elapsed >= decayWindow {
		return floor
	}
	frac := float64(elapsed) / float64(decayWindow)
	score := ceiling - int(frac*float64(ceiling-floor))
	return score
}
