package authcommon

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitState is the verdict of CheckRateLimit.
type RateLimitState int

const (
	OK RateLimitState = iota
	Wait
	Permanent
)

func (s RateLimitState) String() string {
	switch s {
	case OK:
		return "OK"
	case Wait:
		return "WAIT"
	case Permanent:
		return "PERMANENT"
	default:
		return "UNKNOWN"
	}
}

// FailureRecord tracks repeated failed passphrase attempts.
type FailureRecord struct {
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// LoadFailures reads path's failure record. A missing file yields a
// zero-value record (no prior failures), not an error.
func LoadFailures(path string) (FailureRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FailureRecord{}, nil
	}
	if err != nil {
		return FailureRecord{}, fmt.Errorf("authcommon: read failures: %w", err)
	}
	var rec FailureRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt failures file is treated the same as "locked out
		// permanently" would be too punitive; fail safe by resetting,
		// since the file only tracks a soft rate limit, not identity.
		return FailureRecord{}, nil
	}
	return rec, nil
}

// SaveFailures persists rec to path using write-temp-then-rename.
func SaveFailures(path string, rec FailureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("authcommon: marshal failures: %w", err)
	}
	return WriteAtomic(path, data, 0o600)
}

// RecordFailure increments rec's counter and stamps Last (and First, if
// this is the initial failure), at instant now.
func RecordFailure(rec FailureRecord, now time.Time) FailureRecord {
	if rec.Count == 0 {
		rec.First = now
	}
	rec.Count++
	rec.Last = now
	return rec
}

// CheckRateLimit classifies rec's failure count into OK (0-2), WAIT
// (3-9, with an escalating delay), or PERMANENT (>=10, requiring a
// manual reset). The WAIT delay is
// min(2^(count-2), 300) seconds — monotonically non-decreasing and
// capped at five minutes, per the guard's documented backoff curve.
func CheckRateLimit(rec FailureRecord, now time.Time) (RateLimitState, time.Duration) {
	switch {
	case rec.Count <= 2:
		return OK, 0
	case rec.Count >= 10:
		return Permanent, 0
	default:
		delay := waitDelay(rec.Count)
		elapsed := now.Sub(rec.Last)
		if elapsed >= delay {
			return OK, 0
		}
		return Wait, delay - elapsed
	}
}

func waitDelay(count int) time.Duration {
	shift := count - 2 // count=3 -> 2^1s, count=9 -> 2^7s=128s
	seconds := 1 << uint(shift)
	if seconds > 300 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

// ResetFailures removes the failures file, clearing the counter.
func ResetFailures(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("authcommon: reset failures: %w", err)
	}
	return nil
}

// AttemptThrottle is a token-bucket layered in front of the counted
// failure curve above: it throttles the raw *rate* of verification
// attempts (independent of whether they succeed), so a scripted brute
// force cannot even reach the counted rate-limit path at full speed.
type AttemptThrottle struct {
	limiter *rate.Limiter
}

// NewAttemptThrottle allows roughly one passphrase-verification attempt
// every interval, with a small burst allowance.
func NewAttemptThrottle(interval time.Duration, burst int) *AttemptThrottle {
	return &AttemptThrottle{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Allow reports whether a new verification attempt may proceed right
// now; if false, the caller should treat it as WAIT without even
// touching the passphrase hash.
func (t *AttemptThrottle) Allow() bool {
	return t.limiter.Allow()
}
