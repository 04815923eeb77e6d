package authcommon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// State is one of the four observable auth states shared by Bypass and
// SuperAdmin.
type State int

const (
	NotConfigured State = iota // no passphrase hash file
	Protected                  // hash present, no active token
	Active                     // valid token + fresh activity
	LockedOut                  // failures past soft threshold: WAIT delay running, or PERMANENT
)

func (s State) String() string {
	switch s {
	case NotConfigured:
		return "NOT_CONFIGURED"
	case Protected:
		return "PROTECTED"
	case Active:
		return "ACTIVE"
	case LockedOut:
		return "LOCKED_OUT"
	default:
		return "UNKNOWN"
	}
}

// VerifyResult is the outcome of VerifyPassphrase.
type VerifyResult int

const (
	VerifyAllow VerifyResult = iota
	VerifyReject
	VerifyNotConfigured
	VerifyRateLimited
)

// Core is the state machine shared by the Bypass and SuperAdmin
// authentication cores (spec §4.6/§4.7): passphrase hash, v2 token
// lifecycle, rate-limited failures, and script-integrity. Bypass and
// SuperAdmin each own an exclusively-owned directory; nothing else
// writes into it.
type Core struct {
	Dir               string
	MaxDuration       time.Duration
	InactivityTimeout time.Duration
	Throttle          *AttemptThrottle
	Now               func() time.Time
}

func (c *Core) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Core) hashPath() string     { return c.Dir + "/passphrase.hash" }
func (c *Core) tokenPath() string    { return c.Dir + "/active.token" }
func (c *Core) activityPath() string { return c.Dir + "/last_activity" }
func (c *Core) failuresPath() string { return c.Dir + "/failures.json" }
func (c *Core) lockPath() string     { return c.Dir + "/.failures.lock" }
func (c *Core) checksumPath() string { return c.Dir + "/checksums.toml" }

// HashPathPublic, TokenPathPublic, ActivityPathPublic and
// ChecksumPathPublic expose the owned file paths read-only to the
// packages built on Core (RegenerateChecksums uses ChecksumPathPublic).
func (c *Core) HashPathPublic() string     { return c.hashPath() }
func (c *Core) TokenPathPublic() string    { return c.tokenPath() }
func (c *Core) ActivityPathPublic() string { return c.activityPath() }
func (c *Core) ChecksumPathPublic() string { return c.checksumPath() }

// readHashLine returns the stored "salt:hash" line, or "" if unconfigured.
func (c *Core) readHashLine() (string, error) {
	data, err := readFileIfExists(c.hashPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SetPassphrase hashes pp and (re)writes the hash file, invalidating any
// outstanding token since the HMAC key changes.
func (c *Core) SetPassphrase(pp string) error {
	line, err := HashPassphrase(pp)
	if err != nil {
		return err
	}
	return WriteAtomic(c.hashPath(), []byte(line+"\n"), 0o600)
}

// VerifyPassphrase checks pp against the stored hash, applying the
// attempt throttle and the counted rate limiter before comparing pp
// with it. The hash file is read first, so an unconfigured core reports
// VerifyNotConfigured without consuming a throttle token.
func (c *Core) VerifyPassphrase(pp string) (VerifyResult, error) {
	line, err := c.readHashLine()
	if err != nil {
		return VerifyReject, err
	}
	if line == "" {
		return VerifyNotConfigured, nil
	}

	if c.Throttle != nil && !c.Throttle.Allow() {
		return VerifyRateLimited, nil
	}

	rec, err := LoadFailures(c.failuresPath())
	if err != nil {
		return VerifyReject, err
	}
	if state, _ := CheckRateLimit(rec, c.now()); state != OK {
		return VerifyRateLimited, nil
	}

	if VerifyPassphrase(pp, line) {
		return VerifyAllow, nil
	}

	var recordErr error
	lockErr := WithLock(c.lockPath(), func() error {
		rec, err := LoadFailures(c.failuresPath())
		if err != nil {
			return err
		}
		rec = RecordFailure(rec, c.now())
		return SaveFailures(c.failuresPath(), rec)
	})
	if lockErr != nil {
		recordErr = lockErr
	}
	return VerifyReject, recordErr
}

// CreateToken issues and persists a fresh v2 token bound to the current
// passphrase hash, and initialises the activity file. The caller
// (Activate) is responsible for prerequisite checks.
func (c *Core) CreateToken() error {
	line, err := c.readHashLine()
	if err != nil {
		return err
	}
	if line == "" {
		return fmt.Errorf("authcommon: cannot create token, not configured")
	}
	tok := IssueToken(line, c.now(), c.MaxDuration)
	if err := WriteAtomic(c.tokenPath(), []byte(tok), 0o600); err != nil {
		return err
	}
	return c.touchActivity()
}

func (c *Core) touchActivity() error {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	return WriteAtomic(c.activityPath(), []byte(ts), 0o600)
}

// VerifyToken checks the persisted token's cryptographic validity and
// the activity-derived inactivity timeout. On an invalid or expired
// token it removes the token and activity files (auto-deactivation).
func (c *Core) VerifyToken() (bool, error) {
	line, err := c.readHashLine()
	if err != nil {
		return false, err
	}
	if line == "" {
		return false, nil
	}
	tokData, err := readFileIfExists(c.tokenPath())
	if err != nil {
		return false, err
	}
	if tokData == nil {
		return false, nil
	}

	_, verr := VerifyToken(string(tokData), line, c.now())
	if verr != nil {
		c.deactivateFiles()
		return false, nil
	}

	lastActivity, err := c.readActivity()
	if err != nil {
		return false, err
	}
	if lastActivity == nil {
		c.deactivateFiles()
		return false, nil
	}
	if c.now().Sub(*lastActivity) >= c.InactivityTimeout {
		c.deactivateFiles()
		return false, nil
	}
	return true, nil
}

func (c *Core) readActivity() (*time.Time, error) {
	data, err := readFileIfExists(c.activityPath())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, nil
	}
	t := time.Unix(secs, 0)
	return &t, nil
}

func (c *Core) deactivateFiles() {
	RemoveIfExists(c.tokenPath())
	RemoveIfExists(c.activityPath())
}

// IsActive is a shortcut predicate: a valid, non-expired, non-inactive
// token. It auto-deactivates on detecting an invalid/expired token as a
// side effect of VerifyToken.
func (c *Core) IsActive() bool {
	active, err := c.VerifyToken()
	return err == nil && active
}

// Activate verifies pp, and on success issues a token and resets the
// failure counter.
func (c *Core) Activate(pp string) (VerifyResult, error) {
	result, err := c.VerifyPassphrase(pp)
	if err != nil || result != VerifyAllow {
		return result, err
	}
	if err := c.CreateToken(); err != nil {
		return VerifyReject, err
	}
	if err := ResetFailures(c.failuresPath()); err != nil {
		return VerifyReject, err
	}
	return VerifyAllow, nil
}

// ResetFailures clears the failure counter, e.g. after a caller-managed
// multi-factor Activate sequence succeeds.
func (c *Core) ResetFailures() error {
	return ResetFailures(c.failuresPath())
}

// Deactivate idempotently removes the token and activity files.
func (c *Core) Deactivate() error {
	if err := RemoveIfExists(c.tokenPath()); err != nil {
		return err
	}
	return RemoveIfExists(c.activityPath())
}

// TouchActivity refreshes the inactivity clock; callers invoke this on
// every decision made while the mode is active, so continued use delays
// the inactivity timeout.
func (c *Core) TouchActivity() error {
	if !Exists(c.tokenPath()) {
		return nil
	}
	return c.touchActivity()
}

// State classifies the current observable state.
func (c *Core) State() (State, error) {
	line, err := c.readHashLine()
	if err != nil {
		return NotConfigured, err
	}
	if line == "" {
		return NotConfigured, nil
	}
	rec, err := LoadFailures(c.failuresPath())
	if err != nil {
		return NotConfigured, err
	}
	if state, _ := CheckRateLimit(rec, c.now()); state != OK {
		return LockedOut, nil
	}
	if c.IsActive() {
		return Active, nil
	}
	return Protected, nil
}

// VerifyChecksumsOrAbort loads and checks the manifest. A present
// manifest with any mismatch is reported to the caller as fatal; an
// absent manifest passes (first run).
func (c *Core) VerifyChecksumsOrAbort() (mismatches []string, err error) {
	m, present, err := LoadManifest(c.checksumPath())
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return VerifyChecksums(m), nil
}

func readFileIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("authcommon: read %s: %w", path, err)
	}
	return data, nil
}
