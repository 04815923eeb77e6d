// Package bypass implements the Bypass elevated-auth mode (spec §4.6):
// a passphrase-gated token that, while active, relaxes ALWAYS-BLOCK and
// DEVELOPMENT-zone (tier 1) restrictions.
package bypass

import (
	"time"

	"github.com/chudeemeke/wow-guard/internal/authcommon"
)

const (
	// DefaultMaxDuration bounds a Bypass token's lifetime at 4 hours.
	DefaultMaxDuration = 4 * time.Hour
	// DefaultInactivityTimeout auto-deactivates Bypass after 30 minutes
	// of no decisions touching the authenticated surface.
	DefaultInactivityTimeout = 30 * time.Minute
)

// Prompter is the external collaborator that obtains a passphrase from
// the human operator. The concrete terminal implementation lives at the
// composition root (cmd/wowguard), never inside this package.
type Prompter interface {
	// PromptPassphrase asks for the Bypass passphrase, with the given
	// timeout. A timed-out or cancelled prompt must return an error.
	PromptPassphrase(timeout time.Duration) (string, error)
	// CheckTTY reports whether a TTY is attached, per spec §4.6's
	// check_tty() contract: heredoc, piped, or backgrounded input fails.
	CheckTTY() bool
}

// DefaultPromptTimeout is the hard timeout on the passphrase prompt.
const DefaultPromptTimeout = 60 * time.Second

// Mode wraps authcommon.Core with Bypass's specific durations.
type Mode struct {
	core *authcommon.Core
}

// New constructs a Bypass mode rooted at dir (typically <data-dir>/bypass).
func New(dir string) *Mode {
	return &Mode{core: &authcommon.Core{
		Dir:               dir,
		MaxDuration:       DefaultMaxDuration,
		InactivityTimeout: DefaultInactivityTimeout,
		Throttle:          authcommon.NewAttemptThrottle(2*time.Second, 3),
	}}
}

// State returns the current observable state.
func (m *Mode) State() (authcommon.State, error) { return m.core.State() }

// IsActive is a shortcut predicate equivalent to State() == Active.
func (m *Mode) IsActive() bool { return m.core.IsActive() }

// SetPassphrase (re)configures the Bypass passphrase.
func (m *Mode) SetPassphrase(pp string) error { return m.core.SetPassphrase(pp) }

// Activate verifies pp via prompter (respecting the TTY and timeout
// contracts) and, on success, issues a Bypass token.
func (m *Mode) Activate(prompter Prompter) (authcommon.VerifyResult, error) {
	if !prompter.CheckTTY() {
		return authcommon.VerifyReject, errNoTTY
	}
	pp, err := prompter.PromptPassphrase(DefaultPromptTimeout)
	if err != nil {
		// A timed-out prompt records a failure, matching §5's
		// "on timeout it records a failure and returns REJECT".
		m.core.VerifyPassphrase("")
		return authcommon.VerifyReject, err
	}
	return m.core.Activate(pp)
}

// Deactivate idempotently turns Bypass off.
func (m *Mode) Deactivate() error { return m.core.Deactivate() }

// TouchActivity refreshes the inactivity clock on continued use.
func (m *Mode) TouchActivity() error { return m.core.TouchActivity() }

// VerifyChecksums checks the script-integrity manifest, if any.
func (m *Mode) VerifyChecksums() ([]string, error) { return m.core.VerifyChecksumsOrAbort() }

// RegenerateChecksums rebuilds the script-integrity manifest from
// paths and persists it, replacing any existing one.
func (m *Mode) RegenerateChecksums(paths []string) error {
	manifest, err := authcommon.BuildManifest(paths)
	if err != nil {
		return err
	}
	return authcommon.SaveManifest(m.core.ChecksumPathPublic(), manifest)
}

var errNoTTY = ttyError{}

type ttyError struct{}

func (ttyError) Error() string { return "bypass: no TTY attached for interactive prompt" }
