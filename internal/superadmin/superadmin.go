// Package superadmin implements the SuperAdmin elevated-auth mode (spec
// §4.7): the same state contract as Bypass, but with shorter durations,
// an optional biometric probe with TOTP fallback, and elevated unlock
// scope (TIER 2 zones, plus TIER 1 by progressive disclosure — never
// CRITICAL).
package superadmin

import (
	"time"

	"github.com/chudeemeke/wow-guard/internal/authcommon"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultMaxDuration bounds a SuperAdmin token's lifetime at 15 minutes.
	DefaultMaxDuration = 15 * time.Minute
	// DefaultInactivityTimeout auto-deactivates SuperAdmin after 5 minutes.
	DefaultInactivityTimeout = 5 * time.Minute
	// DefaultBiometricTimeout bounds the platform biometric probe.
	DefaultBiometricTimeout = 15 * time.Second
	// DefaultPromptTimeout bounds the passphrase/TOTP prompt.
	DefaultPromptTimeout = 60 * time.Second
)

// Prompter is the external collaborator for SuperAdmin credential
// entry — passphrase, TOTP code, and a platform biometric probe — all
// implemented concretely only at the composition root.
type Prompter interface {
	PromptPassphrase(timeout time.Duration) (string, error)
	PromptTOTPCode(timeout time.Duration) (string, error)
	CheckTTY() bool
	HasBiometric() bool
	ProbeBiometric(timeout time.Duration) (bool, error)
}

// Mode wraps authcommon.Core with SuperAdmin's tighter durations and
// the biometric/TOTP fallback path.
type Mode struct {
	core      *authcommon.Core
	totpSeed  string // base32 TOTP secret; empty disables TOTP fallback
}

// New constructs a SuperAdmin mode rooted at dir (typically
// <data-dir>/superadmin). totpSeed may be empty if TOTP fallback is not
// configured (then fallback_auth always rejects).
func New(dir, totpSeed string) *Mode {
	return &Mode{
		core: &authcommon.Core{
			Dir:               dir,
			MaxDuration:       DefaultMaxDuration,
			InactivityTimeout: DefaultInactivityTimeout,
			Throttle:          authcommon.NewAttemptThrottle(3*time.Second, 2),
		},
		totpSeed: totpSeed,
	}
}

// State returns the current observable state.
func (m *Mode) State() (authcommon.State, error) { return m.core.State() }

// IsActive is a shortcut predicate equivalent to State() == Active.
func (m *Mode) IsActive() bool { return m.core.IsActive() }

// SetPassphrase (re)configures the SuperAdmin passphrase.
func (m *Mode) SetPassphrase(pp string) error { return m.core.SetPassphrase(pp) }

// fallbackAuth implements spec §4.7's "strong secondary password path"
// when has_biometric() is false: a TOTP code check against totpSeed.
func (m *Mode) fallbackAuth(prompter Prompter) (bool, error) {
	if m.totpSeed == "" {
		return false, errTOTPNotConfigured
	}
	code, err := prompter.PromptTOTPCode(DefaultPromptTimeout)
	if err != nil {
		return false, err
	}
	return totp.Validate(code, m.totpSeed), nil
}

// Activate verifies the passphrase, then requires a second factor: the
// platform biometric probe if available, else TOTP fallback.
func (m *Mode) Activate(prompter Prompter) (authcommon.VerifyResult, error) {
	if !prompter.CheckTTY() {
		return authcommon.VerifyReject, errNoTTY
	}
	pp, err := prompter.PromptPassphrase(DefaultPromptTimeout)
	if err != nil {
		return authcommon.VerifyReject, err
	}
	result, err := m.core.VerifyPassphrase(pp)
	if err != nil || result != authcommon.VerifyAllow {
		return result, err
	}

	secondFactorOK, err := m.secondFactor(prompter)
	if err != nil || !secondFactorOK {
		return authcommon.VerifyReject, err
	}

	if err := m.core.CreateToken(); err != nil {
		return authcommon.VerifyReject, err
	}
	if err := m.core.ResetFailures(); err != nil {
		return authcommon.VerifyReject, err
	}
	return authcommon.VerifyAllow, nil
}

func (m *Mode) secondFactor(prompter Prompter) (bool, error) {
	if prompter.HasBiometric() {
		return prompter.ProbeBiometric(DefaultBiometricTimeout)
	}
	return m.fallbackAuth(prompter)
}

// Deactivate idempotently turns SuperAdmin off.
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

// CanUnlock reports whether SuperAdmin, if active, unlocks the given
// policy tier. It never unlocks CRITICAL (isCritical=true), unlocks
// TIER 2 directly, and — by progressive disclosure — also counts as
// Bypass for TIER 1 (DEVELOPMENT).
func (m *Mode) CanUnlock(isCritical bool, tier int) bool {
	if isCritical {
		return false
	}
	if !m.IsActive() {
		return false
	}
	return tier == 1 || tier == 2
}

var errNoTTY = ttyError{}
var errTOTPNotConfigured = totpError{}

type ttyError struct{}

func (ttyError) Error() string { return "superadmin: no TTY attached for interactive prompt" }

type totpError struct{}

func (totpError) Error() string { return "superadmin: TOTP fallback not configured" }
