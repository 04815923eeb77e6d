package guard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chudeemeke/wow-guard/internal/invocation"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	dir := t.TempDir()
	g, err := New(Options{
		DataDir:     dir,
		ProjectDirs: []string{filepath.Join(dir, "project")},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func invocationJSON(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal invocation: %v", err)
	}
	return data
}

func TestDecideForkBombIsCritical(t *testing.T) {
	g := newTestGuard(t)
	raw := invocationJSON(t, map[string]any{
		"tool":    "Bash",
		"command": ":(){ :|:& };:",
	})
	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 3 {
		t.Fatalf("exit code = %d, want 3 (CRITICAL)", dec.Level.ExitCode())
	}
}

func TestDecideGitCommitNormalizesAuthor(t *testing.T) {
	g := newTestGuard(t)
	raw := invocationJSON(t, map[string]any{
		"tool":    "Bash",
		"command": "git commit -m 'Initial \U0001F389'",
	})
	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0 (ALLOW)", dec.Level.ExitCode())
	}
	inv, err := invocation.Parse(raw)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	payload, err := StdoutPayload(inv, dec)
	if err != nil {
		t.Fatalf("StdoutPayload: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	want := "git commit -m 'Initial' --author='Chude <chude@emeke.org>'"
	if out["command"] != want {
		t.Fatalf("command = %q, want %q", out["command"], want)
	}
}

func TestDecideTier1ReadIsBlockedWithReason(t *testing.T) {
	g := newTestGuard(t)
	raw := invocationJSON(t, map[string]any{
		"tool":      "Read",
		"file_path": "/etc/shadow",
	})
	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 2 {
		t.Fatalf("exit code = %d, want 2 (BLOCK)", dec.Level.ExitCode())
	}
	if !containsAll(dec.Reason, "TIER 1", "catastrophic") {
		t.Fatalf("reason = %q, want mention of TIER 1 / catastrophic", dec.Reason)
	}
}

func TestDecideSSRFWebFetchIsCriticalAndMentionsMetadata(t *testing.T) {
	g := newTestGuard(t)
	raw := invocationJSON(t, map[string]any{
		"tool": "WebFetch",
		"url":  "http://169.254.169.254/",
	})
	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 3 {
		t.Fatalf("exit code = %d, want 3 (CRITICAL)", dec.Level.ExitCode())
	}
	if !containsAll(dec.Reason, "metadata") {
		t.Fatalf("reason = %q, want mention of metadata", dec.Reason)
	}
}

func TestDecideSuperAdminGatesThenAllowsOnceActivated(t *testing.T) {
	g := newTestGuard(t)
	if err := g.SuperAdmin.SetPassphrase("correct horse battery staple"); err != nil {
		t.Fatalf("SetPassphrase: %v", err)
	}

	raw := invocationJSON(t, map[string]any{
		"tool":      "Write",
		"file_path": "/etc/wow-guard-test-config.json",
		"content":   "{}",
	})

	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 4 {
		t.Fatalf("exit code = %d, want 4 (SUPERADMIN_REQUIRED) before activation", dec.Level.ExitCode())
	}

	prompter := fixturePrompter{passphrase: "correct horse battery staple", tty: true, biometric: true, biometricOK: true}
	if result, err := g.SuperAdmin.Activate(prompter); err != nil {
		t.Fatalf("Activate: %v", err)
	} else if result != 0 {
		t.Fatalf("Activate result = %v, want allow", result)
	}

	dec = g.Decide(raw)
	if dec.Level.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0 (ALLOW) after SuperAdmin activation, reason=%q", dec.Level.ExitCode(), dec.Reason)
	}
}

func TestDecideCorrelatesWriteThenExecute(t *testing.T) {
	g := newTestGuard(t)

	writeRaw := invocationJSON(t, map[string]any{
		"tool":      "Write",
		"file_path": "/tmp/stage.sh",
		"content":   "#!/bin/sh\necho hi\n",
	})
	if dec := g.Decide(writeRaw); dec.Level.ExitCode() != 0 {
		t.Fatalf("staging write exit code = %d, want 0", dec.Level.ExitCode())
	}

	execRaw := invocationJSON(t, map[string]any{
		"tool":    "Bash",
		"command": "sh /tmp/stage.sh",
	})
	dec := g.Decide(execRaw)
	if dec.Level.ExitCode() != 2 {
		t.Fatalf("exit code = %d, want 2 (BLOCK) for write-then-execute", dec.Level.ExitCode())
	}
	if !containsAll(dec.Reason, "write-then-execute") {
		t.Fatalf("reason = %q, want mention of write-then-execute", dec.Reason)
	}
}

func TestDecideWriteThenExecuteInProjectDirIsAllowed(t *testing.T) {
	g := newTestGuard(t)
	projectFile := filepath.Join(g.opts.ProjectDirs[0], "build.sh")

	writeRaw := invocationJSON(t, map[string]any{
		"tool":      "Write",
		"file_path": projectFile,
		"content":   "#!/bin/sh\necho hi\n",
	})
	if dec := g.Decide(writeRaw); dec.Level.ExitCode() != 0 {
		t.Fatalf("staging write exit code = %d, want 0", dec.Level.ExitCode())
	}

	execRaw := invocationJSON(t, map[string]any{
		"tool":    "Bash",
		"command": "sh " + projectFile,
	})
	dec := g.Decide(execRaw)
	if dec.Level.ExitCode() != 0 {
		t.Fatalf("exit code = %d, want 0 (ALLOW) for project-dir write-then-execute, reason=%q", dec.Level.ExitCode(), dec.Reason)
	}
}

func TestDecideMalformedInvocationBlocksClosed(t *testing.T) {
	g := newTestGuard(t)
	dec := g.Decide([]byte("{not json"))
	if dec.Level.ExitCode() != 2 {
		t.Fatalf("exit code = %d, want 2 (BLOCK) for malformed input", dec.Level.ExitCode())
	}
}

func TestDecideAbortsOnScriptIntegrityMismatch(t *testing.T) {
	g := newTestGuard(t)

	watched := filepath.Join(t.TempDir(), "watched-script.sh")
	if err := os.WriteFile(watched, []byte("#!/bin/sh\necho original\n"), 0o700); err != nil {
		t.Fatalf("write watched file: %v", err)
	}
	if err := g.Bypass.RegenerateChecksums([]string{watched}); err != nil {
		t.Fatalf("RegenerateChecksums: %v", err)
	}

	// Tamper with the watched file after the manifest was recorded.
	if err := os.WriteFile(watched, []byte("#!/bin/sh\necho tampered\n"), 0o700); err != nil {
		t.Fatalf("tamper watched file: %v", err)
	}

	raw := invocationJSON(t, map[string]any{"tool": "Read", "file_path": "/tmp/anything"})
	dec := g.Decide(raw)
	if dec.Level.ExitCode() != 3 {
		t.Fatalf("exit code = %d, want 3 (CRITICAL) on checksum mismatch", dec.Level.ExitCode())
	}
	if !strings.Contains(dec.Reason, "script-integrity mismatch") {
		t.Fatalf("reason = %q, want mention of script-integrity mismatch", dec.Reason)
	}
}

func TestGuidanceForSuperAdminMentionsUnlockCommand(t *testing.T) {
	g := newTestGuard(t)
	raw := invocationJSON(t, map[string]any{
		"tool":      "Write",
		"file_path": "/etc/wow-guard-test-config.json",
		"content":   "{}",
	})
	dec := g.Decide(raw)
	if !containsAll(GuidanceFor(dec), "SuperAdmin", "unlock") {
		t.Fatalf("guidance = %q, want mention of SuperAdmin unlock", GuidanceFor(dec))
	}
}

// fixturePrompter answers a SuperAdmin Activate() call deterministically,
// standing in for the interactive terminal prompter built at the
// composition root.
type fixturePrompter struct {
	passphrase  string
	tty         bool
	biometric   bool
	biometricOK bool
}

func (f fixturePrompter) PromptPassphrase(timeout time.Duration) (string, error) {
	return f.passphrase, nil
}

func (f fixturePrompter) PromptTOTPCode(timeout time.Duration) (string, error) {
	return "", errNoTOTPFixture{}
}

func (f fixturePrompter) CheckTTY() bool { return f.tty }

func (f fixturePrompter) HasBiometric() bool { return f.biometric }

func (f fixturePrompter) ProbeBiometric(timeout time.Duration) (bool, error) {
	return f.biometricOK, nil
}

type errNoTOTPFixture struct{}

func (errNoTOTPFixture) Error() string { return "fixture: TOTP not configured" }

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
