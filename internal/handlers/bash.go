package handlers

import (
	"regexp"
	"strings"

	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/policy"
)

// BashHandler evaluates the policy catalogue against the raw command
// (the catalogue already enforces CRITICAL > SUPERADMIN-REQUIRED >
// ALWAYS-BLOCK > WARN precedence), then normalises git commit messages
// on anything that isn't blocked outright.
func BashHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	cmd := strings.TrimSpace(inv.Command)
	d.count("bash.invocations")

	if cmd == "" {
		return invocation.Blockf("bash: empty command")
	}

	match := d.Policy.Evaluate(cmd)
	if match.Matched {
		switch match.Tier {
		case policy.Critical:
			d.publish("bash.critical", match.Pattern)
			return invocation.Criticalf("critical pattern matched: " + match.Pattern)
		case policy.SuperAdminRequired:
			if d.SuperAdmin != nil && d.SuperAdmin.CanUnlock(false, 2) {
				break
			}
			return invocation.SuperAdminRequiredf("superadmin-protected pattern matched: " + match.Pattern)
		case policy.AlwaysBlock:
			if d.Bypass != nil && d.Bypass.IsActive() {
				break
			}
			d.publish("bash.blocked", match.Pattern)
			return invocation.Blockf("blocked pattern matched: " + match.Pattern)
		case policy.Warn:
			rewritten := normalizeGitCommit(inv)
			d.publish("bash.warn", match.Pattern)
			return invocation.Decision{Level: invocation.Warn, Reason: "warn pattern matched: " + match.Pattern, Rewritten: rewritten}
		}
	}

	rewritten := normalizeGitCommit(inv)
	d.count("bash.allowed")
	return invocation.Allowed(rewritten)
}

var gitCommitRe = regexp.MustCompile(`(?i)\bgit\s+commit\b`)
var hasAuthorFlagRe = regexp.MustCompile(`--author\b`)
var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
var singleQuotedRe = regexp.MustCompile(`'[^']*'`)

// normalizeGitCommit strips emoji from a git commit command's message
// and appends the default --author flag, unless one is already present
// (idempotence) or the command contains a heredoc (preserved verbatim).
// Non-git-commit commands pass through untouched.
func normalizeGitCommit(inv invocation.Invocation) *invocation.Invocation {
	cmd := inv.Command
	if !gitCommitRe.MatchString(cmd) {
		return nil
	}
	if hasAuthorFlagRe.MatchString(cmd) {
		return nil
	}
	if strings.Contains(cmd, "<<") {
		return nil
	}

	cleaned := stripNonASCII(cmd)
	cleaned = strings.TrimSpace(cleaned) + ` --author='Chude <chude@emeke.org>'`
	out := inv.WithCommand(cleaned)
	return &out
}

func stripNonASCII(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= 0x7E {
			b.WriteRune(r)
		}
	}
	out := multiSpaceRe.ReplaceAllString(b.String(), " ")
	out = singleQuotedRe.ReplaceAllStringFunc(out, func(q string) string {
		return "'" + strings.TrimSpace(q[1:len(q)-1]) + "'"
	})
	return out
}
