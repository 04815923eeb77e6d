package handlers

import (
	"regexp"
	"strings"

	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/zone"
)

var sensitiveSearchRoots = []string{"/etc", "/root", "/sys", "/proc"}

var broadPatternRe = regexp.MustCompile(`^/{0,2}\*\*?/\*$`)

var credentialPatternRe = regexp.MustCompile(`(?i)(\*\*/\.env$|\*\*/id_rsa$|\*\*/wallet\.dat$|password|api[_-]?key|secret|BEGIN.*PRIVATE KEY|postgres(ql)?://|mysql://|mongodb://)`)

func sensitiveHomeRoots(home string) []string {
	if home == "" {
		return nil
	}
	return []string{home + "/.ssh", home + "/.aws", home + "/.gnupg"}
}

func isUnderSensitiveRoot(path string, home string) bool {
	if path == "" {
		return false
	}
	canon := zone.Canonicalize(path)
	for _, root := range append(append([]string{}, sensitiveSearchRoots...), sensitiveHomeRoots(home)...) {
		if canon == root || strings.HasPrefix(canon, root+"/") {
			return true
		}
	}
	return false
}

// GlobHandler blocks enumeration rooted at sensitive directories and
// warns on overly broad or credential-hunting glob patterns.
func GlobHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("glob.invocations")
	return globGrepLike(d, inv.Path, inv.Pattern, "glob")
}

// GrepHandler applies the same scope/pattern checks as Glob, plus the
// pattern is also a search regex so credential heuristics apply to it
// the same way.
func GrepHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("grep.invocations")
	return globGrepLike(d, inv.Path, inv.Pattern, "grep")
}

func globGrepLike(d Deps, path, pattern, verb string) invocation.Decision {
	if isUnderSensitiveRoot(path, d.HomeDir) {
		d.publish(verb+".sensitive-root-block", path)
		return invocation.Blockf(verb + ": enumeration/search rooted at a sensitive directory is blocked")
	}

	if broadPatternRe.MatchString(pattern) && (path == "" || path == "/") {
		d.publish(verb+".broad-warn", pattern)
		return invocation.Decision{Level: invocation.Warn, Reason: verb + ": overly broad pattern at filesystem root"}
	}

	if credentialPatternRe.MatchString(pattern) {
		d.publish(verb+".credential-warn", pattern)
		return invocation.Decision{Level: invocation.Warn, Reason: verb + ": credential-hunting pattern"}
	}

	d.count(verb + ".allowed")
	return invocation.Allowed(nil)
}
