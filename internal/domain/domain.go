// Package domain implements the three-tier domain catalogue and URL/host
// validator used by the WebFetch and WebSearch handlers.
package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
)

// Decision is the validator's verdict on a single domain.
type Decision int

const (
	Safe Decision = iota
	Blocked
	Unknown
)

func (d Decision) String() string {
	switch d {
	case Safe:
		return "SAFE"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// criticalLiterals are compiled in, TIER 1, and can never be overridden
// by any user safe-list — loopback, link-local, RFC1918, and the cloud
// metadata literal, plus the bare hostnames that resolve to them.
var criticalLiterals = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"169.254.169.254", // cloud metadata endpoint (AWS/GCP/Azure IMDS)
	"metadata.google.internal",
	"metadata.internal",
	"::1",
}

var criticalCIDRs = mustParseCIDRs([]string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("domain: invalid built-in CIDR %q: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}

// List is one tier's set of entries: exact hostnames and "*.suffix"
// wildcard entries.
type List struct {
	exact      map[string]bool
	wildcards  []string // suffix after "*.", e.g. "example.com"
}

func newList() *List {
	return &List{exact: make(map[string]bool)}
}

// ParseList parses a line-oriented domain list: "#" comments, blank
// lines ignored, whitespace trimmed, case-insensitive, wildcard prefix
// "*.example.com" supported.
func ParseList(data []byte) *List {
	l := newList()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ToLower(line)
		if strings.HasPrefix(line, "*.") {
			l.wildcards = append(l.wildcards, strings.TrimPrefix(line, "*."))
			continue
		}
		l.exact[line] = true
	}
	return l
}

// Contains reports whether host (already normalised/lower-cased) is
// matched by l, either exactly or via a wildcard suffix. "*.example.com"
// matches "a.example.com" and "x.y.example.com" but not "example.com"
// itself unless "example.com" is also listed exactly.
func (l *List) Contains(host string) bool {
	if l == nil {
		return false
	}
	if l.exact[host] {
		return true
	}
	for _, suffix := range l.wildcards {
		if strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// Catalogue is the full three-tier domain catalogue: compiled-in
// critical rules plus atomically-swappable system and user lists.
type Catalogue struct {
	systemSafe    atomic.Pointer[List]
	systemBlocked atomic.Pointer[List]
	userSafe      atomic.Pointer[List]
	userBlocked   atomic.Pointer[List]
}

// New returns a Catalogue with all non-critical tiers empty.
func New() *Catalogue {
	c := &Catalogue{}
	empty := newList()
	c.systemSafe.Store(empty)
	c.systemBlocked.Store(empty)
	c.userSafe.Store(empty)
	c.userBlocked.Store(empty)
	return c
}

// SetSystemSafe atomically replaces the system-safe list.
func (c *Catalogue) SetSystemSafe(l *List) { c.systemSafe.Store(l) }

// SetSystemBlocked atomically replaces the system-blocked list.
func (c *Catalogue) SetSystemBlocked(l *List) { c.systemBlocked.Store(l) }

// SetUserSafe atomically replaces the user-safe list.
func (c *Catalogue) SetUserSafe(l *List) { c.userSafe.Store(l) }

// SetUserBlocked atomically replaces the user-blocked list.
func (c *Catalogue) SetUserBlocked(l *List) { c.userBlocked.Store(l) }

// Normalize strips scheme, userinfo, port, path, and fragment from a
// domain-or-URL string, lower-cases it, and validates length/charset.
// It returns an error for inputs that cannot be normalised into a host.
func Normalize(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", fmt.Errorf("domain: empty input")
	}

	host := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("domain: parse url: %w", err)
		}
		host = u.Host
	}
	// Strip userinfo if present without a scheme (e.g. "user@host").
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.Contains(host, "/") {
		host = strings.SplitN(host, "/", 2)[0]
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if host == "" {
		return "", fmt.Errorf("domain: no host in %q", input)
	}
	if len(host) > 253 {
		return "", fmt.Errorf("domain: host exceeds 253 characters")
	}
	if !isValidHostChars(host) {
		return "", fmt.Errorf("domain: invalid characters in host %q", host)
	}
	return host, nil
}

func isValidHostChars(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return true
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return true
}

// IsCriticalHost reports whether a normalised host matches a compiled-in
// TIER 1 critical pattern (loopback/link-local/RFC1918/cloud-metadata).
// TIER 1 matches can never be overridden by any allow-list and are the
// only Blocked verdicts that callers should treat as un-unlockable;
// ordinary TIER2/TIER3 blocklist matches are Blocked too but remain
// subject to Bypass/SuperAdmin like any other BLOCK decision.
func (c *Catalogue) IsCriticalHost(host string) bool {
	return isCriticalHost(host)
}

func isCriticalHost(host string) bool {
	for _, lit := range criticalLiterals {
		if host == lit {
			return true
		}
	}
	if ip := net.ParseIP(host); ip != nil {
		for _, n := range criticalCIDRs {
			if n.Contains(ip) {
				return true
			}
		}
	}
	return false
}

// Validate normalises input and walks the tier cascade: TIER 1
// critical-block (never overridable) → TIER 3 user-block → TIER 2
// system-safe / TIER 3 user-safe → unknown (WARN territory, decided by
// the caller per non-interactive-mode policy).
func (c *Catalogue) Validate(input string) (Decision, string, error) {
	host, err := Normalize(input)
	if err != nil {
		return Blocked, "", err
	}
	if isCriticalHost(host) {
		return Blocked, host, nil
	}
	if c.userBlocked.Load().Contains(host) {
		return Blocked, host, nil
	}
	if c.systemBlocked.Load().Contains(host) {
		return Blocked, host, nil
	}
	if c.systemSafe.Load().Contains(host) || c.userSafe.Load().Contains(host) {
		return Safe, host, nil
	}
	return Unknown, host, nil
}
