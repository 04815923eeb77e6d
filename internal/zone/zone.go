// Package zone classifies filesystem paths into the guard's closed zone
// enum, which in turn determines the authentication tier a write/edit/
// read operation against that path requires.
package zone

import (
	"os"
	"path/filepath"
	"strings"
)

// Zone is the closed enum of filesystem equivalence classes.
type Zone int

const (
	General     Zone = iota // tier 0 — no elevated auth required
	Development             // tier 1 — Bypass or SuperAdmin
	Config                  // tier 2 — SuperAdmin
	Sensitive               // tier 2 — SuperAdmin
	System                  // tier 2 — SuperAdmin
	WowSelf                 // tier 2 — SuperAdmin, and CRITICAL for the hook entrypoint itself
)

func (z Zone) String() string {
	switch z {
	case General:
		return "GENERAL"
	case Development:
		return "DEVELOPMENT"
	case Config:
		return "CONFIG"
	case Sensitive:
		return "SENSITIVE"
	case System:
		return "SYSTEM"
	case WowSelf:
		return "WOW_SELF"
	default:
		return "UNKNOWN"
	}
}

// Tier returns the required auth tier for z: 0 (none), 1 (Bypass-level),
// or 2 (SuperAdmin-level). It is a total function on the closed enum.
func (z Zone) Tier() int {
	switch z {
	case General:
		return 0
	case Development:
		return 1
	default:
		return 2
	}
}

// selfSuffixes are appended to WOW_SELF filenames to catch the common
// ways a protected file gets shadowed or disabled.
var selfSuffixes = []string{"", ".bak", ".disabled", ".dev"}

// Classifier holds the ordered prefix/suffix rules used to classify
// paths. Construct with New; the zero value is usable but has no rules.
type Classifier struct {
	selfFiles   []string // exact guard files, e.g. policy catalogue, hook entrypoint
	hookEntry   string   // the single most-protected file: CRITICAL, not just SUPERADMIN
	devPrefixes []string
	cfgPrefixes []string
	sysPrefixes []string
	senPrefixes []string
}

// Options configures a Classifier's path lists. All fields are absolute
// path prefixes (or, for SelfFiles/HookEntry, absolute file paths).
type Options struct {
	HookEntry         string
	SelfFiles         []string
	DevelopmentPaths  []string
	ConfigPaths       []string
	SystemPaths       []string
	SensitivePaths    []string
}

// DefaultOptions returns the guard's built-in path lists, matching the
// teacher's hardcoded-fallback convention: sensible defaults that work
// without any config file present.
func DefaultOptions(dataDir string) Options {
	return Options{
		HookEntry: filepath.Join(dataDir, "hooks", "tool-pre-use"),
		SelfFiles: []string{
			filepath.Join(dataDir, "policy", "catalogue.json"),
			filepath.Join(dataDir, "bypass"),
			filepath.Join(dataDir, "superadmin"),
		},
		DevelopmentPaths: []string{"/home", "/Users", "/workspace", "/root"},
		ConfigPaths:      []string{"/etc"},
		SystemPaths:      []string{"/bin", "/usr/bin", "/usr/sbin", "/sbin", "/boot", "/sys", "/proc"},
		SensitivePaths:   []string{"/root/.ssh", "/root/.aws", "/root/.gnupg"},
	}
}

// New builds a Classifier from opts.
func New(opts Options) *Classifier {
	return &Classifier{
		selfFiles:   append([]string{opts.HookEntry}, opts.SelfFiles...),
		hookEntry:   opts.HookEntry,
		devPrefixes: opts.DevelopmentPaths,
		cfgPrefixes: opts.ConfigPaths,
		sysPrefixes: opts.SystemPaths,
		senPrefixes: opts.SensitivePaths,
	}
}

// Canonicalize resolves path to a clean absolute form: it expands a
// leading "~", makes relative paths absolute against the working
// directory, and cleans "." / ".." segments. It does not resolve
// symlinks beyond what filepath.Abs+Clean already does, matching the
// "no symlink traversal beyond the first" contract — callers that must
// defend against a symlinked final component should os.Lstat it
// themselves before acting.
func Canonicalize(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return filepath.Clean(path)
}

// isSelfPath reports whether candidate matches base, or base with one
// of the WOW_SELF suffix variants appended.
func isSelfPath(candidate, base string) bool {
	for _, suffix := range selfSuffixes {
		if candidate == base+suffix {
			return true
		}
	}
	return strings.HasPrefix(candidate, base+string(filepath.Separator))
}

// IsHookEntrypoint reports whether path (after canonicalisation) is the
// guard's own hook entrypoint or one of its .bak/.disabled/.dev
// variants — the one CRITICAL-tier path distinguished from the rest of
// WOW_SELF, which is only SUPERADMIN-tier.
func (c *Classifier) IsHookEntrypoint(path string) bool {
	if c.hookEntry == "" {
		return false
	}
	return isSelfPath(Canonicalize(path), c.hookEntry)
}

// Classify maps a canonicalised path to its Zone, evaluated in the
// fixed precedence order: WOW_SELF, then CONFIG/SYSTEM/SENSITIVE, then
// DEVELOPMENT, defaulting to GENERAL.
func (c *Classifier) Classify(path string) Zone {
	p := Canonicalize(path)

	for _, self := range c.selfFiles {
		if self != "" && isSelfPath(p, self) {
			return WowSelf
		}
	}
	for _, prefix := range c.cfgPrefixes {
		if hasPathPrefix(p, prefix) {
			return Config
		}
	}
	for _, prefix := range c.sysPrefixes {
		if hasPathPrefix(p, prefix) {
			return System
		}
	}
	for _, prefix := range c.senPrefixes {
		if hasPathPrefix(p, prefix) {
			return Sensitive
		}
	}
	for _, prefix := range c.devPrefixes {
		if hasPathPrefix(p, prefix) {
			return Development
		}
	}
	return General
}

// hasPathPrefix reports whether p is prefix or a descendant of it,
// anchored on path separators so "/etcetera" does not match prefix
// "/etc".
func hasPathPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+string(filepath.Separator))
}
