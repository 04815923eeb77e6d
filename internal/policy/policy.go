// Package policy holds the tiered pattern catalogue that per-tool
// handlers consult first, before zone classification and auth state.
// Patterns are evaluated in a fixed precedence order — CRITICAL,
// SUPERADMIN-REQUIRED, ALWAYS-BLOCK, WARN — and the first match in the
// highest-precedence tier wins; pattern order within a tier is itself an
// explicit invariant of the catalogue (the teacher's detection library
// carries the same "first match wins, conservative bias" philosophy).
package policy

import "regexp"

// Tier is a precedence bucket, ordered highest-precedence first.
type Tier int

const (
	Critical Tier = iota
	SuperAdminRequired
	AlwaysBlock
	Warn
)

func (t Tier) String() string {
	switch t {
	case Critical:
		return "CRITICAL"
	case SuperAdminRequired:
		return "SUPERADMIN_REQUIRED"
	case AlwaysBlock:
		return "ALWAYS_BLOCK"
	case Warn:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// Pattern is one named rule within a tier: a compiled regular expression
// matched against a normalised input string (a command line, a file
// path, a URL host — whatever the caller deems appropriate to check).
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// Match compiles re (a case-insensitive regex by convention, callers
// should lower-case volatile input themselves) into a named Pattern. It
// panics on an invalid expression since the catalogue is built once at
// startup from constants, never from untrusted input.
func Match(name, re string) Pattern {
	return Pattern{Name: name, Re: regexp.MustCompile(re)}
}

// Catalogue is the ordered set of patterns per tier.
type Catalogue struct {
	critical   []Pattern
	superadmin []Pattern
	always     []Pattern
	warn       []Pattern
}

// NewCatalogue builds an empty Catalogue; use the Add* methods (or
// Default for the built-in rule set) to populate it.
func NewCatalogue() *Catalogue {
	return &Catalogue{}
}

// AddCritical appends patterns to the CRITICAL tier, in order.
func (c *Catalogue) AddCritical(patterns ...Pattern) { c.critical = append(c.critical, patterns...) }

// AddSuperAdminRequired appends patterns to the SUPERADMIN-REQUIRED tier.
func (c *Catalogue) AddSuperAdminRequired(patterns ...Pattern) {
	c.superadmin = append(c.superadmin, patterns...)
}

// AddAlwaysBlock appends patterns to the ALWAYS-BLOCK tier.
func (c *Catalogue) AddAlwaysBlock(patterns ...Pattern) { c.always = append(c.always, patterns...) }

// AddWarn appends patterns to the WARN tier.
func (c *Catalogue) AddWarn(patterns ...Pattern) { c.warn = append(c.warn, patterns...) }

// Result is the result of evaluating a Catalogue against an input: which
// tier (if any) matched, and the name of the winning pattern.
type Result struct {
	Tier    Tier
	Pattern string
	Matched bool
}

// Evaluate walks the tiers in precedence order (CRITICAL, SUPERADMIN,
// ALWAYS-BLOCK, WARN) and, within each tier, patterns in declaration
// order, returning the first match. If nothing matches, Matched is
// false and the caller falls through to zone-derived / default ALLOW.
func (c *Catalogue) Evaluate(input string) Result {
	for _, tier := range []struct {
		t  Tier
		ps []Pattern
	}{
		{Critical, c.critical},
		{SuperAdminRequired, c.superadmin},
		{AlwaysBlock, c.always},
		{Warn, c.warn},
	} {
		for _, p := range tier.ps {
			if p.Re.MatchString(input) {
				return Result{Tier: tier.t, Pattern: p.Name, Matched: true}
			}
		}
	}
	return Result{}
}
