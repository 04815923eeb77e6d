// Package handlers implements the per-tool policy logic named in the
// component design: one handler per first-class tool, each consulting
// the shared policy catalogue, zone classifier, domain validator,
// correlator, and elevated-auth state as the tool requires.
package handlers

import (
	"strings"

	"github.com/chudeemeke/wow-guard/internal/correlator"
	"github.com/chudeemeke/wow-guard/internal/domain"
	"github.com/chudeemeke/wow-guard/internal/eventbus"
	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/policy"
	"github.com/chudeemeke/wow-guard/internal/wstate"
	"github.com/chudeemeke/wow-guard/internal/zone"
)

// Bypass is the subset of bypass.Mode a handler needs.
type Bypass interface {
	IsActive() bool
}

// SuperAdmin is the subset of superadmin.Mode a handler needs.
type SuperAdmin interface {
	IsActive() bool
	CanUnlock(isCritical bool, tier int) bool
}

// Deps bundles every shared collaborator a handler may consult. The
// guard builds one Deps per guard instance and the router passes it to every
// handler call; handlers never hold their own references to these
// collaborators.
type Deps struct {
	Policy      *policy.Catalogue
	Zones       *zone.Classifier
	Domains     *domain.Catalogue
	Bypass      Bypass
	SuperAdmin  SuperAdmin
	Correlator  *correlator.Window
	Events      *eventbus.Bus
	Metrics     *wstate.State
	ProjectDirs []string
	StrictMode  bool
	HomeDir     string
}

// Handler decides a single invocation. A handler is a pure function of
// (Deps, Invocation) plus whatever shared mutable state Deps exposes
// (correlator window, event bus, metrics) — it never keeps its own
// fields between calls.
type Handler func(Deps, invocation.Invocation) invocation.Decision

func (d Deps) publish(name string, payload any) {
	if d.Events != nil {
		d.Events.Publish(eventbus.Event{Name: name, Payload: payload})
	}
}

func (d Deps) count(key string) {
	if d.Metrics != nil {
		d.Metrics.Increment(key, 1)
	}
}

// hasTraversal reports whether the raw (pre-canonicalisation) path
// contains a ".." segment, which is rejected regardless of where
// canonicalisation would ultimately resolve it.
func hasTraversal(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// zoneDecision applies the zone-derived precedence rule (component
// design §4.3 item 4) uniformly across Write/Edit/Read: tier 0 always
// proceeds, tier 1 proceeds only with Bypass or SuperAdmin active, tier
// 2 proceeds only with SuperAdmin active. It returns nil when the
// caller should continue with further checks, or a terminal decision.
func zoneDecision(d Deps, z zone.Zone, verb string) *invocation.Decision {
	switch z.Tier() {
	case 0:
		return nil
	case 1:
		if d.Bypass != nil && d.Bypass.IsActive() {
			return nil
		}
		if d.SuperAdmin != nil && d.SuperAdmin.CanUnlock(false, 1) {
			return nil
		}
		dec := invocation.Blockf(verb + ": " + z.String() + " zone requires Bypass or SuperAdmin")
		return &dec
	default:
		if d.SuperAdmin != nil && d.SuperAdmin.CanUnlock(false, 2) {
			return nil
		}
		dec := invocation.SuperAdminRequiredf(verb + ": " + z.String() + " zone requires SuperAdmin activation")
		return &dec
	}
}

// DefaultHandlers returns the known-tool handler table, keyed exactly
// as the tool registry's known map expects.
func DefaultHandlers() map[string]Handler {
	return map[string]Handler{
		"Bash":      BashHandler,
		"Write":     WriteHandler,
		"Edit":      EditHandler,
		"Read":      ReadHandler,
		"Glob":      GlobHandler,
		"Grep":      GrepHandler,
		"Task":      TaskHandler,
		"WebFetch":  WebFetchHandler,
		"WebSearch": WebSearchHandler,
	}
}
