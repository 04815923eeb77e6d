// Package guard is the orchestrator: it wires every subsystem together
// in the deterministic init order named in the component design (state
// → config → session → event bus → registry → zone → domain → policy →
// bypass/superadmin → correlator → handlers → router) and exposes the
// single entry point the hook calls per invocation.
package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/chudeemeke/wow-guard/internal/bypass"
	"github.com/chudeemeke/wow-guard/internal/correlator"
	"github.com/chudeemeke/wow-guard/internal/domain"
	"github.com/chudeemeke/wow-guard/internal/eventbus"
	"github.com/chudeemeke/wow-guard/internal/handlers"
	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/policy"
	"github.com/chudeemeke/wow-guard/internal/registry"
	"github.com/chudeemeke/wow-guard/internal/router"
	"github.com/chudeemeke/wow-guard/internal/session"
	"github.com/chudeemeke/wow-guard/internal/superadmin"
	"github.com/chudeemeke/wow-guard/internal/wconfig"
	"github.com/chudeemeke/wow-guard/internal/wstate"
	"github.com/chudeemeke/wow-guard/internal/zone"
)

// Options configures a Guard at construction. DataDir and ConfigPath
// default to sensible values if empty; ProjectDirs seeds the
// correlator's "safe location" exemption.
type Options struct {
	DataDir     string
	ConfigPath  string
	ProjectDirs []string
	TOTPSeed    string
	SessionID   string
}

// Guard is the fully-wired guard instance: one per process invocation
// from the hook, matching §9's "properties of an explicitly
// constructed Guard value" redesign note.
type Guard struct {
	opts       Options
	State      *wstate.State
	Config     *wconfig.Holder
	Session    *session.Session
	Events     *eventbus.Bus
	Registry   *registry.Registry
	Zones      *zone.Classifier
	Domains    *domain.Catalogue
	Policy     *policy.Catalogue
	Bypass     *bypass.Mode
	SuperAdmin *superadmin.Mode
	Correlator *correlator.Window
	Router     *router.Router

	sessionsDir string
}

// New performs the deterministic dependency-ordered initialisation
// described in §4.10. It is safe to call New multiple times (wow_init
// idempotency is modelled by constructing a fresh, independent Guard
// each time rather than mutating shared globals).
func New(opts Options) (*Guard, error) {
	if opts.DataDir == "" {
		opts.DataDir = defaultDataDir()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(opts.DataDir, "config.json")
	}

	g := &Guard{opts: opts}

	// 1. utils / state
	g.State = wstate.New()

	// 2. config
	cfg, err := wconfig.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("guard: init config: %w", err)
	}
	g.Config = wconfig.NewHolder(cfg)

	// 3. session: resume the caller's session id across invocations
	// within one conversation (spec's "archive on end" lifecycle),
	// falling back to a fresh session when none is supplied or none was
	// previously archived.
	g.sessionsDir = filepath.Join(opts.DataDir, "sessions")
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = os.Getenv("WOW_SESSION_ID")
	}
	if sessionID != "" {
		if restored, err := session.Restore(g.sessionsDir, sessionID); err == nil {
			g.Session = restored
		} else {
			g.Session = session.StartWithID(sessionID)
		}
	} else {
		g.Session = session.Start()
	}

	// 4. event bus
	g.Events = eventbus.New(func(event string, err error) {
		g.Session.RecordEvent("eventbus.subscriber-error", map[string]any{"event": event, "error": err.Error()})
	})

	// 5. tool registry
	g.Registry = registry.Default()

	// 6. zone classifier
	zoneOpts := zone.DefaultOptions(opts.DataDir)
	hookEntry := zoneOpts.HookEntry
	g.Zones = zone.New(zoneOpts)

	// 7. domain lists
	g.Domains = domain.New()
	if errs := domain.LoadAll(filepath.Join(opts.DataDir, "domains"), g.Domains); len(errs) > 0 {
		for _, e := range errs {
			g.Session.RecordEvent("domain.load-error", map[string]any{"error": e.Error()})
		}
	}

	// 8. policy catalogue
	g.Policy = policy.Default()
	g.Policy.AddSuperAdminRequired(policy.HookSelfProtection(regexp.QuoteMeta(opts.DataDir))...)
	g.Policy.AddCritical(policy.Match("wow-hook-entrypoint", regexp.QuoteMeta(hookEntry)))

	// 9. bypass / superadmin
	g.Bypass = bypass.New(filepath.Join(opts.DataDir, "bypass"))
	g.SuperAdmin = superadmin.New(filepath.Join(opts.DataDir, "superadmin"), opts.TOTPSeed)

	// 10. correlator
	g.Correlator = correlator.NewWindow(correlator.DefaultWindowSize, correlator.DefaultWindowTTL)

	// 11. handlers + 12. router
	deps := handlers.Deps{
		Policy:      g.Policy,
		Zones:       g.Zones,
		Domains:     g.Domains,
		Bypass:      g.Bypass,
		SuperAdmin:  g.SuperAdmin,
		Correlator:  g.Correlator,
		Events:      g.Events,
		Metrics:     g.State,
		ProjectDirs: opts.ProjectDirs,
		StrictMode:  g.Config.Current().GetBool("enforcement.strict_mode", false),
		HomeDir:     homeDir(),
	}
	g.Router = router.New(handlers.DefaultHandlers(), g.Registry, deps)

	return g, nil
}

// defaultDataDir resolves the guard's data directory when Options
// leaves it unset: WOW_DATA_DIR, then WOW_HOME, then ~/.wow-guard.
func defaultDataDir() string {
	if v := os.Getenv("WOW_DATA_DIR"); v != "" {
		return v
	}
	if v := os.Getenv("WOW_HOME"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".wow-guard")
	}
	return ".wow-guard"
}

// Decide is the guard's single entry point: verify integrity, parse,
// correlate, route, record. It never panics outward — any unexpected
// error or panic maps to BLOCK, per the fail-closed contract.
func (g *Guard) Decide(raw []byte) (dec invocation.Decision) {
	defer func() {
		if r := recover(); r != nil {
			dec = invocation.Blockf(fmt.Sprintf("guard: unexpected failure: %v", r))
		}
	}()

	if fatal := g.verifyIntegrity(); fatal != nil {
		g.Session.RecordEvent("integrity.abort", map[string]any{"reason": fatal.Reason})
		_ = g.Session.Archive(g.sessionsDir)
		return *fatal
	}

	inv, err := invocation.Parse(raw)
	if err != nil {
		return invocation.Blockf("malformed invocation JSON: " + err.Error())
	}

	if inv.Tool == "Bash" {
		if finding := g.Correlator.CheckBash(inv.Command, g.opts.ProjectDirs); finding != nil {
			dec = invocation.Blockf(finding.Reason)
			g.record(inv, dec)
			return dec
		}
		if finding := g.Correlator.CheckDownloadThenExecute(inv.Command); finding != nil {
			dec = invocation.Blockf(finding.Reason)
			g.record(inv, dec)
			return dec
		}
	}

	dec = g.Router.Route(inv)

	if inv.Tool == "Write" || inv.Tool == "Edit" {
		target := zone.Canonicalize(inv.FilePath)
		if finding := correlator.CheckConfigPoisoning(target); finding != nil && dec.Level < invocation.Block {
			dec = invocation.Blockf(finding.Reason)
		}
		if dec.Level == invocation.Allow || dec.Level == invocation.Warn {
			g.Correlator.Record(correlator.Event{Timestamp: time.Now(), Kind: correlator.WriteEvent, Target: target})
		}
	}
	if inv.Tool == "Bash" {
		g.Correlator.Record(correlator.Event{Timestamp: time.Now(), Kind: correlator.BashEvent, Target: inv.Command})
	}

	g.record(inv, dec)
	return dec
}

// verifyIntegrity checks Bypass's and SuperAdmin's script-integrity
// manifests before any invocation is evaluated. A present manifest with
// any mismatch is fatal: the guard must abort and never reach the
// router, per the fatal-integrity contract — a scripted attacker who
// tampers with the guard's own binary or policy scripts must not get a
// normal ALLOW/WARN/BLOCK decision out of it. A missing manifest is
// "first run" and passes.
func (g *Guard) verifyIntegrity() *invocation.Decision {
	if mismatches, err := g.Bypass.VerifyChecksums(); err != nil {
		dec := invocation.Criticalf("guard: bypass checksum manifest unreadable: " + err.Error())
		return &dec
	} else if len(mismatches) > 0 {
		dec := invocation.Criticalf(fmt.Sprintf("guard: script-integrity mismatch (bypass manifest): %v", mismatches))
		return &dec
	}

	if mismatches, err := g.SuperAdmin.VerifyChecksums(); err != nil {
		dec := invocation.Criticalf("guard: superadmin checksum manifest unreadable: " + err.Error())
		return &dec
	} else if len(mismatches) > 0 {
		dec := invocation.Criticalf(fmt.Sprintf("guard: script-integrity mismatch (superadmin manifest): %v", mismatches))
		return &dec
	}

	return nil
}

func (g *Guard) record(inv invocation.Invocation, dec invocation.Decision) {
	g.Session.IncrementMetric(inv.Tool+"."+dec.Level.String(), 1)
	g.Session.RecordEvent("decision", map[string]any{"tool": inv.Tool, "level": dec.Level.String(), "reason": dec.Reason})
	if g.Bypass.IsActive() || g.SuperAdmin.IsActive() {
		g.Bypass.TouchActivity()
		g.SuperAdmin.TouchActivity()
	}
	_ = g.Session.Archive(g.sessionsDir)
}

// StdoutPayload marshals the (possibly rewritten) invocation for the
// hook to emit on ALLOW/WARN, per §6's external-interfaces contract.
func StdoutPayload(inv invocation.Invocation, dec invocation.Decision) ([]byte, error) {
	if dec.Rewritten != nil {
		return json.Marshal(dec.Rewritten)
	}
	return json.Marshal(inv)
}

// GuidanceFor returns the stderr guidance string for a terminal
// decision, including the literal phrase required for exit 4.
func GuidanceFor(dec invocation.Decision) string {
	switch dec.Level {
	case invocation.SuperAdminRequired:
		return "SuperAdmin authentication required: " + dec.Reason + " (run `wowguard superadmin unlock` to proceed)"
	case invocation.Block, invocation.Critical:
		return dec.Reason
	default:
		return ""
	}
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return ""
}
