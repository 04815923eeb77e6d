// Package router dispatches a parsed invocation to its tool-specific
// handler, tracks unknown tools in the registry, and enforces the
// fail-closed contract: any panic escaping a handler becomes a BLOCK
// decision rather than propagating.
package router

import (
	"fmt"

	"github.com/chudeemeke/wow-guard/internal/handlers"
	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/registry"
)

// Router owns the known-tool handler table and the shared Deps passed
// to every handler invocation.
type Router struct {
	handlers map[string]handlers.Handler
	registry *registry.Registry
	deps     handlers.Deps
}

// New builds a Router from an explicit handler table (normally
// handlers.DefaultHandlers()), a tool registry, and the shared Deps.
func New(table map[string]handlers.Handler, reg *registry.Registry, deps handlers.Deps) *Router {
	return &Router{handlers: table, registry: reg, deps: deps}
}

// Route dispatches inv to its handler. Unknown tools are recorded in
// the registry and passed through with ALLOW. Any panic inside a known
// handler is recovered and mapped to BLOCK — the guard must never fail
// open.
func (r *Router) Route(inv invocation.Invocation) (dec invocation.Decision) {
	handlerID, known := r.registry.Lookup(inv.Tool)
	if !known {
		r.registry.RecordUnknown(inv.Tool)
		return invocation.Allowed(nil)
	}

	h, ok := r.handlers[inv.Tool]
	if !ok {
		// Registered as known but no handler wired: a configuration
		// defect, not a policy decision. Fail closed.
		return invocation.Blockf(fmt.Sprintf("router: no handler wired for known tool %q (handler id %q)", inv.Tool, handlerID))
	}

	defer func() {
		if rec := recover(); rec != nil {
			dec = invocation.Blockf(fmt.Sprintf("router: handler for %q panicked: %v", inv.Tool, rec))
		}
	}()

	return h(r.deps, inv)
}
