package router

import (
	"testing"

	"github.com/chudeemeke/wow-guard/internal/handlers"
	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/registry"
)

func TestRouteDispatchesKnownTool(t *testing.T) {
	table := map[string]handlers.Handler{
		"Bash": func(d handlers.Deps, inv invocation.Invocation) invocation.Decision {
			return invocation.Allowed(nil)
		},
	}
	reg := registry.New(map[string]string{"Bash": "bash"})
	r := New(table, reg, handlers.Deps{})

	dec := r.Route(invocation.Invocation{Tool: "Bash", Command: "echo hi"})
	if dec.Level != invocation.Allow {
		t.Fatalf("level = %v, want ALLOW", dec.Level)
	}
}

func TestRouteUnknownToolPassesThroughAndRecordsFrequency(t *testing.T) {
	reg := registry.New(nil)
	r := New(nil, reg, handlers.Deps{})

	dec := r.Route(invocation.Invocation{Tool: "FutureTool"})
	if dec.Level != invocation.Allow {
		t.Fatalf("level = %v, want ALLOW for unknown tool", dec.Level)
	}
	recs := reg.UnknownRecords()
	if recs["FutureTool"].Count != 1 {
		t.Fatalf("expected FutureTool to be recorded once, got %+v", recs)
	}
}

func TestRoutePanicBecomesBlock(t *testing.T) {
	table := map[string]handlers.Handler{
		"Bash": func(d handlers.Deps, inv invocation.Invocation) invocation.Decision {
			panic("boom")
		},
	}
	reg := registry.New(map[string]string{"Bash": "bash"})
	r := New(table, reg, handlers.Deps{})

	dec := r.Route(invocation.Invocation{Tool: "Bash"})
	if dec.Level != invocation.Block {
		t.Fatalf("level = %v, want BLOCK (fail closed)", dec.Level)
	}
}

func TestRouteKnownWithoutWiredHandlerFailsClosed(t *testing.T) {
	reg := registry.New(map[string]string{"Bash": "bash"})
	r := New(map[string]handlers.Handler{}, reg, handlers.Deps{})

	dec := r.Route(invocation.Invocation{Tool: "Bash"})
	if dec.Level != invocation.Block {
		t.Fatalf("level = %v, want BLOCK", dec.Level)
	}
}
