package handlers

import (
	"os"

	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/policy"
	"github.com/chudeemeke/wow-guard/internal/zone"
)

// WriteHandler and EditHandler share the same path/zone/content
// validation; they differ only in the metric/event names they use,
// matching the teacher convention of thin per-tool wrappers around a
// shared core.
func WriteHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	return writeLike(d, inv, "write")
}

func EditHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	return writeLike(d, inv, "edit")
}

func writeLike(d Deps, inv invocation.Invocation, verb string) invocation.Decision {
	d.count(verb + ".invocations")

	path := inv.FilePath
	if path == "" {
		return invocation.Blockf(verb + ": missing file_path")
	}
	if hasTraversal(path) {
		return invocation.Blockf(verb + ": path traversal ('..') not permitted")
	}

	canon := zone.Canonicalize(path)
	z := d.Zones.Classify(canon)

	if d.Zones.IsHookEntrypoint(canon) {
		return invocation.Criticalf(verb + ": guard hook entrypoint is never writable")
	}
	if dec := zoneDecision(d, z, verb); dec != nil {
		d.publish(verb+".denied", canon)
		return *dec
	}

	if inv.Content != "" && d.Policy != nil {
		if match := d.Policy.Evaluate(inv.Content); match.Matched {
			if match.Tier == policy.Critical || match.Tier == policy.AlwaysBlock {
				return invocation.Blockf(verb + ": content matched " + match.Pattern)
			}
			d.publish(verb+".content-warn", match.Pattern)
			return invocation.Decision{Level: invocation.Warn, Reason: verb + ": content matched " + match.Pattern}
		}
	}

	if _, err := os.Stat(canon); err == nil {
		d.publish(verb+".overwrite", canon)
	}

	d.count(verb + ".allowed")
	return invocation.Allowed(nil)
}
