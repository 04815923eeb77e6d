package handlers

import (
	"regexp"

	"github.com/chudeemeke/wow-guard/internal/invocation"
)

// metaAttackRe matches prompt shapes that try to turn the sub-agent
// against the guard itself: instructions to recurse without bound,
// replicate, harvest credentials, or exfiltrate/scan.
var metaAttackRe = regexp.MustCompile(`(?i)(ignore (all |your )?(previous|prior) instructions|replicate (yourself|this agent)|spawn (yourself|a copy of yourself) (repeatedly|indefinitely|forever)|harvest (credentials|secrets|api keys)|exfiltrate|scan (the )?(network|subnet|internal hosts))`)

const taskSpawnBurstThreshold = 5

// TaskHandler inspects the sub-agent prompt for meta-attack shapes and
// tracks spawn frequency to catch rapid recursive launches.
func TaskHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("task.invocations")

	if metaAttackRe.MatchString(inv.Prompt) {
		d.publish("task.meta-attack-block", inv.Prompt)
		return invocation.Blockf("task: prompt matches a meta-attack pattern")
	}

	if d.Metrics != nil {
		n, _ := d.Metrics.Increment("task.spawn_count", 1)
		if n > taskSpawnBurstThreshold {
			d.publish("task.spawn-burst-warn", n)
			return invocation.Decision{Level: invocation.Warn, Reason: "task: rapid recursive sub-agent launches detected"}
		}
	}

	d.count("task.allowed")
	return invocation.Allowed(nil)
}
