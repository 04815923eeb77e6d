package handlers

import (
	"regexp"

	"github.com/chudeemeke/wow-guard/internal/invocation"
	"github.com/chudeemeke/wow-guard/internal/zone"
)

// tier1ReadPaths hard-blocks regardless of strict_mode: the OS's own
// credential/authorization stores, whose disclosure is catastrophic.
var tier1ReadPaths = map[string]bool{
	"/etc/shadow":  true,
	"/etc/gshadow": true,
	"/etc/sudoers": true,
}

// tier2ReadPattern matches credential-adjacent files that warrant a
// WARN (or BLOCK in strict_mode) rather than an unconditional block.
var tier2ReadPattern = regexp.MustCompile(`(?i)(^/etc/passwd$|\.pem$|\.env$|id_rsa(\.pub)?$|credentials\.json$|secrets\.ya?ml$|wallet\.dat$|\.aws/credentials$|\.config/gcloud/|Cookies$|cookies\.sqlite$)`)

// ReadHandler implements the two-level sensitivity contract: TIER 1
// paths are always blocked, TIER 2 paths warn (or block under
// strict_mode), everything else falls through to zone classification.
func ReadHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("read.invocations")

	path := inv.FilePath
	if path == "" {
		return invocation.Blockf("read: missing file_path")
	}
	if hasTraversal(path) {
		return invocation.Blockf("read: path traversal ('..') not permitted")
	}

	canon := zone.Canonicalize(path)

	if tier1ReadPaths[canon] {
		d.publish("read.tier1-block", canon)
		return invocation.Blockf("read: TIER 1 / catastrophic disclosure path: " + canon)
	}

	if tier2ReadPattern.MatchString(canon) {
		if d.StrictMode {
			return invocation.Blockf("read: TIER 2 sensitive path blocked under strict mode: " + canon)
		}
		d.publish("read.tier2-warn", canon)
		return invocation.Decision{Level: invocation.Warn, Reason: "read: TIER 2 sensitive path: " + canon}
	}

	z := d.Zones.Classify(canon)
	if dec := zoneDecision(d, z, "read"); dec != nil {
		return *dec
	}

	d.count("read.allowed")
	return invocation.Allowed(nil)
}
