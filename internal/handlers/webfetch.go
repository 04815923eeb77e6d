package handlers

import (
	"net/url"
	"strings"

	"github.com/chudeemeke/wow-guard/internal/domain"
	"github.com/chudeemeke/wow-guard/internal/invocation"
)

// blockedSchemes never reach the domain validator: they don't name a
// network host at all, so a domain allow-list can't meaningfully gate
// them.
var blockedSchemes = map[string]bool{"file": true, "data": true}

// WebFetchHandler parses the target URL, rejects unsafe schemes
// outright, and otherwise defers to the domain catalogue.
func WebFetchHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("webfetch.invocations")

	if inv.URL == "" {
		return invocation.Blockf("webfetch: missing url")
	}

	u, err := url.Parse(inv.URL)
	if err != nil {
		return invocation.Blockf("webfetch: unparseable url: " + err.Error())
	}
	scheme := strings.ToLower(u.Scheme)
	if blockedSchemes[scheme] {
		return invocation.Blockf("webfetch: scheme " + scheme + " is never permitted")
	}

	return validateHost(d, inv.URL, "webfetch")
}

func validateHost(d Deps, target, verb string) invocation.Decision {
	decision, host, err := d.Domains.Validate(target)
	if err != nil {
		return invocation.Blockf(verb + ": invalid host: " + err.Error())
	}
	switch decision {
	case domain.Blocked:
		d.publish(verb+".blocked-host", host)
		if d.Domains.IsCriticalHost(host) {
			return invocation.Criticalf(verb + ": host " + host + " is loopback/link-local/RFC1918/cloud-metadata and is never reachable")
		}
		return invocation.Blockf(verb + ": host " + host + " is on the domain blocklist")
	case domain.Safe:
		d.count(verb + ".allowed")
		return invocation.Allowed(nil)
	default:
		d.publish(verb+".unknown-host", host)
		return invocation.Decision{Level: invocation.Warn, Reason: verb + ": host " + host + " is not on any known list"}
	}
}
