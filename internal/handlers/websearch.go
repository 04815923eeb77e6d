package handlers

import (
	"regexp"

	"github.com/chudeemeke/wow-guard/internal/invocation"
)

var (
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	ssnRe        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	creditCardRe = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
	apiKeyRe     = regexp.MustCompile(`\b(sk|pk)_(live|test)_[A-Za-z0-9]{16,}\b|\bAKIA[0-9A-Z]{16}\b`)
	injectionRe  = regexp.MustCompile(`(?i)<script|;\s*(rm|curl|wget|bash|sh)\b|'\s*or\s*'?1'?\s*=\s*'?1`)
)

// WebSearchHandler validates allowed/blocked domain arrays the same way
// WebFetch validates a single URL, and additionally inspects the query
// text for PII and injection shapes.
func WebSearchHandler(d Deps, inv invocation.Invocation) invocation.Decision {
	d.count("websearch.invocations")

	for _, host := range inv.AllowedDomains {
		if dec := validateHost(d, host, "websearch"); dec.Level == invocation.Critical || dec.Level == invocation.Block {
			return dec
		}
	}
	for _, host := range inv.BlockedDomains {
		if dec := validateHost(d, host, "websearch"); dec.Level == invocation.Critical {
			return dec
		}
	}

	if inv.Query != "" {
		if dec, ok := scanQuery(d, inv.Query); ok {
			return dec
		}
	}

	d.count("websearch.allowed")
	return invocation.Allowed(nil)
}

func scanQuery(d Deps, query string) (invocation.Decision, bool) {
	switch {
	case injectionRe.MatchString(query):
		d.publish("websearch.injection-block", query)
		return invocation.Blockf("websearch: query contains an injection shape"), true
	case emailRe.MatchString(query), ssnRe.MatchString(query), creditCardRe.MatchString(query), apiKeyRe.MatchString(query):
		if d.StrictMode {
			return invocation.Blockf("websearch: query contains PII-shaped content, blocked under strict mode"), true
		}
		d.publish("websearch.pii-warn", query)
		return invocation.Decision{Level: invocation.Warn, Reason: "websearch: query contains PII-shaped content"}, true
	default:
		return invocation.Decision{}, false
	}
}
