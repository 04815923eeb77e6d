// Package invocation defines the data exchanged between the hook and the
// guard: the tool-use request coming in, and the decision going out.
package invocation

import "encoding/json"

// Invocation describes a single tool-use request from the assistant.
// It is immutable once constructed; a handler that needs to change it
// produces a new value rather than mutating this one.
type Invocation struct {
	Tool        string          `json:"tool"`
	Description string          `json:"description,omitempty"`

	Command string `json:"command,omitempty"`

	FilePath string `json:"file_path,omitempty"`
	Content  string `json:"content,omitempty"`
	Offset   int    `json:"offset,omitempty"`
	Limit    int    `json:"limit,omitempty"`

	Pattern    string `json:"pattern,omitempty"`
	Path       string `json:"path,omitempty"`
	OutputMode string `json:"output_mode,omitempty"`

	URL   string `json:"url,omitempty"`
	Query string `json:"query,omitempty"`

	AllowedDomains []string `json:"allowed_domains,omitempty"`
	BlockedDomains []string `json:"blocked_domains,omitempty"`

	Prompt       string `json:"prompt,omitempty"`
	SubagentType string `json:"subagent_type,omitempty"`

	// raw keeps any fields the struct above doesn't model, so that a
	// rewritten invocation re-serializes them unchanged.
	raw map[string]json.RawMessage `json:"-"`
}

// Parse decodes a single JSON invocation object. Unknown fields are kept
// in raw form so a handler that doesn't touch them can still round-trip
// them on rewrite; unknown tools are not an error here — routing them is
// the router's job.
func Parse(data []byte) (Invocation, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Invocation{}, err
	}
	var inv Invocation
	if err := json.Unmarshal(data, &inv); err != nil {
		return Invocation{}, err
	}
	inv.raw = raw
	return inv, nil
}

// MarshalJSON re-serializes the invocation, starting from any unmodeled
// fields captured at parse time and overlaying the modeled fields, so a
// rewrite only changes what it explicitly set.
func (inv Invocation) MarshalJSON() ([]byte, error) {
	type alias Invocation
	modeled, err := json.Marshal(alias(inv))
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(modeled, &out); err != nil {
		return nil, err
	}
	for k, v := range inv.raw {
		if _, present := out[k]; !present {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// WithCommand returns a copy of inv with Command replaced. Used by the
// Bash handler to emit a normalised command without mutating the input.
func (inv Invocation) WithCommand(cmd string) Invocation {
	out := inv
	out.Command = cmd
	return out
}

// Level is a decision level, ordered ALLOW < WARN < BLOCK < CRITICAL <
// SUPERADMIN_REQUIRED. The numeric value is also the hook's exit code.
type Level int

const (
	Allow Level = iota
	Warn
	Block
	Critical
	SuperAdminRequired
)

func (l Level) String() string {
	switch l {
	case Allow:
		return "ALLOW"
	case Warn:
		return "WARN"
	case Block:
		return "BLOCK"
	case Critical:
		return "CRITICAL"
	case SuperAdminRequired:
		return "SUPERADMIN_REQUIRED"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the process exit code for this level, which is the
// identity function on the level's numeric value per the router contract.
func (l Level) ExitCode() int { return int(l) }

// Decision is the guard's verdict on an Invocation.
type Decision struct {
	Level      Level
	Reason     string
	Rewritten  *Invocation // non-nil only when the handler produced a rewrite
}

// Allowed builds an ALLOW decision, optionally carrying a rewritten invocation.
func Allowed(rewritten *Invocation) Decision {
	return Decision{Level: Allow, Rewritten: rewritten}
}

// Warnf builds a WARN decision with a formatted reason.
func Warnf(reason string) Decision {
	return Decision{Level: Warn, Reason: reason}
}

// Blockf builds a BLOCK decision with a reason.
func Blockf(reason string) Decision {
	return Decision{Level: Block, Reason: reason}
}

// Criticalf builds a CRITICAL decision with a reason.
func Criticalf(reason string) Decision {
	return Decision{Level: Critical, Reason: reason}
}

// SuperAdminRequiredf builds a SUPERADMIN_REQUIRED decision with a reason.
func SuperAdminRequiredf(reason string) Decision {
	return Decision{Level: SuperAdminRequired, Reason: reason}
}
