// Package wconfig loads the guard's JSON(C) configuration file and
// exposes it through dotted-path accessors, matching the shape spec'd
// in the external-interfaces section: version, enforcement.*,
// scoring.*, rules.*, integrations.claude_code.*.
package wconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chudeemeke/wow-guard/internal/jsonc"
)

// Config is a parsed, immutable configuration snapshot. Callers read it
// through dotted-path Get* accessors rather than touching the raw map.
type Config struct {
	raw map[string]any
}

// Default returns the built-in configuration used when no config file
// is present, matching the documented default thresholds.
func Default() *Config {
	return &Config{raw: map[string]any{
		"version": "1.0.0",
		"enforcement": map[string]any{
			"enabled":            true,
			"strict_mode":        false,
			"block_on_violation": true,
		},
		"scoring": map[string]any{
			"threshold_warn":  40.0,
			"threshold_block": 80.0,
			"decay_rate":      0.1,
		},
		"rules": map[string]any{
			"max_file_operations":  100.0,
			"max_bash_commands":    200.0,
			"require_documentation": false,
		},
		"integrations": map[string]any{
			"claude_code": map[string]any{
				"hooks_enabled":     true,
				"session_tracking":  true,
			},
		},
	}}
}

// Parse parses JSON or JSONC data into a Config, validating that it at
// least decodes to a JSON object.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := jsonc.Parse(data, &raw); err != nil {
		return nil, fmt.Errorf("wconfig: invalid config: %w", err)
	}
	return &Config{raw: raw}, nil
}

// Load reads and parses path. A missing file is not an error: it yields
// Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("wconfig: read %s: %w", path, err)
	}
	return Parse(data)
}

// Merge returns a new Config with other's keys overlaid deep-onto c's
// (other wins on conflict). Neither input is mutated.
func (c *Config) Merge(other *Config) *Config {
	return &Config{raw: deepMerge(c.raw, other.raw)}
}

func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = deepMerge(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func (c *Config) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = c.raw
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the raw value at the dotted path, or def if absent.
func (c *Config) Get(path string, def any) any {
	if v, ok := c.lookup(path); ok {
		return v
	}
	return def
}

// GetBool returns the boolean at path as a Go bool (a JSON boolean, or a
// string strconv.ParseBool accepts), or def if absent/non-boolean. It
// does not return "true"/"false" strings.
func (c *Config) GetBool(path string, def bool) bool {
	v, ok := c.lookup(path)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// GetInt returns the integer at path, or def if absent/non-numeric.
func (c *Config) GetInt(path string, def int) int {
	v, ok := c.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return def
	}
}

// GetFloat returns the float at path, or def if absent/non-numeric.
func (c *Config) GetFloat(path string, def float64) float64 {
	v, ok := c.lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

// Validate rejects a config with no parsed content (a nil document);
// it does not check which sections are present, and missing keys are
// tolerated (Get* falls back to
// defaults), matching the "unknown keys ignored" / "missing keys return
// default" contract.
func (c *Config) Validate() error {
	if c.raw == nil {
		return fmt.Errorf("wconfig: empty configuration")
	}
	return nil
}

// Holder holds an atomically-swappable *Config, the mechanism behind
// hot reload: readers call Current() and always see either the prior or
// the newly-loaded config, never a half-parsed one.
type Holder struct {
	v atomic.Pointer[Config]
}

// NewHolder wraps an initial config.
func NewHolder(initial *Config) *Holder {
	h := &Holder{}
	h.v.Store(initial)
	return h
}

// Current returns the currently-active config.
func (h *Holder) Current() *Config { return h.v.Load() }

// Swap atomically replaces the active config.
func (h *Holder) Swap(next *Config) { h.v.Store(next) }
