// Package jsonc strips JSONC-style comments (// and /* */) so config
// files can carry comments while still being parsed as plain JSON.
package jsonc

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// StripComments removes // and /* */ comments from data, leaving valid
// JSON. It tracks string context line by line so a "//" or "/*" inside a
// quoted string is left untouched.
func StripComments(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	result := make([]string, 0, len(lines))
	inBlockComment := false

	for _, line := range lines {
		if inBlockComment {
			if idx := strings.Index(line, "*/"); idx >= 0 {
				line = line[idx+2:]
				inBlockComment = false
			} else {
				continue
			}
		}

		var cleaned strings.Builder
		inString := false
		escaped := false
		i := 0
		for i < len(line) {
			ch := line[i]

			if escaped {
				cleaned.WriteByte(ch)
				escaped = false
				i++
				continue
			}
			if ch == '\\' {
				cleaned.WriteByte(ch)
				escaped = true
				i++
				continue
			}
			if ch == '"' {
				inString = !inString
				cleaned.WriteByte(ch)
				i++
				continue
			}
			if !inString {
				if i < len(line)-1 && ch == '/' && line[i+1] == '/' {
					break
				}
				if i < len(line)-1 && ch == '/' && line[i+1] == '*' {
					if end := strings.Index(line[i+2:], "*/"); end >= 0 {
						i += end + 4
						continue
					}
					inBlockComment = true
					break
				}
			}
			cleaned.WriteByte(ch)
			i++
		}
		result = append(result, cleaned.String())
	}

	return []byte(strings.Join(result, "\n"))
}

// Parse strips comments from data and unmarshals the result into v.
func Parse(data []byte, v any) error {
	if err := json.Unmarshal(StripComments(data), v); err != nil {
		return fmt.Errorf("jsonc: parse: %w", err)
	}
	return nil
}

// Load reads path, strips comments, and unmarshals into v.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("jsonc: load %s: %w", path, err)
	}
	return Parse(data, v)
}
