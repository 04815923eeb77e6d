package authcommon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// ChecksumEntry pairs a guard-owned file with its expected SHA-256.
type ChecksumEntry struct {
	Path   string `toml:"path"`
	SHA256 string `toml:"sha256"`
}

// Manifest is the script-integrity manifest: the guard's own
// executables and policy scripts, with their expected digests.
type Manifest struct {
	Entries []ChecksumEntry `toml:"entry"`
}

// LoadManifest reads a TOML manifest from path. A missing manifest is
// "first run" — callers should treat the absence as pass, not failure.
func LoadManifest(path string) (*Manifest, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, true, fmt.Errorf("authcommon: decode manifest %s: %w", path, err)
	}
	return &m, true, nil
}

// SaveManifest writes m to path as TOML, mode 0600.
func SaveManifest(path string, m *Manifest) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("authcommon: encode manifest: %w", err)
	}
	return WriteAtomic(path, buf.Bytes(), 0o600)
}

// HashFile returns the lower-case hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("authcommon: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("authcommon: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksums hashes every file the manifest lists and compares
// against the recorded digest. Any mismatch (including a listed file
// that is now missing) is reported; a present manifest with any
// mismatch is meant to be fatal to the whole guard process — that
// decision belongs to the caller (internal/guard), not this helper.
func VerifyChecksums(m *Manifest) []string {
	var mismatches []string
	for _, e := range m.Entries {
		got, err := HashFile(e.Path)
		if err != nil || got != e.SHA256 {
			mismatches = append(mismatches, e.Path)
		}
	}
	return mismatches
}

// BuildManifest hashes each of paths and returns a fresh Manifest — the
// implementation behind the guard's explicit "regen-checksums" entry
// point, the only place allowed to write this file.
func BuildManifest(paths []string) (*Manifest, error) {
	m := &Manifest{}
	for _, p := range paths {
		sum, err := HashFile(p)
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, ChecksumEntry{Path: p, SHA256: sum})
	}
	return m, nil
}
