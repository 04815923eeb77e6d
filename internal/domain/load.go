package domain

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileNames are the four on-disk list files under the config directory.
const (
	SystemSafeFile    = "system-safe-domains.conf"
	SystemBlockedFile = "system-blocked-domains.conf"
	CustomSafeFile    = "custom-safe-domains.conf"
	CustomBlockedFile = "custom-blocked-domains.conf"
)

// LoadFile parses one list file. A missing file yields an empty List,
// not an error — domain lists are optional. A symlinked path, or a path
// containing ".." segments, is rejected rather than followed.
func LoadFile(path string) (*List, error) {
	if err := rejectUnsafePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newList(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("domain: read %s: %w", path, err)
	}
	return ParseList(data), nil
}

func rejectUnsafePath(path string) error {
	if filepath.Clean(path) != path {
		// Clean would change a path containing ".." or redundant
		// separators; reject rather than silently normalise, since the
		// file is a security boundary.
		return fmt.Errorf("domain: unsafe path %q (contains .. or redundant segments)", path)
	}
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("domain: stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("domain: refusing to load symlinked config file %s", path)
	}
	return nil
}

// LoadAll loads all four tier files from dir into cat, skipping any
// individual file that fails to parse (a corrupt user file should not
// take down the critical/system tiers) — such failures are returned
// jointly so the caller can log a diagnostic.
func LoadAll(dir string, cat *Catalogue) []error {
	var errs []error

	if l, err := LoadFile(filepath.Join(dir, SystemSafeFile)); err != nil {
		errs = append(errs, err)
	} else {
		cat.SetSystemSafe(l)
	}
	if l, err := LoadFile(filepath.Join(dir, SystemBlockedFile)); err != nil {
		errs = append(errs, err)
	} else {
		cat.SetSystemBlocked(l)
	}
	if l, err := LoadFile(filepath.Join(dir, CustomSafeFile)); err != nil {
		errs = append(errs, err)
	} else {
		cat.SetUserSafe(l)
	}
	if l, err := LoadFile(filepath.Join(dir, CustomBlockedFile)); err != nil {
		errs = append(errs, err)
	} else {
		cat.SetUserBlocked(l)
	}
	return errs
}
