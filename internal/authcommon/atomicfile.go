package authcommon

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path via write-to-temp-then-rename, the
// pattern every guard-owned state file uses so a reader never observes
// a partially-written file.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("authcommon: mkdir %s: %w", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("authcommon: write temp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("authcommon: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// RemoveIfExists deletes path, treating an already-absent file as
// success — every reader in this package treats "missing" as the
// canonical absent state, so teardown should too.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("authcommon: remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists, swallowing any stat error other
// than "not found" into false (permission errors on the state dir
// itself are surfaced separately, at directory-creation time).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
