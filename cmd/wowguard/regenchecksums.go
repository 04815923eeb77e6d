package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chudeemeke/wow-guard/internal/zone"
)

// newRegenChecksumsCommand rebuilds the script-integrity manifest that
// the guard verifies on every decision before handling an invocation.
// It is the only entry point allowed to write that manifest.
func newRegenChecksumsCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "regen-checksums",
		Short: "Regenerate the script-integrity manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}

			paths, err := manifestPaths(flags)
			if err != nil {
				return fmt.Errorf("wowguard regen-checksums: %w", err)
			}
			if len(paths) == 0 {
				return fmt.Errorf("wowguard regen-checksums: no guard files found to checksum")
			}

			if err := g.Bypass.RegenerateChecksums(paths); err != nil {
				return fmt.Errorf("wowguard regen-checksums: bypass: %w", err)
			}
			if err := g.SuperAdmin.RegenerateChecksums(paths); err != nil {
				return fmt.Errorf("wowguard regen-checksums: superadmin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated manifest for %d file(s).\n", len(paths))
			return nil
		},
	}
}

// manifestPaths resolves the set of regular files the manifest should
// cover: the running executable and the guard's own hook entrypoint,
// skipping anything that isn't a plain file (directories under
// SelfFiles, like the bypass/superadmin state dirs, aren't hashable
// as a single digest).
func manifestPaths(flags *cliFlags) ([]string, error) {
	var paths []string

	if exe, err := os.Executable(); err == nil {
		if isRegularFile(exe) {
			paths = append(paths, exe)
		}
	}

	dataDir := flags.dataDir
	if dataDir == "" {
		dataDir = defaultDataDirForCLI()
	}
	zoneOpts := zone.DefaultOptions(dataDir)
	if isRegularFile(zoneOpts.HookEntry) {
		paths = append(paths, zoneOpts.HookEntry)
	}
	for _, self := range zoneOpts.SelfFiles {
		if isRegularFile(self) {
			paths = append(paths, self)
		}
	}

	return paths, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// defaultDataDirForCLI mirrors guard.defaultDataDir's resolution order
// for commands that need the data directory before a Guard exists.
func defaultDataDirForCLI() string {
	if v := os.Getenv("WOW_DATA_DIR"); v != "" {
		return v
	}
	if v := os.Getenv("WOW_HOME"); v != "" {
		return v
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.wow-guard"
	}
	return ".wow-guard"
}
