package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chudeemeke/wow-guard/internal/guard"
	"github.com/chudeemeke/wow-guard/internal/invocation"
)

// cliFlags holds the root-level flags every subcommand shares: where
// the guard's state lives and which directories count as "project"
// locations for the correlator's safe-location exemption.
type cliFlags struct {
	dataDir     string
	configPath  string
	projectDirs []string
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	logger := newDiagnosticLogger()

	root := &cobra.Command{
		Use:   "wowguard",
		Short: "Policy-enforcement guard for an AI coding assistant's tool invocations",
		Long: "wowguard reads a single JSON tool-invocation from stdin, evaluates it against\n" +
			"the security policy, filesystem zones, domain lists, and elevated-auth state,\n" +
			"and emits a decision as an exit code plus stdout/stderr payload.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd, flags, logger)
		},
	}

	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "guard data directory (default: $WOW_DATA_DIR, $WOW_HOME, or ~/.wow-guard)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.json (default: <data-dir>/config.json)")
	var projectDirsCSV string
	root.PersistentFlags().StringVar(&projectDirsCSV, "project-dirs", os.Getenv("WOW_PROJECT_DIRS"), "comma-separated project directories exempt from correlator write-then-execute checks")
	cobra.OnInitialize(func() {
		if projectDirsCSV != "" {
			flags.projectDirs = strings.Split(projectDirsCSV, ",")
		}
	})

	root.AddCommand(
		newUnlockCommand(flags, logger),
		newLockCommand(flags, logger),
		newStatusCommand(flags, logger),
		newResetPassphraseCommand(flags, logger),
		newRegenChecksumsCommand(flags, logger),
		newSuperAdminCommand(flags, logger),
	)

	return root
}

func buildGuard(flags *cliFlags) (*guard.Guard, error) {
	return guard.New(guard.Options{
		DataDir:     flags.dataDir,
		ConfigPath:  flags.configPath,
		ProjectDirs: flags.projectDirs,
		TOTPSeed:    os.Getenv("WOW_SUPERADMIN_TOTP_SEED"),
		SessionID:   os.Getenv("WOW_SESSION_ID"),
	})
}

// runDecide is the root command's default behaviour: read one JSON
// invocation from stdin, decide, and emit the documented
// stdout/stderr/exit-code contract.
func runDecide(cmd *cobra.Command, flags *cliFlags, logger diagnosticLogger) error {
	g, err := buildGuard(flags)
	if err != nil {
		return fmt.Errorf("wowguard: init: %w", err)
	}

	raw, err := readAllLimited(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("wowguard: read stdin: %w", err)
	}

	dec := g.Decide(raw)

	switch {
	case dec.Level <= 1: // ALLOW or WARN
		inv, parseErr := parseForEcho(raw)
		if parseErr == nil {
			payload, err := guard.StdoutPayload(inv, dec)
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			}
		}
		if dec.Level == 1 {
			logger.Warn(dec.Reason)
		}
	default:
		logger.Warn(dec.Reason, "level", dec.Level.String())
		fmt.Fprintln(cmd.ErrOrStderr(), guard.GuidanceFor(dec))
	}

	os.Exit(dec.Level.ExitCode())
	return nil
}

// parseForEcho re-parses the raw invocation for stdout echo purposes.
// Decide already validated it; a second parse error here would only
// happen if Decide itself somehow allowed malformed input through,
// which the fail-closed contract rules out.
func parseForEcho(raw []byte) (invocation.Invocation, error) {
	return invocation.Parse(raw)
}

const maxInvocationBytes = 4 << 20 // 4 MiB: generous for a single tool invocation, bounded against a runaway pipe

func readAllLimited(r io.Reader) ([]byte, error) {
	lr := io.LimitReader(r, maxInvocationBytes+1)
	data, err := io.ReadAll(bufio.NewReader(lr))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInvocationBytes {
		return nil, fmt.Errorf("invocation exceeds %d bytes", maxInvocationBytes)
	}
	return data, nil
}
