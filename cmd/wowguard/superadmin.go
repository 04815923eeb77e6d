package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// newSuperAdminCommand mirrors unlock/lock/status for SuperAdmin, which
// carries its own passphrase, tighter durations, and a biometric-or-TOTP
// second factor on top of Bypass's single passphrase.
func newSuperAdminCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	parent := &cobra.Command{
		Use:   "superadmin",
		Short: "Manage SuperAdmin (TIER 1/2 elevated auth)",
	}
	parent.AddCommand(
		newSuperAdminUnlockCommand(flags, logger),
		newSuperAdminLockCommand(flags, logger),
		newSuperAdminStatusCommand(flags, logger),
	)
	return parent
}

func newSuperAdminUnlockCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Activate SuperAdmin (passphrase, then biometric or TOTP)",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}
			result, err := g.SuperAdmin.Activate(terminalPrompter{})
			if err != nil {
				return fmt.Errorf("wowguard superadmin unlock: %w", err)
			}
			if result != 0 {
				return fmt.Errorf("wowguard superadmin unlock: authentication rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SuperAdmin activated.")
			return nil
		},
	}
}

func newSuperAdminLockCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Deactivate SuperAdmin",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}
			if err := g.SuperAdmin.Deactivate(); err != nil {
				return fmt.Errorf("wowguard superadmin lock: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "SuperAdmin deactivated.")
			return nil
		},
	}
}

func newSuperAdminStatusCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print SuperAdmin state and session metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}

			state, err := g.SuperAdmin.State()
			if err != nil {
				return fmt.Errorf("wowguard superadmin status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SuperAdmin: %s\n", state)
			fmt.Fprintf(out, "Session:    %s (started %s, duration %s)\n",
				g.Session.ID(), g.Session.StartedAt().Format("2006-01-02T15:04:05Z07:00"), g.Session.Duration())

			metrics := g.Session.Metrics()
			if len(metrics) == 0 {
				fmt.Fprintln(out, "Metrics:    (none recorded yet)")
				return nil
			}
			names := make([]string, 0, len(metrics))
			for k := range metrics {
				names = append(names, k)
			}
			sort.Strings(names)
			fmt.Fprintln(out, "Metrics:")
			for _, name := range names {
				fmt.Fprintf(out, "  %-40s %d\n", name, metrics[name])
			}
			return nil
		},
	}
}
