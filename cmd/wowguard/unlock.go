package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnlockCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Activate Bypass (prompts for the Bypass passphrase)",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}
			result, err := g.Bypass.Activate(terminalPrompter{})
			if err != nil {
				return fmt.Errorf("wowguard unlock: %w", err)
			}
			if result != 0 {
				return fmt.Errorf("wowguard unlock: passphrase rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bypass activated.")
			return nil
		},
	}
}

func newLockCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Deactivate Bypass",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}
			if err := g.Bypass.Deactivate(); err != nil {
				return fmt.Errorf("wowguard lock: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bypass deactivated.")
			return nil
		},
	}
}
