package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetPassphraseCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-passphrase",
		Short: "Rewrite the Bypass passphrase hash (prompts twice)",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}

			first, err := promptSecret("New Bypass passphrase: ")
			if err != nil {
				return fmt.Errorf("wowguard reset-passphrase: %w", err)
			}
			second, err := promptSecret("Confirm new Bypass passphrase: ")
			if err != nil {
				return fmt.Errorf("wowguard reset-passphrase: %w", err)
			}
			if first != second {
				return fmt.Errorf("wowguard reset-passphrase: passphrases did not match")
			}
			if first == "" {
				return fmt.Errorf("wowguard reset-passphrase: passphrase must not be empty")
			}

			if err := g.Bypass.SetPassphrase(first); err != nil {
				return fmt.Errorf("wowguard reset-passphrase: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bypass passphrase updated.")
			return nil
		},
	}
}
