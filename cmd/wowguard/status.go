package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(flags *cliFlags, logger diagnosticLogger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print Bypass/SuperAdmin state and session metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := buildGuard(flags)
			if err != nil {
				return err
			}

			bypassState, err := g.Bypass.State()
			if err != nil {
				return fmt.Errorf("wowguard status: bypass state: %w", err)
			}
			superState, err := g.SuperAdmin.State()
			if err != nil {
				return fmt.Errorf("wowguard status: superadmin state: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bypass:     %s\n", bypassState)
			fmt.Fprintf(out, "SuperAdmin: %s\n", superState)
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
