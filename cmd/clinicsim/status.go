package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clinicsim/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check a clinicsim server and print its throughput counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server == "" {
			return errors.New("status needs --server")
		}
		c := client.New(cfg.Server, cfg.Token)
		if err := c.Health(cmd.Context()); err != nil {
			return err
		}
		m, err := c.Metrics(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "server:           %s (healthy)\n", cfg.Server)
		fmt.Fprintf(out, "runs completed:   %d\n", m.RunsCompleted)
		fmt.Fprintf(out, "simulation time:  %dms\n", m.SimulationMs)
		fmt.Fprintf(out, "replications/sec: %.1f\n", m.ReplicationsPerSecond)
		fmt.Fprintf(out, "last plan:        %dms\n", m.PlannerMs)
		return nil
	},
}
