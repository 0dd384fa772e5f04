package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"clinicsim/internal/client"
	"clinicsim/internal/runner"
)

var (
	scenarioFile string
	jsonOutput   bool
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Aliases: []string{"sim"},
	Short:   "Estimate utilization and waiting times for one staffing scenario",
	Example: `  clinicsim simulate --nurses 10 --doctors 6 --patients 30 --mean-time 20
  clinicsim simulate --scenario clinic-10n-6d.yaml --json
  clinicsim simulate --server http://localhost:8080 --samples 500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Scenario
		if scenarioFile != "" {
			data, err := os.ReadFile(scenarioFile)
			if err != nil {
				return fmt.Errorf("failed to read scenario: %w", err)
			}
			if sc, err = runner.ParseScenario(data); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		summary, err := simulate(ctx, sc)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}
		return summary.WriteReport(cmd.OutOrStdout())
	},
}

func simulate(ctx context.Context, sc runner.Scenario) (runner.Summary, error) {
	if cfg.Server != "" {
		log.WithField("server", cfg.Server).Info("running scenario remotely")
		return client.New(cfg.Server, cfg.Token).Simulate(ctx, sc)
	}
	// the runner serializes progress calls, so lines print in order
	progress := runner.WithProgress(func(done, total int) {
		if done%(progressStride(total)) == 0 || done == total {
			fmt.Fprintf(os.Stderr, "\rCompleted simulations: %d/%d", done, total)
		}
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	return runner.New(cfg.Workers, log, progress).Run(ctx, sc)
}

func progressStride(total int) int {
	if total >= 1000 {
		return 100
	}
	return 10
}

func init() {
	f := simulateCmd.Flags()
	f.Int("nurses", 0, "number of nurses")
	f.Int("doctors", 0, "number of doctors")
	f.Int("patients", 0, "approximate patients per hour")
	f.Float64("mean-time", 0, "mean minutes a nurse or doctor spends with a patient")
	f.Float64("std-dev", 0, "standard deviation of the service time")
	f.Float64("spread", 0, "service times are bounded to mean +/- spread")
	f.Float64("nurse-only-share", 0, "share of patients who only see a nurse")
	f.Int("samples", 0, "number of replications")
	f.Uint64("seed", 0, "random seed (0 = random)")
	f.StringVar(&scenarioFile, "scenario", "", "YAML scenario file, as written by export")
	f.BoolVar(&jsonOutput, "json", false, "print the summary as JSON")

	commandKeys["simulate"] = scenarioFlagKeys
}

var scenarioFlagKeys = map[string]string{
	"nurses":           "scenario.nurses",
	"doctors":          "scenario.doctors",
	"patients":         "scenario.patients_per_hour",
	"mean-time":        "scenario.mean_time",
	"std-dev":          "scenario.std_dev",
	"spread":           "scenario.spread",
	"nurse-only-share": "scenario.nurse_only_share",
	"samples":          "scenario.samples",
	"seed":             "scenario.seed",
}
