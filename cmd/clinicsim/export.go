package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clinicsim/internal/orchestrator"
	"clinicsim/internal/types"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured scenario as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := orchestrator.NewEngine(nil, orchestrator.Config{}, log)
		yml, filename, err := e.ExportScenario(types.ExportRequest{Scenario: cfg.Scenario})
		if err != nil {
			return err
		}
		if exportOut == "" {
			_, err = cmd.OutOrStdout().Write(yml)
			return err
		}
		if exportOut == "." {
			exportOut = filename
		}
		if err := os.WriteFile(exportOut, yml, 0644); err != nil {
			return fmt.Errorf("failed to write scenario: %w", err)
		}
		log.WithField("path", exportOut).Info("scenario written")
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOut, "out", "o", "", "output file; \".\" picks a name from the staffing")
	f.Int("nurses", 0, "number of nurses")
	f.Int("doctors", 0, "number of doctors")
	f.Int("patients", 0, "approximate patients per hour")
	f.Float64("mean-time", 0, "mean minutes a nurse or doctor spends with a patient")
	f.Float64("std-dev", 0, "standard deviation of the service time")
	f.Float64("spread", 0, "service times are bounded to mean +/- spread")
	f.Float64("nurse-only-share", 0, "share of patients who only see a nurse")
	f.Int("samples", 0, "number of replications")
	f.Uint64("seed", 0, "random seed (0 = random)")

	commandKeys["export"] = scenarioFlagKeys
}
