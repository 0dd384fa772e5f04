package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clinicsim/internal/client"
	"clinicsim/internal/orchestrator"
	"clinicsim/internal/types"
)

var gridGoal string

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Compare staffing levels around the configured scenario",
	Long: `grid runs the configured scenario with two fewer and two more nurses and
doctors and recommends the variant with the lowest combined mean wait that
keeps staff below full utilization. With --server the plan is submitted to
the server and its events stream over /ws.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base := cfg.Scenario
		req := types.RunRequest{Goal: gridGoal, Base: &base}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if cfg.Server != "" {
			c := client.New(cfg.Server, cfg.Token)
			planID, err := c.Run(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s started on %s\n", planID, cfg.Server)
			return nil
		}

		var (
			results  []types.SimulationResult
			analysis types.Analysis
		)
		// result and analysis are emitted from Run's goroutine, in order.
		emit := func(ev types.Event) {
			switch ev.Type {
			case "result":
				results = append(results, ev.Payload.(types.SimulationResult))
			case "analysis":
				analysis = ev.Payload.(types.Analysis)
			case "sim_progress":
				p := ev.Payload.(types.Progress)
				log.WithField("variant", p.VariantID).Debugf("%d/%d replications", p.Done, p.Total)
			}
		}
		e := orchestrator.NewEngine(emit, orchestrator.Config{Workers: cfg.Workers, ScenarioTimeout: cfg.ScenarioTimeout}, log)
		if _, err := e.Run(ctx, req); err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"results": results, "analysis": analysis})
		}
		return writeGrid(cmd, results, analysis)
	},
}

func writeGrid(cmd *cobra.Command, results []types.SimulationResult, analysis types.Analysis) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NURSES\tDOCTORS\tNURSE UTIL\tDOCTOR UTIL\tAVG NURSE WAIT\tAVG DOCTOR WAIT")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror: %s\n", r.VariantID, r.Error)
			continue
		}
		sc, m := r.Summary.Scenario, r.Summary.Mean
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			sc.Nurses, sc.Doctors, m.NurseUtilization, m.DoctorUtilization, m.AvgNurseWait, m.AvgDoctorWait)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), "\n"+analysis.Recommendation)
	return err
}

func init() {
	f := gridCmd.Flags()
	f.StringVar(&gridGoal, "goal", "", "free-form goal recorded on the plan")
	f.BoolVar(&jsonOutput, "json", false, "print results and analysis as JSON")
	f.Int("nurses", 0, "number of nurses")
	f.Int("doctors", 0, "number of doctors")
	f.Int("patients", 0, "approximate patients per hour")
	f.Float64("mean-time", 0, "mean minutes a nurse or doctor spends with a patient")
	f.Int("samples", 0, "number of replications per variant")
	f.Uint64("seed", 0, "random seed (0 = random)")

	commandKeys["grid"] = map[string]string{
		"nurses":    "scenario.nurses",
		"doctors":   "scenario.doctors",
		"patients":  "scenario.patients_per_hour",
		"mean-time": "scenario.mean_time",
		"samples":   "scenario.samples",
		"seed":      "scenario.seed",
	}
}
