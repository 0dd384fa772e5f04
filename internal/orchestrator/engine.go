package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"clinicsim/internal/runner"
	"clinicsim/internal/types"
)

// Engine plans staffing scenarios, runs them concurrently and reports every
// step through emit.
type Engine struct {
	emit    func(types.Event)
	log     logrus.FieldLogger
	workers int
	timeout time.Duration

	plannerMs    atomic.Int64
	simulationMs atomic.Int64
	replications atomic.Int64
	runs         atomic.Int64
}

type Config struct {
	Workers         int
	ScenarioTimeout time.Duration
}

func NewEngine(emitter func(types.Event), cfg Config, log logrus.FieldLogger) *Engine {
	if emitter == nil {
		emitter = func(types.Event) {}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.ScenarioTimeout <= 0 {
		cfg.ScenarioTimeout = 10 * time.Minute
	}
	return &Engine{
		emit:    emitter,
		log:     log,
		workers: cfg.Workers,
		timeout: cfg.ScenarioTimeout,
	}
}

func event(kind string, payload any) types.Event {
	return types.Event{Type: kind, Payload: payload, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
}

// Run plans req and executes the plan, returning its id.
func (e *Engine) Run(ctx context.Context, req types.RunRequest) (string, error) {
	plan, err := e.Plan(req)
	if err != nil {
		return "", err
	}
	return plan.PlanID, e.Execute(ctx, plan)
}

// Execute runs every variant of plan. Events are emitted in the order plan,
// sim_start/sim_progress/sim_complete per variant, result per variant,
// analysis, done.
func (e *Engine) Execute(ctx context.Context, plan types.SimulationPlan) error {
	e.emit(event("plan", plan))

	results := e.runScenarios(ctx, plan)
	for _, r := range results {
		e.emit(event("result", r))
	}

	analysis := e.analyzeResults(results)
	e.emit(event("analysis", analysis))
	e.emit(event("done", map[string]string{"plan_id": plan.PlanID}))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("plan %s interrupted: %w", plan.PlanID, err)
	}
	return nil
}

// Plan resolves the variants of a run request. Without explicit scenarios it
// builds a staffing grid around the base scenario.
func (e *Engine) Plan(req types.RunRequest) (types.SimulationPlan, error) {
	start := time.Now()
	defer func() { e.plannerMs.Store(time.Since(start).Milliseconds()) }()
	planID := uuid.NewString()

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		base := runner.DefaultScenario()
		if req.Base != nil {
			base = *req.Base
		}
		scenarios = staffingGrid(base)
	}

	variants := make([]types.Variant, 0, len(scenarios))
	for i, sc := range scenarios {
		sc = sc.WithDefaults()
		if req.Samples > 0 {
			sc.Samples = req.Samples
		}
		if req.Seed != 0 {
			sc.Seed = req.Seed
		}
		if err := sc.Validate(); err != nil {
			return types.SimulationPlan{}, fmt.Errorf("variant %d: %w", i+1, err)
		}
		variants = append(variants, types.Variant{
			VariantID: fmt.Sprintf("%s-v%d", planID, i+1),
			Scenario:  sc,
		})
	}
	return types.SimulationPlan{PlanID: planID, Goal: req.Goal, Variants: variants}, nil
}

// staffingGrid varies nurses and doctors by two either side of base.
func staffingGrid(base runner.Scenario) []runner.Scenario {
	steps := []int{-2, 0, 2}
	grid := make([]runner.Scenario, 0, len(steps)*len(steps))
	for _, dn := range steps {
		for _, dd := range steps {
			sc := base
			sc.Nurses += dn
			sc.Doctors += dd
			if sc.Nurses <= 0 || sc.Doctors <= 0 {
				continue
			}
			sc.Name = fmt.Sprintf("%d nurses / %d doctors", sc.Nurses, sc.Doctors)
			grid = append(grid, sc)
		}
	}
	return grid
}

func (e *Engine) runScenarios(parentCtx context.Context, plan types.SimulationPlan) []types.SimulationResult {
	results := make([]types.SimulationResult, len(plan.Variants))
	wg := sync.WaitGroup{}

	for i, variant := range plan.Variants {
		wg.Add(1)
		go func(i int, v types.Variant) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(parentCtx, e.timeout)
			defer cancel()

			e.emit(event("sim_start", map[string]any{"variant_id": v.VariantID, "scenario": v.Scenario}))

			var lastDecile atomic.Int64
			progress := func(done, total int) {
				d := int64(done * 10 / total)
				if old := lastDecile.Load(); d > old && lastDecile.CompareAndSwap(old, d) {
					e.emit(event("sim_progress", types.Progress{VariantID: v.VariantID, Done: done, Total: total}))
				}
			}

			result := types.SimulationResult{VariantID: v.VariantID}
			summary, err := e.simulate(ctx, v.Scenario, runner.WithProgress(progress))
			if err != nil {
				e.log.WithError(err).WithField("variant", v.VariantID).Error("scenario failed")
				result.Error = err.Error()
			} else {
				result.Summary = summary
			}
			results[i] = result

			e.emit(event("sim_complete", result))
		}(i, variant)
	}

	wg.Wait()
	return results
}

// Simulate runs one scenario synchronously.
func (e *Engine) Simulate(ctx context.Context, sc runner.Scenario) (runner.Summary, error) {
	return e.simulate(ctx, sc.WithDefaults())
}

func (e *Engine) simulate(ctx context.Context, sc runner.Scenario, opts ...runner.Option) (runner.Summary, error) {
	summary, err := runner.New(e.workers, e.log, opts...).Run(ctx, sc)
	if err != nil {
		return runner.Summary{}, err
	}
	e.replications.Add(int64(summary.Samples))
	e.simulationMs.Add(summary.Elapsed.Milliseconds())
	e.runs.Add(1)
	return summary, nil
}

// analyzeResults recommends the variant with the lowest combined average wait
// among those whose staff are not overloaded.
func (e *Engine) analyzeResults(results []types.SimulationResult) types.Analysis {
	var overloaded []string
	best, bestOverall := -1, -1
	bestWait, bestOverallWait := math.Inf(1), math.Inf(1)

	for i, r := range results {
		if r.Error != "" {
			continue
		}
		m := r.Summary.Mean
		wait := m.AvgNurseWait + m.AvgDoctorWait
		if wait < bestOverallWait {
			bestOverall, bestOverallWait = i, wait
		}
		if m.NurseUtilization > 1 || m.DoctorUtilization > 1 {
			overloaded = append(overloaded, r.VariantID)
			continue
		}
		if wait < bestWait {
			best, bestWait = i, wait
		}
	}

	if bestOverall < 0 {
		return types.Analysis{Recommendation: "No results to analyze"}
	}
	if best < 0 {
		w := results[bestOverall]
		return types.Analysis{
			Winner:         w.VariantID,
			Overloaded:     overloaded,
			Recommendation: fmt.Sprintf("Every variant is overloaded; %s has the shortest average wait (%.2f minutes) but staff are booked beyond the hour", scenarioLabel(w), bestOverallWait),
		}
	}
	w := results[best]
	m := w.Summary.Mean
	return types.Analysis{
		Winner:     w.VariantID,
		Overloaded: overloaded,
		Recommendation: fmt.Sprintf("%s keeps nurse and doctor utilization at %.2f and %.2f with an average wait of %.2f minutes",
			scenarioLabel(w), m.NurseUtilization, m.DoctorUtilization, bestWait),
	}
}

func scenarioLabel(r types.SimulationResult) string {
	sc := r.Summary.Scenario
	if sc.Name != "" {
		return sc.Name
	}
	return fmt.Sprintf("%d nurses / %d doctors", sc.Nurses, sc.Doctors)
}

// ExportScenario renders a scenario as YAML for the CLI --scenario flag.
func (e *Engine) ExportScenario(req types.ExportRequest) ([]byte, string, error) {
	sc := req.Scenario.WithDefaults()
	if err := sc.Validate(); err != nil {
		return nil, "", err
	}
	out, err := yaml.Marshal(sc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal scenario: %w", err)
	}
	return out, fmt.Sprintf("clinic-%dn-%dd.yaml", sc.Nurses, sc.Doctors), nil
}

func (e *Engine) Metrics() types.MetricsSnapshot {
	m := types.MetricsSnapshot{
		PlannerMs:     e.plannerMs.Load(),
		SimulationMs:  e.simulationMs.Load(),
		RunsCompleted: e.runs.Load(),
	}
	if m.SimulationMs > 0 {
		m.ReplicationsPerSecond = float64(e.replications.Load()) / (float64(m.SimulationMs) / 1000)
	}
	return m
}
