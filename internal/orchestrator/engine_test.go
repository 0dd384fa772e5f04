package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsim/internal/clinic"
	"clinicsim/internal/runner"
	"clinicsim/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *recorder) emit(ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newTestEngine(emit func(types.Event)) *Engine {
	logger, _ := test.NewNullLogger()
	return NewEngine(emit, Config{Workers: 2}, logger)
}

func quickScenario(nurses, doctors int) runner.Scenario {
	sc := runner.DefaultScenario()
	sc.Nurses, sc.Doctors = nurses, doctors
	sc.PatientsPerHour = 12
	sc.MeanTime = 20
	sc.Samples = 30
	sc.Seed = 5
	return sc
}

func TestStaffingGrid(t *testing.T) {
	grid := staffingGrid(quickScenario(10, 6))
	assert.Len(t, grid, 9)
	assert.Equal(t, 8, grid[0].Nurses)
	assert.Equal(t, 4, grid[0].Doctors)
	assert.Equal(t, "12 nurses / 8 doctors", grid[8].Name)

	small := staffingGrid(quickScenario(1, 2))
	for _, sc := range small {
		assert.Greater(t, sc.Nurses, 0)
		assert.Greater(t, sc.Doctors, 0)
	}
	assert.Len(t, small, 4)
}

func TestPlanAppliesOverrides(t *testing.T) {
	e := newTestEngine(nil)
	plan, err := e.Plan(types.RunRequest{
		Goal:      "short waits",
		Scenarios: []runner.Scenario{quickScenario(3, 2), quickScenario(4, 2)},
		Samples:   15,
		Seed:      77,
	})
	require.NoError(t, err)
	require.Len(t, plan.Variants, 2)
	assert.NotEmpty(t, plan.PlanID)
	assert.Equal(t, plan.PlanID+"-v1", plan.Variants[0].VariantID)
	for _, v := range plan.Variants {
		assert.Equal(t, 15, v.Scenario.Samples)
		assert.Equal(t, uint64(77), v.Scenario.Seed)
	}
}

func TestPlanRejectsInvalidScenario(t *testing.T) {
	e := newTestEngine(nil)
	_, err := e.Plan(types.RunRequest{Scenarios: []runner.Scenario{quickScenario(0, 2)}})
	assert.ErrorIs(t, err, clinic.ErrInvalidConfig)
}

func TestRunEmitsEvents(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec.emit)

	planID, err := e.Run(context.Background(), types.RunRequest{
		Scenarios: []runner.Scenario{quickScenario(3, 2), quickScenario(6, 4)},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, planID)

	kinds := rec.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, "plan", kinds[0])
	assert.Equal(t, "done", kinds[len(kinds)-1])
	assert.Equal(t, "analysis", kinds[len(kinds)-2])

	counts := map[string]int{}
	for _, k := range kinds {
		counts[k]++
	}
	assert.Equal(t, 2, counts["sim_start"])
	assert.Equal(t, 2, counts["sim_complete"])
	assert.Equal(t, 2, counts["result"])

	m := e.Metrics()
	assert.Equal(t, int64(2), m.RunsCompleted)
}

func TestAnalyzeResults(t *testing.T) {
	e := newTestEngine(nil)
	mk := func(id string, nu, du, wait float64) types.SimulationResult {
		return types.SimulationResult{
			VariantID: id,
			Summary: runner.Summary{
				Scenario: runner.Scenario{Nurses: 1, Doctors: 1},
				Mean: clinic.ReplicationResult{
					NurseUtilization:  nu,
					DoctorUtilization: du,
					WaitTimes:         clinic.WaitTimes{AvgNurseWait: wait},
				},
			},
		}
	}

	a := e.analyzeResults([]types.SimulationResult{
		mk("a", 1.4, 0.8, 0.5),
		mk("b", 0.9, 0.9, 3),
		mk("c", 0.7, 0.6, 1),
		{VariantID: "d", Error: "boom"},
	})
	assert.Equal(t, "c", a.Winner)
	assert.Equal(t, []string{"a"}, a.Overloaded)

	a = e.analyzeResults([]types.SimulationResult{mk("x", 2, 2, 9), mk("y", 1.5, 3, 4)})
	assert.Equal(t, "y", a.Winner)
	assert.Contains(t, a.Recommendation, "overloaded")

	a = e.analyzeResults(nil)
	assert.Empty(t, a.Winner)
	assert.Equal(t, "No results to analyze", a.Recommendation)
}

func TestExportScenarioRoundTrip(t *testing.T) {
	e := newTestEngine(nil)
	sc := quickScenario(10, 6)
	sc.NurseOnlyShare, sc.PatientBand = 0, 0
	out, filename, err := e.ExportScenario(types.ExportRequest{Scenario: sc})
	require.NoError(t, err)
	assert.Equal(t, "clinic-10n-6d.yaml", filename)

	parsed, err := runner.ParseScenario(out)
	require.NoError(t, err)
	assert.Equal(t, sc, parsed)
}

func TestSimulateCountsMetrics(t *testing.T) {
	e := newTestEngine(nil)
	s, err := e.Simulate(context.Background(), quickScenario(4, 3))
	require.NoError(t, err)
	assert.Equal(t, 30, s.Samples)
	assert.Equal(t, int64(1), e.Metrics().RunsCompleted)
}
