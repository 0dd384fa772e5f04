package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"clinicsim/internal/clinic"
)

const progressEvery = 10

// Summary is the mean of every replication metric for one scenario.
type Summary struct {
	Scenario Scenario                 `json:"scenario"`
	Seed     uint64                   `json:"seed"`
	Samples  int                      `json:"samples"`
	Mean     clinic.ReplicationResult `json:"mean"`
	Elapsed  time.Duration            `json:"elapsed_ns"`
}

// Runner repeats independent replications of a scenario across a bounded
// number of goroutines.
type Runner struct {
	workers  int
	log      logrus.FieldLogger
	progress func(done, total int)
}

type Option func(*Runner)

// WithProgress registers fn to be called every few completed replications and
// once at the end. Calls never overlap and done strictly increases, so the
// last call always reports done == total.
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) { r.progress = fn }
}

func New(workers int, log logrus.FieldLogger, opts ...Option) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Runner{workers: workers, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes sc.Samples replications. Replication i draws from a PCG stream
// seeded with (seed, i), so a fixed seed gives the same summary regardless of
// worker count. A zero sc.Seed picks a random seed, reported in the summary.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Summary, error) {
	if err := sc.Validate(); err != nil {
		return Summary{}, err
	}
	seed := sc.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log := r.log.WithFields(logrus.Fields{
		"nurses":  sc.Nurses,
		"doctors": sc.Doctors,
		"samples": sc.Samples,
		"seed":    seed,
	})
	if sc.Spec().Degenerate() {
		log.Warn("service time std dev is 0, every duration equals the mean")
	}

	start := time.Now()
	results := make([]clinic.ReplicationResult, sc.Samples)
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < sc.Samples; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(i)))
			res, err := clinic.RunReplication(rng, sc.replicationParams(rng))
			if err != nil {
				return fmt.Errorf("replication %d: %w", i, err)
			}
			results[i] = res

			mu.Lock()
			defer mu.Unlock()
			done++
			if r.progress != nil && (done%progressEvery == 0 || done == sc.Samples) {
				r.progress(done, sc.Samples)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("run canceled after %d of %d replications: %w", done, sc.Samples, err)
	}

	s := Summary{
		Scenario: sc,
		Seed:     seed,
		Samples:  sc.Samples,
		Mean:     average(results),
		Elapsed:  time.Since(start),
	}
	log.WithField("elapsed", s.Elapsed).Debug("scenario complete")
	return s, nil
}

func average(results []clinic.ReplicationResult) clinic.ReplicationResult {
	n := len(results)
	cols := make([][]float64, 6)
	for i := range cols {
		cols[i] = make([]float64, n)
	}
	for i, r := range results {
		cols[0][i] = r.NurseUtilization
		cols[1][i] = r.DoctorUtilization
		cols[2][i] = r.AvgNurseWait
		cols[3][i] = r.MaxNurseWait
		cols[4][i] = r.AvgDoctorWait
		cols[5][i] = r.MaxDoctorWait
	}
	mean := func(c []float64) float64 { return clinic.Round2(stat.Mean(c, nil)) }
	return clinic.ReplicationResult{
		NurseUtilization:  mean(cols[0]),
		DoctorUtilization: mean(cols[1]),
		WaitTimes: clinic.WaitTimes{
			AvgNurseWait:  mean(cols[2]),
			MaxNurseWait:  mean(cols[3]),
			AvgDoctorWait: mean(cols[4]),
			MaxDoctorWait: mean(cols[5]),
		},
	}
}
