package clinic

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// ServiceTimeSpec describes the truncated normal distribution of the minutes a
// nurse or doctor spends with one patient.
type ServiceTimeSpec struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

func (s ServiceTimeSpec) Validate() error {
	if math.IsNaN(s.Mean) || math.IsNaN(s.StdDev) || math.IsNaN(s.Min) || math.IsNaN(s.Max) {
		return configErrorf("service time spec contains NaN")
	}
	if s.Min < 0 {
		return configErrorf("service time min %.2f must be >= 0", s.Min)
	}
	if s.Min >= s.Max {
		return configErrorf("service time min %.2f must be < max %.2f", s.Min, s.Max)
	}
	if s.Mean < s.Min || s.Mean > s.Max {
		return configErrorf("service time mean %.2f outside [%.2f, %.2f]", s.Mean, s.Min, s.Max)
	}
	if s.StdDev < 0 {
		return configErrorf("service time std dev %.2f must be >= 0", s.StdDev)
	}
	return nil
}

// Degenerate reports whether the spec collapses to a point mass at Mean.
func (s ServiceTimeSpec) Degenerate() bool {
	return s.StdDev == 0
}

// SampleServiceTimes draws n durations from the spec's normal distribution
// truncated to [Min, Max] using inverse-CDF sampling.
func SampleServiceTimes(rng *rand.Rand, spec ServiceTimeSpec, n int) ([]float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, configErrorf("sample count %d must be >= 0", n)
	}
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}
	if spec.Degenerate() {
		for i := range out {
			out[i] = spec.Mean
		}
		return out, nil
	}

	dist := distuv.Normal{Mu: spec.Mean, Sigma: spec.StdDev}
	lo, hi := dist.CDF(spec.Min), dist.CDF(spec.Max)
	for i := range out {
		var x float64
		if hi > lo {
			x = dist.Quantile(lo + (hi-lo)*rng.Float64())
		} else {
			// Interval lies far in one tail; the CDF cannot separate its ends.
			x = spec.Min + (spec.Max-spec.Min)*rng.Float64()
		}
		out[i] = clamp(x, spec.Min, spec.Max)
	}
	return out, nil
}

// SumServiceTimes is an independent draw of n durations, summed.
func SumServiceTimes(rng *rand.Rand, spec ServiceTimeSpec, n int) (float64, error) {
	times, err := SampleServiceTimes(rng, spec, n)
	if err != nil {
		return 0, err
	}
	return floats.Sum(times), nil
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
