package clinic

import "math/rand/v2"

// Horizon is the simulated window, in minutes, over which arrivals are spread.
const Horizon = 60.0

const maxArrivalDraws = 16

// GenerateArrivals returns k arrival timestamps whose gaps are uniform draws
// normalized to sum to Horizon. The first arrival is at 0 and the last gap is
// never added, so every timestamp is strictly below Horizon.
func GenerateArrivals(rng *rand.Rand, k int) ([]float64, error) {
	if k < 1 {
		return nil, configErrorf("patient count %d must be >= 1", k)
	}

	gaps := make([]float64, k)
	var total float64
	for attempt := 0; attempt < maxArrivalDraws && total == 0; attempt++ {
		total = 0
		for i := range gaps {
			gaps[i] = rng.Float64()
			total += gaps[i]
		}
	}
	if total == 0 {
		return nil, ErrDegenerateArrivals
	}

	arrivals := make([]float64, k)
	var t float64
	for i := range gaps {
		arrivals[i] = t
		t += Horizon * gaps[i] / total
	}
	return arrivals, nil
}
