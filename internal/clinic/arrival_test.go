package clinic

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateArrivalsOrdering(t *testing.T) {
	rng := newRand(11)
	for _, k := range []int{1, 2, 5, 30, 500} {
		arrivals, err := GenerateArrivals(rng, k)
		require.NoError(t, err)
		require.Len(t, arrivals, k)

		assert.Equal(t, 0.0, arrivals[0])
		assert.Less(t, arrivals[k-1], Horizon)
		for i := 1; i < k; i++ {
			assert.GreaterOrEqual(t, arrivals[i], arrivals[i-1])
		}
	}
}

func TestGenerateArrivalsRejectsEmpty(t *testing.T) {
	_, err := GenerateArrivals(newRand(1), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// zeroSource returns zeros for its first n draws and then defers to next.
type zeroSource struct {
	n    int
	next rand.Source
}

func (s *zeroSource) Uint64() uint64 {
	if s.n > 0 {
		s.n--
		return 0
	}
	return s.next.Uint64()
}

func TestGenerateArrivalsDegenerate(t *testing.T) {
	const k = 3
	rng := rand.New(&zeroSource{n: maxArrivalDraws * k, next: rand.NewPCG(1, 0)})
	arrivals, err := GenerateArrivals(rng, k)
	assert.ErrorIs(t, err, ErrDegenerateArrivals)
	assert.Nil(t, arrivals)
}

func TestGenerateArrivalsRedrawsZeroGaps(t *testing.T) {
	const k = 4
	src := &zeroSource{n: 3 * k, next: rand.NewPCG(2, 0)}
	arrivals, err := GenerateArrivals(rand.New(src), k)
	require.NoError(t, err)
	require.Len(t, arrivals, k)
	assert.Equal(t, 0, src.n)
	assert.Equal(t, 0.0, arrivals[0])
	assert.Greater(t, arrivals[k-1], 0.0)
	assert.Less(t, arrivals[k-1], Horizon)
}
