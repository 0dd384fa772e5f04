package clinic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerPoolRejectsZero(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := NewServerPool(n)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestAssignImmediateAndQueued(t *testing.T) {
	pool, err := NewServerPool(2)
	require.NoError(t, err)

	meet, wait := pool.Assign(0, 10)
	assert.Equal(t, 0.0, meet)
	assert.Equal(t, 0.0, wait)

	meet, wait = pool.Assign(1, 10)
	assert.Equal(t, 1.0, meet)
	assert.Equal(t, 0.0, wait)

	// both servers busy until 10 and 11
	meet, wait = pool.Assign(4, 5)
	assert.Equal(t, 10.0, meet)
	assert.Equal(t, 6.0, wait)

	assert.ElementsMatch(t, []float64{15, 11}, pool.NextFree())
}

func TestAssignIdleServerStartsAtRequest(t *testing.T) {
	pool, err := NewServerPool(1)
	require.NoError(t, err)
	pool.Assign(0, 3)

	meet, wait := pool.Assign(20, 3)
	assert.Equal(t, 20.0, meet)
	assert.Equal(t, 0.0, wait)
	assert.Equal(t, []float64{23}, pool.NextFree())
}

func TestAssignNeverMovesServersBackward(t *testing.T) {
	rng := newRand(5)
	pool, err := NewServerPool(4)
	require.NoError(t, err)

	prev := pool.NextFree()
	var request float64
	for i := 0; i < 2000; i++ {
		request += rng.Float64() * 3
		meet, wait := pool.Assign(request, rng.Float64()*12)
		assert.GreaterOrEqual(t, wait, 0.0)
		assert.GreaterOrEqual(t, meet, request)

		cur := pool.NextFree()
		for j := range cur {
			require.GreaterOrEqual(t, cur[j], prev[j])
		}
		prev = cur
	}
}

func TestAssignPanicsOnNegativeDuration(t *testing.T) {
	pool, err := NewServerPool(1)
	require.NoError(t, err)
	assert.Panics(t, func() { pool.Assign(0, -1) })
}
