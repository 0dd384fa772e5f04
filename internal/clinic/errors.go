package clinic

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration error returned from this package.
var ErrInvalidConfig = errors.New("invalid clinic configuration")

// ErrDegenerateArrivals is returned when the arrival generator keeps drawing all-zero gaps.
var ErrDegenerateArrivals = errors.New("arrival gaps sum to zero")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
