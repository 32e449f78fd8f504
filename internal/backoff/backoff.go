package backoff

import (
	"math"
	"time"
)

// Policy computes exponential backoff delays. It is pure: the same attempt
// number always yields the same delay.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Default returns the standard policy: 100ms initial, 5s cap, doubling.
func Default() Policy {
	return Policy{
		Initial:    100 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2.0,
	}
}

// Delay returns the delay for a zero-indexed attempt number, capped at Max.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := time.Duration(float64(p.Initial) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.Max || d < 0 {
		return p.Max
	}
	return d
}
