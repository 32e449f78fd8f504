package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Delay(t *testing.T) {
	p := Default()

	t.Run("doubles per attempt from 100ms", func(t *testing.T) {
		assert.Equal(t, 100*time.Millisecond, p.Delay(0))
		assert.Equal(t, 200*time.Millisecond, p.Delay(1))
		assert.Equal(t, 400*time.Millisecond, p.Delay(2))
		assert.Equal(t, 800*time.Millisecond, p.Delay(3))
	})

	t.Run("caps at max", func(t *testing.T) {
		assert.Equal(t, 5*time.Second, p.Delay(6))
		assert.Equal(t, 5*time.Second, p.Delay(100))
	})

	t.Run("is non-decreasing", func(t *testing.T) {
		prev := time.Duration(0)
		for attempt := 0; attempt < 32; attempt++ {
			d := p.Delay(attempt)
			assert.GreaterOrEqual(t, d, prev)
			assert.LessOrEqual(t, d, p.Max)
			prev = d
		}
	})

	t.Run("negative attempt treated as zero", func(t *testing.T) {
		assert.Equal(t, p.Delay(0), p.Delay(-3))
	})
}
