package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("with valid parameters", func(t *testing.T) {
		breaker := New(5, 30*time.Second)
		assert.Equal(t, 5, breaker.threshold)
		assert.Equal(t, 30*time.Second, breaker.cooldown)
		assert.False(t, breaker.isOpen)
		assert.Equal(t, 0, breaker.failures)
	})

	t.Run("with zero threshold uses default", func(t *testing.T) {
		breaker := New(0, 30*time.Second)
		assert.Equal(t, 5, breaker.threshold)
	})

	t.Run("with zero cooldown uses default", func(t *testing.T) {
		breaker := New(5, 0)
		assert.Equal(t, 30*time.Second, breaker.cooldown)
	})

	t.Run("with negative values uses defaults", func(t *testing.T) {
		breaker := New(-1, -1*time.Second)
		assert.Equal(t, 5, breaker.threshold)
		assert.Equal(t, 30*time.Second, breaker.cooldown)
	})
}

func TestSimpleBreaker_IsOpen(t *testing.T) {
	breaker := New(3, 100*time.Millisecond)

	t.Run("starts closed", func(t *testing.T) {
		assert.False(t, breaker.IsOpen())
	})

	t.Run("stays closed under threshold", func(t *testing.T) {
		breaker.RecordFailure()
		breaker.RecordFailure()
		assert.False(t, breaker.IsOpen())
	})

	t.Run("opens when threshold reached", func(t *testing.T) {
		breaker.RecordFailure() // Third failure
		assert.True(t, breaker.IsOpen())
	})

	t.Run("stays open during cooldown", func(t *testing.T) {
		assert.True(t, breaker.IsOpen())
		time.Sleep(50 * time.Millisecond) // Half cooldown
		assert.True(t, breaker.IsOpen())
	})

	t.Run("closes after cooldown and resets failures", func(t *testing.T) {
		time.Sleep(60 * time.Millisecond) // Remaining cooldown + buffer
		assert.False(t, breaker.IsOpen())
		_, failures := breaker.GetState()
		assert.Equal(t, 0, failures)
	})
}

func TestSimpleBreaker_RecordSuccess(t *testing.T) {
	breaker := New(3, 100*time.Millisecond)

	t.Run("resets failures when closed", func(t *testing.T) {
		breaker.RecordFailure()
		breaker.RecordFailure()
		assert.Equal(t, 2, breaker.failures)

		breaker.RecordSuccess()
		assert.Equal(t, 0, breaker.failures)
		assert.False(t, breaker.isOpen)
	})

	t.Run("closes an open circuit", func(t *testing.T) {
		breaker.RecordFailure()
		breaker.RecordFailure()
		breaker.RecordFailure()
		assert.True(t, breaker.IsOpen())

		breaker.RecordSuccess()
		assert.False(t, breaker.IsOpen())
	})
}

func TestSimpleBreaker_Concurrent(t *testing.T) {
	breaker := New(50, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				breaker.RecordFailure()
				breaker.IsOpen()
			}
		}()
	}
	wg.Wait()

	_, failures := breaker.GetState()
	assert.Equal(t, 200, failures)
	assert.True(t, breaker.IsOpen())
}

func TestManager_GetBreaker(t *testing.T) {
	mgr := NewManager(3, time.Second)

	t.Run("creates breaker on first use", func(t *testing.T) {
		b := mgr.GetBreaker("qwen2.5:7b-instruct")
		assert.NotNil(t, b)
		assert.Equal(t, 3, b.threshold)
	})

	t.Run("returns same breaker for same model", func(t *testing.T) {
		a := mgr.GetBreaker("qwen2.5:7b-instruct")
		b := mgr.GetBreaker("qwen2.5:7b-instruct")
		assert.Same(t, a, b)
	})

	t.Run("breakers are independent per model", func(t *testing.T) {
		a := mgr.GetBreaker("deepseek-r1:7b")
		a.RecordFailure()
		a.RecordFailure()
		a.RecordFailure()
		assert.True(t, a.IsOpen())
		assert.False(t, mgr.GetBreaker("qwen2-math:7b").IsOpen())
	})
}
