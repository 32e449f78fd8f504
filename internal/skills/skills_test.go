package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewVectorDefaults(t *testing.T) {
	v := NewVector()
	assert.Len(t, v.Skills, 10)
	for topic, score := range v.Skills {
		assert.Equal(t, 0.5, score, "topic %s", topic)
	}
}

func TestApplyIssue(t *testing.T) {
	t.Run("incorrect logic penalizes logical reasoning", func(t *testing.T) {
		v := NewVector()
		v.ApplyIssue("incorrect_logic")
		assert.InDelta(t, 0.47, v.Skills["logical_reasoning"], 1e-9)
	})

	t.Run("math gaps penalizes two topics", func(t *testing.T) {
		v := NewVector()
		v.ApplyIssue("math_gaps")
		assert.InDelta(t, 0.47, v.Skills["analysis_math"], 1e-9)
		assert.InDelta(t, 0.48, v.Skills["putnam_competition"], 1e-9)
	})

	t.Run("unknown issue type is a no-op", func(t *testing.T) {
		v := NewVector()
		v.ApplyIssue("not_a_real_issue")
		assert.Equal(t, NewVector().Skills, v.Skills)
	})

	t.Run("score never drops below zero", func(t *testing.T) {
		v := NewVector()
		for i := 0; i < 100; i++ {
			v.ApplyIssue("incorrect_logic")
		}
		assert.Equal(t, 0.0, v.Skills["logical_reasoning"])
	})
}

func TestApplyAssessment(t *testing.T) {
	v := NewVector()
	v.ApplyAssessment("correct")
	assert.InDelta(t, 0.51, v.Skills["logical_reasoning"], 1e-9)

	v.ApplyAssessment("partially_correct")
	assert.InDelta(t, 0.505, v.Skills["proof_strategy"], 1e-9)

	before := v.Skills["logical_reasoning"]
	v.ApplyAssessment("incorrect")
	assert.Equal(t, before, v.Skills["logical_reasoning"])
}

func TestRewardPerfect(t *testing.T) {
	v := NewVector()
	v.RewardPerfect("analysis_math")
	assert.InDelta(t, 0.52, v.Skills["analysis_math"], 1e-9)
	assert.InDelta(t, 0.51, v.Skills["proof_strategy"], 1e-9)
	assert.InDelta(t, 0.51, v.Skills["logical_reasoning"], 1e-9)

	t.Run("score caps at one", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			v.RewardPerfect("analysis_math")
		}
		assert.Equal(t, 1.0, v.Skills["analysis_math"])
	})
}

func TestWeakestN(t *testing.T) {
	t.Run("orders weakest first", func(t *testing.T) {
		v := NewVector()
		v.Skills["rl_theory"] = 0.1
		v.Skills["ml_theory"] = 0.2

		got := v.WeakestN(2)
		require.Len(t, got, 2)
		assert.Equal(t, "rl_theory", got[0].Topic)
		assert.Equal(t, "ml_theory", got[1].Topic)
	})

	t.Run("random among ties still returns minimum", func(t *testing.T) {
		v := NewVector()
		v.Skills["rl_theory"] = 0.1
		v.Skills["ml_theory"] = 0.1

		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			e, ok := v.Weakest()
			require.True(t, ok)
			assert.Equal(t, 0.1, e.Score)
			seen[e.Topic] = true
		}
		assert.Contains(t, seen, "rl_theory")
		assert.Contains(t, seen, "ml_theory")
	})

	t.Run("n larger than vector returns everything", func(t *testing.T) {
		assert.Len(t, NewVector().WeakestN(50), 10)
	})

	t.Run("empty vector", func(t *testing.T) {
		v := &Vector{Skills: map[string]float64{}}
		assert.Empty(t, v.WeakestN(3))
		_, ok := v.Weakest()
		assert.False(t, ok)
	})
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zap.NewNop())

	t.Run("missing file yields defaults", func(t *testing.T) {
		v := store.Load()
		assert.Equal(t, NewVector().Skills, v.Skills)
	})

	t.Run("save then load preserves scores", func(t *testing.T) {
		v := NewVector()
		v.ApplyIssue("code_bug")
		require.NoError(t, store.Save(v))

		loaded := store.Load()
		assert.InDelta(t, 0.47, loaded.Skills["coding_debugging"], 1e-9)
	})
}
