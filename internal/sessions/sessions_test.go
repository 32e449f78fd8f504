package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaveAndLoadAll(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())

	t.Run("empty store", func(t *testing.T) {
		records, err := store.LoadAll()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("records come back oldest first", func(t *testing.T) {
		newer := Record{ProblemID: "p2", Skill: "algorithms", Timestamp: 200}
		older := Record{ProblemID: "p1", Skill: "algorithms", Timestamp: 100}
		require.NoError(t, store.Save(&newer))
		require.NoError(t, store.Save(&older))

		assert.NotEmpty(t, newer.SessionID, "missing id is assigned on save")
		assert.NotEqual(t, newer.SessionID, older.SessionID)

		records, err := store.LoadAll()
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "p1", records[0].ProblemID)
		assert.Equal(t, "p2", records[1].ProblemID)
	})
}

func TestRecentSuccessRate(t *testing.T) {
	save := func(t *testing.T, store *Store, skill, eval string, before, after float64, ts int64) {
		t.Helper()
		require.NoError(t, store.Save(&Record{
			Skill: skill, EvalSummary: eval,
			SkillBefore: before, SkillAfter: after, Timestamp: ts,
		}))
	}

	t.Run("fewer than three sessions is neutral", func(t *testing.T) {
		store := NewStore(t.TempDir(), zap.NewNop())
		save(t, store, "algorithms", "correct", 0.5, 0.51, 1)
		save(t, store, "algorithms", "correct", 0.51, 0.52, 2)

		rate, err := store.RecentSuccessRate("algorithms", 10)
		require.NoError(t, err)
		assert.Equal(t, 0.5, rate)
	})

	t.Run("counts successful sessions", func(t *testing.T) {
		store := NewStore(t.TempDir(), zap.NewNop())
		save(t, store, "algorithms", "solid work", 0.5, 0.52, 1)
		save(t, store, "algorithms", "incorrect application", 0.52, 0.49, 2)
		save(t, store, "algorithms", "good", 0.49, 0.50, 3)
		save(t, store, "rl_theory", "good", 0.5, 0.51, 4) // different skill, ignored

		rate, err := store.RecentSuccessRate("algorithms", 10)
		require.NoError(t, err)
		assert.InDelta(t, 2.0/3.0, rate, 1e-9)
	})

	t.Run("only the last n sessions count", func(t *testing.T) {
		store := NewStore(t.TempDir(), zap.NewNop())
		save(t, store, "algorithms", "failed badly", 0.5, 0.4, 1)
		save(t, store, "algorithms", "good", 0.4, 0.41, 2)
		save(t, store, "algorithms", "good", 0.41, 0.42, 3)
		save(t, store, "algorithms", "good", 0.42, 0.43, 4)

		rate, err := store.RecentSuccessRate("algorithms", 3)
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)
	})
}
