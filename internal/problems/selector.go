package problems

import (
	"math/rand"
	"strings"

	"github.com/praxislearn/praxis/internal/skills"
)

// Pick chooses the next problem to serve: the easiest problem for the
// learner's weakest skill, chosen uniformly among equal-difficulty ties. If
// no problem matches the weakest skill, the easiest problem overall wins.
func Pick(vector *skills.Vector, pool []Problem) *Problem {
	if len(pool) == 0 {
		return nil
	}

	weakest, ok := vector.Weakest()
	if !ok {
		p := pool[0]
		return &p
	}

	matching := ByTopic(pool, weakest.Topic)
	if len(matching) > 0 {
		return easiestOf(matching)
	}
	return easiestOf(pool)
}

// ByTopic filters problems to an exact (whitespace-trimmed) topic match.
func ByTopic(pool []Problem, topic string) []Problem {
	topic = strings.TrimSpace(topic)
	var out []Problem
	for _, p := range pool {
		if strings.TrimSpace(p.Topic) == topic {
			out = append(out, p)
		}
	}
	return out
}

func easiestOf(pool []Problem) *Problem {
	minDiff := pool[0].Difficulty
	for _, p := range pool[1:] {
		if p.Difficulty < minDiff {
			minDiff = p.Difficulty
		}
	}

	var easiest []Problem
	for _, p := range pool {
		if p.Difficulty == minDiff {
			easiest = append(easiest, p)
		}
	}

	p := easiest[rand.Intn(len(easiest))]
	return &p
}
