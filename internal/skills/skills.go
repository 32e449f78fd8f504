// Package skills tracks the learner's per-topic proficiency as a vector of
// scores in [0, 1], adjusted by proof feedback and used to bias problem
// selection toward weak areas.
package skills

import (
	"math"
	"math/rand"
	"sort"
)

// Default topics, all starting at the midpoint.
var defaultTopics = []string{
	"rl_theory",
	"ml_theory",
	"ai_research",
	"coding_debugging",
	"algorithms",
	"production_engineering",
	"analysis_math",
	"putnam_competition",
	"proof_strategy",
	"logical_reasoning",
}

// Vector maps skill topics to scores in [0, 1].
type Vector struct {
	Skills map[string]float64 `json:"skills"`
}

// NewVector returns a vector with every default topic at 0.5.
func NewVector() *Vector {
	skills := make(map[string]float64, len(defaultTopics))
	for _, topic := range defaultTopics {
		skills[topic] = 0.5
	}
	return &Vector{Skills: skills}
}

// issuePenalties maps a proof issue type to the topics it penalizes.
var issuePenalties = map[string][]struct {
	topic string
	delta float64
}{
	"missing_justification": {{"proof_strategy", 0.02}},
	"incorrect_logic":       {{"logical_reasoning", 0.03}},
	"wrong_definition":      {{"analysis_math", 0.02}},
	"math_gaps":             {{"analysis_math", 0.03}, {"putnam_competition", 0.02}},
	"rl_math_error":         {{"rl_theory", 0.03}},
	"ml_derivation_error":   {{"ml_theory", 0.03}},
	"code_bug":              {{"coding_debugging", 0.03}},
	"faulty_logic":          {{"logical_reasoning", 0.02}},
	"misuse_of_theorem":     {{"proof_strategy", 0.02}},
	"undefined_term":        {{"analysis_math", 0.02}},
}

// ApplyIssue lowers the scores associated with one proof issue type. Unknown
// issue types are ignored.
func (v *Vector) ApplyIssue(issueType string) {
	for _, p := range issuePenalties[issueType] {
		v.adjust(p.topic, -p.delta)
	}
}

// ApplyAssessment raises scores for answered follow-up questions.
func (v *Vector) ApplyAssessment(assessment string) {
	switch assessment {
	case "correct":
		v.adjust("logical_reasoning", 0.01)
	case "partially_correct":
		v.adjust("proof_strategy", 0.005)
	}
}

// RewardPerfect raises the given topic for a proof with no issues and no
// follow-up questions, with smaller rewards for the two general proof skills.
func (v *Vector) RewardPerfect(topic string) {
	v.adjust(topic, 0.02)
	v.adjust("proof_strategy", 0.01)
	v.adjust("logical_reasoning", 0.01)
}

func (v *Vector) adjust(topic string, delta float64) {
	score, ok := v.Skills[topic]
	if !ok {
		return
	}
	v.Skills[topic] = clamp(score + delta)
}

func clamp(x float64) float64 {
	return math.Min(1.0, math.Max(0.0, x))
}

// Entry is one (topic, score) pair.
type Entry struct {
	Topic string
	Score float64
}

// Weakest returns the lowest-scored topic, choosing uniformly among ties.
func (v *Vector) Weakest() (Entry, bool) {
	weakest := v.WeakestN(1)
	if len(weakest) == 0 {
		return Entry{}, false
	}
	return weakest[0], true
}

// WeakestN returns the n lowest-scored topics, weakest first. Topics with
// equal scores are ordered randomly so repeated calls spread attention across
// equally weak areas.
func (v *Vector) WeakestN(n int) []Entry {
	if len(v.Skills) == 0 || n <= 0 {
		return nil
	}

	entries := make([]Entry, 0, len(v.Skills))
	for topic, score := range v.Skills {
		entries = append(entries, Entry{Topic: topic, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Topic < entries[j].Topic
	})

	// Shuffle within each group of equal scores.
	for i := 0; i < len(entries); {
		j := i + 1
		for j < len(entries) && entries[j].Score == entries[i].Score {
			j++
		}
		group := entries[i:j]
		rand.Shuffle(len(group), func(a, b int) {
			group[a], group[b] = group[b], group[a]
		})
		i = j
	}

	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n]
}
