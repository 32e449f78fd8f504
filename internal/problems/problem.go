// Package problems manages practice problems: flat-file persistence,
// model-driven generation, weakest-skill selection, and a background
// prefetch queue.
package problems

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Problem is one practice problem. Difficulty is in [0, 1].
type Problem struct {
	ID             string  `json:"id"`
	Topic          string  `json:"topic"`
	Difficulty     float64 `json:"difficulty"`
	Statement      string  `json:"statement"`
	SolutionSketch string  `json:"solution_sketch"`
}

// UnmarshalJSON tolerates models returning solution_sketch as an array or
// object instead of the requested string, flattening either into one string.
func (p *Problem) UnmarshalJSON(data []byte) error {
	type alias Problem
	aux := struct {
		*alias
		SolutionSketch json.RawMessage `json:"solution_sketch"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.SolutionSketch = flattenSketch(aux.SolutionSketch)
	return nil
}

func flattenSketch(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, flattenSketch(item))
		}
		return strings.Join(parts, "\n")
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s, ok := obj[k].(string); ok {
				parts = append(parts, fmt.Sprintf("%s: %s", k, s))
			}
		}
		return strings.Join(parts, "\n")
	}

	return string(raw)
}
