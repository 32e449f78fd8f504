package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Run("strips code fences", func(t *testing.T) {
		got := Sanitize("```json\n{\"a\": 1}\n```")
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("removes latex markers", func(t *testing.T) {
		got := Sanitize(`the value \(n\) satisfies \[n > 0\]`)
		assert.Equal(t, "the value n satisfies n > 0", got)
	})

	t.Run("normalizes smart quotes", func(t *testing.T) {
		got := Sanitize("{“answer”: “yes”}")
		assert.Equal(t, `{"answer": "yes"}`, got)
	})

	t.Run("removes trailing commas", func(t *testing.T) {
		got := Sanitize(`{"a": 1, "b": [1, 2,],}`)
		assert.Equal(t, `{"a": 1, "b": [1, 2]}`, got)
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		got := Sanitize("a   b\n\n\tc")
		assert.Equal(t, "a b c", got)
	})
}

func TestRemoveTrailingCommas_StringAware(t *testing.T) {
	// A comma before a brace inside a string literal must survive.
	in := `{"text": "a,}", "n": 1,}`
	got := RemoveTrailingCommas(in)
	assert.Equal(t, `{"text": "a,}", "n": 1}`, got)
}

func TestIsTruncated(t *testing.T) {
	t.Run("empty is not truncated", func(t *testing.T) {
		assert.False(t, IsTruncated(""))
		assert.False(t, IsTruncated("   \n"))
	})

	t.Run("structural last char", func(t *testing.T) {
		assert.True(t, IsTruncated(`{"a": 1,`))
		assert.True(t, IsTruncated(`{"a": [`))
		assert.True(t, IsTruncated(`{"a":`))
		assert.True(t, IsTruncated(`{"a": "val`+`"`))
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		assert.True(t, IsTruncated(`{"a": {"b": 1}`))
		assert.True(t, IsTruncated(`{"a": [1, 2] "b": [3`+`]`)) // unclosed object
	})

	t.Run("complete object is fine", func(t *testing.T) {
		assert.False(t, IsTruncated(`{"a": 1}`))
		assert.False(t, IsTruncated(`{"a": {"b": [1, 2]}}`))
	})

	t.Run("braces inside strings do not count", func(t *testing.T) {
		assert.False(t, IsTruncated(`{"text": "open { and ["}`))
		assert.False(t, IsTruncated(`{"text": "escaped \" quote"}`))
	})
}

func TestFixUnescapedBackslashes(t *testing.T) {
	t.Run("escapes latex commands in strings", func(t *testing.T) {
		in := `{"expr": "a \pmod b"}`
		got := FixUnescapedBackslashes(in)
		assert.True(t, json.Valid([]byte(got)), "got: %s", got)
	})

	t.Run("keeps valid escapes", func(t *testing.T) {
		in := `{"s": "line\nbreak \"quoted\" é"}`
		assert.Equal(t, in, FixUnescapedBackslashes(in))
	})

	t.Run("handles trailing backslash", func(t *testing.T) {
		got := FixUnescapedBackslashes(`{"s": "x\`)
		assert.Equal(t, `{"s": "x\\`, got)
	})
}

func TestFirstObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, FirstObject(`noise {"a":1} more`))
	assert.Equal(t, `{"a": "{not it}"}`, FirstObject(`x {"a": "{not it}"} y`))
	assert.Equal(t, `{"a": 1`, FirstObject(`pre {"a": 1`)) // unterminated
	assert.Equal(t, "no json here", FirstObject("no json here"))
}

func TestExtractJSON(t *testing.T) {
	t.Run("clean json passes through", func(t *testing.T) {
		got, err := ExtractJSON(` {"a": 1} `)
		require.NoError(t, err)
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("is idempotent on valid json", func(t *testing.T) {
		first, err := ExtractJSON(`{"a": 1, "b": {"c": [1,2]}}`)
		require.NoError(t, err)
		second, err := ExtractJSON(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("fenced block with trailing comma", func(t *testing.T) {
		got, err := ExtractJSON("prefix ```json\n{\"a\":1,}\n``` suffix")
		require.NoError(t, err)
		var m map[string]int
		require.NoError(t, json.Unmarshal([]byte(got), &m))
		assert.Equal(t, map[string]int{"a": 1}, m)
	})

	t.Run("trailing comma object", func(t *testing.T) {
		got, err := ExtractJSON(`{"k":"v",}`)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal([]byte(got), &m))
		assert.Equal(t, "v", m["k"])
	})

	t.Run("unterminated fence", func(t *testing.T) {
		got, err := ExtractJSON("```json\n{\"a\": 1}\nthe model kept talking")
		require.NoError(t, err)
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("object buried in prose", func(t *testing.T) {
		got, err := ExtractJSON(`Sure! Here is the result you asked for: {"answer": 42} hope it helps`)
		require.NoError(t, err)
		assert.Equal(t, `{"answer": 42}`, got)
	})

	t.Run("braces in string values", func(t *testing.T) {
		in := `reply: {"code": "if x { return } // }"} done`
		got, err := ExtractJSON(in)
		require.NoError(t, err)
		assert.Equal(t, `{"code": "if x { return } // }"}`, got)
	})

	t.Run("invalid backslash escapes recovered", func(t *testing.T) {
		got, err := ExtractJSON(`{"expr": "n \equiv 1"}`)
		require.NoError(t, err)
		assert.True(t, json.Valid([]byte(got)))
	})

	t.Run("no json at all fails with preview", func(t *testing.T) {
		_, err := ExtractJSON("I cannot answer that question.")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "text length")
	})
}
