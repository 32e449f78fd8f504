package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, zap.NewNop())
}

func TestGenerate(t *testing.T) {
	t.Run("concatenates stream fragments until done", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/generate", r.URL.Path)
			var req struct {
				Model  string `json:"model"`
				Prompt string `json:"prompt"`
				Stream bool   `json:"stream"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "m1", req.Model)
			assert.True(t, req.Stream)

			fmt.Fprintln(w, `{"response":"Hello, ","done":false}`)
			fmt.Fprintln(w, `{"response":"world","done":false}`)
			fmt.Fprintln(w, `{"response":"!","done":true}`)
			fmt.Fprintln(w, `{"response":"ignored after done","done":false}`)
		}))

		got, err := c.Generate(context.Background(), "m1", "greet")
		require.NoError(t, err)
		assert.Equal(t, "Hello, world!", got)
	})

	t.Run("tolerates malformed stream lines", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"response":"ok ","done":false}`)
			fmt.Fprintln(w, `this is not json`)
			fmt.Fprintln(w, `{"response":"fine","done":true}`)
		}))

		got, err := c.Generate(context.Background(), "m1", "p")
		require.NoError(t, err)
		assert.Equal(t, "ok fine", got)
	})

	t.Run("empty response is an error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, `{"response":"","done":true}`)
		}))

		_, err := c.Generate(context.Background(), "m1", "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))

		_, err := c.Generate(context.Background(), "m1", "p")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("context cancellation aborts the request", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The server only observes a client disconnect (and cancels the
			// request context) after the request body has been consumed.
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.Generate(ctx, "m1", "p")
		require.Error(t, err)
	})
}

func TestListTags(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{
			{"name": "qwen2-math:7b"},
			{"name": "deepseek-r1:7b"},
		}})
	}))

	tags, err := c.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "qwen2-math:7b", tags[0].Name)
}

func TestAvailability(t *testing.T) {
	newService := func(t *testing.T, installed []string, pullStatus int) (*AvailabilityService, *int) {
		t.Helper()
		pulls := 0
		mux := http.NewServeMux()
		mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
			tags := make([]map[string]string, 0, len(installed))
			for _, name := range installed {
				tags = append(tags, map[string]string{"name": name})
			}
			json.NewEncoder(w).Encode(map[string]any{"models": tags})
		})
		mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
			pulls++
			w.WriteHeader(pullStatus)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)
		client := NewClient(server.URL, 5*time.Second, zap.NewNop())
		return NewAvailabilityService(client, time.Second, time.Second, zap.NewNop()), &pulls
	}

	t.Run("exact match", func(t *testing.T) {
		s, _ := newService(t, []string{"qwen2-math:7b"}, http.StatusOK)
		assert.True(t, s.Exists(context.Background(), "qwen2-math:7b"))
		assert.False(t, s.Exists(context.Background(), "qwen2.5:7b-instruct"))
	})

	t.Run("prefix match on tag boundary", func(t *testing.T) {
		s, _ := newService(t, []string{"deepseek-r1:7b"}, http.StatusOK)
		assert.True(t, s.Exists(context.Background(), "deepseek-r1"))
		assert.False(t, s.Exists(context.Background(), "deepseek"))
	})

	t.Run("ensure skips pull for installed model", func(t *testing.T) {
		s, pulls := newService(t, []string{"m1"}, http.StatusOK)
		require.NoError(t, s.Ensure(context.Background(), "m1"))
		assert.Equal(t, 0, *pulls)
	})

	t.Run("ensure pulls missing model but stays unavailable", func(t *testing.T) {
		s, pulls := newService(t, nil, http.StatusOK)
		err := s.Ensure(context.Background(), "m1")
		require.Error(t, err)
		assert.Equal(t, 1, *pulls)
		assert.Contains(t, err.Error(), "not yet available")
	})

	t.Run("failed pull surfaces as availability error", func(t *testing.T) {
		s, _ := newService(t, nil, http.StatusInternalServerError)
		err := s.Ensure(context.Background(), "m1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load model")
	})
}
