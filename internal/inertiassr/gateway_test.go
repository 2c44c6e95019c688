package inertiassr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.inout.gg/inertiacore/internal/inertiabase"
)

func TestNewHTTPGateway(t *testing.T) {
	t.Parallel()

	t.Run("panics without a client", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { NewHTTPGateway(nil, nil) })
	})

	t.Run("creates gateway with provided client", func(t *testing.T) {
		t.Parallel()

		gateway := NewHTTPGateway(&http.Client{}, nil)
		assert.NotNil(t, gateway, "gateway should not be nil")
	})
}

func TestGateway_Dispatch(t *testing.T) {
	t.Parallel()

	version := "1"
	page := &inertiabase.Page{
		Component: "Test",
		Props:     map[string]any{"foo": "bar"},
		URL:       "/test",
		Version:   &version,
	}

	t.Run("posts the page and parses string head", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			buf, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.JSONEq(t,
				`{"component":"Test","props":{"foo":"bar"},"url":"/test","version":"1"}`,
				string(buf))

			w.Header().Set("Content-Type", "application/json")
			assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"head": "<title>Test</title>",
				"body": "<div>Content</div>",
			}))
		}))
		defer server.Close()

		gateway := NewHTTPGateway(server.Client(), nil)
		result, err := gateway.Dispatch(t.Context(), page, server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<title>Test</title>", result.Head)
		assert.Equal(t, "<div>Content</div>", result.Body)
	})

	t.Run("joins list head", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, err := w.Write([]byte(`{"head":["<title>A</title>","<meta name=\"x\">"],"body":"<p>b</p>"}`))
			assert.NoError(t, err)
		}))
		defer server.Close()

		result, err := NewHTTPGateway(server.Client(), nil).Dispatch(t.Context(), page, server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<title>A</title>\n<meta name=\"x\">", result.Head)
		assert.Equal(t, "<p>b</p>", result.Body)
	})

	t.Run("missing head is empty", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, err := w.Write([]byte(`{"body":"<p>b</p>"}`))
			assert.NoError(t, err)
		}))
		defer server.Close()

		result, err := NewHTTPGateway(server.Client(), nil).Dispatch(t.Context(), page, server.URL)

		require.NoError(t, err)
		assert.Empty(t, result.Head)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		result, err := NewHTTPGateway(server.Client(), nil).Dispatch(t.Context(), page, server.URL)
		require.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.Nil(t, result)
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, err := w.Write([]byte("invalid json"))
			assert.NoError(t, err)
		}))
		defer server.Close()

		_, err := NewHTTPGateway(server.Client(), nil).Dispatch(t.Context(), page, server.URL)
		assert.Error(t, err)
	})

	t.Run("invalid URL", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPGateway(http.DefaultClient, nil).Dispatch(t.Context(), page, "invalid-url")
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		_, err := NewHTTPGateway(server.Client(), nil).Dispatch(ctx, page, server.URL)
		require.Error(t, err)
		assert.Equal(t, OutcomeTimeout, Outcome(err))
	})
}

func TestGateway_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "inertia")

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"head":"","body":"<p></p>"}`))
	}))
	defer ok.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	gateway := NewHTTPGateway(http.DefaultClient, &Config{Metrics: metrics})
	page := &inertiabase.Page{Component: "Test", URL: "/"}

	_, err := gateway.Dispatch(t.Context(), page, ok.URL)
	require.NoError(t, err)

	_, err = gateway.Dispatch(t.Context(), page, bad.URL)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Dispatches(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Dispatches(OutcomeBadStatus)), 0)

	// Registering again reuses the same collectors.
	again := NewMetrics(reg, "inertia")
	assert.InDelta(t, 1, testutil.ToFloat64(again.Dispatches(OutcomeSuccess)), 0)
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSuccess},
		{context.DeadlineExceeded, OutcomeTimeout},
		{context.Canceled, OutcomeCanceled},
		{ErrUnexpectedStatus, OutcomeBadStatus},
		{io.EOF, OutcomeError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}
