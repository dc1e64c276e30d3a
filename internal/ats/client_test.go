package ats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(retries int) *Client {
	return NewClient(ClientConfig{
		MaxRetries:        retries,
		RequestsPerSecond: 1000,
		Burst:             100,
		BaseBackoff:       time.Millisecond,
		Timeout:           2 * time.Second,
	}, nil)
}

func TestClient_GetJSON(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"acme"}`))
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := testClient(0).GetJSON(context.Background(), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "acme", out.Name)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClient_RetryOnTransientStatus(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		retries   int
		wantErr   bool
		retryable bool
		wantCalls int32
	}{
		{
			name:      "recovers after 503",
			statuses:  []int{http.StatusServiceUnavailable, http.StatusOK},
			retries:   2,
			wantCalls: 2,
		},
		{
			name:      "recovers after 429",
			statuses:  []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK},
			retries:   2,
			wantCalls: 3,
		},
		{
			name:      "gives up after max retries",
			statuses:  []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway},
			retries:   2,
			wantErr:   true,
			retryable: true,
			wantCalls: 3,
		},
		{
			name:      "404 is permanent",
			statuses:  []int{http.StatusNotFound, http.StatusOK},
			retries:   2,
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "403 is permanent",
			statuses:  []int{http.StatusForbidden, http.StatusOK},
			retries:   2,
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tt.statuses[int(n)-1]
				if status != http.StatusOK {
					w.WriteHeader(status)
					return
				}
				_, _ = w.Write([]byte(`[]`))
			}))
			defer srv.Close()

			var out []any
			err := testClient(tt.retries).GetJSON(context.Background(), srv.URL, &out)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.retryable, IsRetryable(err))

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.statuses[0], statusErr.Code)
		})
	}
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var out []any
	err := testClient(3).GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, ErrBoardNotFound)
	assert.False(t, IsRetryable(err))
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out []any
	err := testClient(3).GetJSON(ctx, srv.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out []any
	err := testClient(2).GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
}
