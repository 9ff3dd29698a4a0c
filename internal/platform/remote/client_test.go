package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesSuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"name":"Laptop"}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient("catalog", srv.URL+"/")
	var out struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, client.Get(context.Background(), "/api/products/1", &out))
	assert.Equal(t, int64(1), out.ID)
	assert.Equal(t, "Laptop", out.Name)
}

func TestClientClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		detail string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", want: ErrUnavailable, detail: "boom"},
		{name: "throttled", status: http.StatusTooManyRequests, want: ErrUnavailable},
		{name: "conflict", status: http.StatusConflict, body: `{"title":"Conflict","detail":"not enough stock"}`, want: ErrRejected, detail: "not enough stock"},
		{name: "not found", status: http.StatusNotFound, body: `{"title":"Not Found"}`, want: ErrRejected, detail: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			err := NewClient("catalog", srv.URL).Get(context.Background(), "/x", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var remoteErr *Error
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tt.status, remoteErr.StatusCode)
			assert.Equal(t, tt.detail, remoteErr.Detail)
		})
	}
}

func TestClientNotFoundHelper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	err := NewClient("catalog", srv.URL).Get(context.Background(), "/api/clients/9", nil)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindRejected, KindOf(err))
}

func TestClientTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	err := NewClient("payments", srv.URL, WithTimeout(20*time.Millisecond)).Post(context.Background(), "/api/payments", map[string]any{"orderId": 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsTimeout(err))
}

func TestClientUnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient("catalog", url).Get(context.Background(), "/api/products/1", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestClientUndecodableBodyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	t.Cleanup(srv.Close)

	var out map[string]any
	err := NewClient("catalog", srv.URL).Get(context.Background(), "/x", &out)
	assert.ErrorIs(t, err, ErrUnavailable)
}
