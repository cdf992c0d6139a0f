package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/auth"
	"github.com/fwojciec/vertex/mock"
	"github.com/fwojciec/vertex/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Post(t *testing.T) {
	t.Parallel()

	t.Run("sends json with bearer token", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"a":1}`, string(body))
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		c := &transport.Client{Tokens: auth.Static("tok"), Provider: "test"}
		resp, err := c.Post(context.Background(), srv.URL, map[string]int{"a": 1})
		require.NoError(t, err)
		data, err := c.ReadBody(context.Background(), resp)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(data))
	})

	t.Run("missing token provider", func(t *testing.T) {
		t.Parallel()
		c := &transport.Client{Provider: "test"}
		_, err := c.Post(context.Background(), "http://unused", nil)
		assert.Equal(t, vertex.KindAuthentication, vertex.KindOf(err))
		assert.ErrorIs(t, err, vertex.ErrNoTokenProvider)
	})

	t.Run("token failure is an authentication error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("expired")
		c := &transport.Client{
			Provider: "test",
			Tokens: &mock.TokenProvider{TokenFn: func(ctx context.Context) (string, error) {
				return "", wantErr
			}},
		}
		_, err := c.Post(context.Background(), "http://unused", nil)
		assert.Equal(t, vertex.KindAuthentication, vertex.KindOf(err))
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()
		c := &transport.Client{Tokens: auth.Static("tok"), Provider: "test"}
		_, err := c.Post(context.Background(), "http://unused", make(chan int))
		assert.Equal(t, vertex.KindInvalidArgument, vertex.KindOf(err))
	})

	t.Run("status error uses provider body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`quota|Quota exceeded`))
		}))
		defer srv.Close()

		c := &transport.Client{
			Tokens:   auth.Static("tok"),
			Provider: "test",
			ErrorBody: func(body []byte) (string, string, bool) {
				return "quota", "Quota exceeded", string(body) == "quota|Quota exceeded"
			},
		}
		_, err := c.Post(context.Background(), srv.URL, nil)
		var verr *vertex.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, vertex.KindResourceExhausted, verr.Kind)
		assert.Equal(t, 429, verr.Status)
		assert.Equal(t, "quota", verr.Code)
		assert.Equal(t, "Quota exceeded", verr.Message)
	})

	t.Run("status error falls back to raw body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream down\n"))
		}))
		defer srv.Close()

		c := &transport.Client{Tokens: auth.Static("tok"), Provider: "test"}
		_, err := c.Post(context.Background(), srv.URL, nil)
		var verr *vertex.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, vertex.KindUnavailable, verr.Kind)
		assert.Equal(t, "upstream down", verr.Message)
	})

	t.Run("send failure is a request error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := &transport.Client{Tokens: auth.Static("tok"), Provider: "test"}
		_, err := c.Post(context.Background(), url, nil)
		assert.Equal(t, vertex.KindRequest, vertex.KindOf(err))
	})

	t.Run("deadline", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		c := &transport.Client{Tokens: auth.Static("tok"), Provider: "test"}
		_, err := c.Post(ctx, srv.URL, nil)
		assert.Equal(t, vertex.KindDeadlineExceeded, vertex.KindOf(err))
	})
}

func TestCloseOnDone(t *testing.T) {
	t.Parallel()

	t.Run("closes on cancel", func(t *testing.T) {
		t.Parallel()
		body := mock.Chunks("x")
		ctx, cancel := context.WithCancel(context.Background())
		stop := transport.CloseOnDone(ctx, body)
		defer stop()
		cancel()
		assert.Eventually(t, body.Closed, time.Second, 5*time.Millisecond)
	})

	t.Run("stop releases the watcher", func(t *testing.T) {
		t.Parallel()
		body := mock.Chunks("x")
		ctx, cancel := context.WithCancel(context.Background())
		stop := transport.CloseOnDone(ctx, body)
		assert.True(t, stop())
		cancel()
		assert.False(t, body.Closed())
	})
}

func TestModelURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"https://us-central1-aiplatform.googleapis.com/v1/projects/p/locations/us-central1/publishers/google/models/gemini-2.0-flash-001:streamGenerateContent",
		transport.ModelURL("", "p", "us-central1", "google", "gemini-2.0-flash-001", "streamGenerateContent"))
	assert.Equal(t,
		"http://127.0.0.1:1/v1/projects/p/locations/us-east5/publishers/anthropic/models/m:rawPredict",
		transport.ModelURL("http://127.0.0.1:1/", "p", "us-east5", "anthropic", "m", "rawPredict"))
}
