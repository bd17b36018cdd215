package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/mindtrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferenceClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.InferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "some text", req.Text)

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(models.InferenceResponse{
			Label:         "LABEL_1",
			Confidence:    0.9,
			Probabilities: map[string]float64{"Normal": 0.1, "Stressed/Depressed": 0.9},
		})
	}))
	defer srv.Close()

	client := NewInferenceClient(srv.URL+"/predict", time.Second).WithRetry(5, time.Millisecond)

	resp, err := client.Classify(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "LABEL_1", resp.Label)
	assert.Equal(t, int32(3), calls.Load())
}

func TestInferenceClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewInferenceClient(srv.URL, time.Second).WithRetry(2, time.Millisecond)

	_, err := client.Classify(context.Background(), "text")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInferenceClientClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewInferenceClient(srv.URL, time.Second).WithRetry(3, time.Millisecond)

	_, err := client.Classify(context.Background(), "text")
	assert.ErrorContains(t, err, "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestInferenceClientHealthCheck(t *testing.T) {
	healthy := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := NewInferenceClient(srv.URL+"/predict?x=1", time.Second)

	assert.False(t, client.HealthCheck(context.Background()))
	healthy.Store(true)
	assert.True(t, client.HealthCheck(context.Background()))
}

func TestRedditClientRefreshesOnUnauthorized(t *testing.T) {
	var tokens atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", id)
		assert.Equal(t, "secret", secret)

		n := tokens.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok%d","token_type":"bearer","expires_in":3600}`, n)
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer apiSrv.Close()

	rc := NewRedditClient(&http.Client{Timeout: time.Second}, "id", "secret", tokenSrv.URL)
	req, err := http.NewRequest(http.MethodGet, apiSrv.URL+"/comments/abc", nil)
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), tokens.Load())
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE")))
}
