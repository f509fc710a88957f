package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbook-tech/go-backend/internal/cfg"
	"github.com/lookbook-tech/go-backend/internal/usecase"
	"github.com/lookbook-tech/go-backend/pkg/e"
	"github.com/lookbook-tech/go-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string, vectorSize, maxRetries int) *Client {
	t.Helper()

	return NewClient(&cfg.AnalysisCfg{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	}, vectorSize, logger.NewNoop())
}

func testImage() usecase.ProductImage {
	return usecase.ProductImage{
		Data:     []byte("fake-jpeg-bytes"),
		MimeType: "image/jpeg",
		Size:     15,
		Name:     "sneaker.jpg",
	}
}

func TestClient_Analyze(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "sneaker.jpg", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-jpeg-bytes"), data)

		json.NewEncoder(w).Encode(map[string]any{
			"filename":       header.Filename,
			"vector":         []float32{0.1, 0.2, 0.3},
			"suggested_tags": []string{"shoe", "red"},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 3, 1)

	res, err := client.Analyze(context.Background(), usecase.NewAnalyzeReq(testImage()))
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, res.Vector)
	assert.Equal(t, []string{"shoe", "red"}, res.Tags)
}

func TestClient_Analyze_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"vector":         []float32{1, 0},
			"suggested_tags": []string{},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2, 3)

	res, err := client.Analyze(context.Background(), usecase.NewAnalyzeReq(testImage()))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	assert.Equal(t, []float32{1, 0}, res.Vector)
}

func TestClient_Analyze_UnavailableAfterRetries(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 2, 2)

	_, err := client.Analyze(context.Background(), usecase.NewAnalyzeReq(testImage()))
	require.ErrorIs(t, err, e.ErrAnalysisUnavailable)
	assert.Equal(t, 2, calls)
}

func TestClient_Analyze_RejectedNoRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "client error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "empty vector",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"vector":         []float32{},
					"suggested_tags": []string{"shoe"},
				})
			},
		},
		{
			name: "wrong vector size",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"vector":         []float32{1, 2, 3, 4, 5},
					"suggested_tags": []string{},
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				tt.handler(w, r)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, 2, 3)

			_, err := client.Analyze(context.Background(), usecase.NewAnalyzeReq(testImage()))
			require.ErrorIs(t, err, e.ErrAnalysisRejected)
			assert.Equal(t, 1, calls, "rejection must not be retried")
		})
	}
}

func TestClient_Analyze_EmptyImage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:1", 2, 1)

	_, err := client.Analyze(context.Background(), usecase.NewAnalyzeReq(usecase.ProductImage{}))
	require.ErrorIs(t, err, e.ErrNoImage)
}
