package polygon

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func setupTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		apiKey:  "test_api_key",
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}

	return c, server
}

func TestGetAggs(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/aggs/ticker/C:EURUSD/range/15/minute/2025-05-01/2025-05-02", r.URL.Path)
			assert.Equal(t, "test_api_key", r.URL.Query().Get("apiKey"))
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			assert.Equal(t, "asc", r.URL.Query().Get("sort"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"ticker": "C:EURUSD",
				"resultsCount": 2,
				"status": "OK",
				"results": [
					{"t": 1746086400000, "o": 1.084, "h": 1.085, "l": 1.0835, "c": 1.0845, "v": 1200},
					{"t": 1746087300000, "o": 1.0845, "h": 1.086, "l": 1.084, "c": 1.0855, "v": 980}
				]
			}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		aggs, err := c.GetAggs("C:EURUSD", 15, "minute", "2025-05-01", "2025-05-02", 100)

		assert.NoError(t, err)
		assert.Len(t, aggs, 2)
		assert.Equal(t, int64(1746086400000), aggs[0].Timestamp)
		assert.Equal(t, 1.084, aggs[0].Open)
		assert.Equal(t, 1.0855, aggs[1].Close)
		assert.Equal(t, 980.0, aggs[1].Volume)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status": "ERROR", "error": "Unknown API Key"}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		aggs, err := c.GetAggs("C:EURUSD", 1, "hour", "2025-05-01", "2025-05-02", 100)

		assert.Error(t, err)
		assert.Nil(t, aggs)
		assert.Contains(t, err.Error(), "aggs request for C:EURUSD failed")
	})

	t.Run("EmptyResults", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ticker": "C:AUDNZD", "resultsCount": 0, "status": "OK"}`))
		})

		c, server := setupTestClient(handler)
		defer server.Close()

		aggs, err := c.GetAggs("C:AUDNZD", 4, "hour", "2025-05-01", "2025-05-06", 100)

		assert.NoError(t, err)
		assert.Empty(t, aggs)
	})
}
