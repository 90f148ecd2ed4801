package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aruna-wellness/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetricForwardsCredential(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"avg_hours": 7.1}`))
	}))
	defer server.Close()

	client := NewDataAPIClient(server.URL, logger.NewTestLogger())
	data, err := client.FetchMetric(context.Background(), "sleep", "token-123")

	require.NoError(t, err)
	assert.Equal(t, "/api/sleep", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.JSONEq(t, `{"avg_hours": 7.1}`, string(data))
}

func TestFetchMetricStatusMapping(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "401 maps to unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "403 maps to unauthorized", status: http.StatusForbidden, wantErr: ErrUnauthorized},
		{name: "500 maps to upstream error", status: http.StatusInternalServerError, wantErr: ErrUpstream},
		{name: "404 maps to upstream error", status: http.StatusNotFound, wantErr: ErrUpstream},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewDataAPIClient(server.URL, logger.NewTestLogger())
			_, err := client.FetchMetric(context.Background(), "sleep", "token-123")
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestFetchMetricWithoutCredentialFailsClosed(t *testing.T) {
	// No server: the call must fail before any network activity.
	client := NewDataAPIClient("http://127.0.0.1:0", logger.NewTestLogger())
	_, err := client.FetchMetric(context.Background(), "sleep", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}
