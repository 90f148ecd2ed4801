package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aruna-wellness/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyScheduleForwardsCredential(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"activities": [
			{"id": "a1", "title": "Morning yoga", "category": "yoga", "time": "2026-03-10T07:00:00Z", "status": "pending"}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger.NewTestLogger())
	activities, err := client.DailySchedule(context.Background(), "token-123")

	require.NoError(t, err)
	assert.Equal(t, "/api/daily-schedule", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	require.Len(t, activities, 1)
	assert.Equal(t, "Morning yoga", activities[0].Title)
	assert.Equal(t, time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC), activities[0].Time)
}

func TestDailyScheduleStatusMapping(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "401 maps to unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized},
		{name: "403 maps to unauthorized", status: http.StatusForbidden, wantErr: ErrUnauthorized},
		{name: "500 maps to upstream error", status: http.StatusInternalServerError, wantErr: ErrUpstream},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, logger.NewTestLogger())
			_, err := client.DailySchedule(context.Background(), "token-123")
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDailyScheduleWithoutCredentialFailsClosed(t *testing.T) {
	// No server: the call must fail before any network activity.
	client := NewClient("http://127.0.0.1:0", logger.NewTestLogger())
	_, err := client.DailySchedule(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}
