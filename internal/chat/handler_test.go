package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aruna-wellness/backend/internal/llm"
	"github.com/aruna-wellness/backend/internal/logger"
	"github.com/aruna-wellness/backend/internal/schedule"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolCall(name, args string) llm.ToolCall {
	var tc llm.ToolCall
	tc.ID = "call_1"
	tc.Type = "function"
	tc.Function.Name = name
	tc.Function.Arguments = args
	return tc
}

func newTestHandler(t *testing.T, model ChatModel, source schedule.Source) *Handler {
	t.Helper()
	catalog, err := NewCatalog()
	require.NoError(t, err)
	router := NewRouter(model, catalog, logger.NewTestLogger())
	queries := &mockQuerier{products: testProducts(), practitioners: testPractitioners()}
	if source == nil {
		source = &mockScheduleSource{}
	}
	dispatcher := NewDispatcher(catalog, queries, source, &mockAggregator{}, model, logger.NewTestLogger())
	return NewHandler(router, dispatcher, logger.NewTestLogger())
}

func doChat(t *testing.T, h *Handler, body, bearer string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("requestID", "test-request")
	return rec, h.HandleChat(c)
}

func TestHandleChatScheduleNextEndToEnd(t *testing.T) {
	model := &scriptedModel{results: []*llm.ChatResult{
		{ToolCalls: []llm.ToolCall{toolCall(fnScheduleLookup, `{"timing": "next"}`)}},
	}}
	source := &mockScheduleSource{activities: []schedule.Activity{
		{ID: "a1", Title: "Morning Yoga", Category: "fitness", Time: time.Now().Add(3 * time.Hour), Status: "pending"},
	}}
	h := newTestHandler(t, model, source)

	rec, err := doChat(t, h, `{"question": "What's next on my schedule?"}`, "token-123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.True(t, strings.HasPrefix(reply.Text, "Here is your next activity:"))
	require.Len(t, reply.ScheduleActivities, 1)
	assert.Equal(t, "Morning Yoga", reply.ScheduleActivities[0].Title)

	// The routing call carried the full catalog and the routing limits.
	require.NotEmpty(t, model.requests)
	assert.Len(t, model.requests[0].Tools, 4)
	assert.Equal(t, 800, model.requests[0].MaxTokens)
	assert.InDelta(t, 0.7, model.requests[0].Temperature, 0.0001)
}

func TestHandleChatProductPurchaseEndToEnd(t *testing.T) {
	model := &scriptedModel{results: []*llm.ChatResult{
		{ToolCalls: []llm.ToolCall{toolCall(fnProductSearch, `{"keywords": "ashwagandha", "count": 3}`)}},
	}}
	h := newTestHandler(t, model, nil)

	rec, err := doChat(t, h, `{"question": "I want to buy ashwagandha"}`, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "Ashwagandha Root Capsules", reply.Products[0].Name)
	assert.Equal(t, productsLeadIn, reply.Text)
}

func TestHandleChatFreeTextOnly(t *testing.T) {
	model := &scriptedModel{results: []*llm.ChatResult{
		{Text: "Ashwagandha is a calming adaptogen."},
	}}
	h := newTestHandler(t, model, nil)

	rec, err := doChat(t, h, `{"question": "What is ashwagandha?"}`, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Ashwagandha is a calming adaptogen.", reply.Text)
	assert.Empty(t, reply.Products)
	assert.Empty(t, reply.ScheduleActivities)
}

func TestHandleChatRoutingFailureReturns500WithText(t *testing.T) {
	model := &scriptedModel{errs: []error{llm.ErrModelUnavailable}}
	h := newTestHandler(t, model, nil)

	rec, err := doChat(t, h, `{"question": "hello"}`, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["text"])
}

func TestHandleChatMissingQuestionIsBadRequest(t *testing.T) {
	h := newTestHandler(t, &scriptedModel{}, nil)

	testCases := []struct {
		name string
		body string
	}{
		{name: "empty body", body: `{}`},
		{name: "blank question", body: `{"question": "   "}`},
		{name: "wrong type", body: `{"question": 42}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := doChat(t, h, tc.body, "")
			require.Error(t, err)
			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "missing header", header: "", want: ""},
		{name: "non-bearer scheme", header: "Basic abc123", want: ""},
		{name: "trailing whitespace trimmed", header: "Bearer abc123  ", want: "abc123"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, BearerToken(req))
		})
	}
}
