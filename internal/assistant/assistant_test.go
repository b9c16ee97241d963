package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/errs"
)

func reply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
}

func fail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}, nil)
}

func TestAsk_Generate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotPrompt = body.Contents[0].Parts[0].Text
		reply(w, "```json\n{\"sql\":\"SELECT * FROM users\",\"message\":\"Here you go\",\"action\":\"VIEW_VISUALIZER\",\"visualization\":{\"type\":\"bar\",\"xKey\":\"name\",\"yKey\":\"n\"}}\n```")
	})

	ans, err := c.Ask(context.Background(), Request{
		Prompt:        "all users",
		SchemaContext: map[string]any{"users": []string{"id", "name"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotPrompt, `User Request: "all users"`)
	assert.Contains(t, gotPrompt, `"users": [`)

	assert.Equal(t, ModeGenerate, ans.Mode)
	require.NotNil(t, ans.Suggestion)
	assert.Equal(t, "SELECT * FROM users", ans.Suggestion.SQL)
	assert.Equal(t, "Here you go", ans.Suggestion.Message)
	require.NotNil(t, ans.Suggestion.Action)
	assert.Equal(t, ActionViewVisualizer, *ans.Suggestion.Action)
	assert.Equal(t, &Visualization{Type: "bar", XKey: "name", YKey: "n"}, ans.Suggestion.Visualization)
}

func TestAsk_ExplainReturnsRawText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "# 👋 Query Explanation\n```sql\nSELECT 1\n```")
	})

	ans, err := c.Ask(context.Background(), Request{Prompt: "SELECT 1", Mode: ModeExplain})
	require.NoError(t, err)
	assert.Nil(t, ans.Suggestion)
	assert.Equal(t, "# 👋 Query Explanation\n```sql\nSELECT 1\n```", ans.Explanation)
}

func TestAsk_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			fail(w, http.StatusTooManyRequests, "Resource has been exhausted")
			return
		}
		reply(w, `{"sql":"SELECT 1","message":"ok","action":null}`)
	})

	ans, err := c.Ask(context.Background(), Request{Prompt: "one"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "SELECT 1", ans.Suggestion.SQL)
	assert.Nil(t, ans.Suggestion.Action)
}

func TestAsk_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fail(w, http.StatusTooManyRequests, "Resource has been exhausted")
	})

	_, err := c.Ask(context.Background(), Request{Prompt: "one"})
	require.Error(t, err)
	assert.True(t, errs.IsRateLimited(err))
	assert.Contains(t, err.Error(), "Resource has been exhausted")
	assert.Equal(t, int32(3), calls.Load())
}

func TestAsk_DoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fail(w, http.StatusBadRequest, "API key not valid")
	})

	_, err := c.Ask(context.Background(), Request{Prompt: "one"})
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAsk_NoAPIKey(t *testing.T) {
	c := New(Config{}, nil)
	assert.False(t, c.Enabled())

	_, err := c.Ask(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.Equal(t, "GEMINI_API_KEY not found in environment variables", errs.Message(err))
	assert.Equal(t, http.StatusInternalServerError, errs.HTTPStatus(err))
}

func TestParseSuggestion_FallsBackToSQL(t *testing.T) {
	s := parseSuggestion("```\nSELECT name FROM users\n```")
	assert.Equal(t, Suggestion{SQL: "SELECT name FROM users", Message: fallbackMessage}, s)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeGenerate, ParseMode(""))
	assert.Equal(t, ModeGenerate, ParseMode("poem"))
	assert.Equal(t, ModeExplain, ParseMode("explain"))
	assert.Equal(t, ModeExplainSchema, ParseMode("explain_schema"))
	assert.True(t, ModeExplainSchema.Explains())
	assert.False(t, ModeGenerate.Explains())
}

func TestRenderPrompt_SelectsTemplate(t *testing.T) {
	p, err := renderPrompt(Request{Prompt: "why slow", Mode: ModeExplain, SchemaContext: []string{"t"}})
	require.NoError(t, err)
	assert.Contains(t, p, `Query to Analyze: "why slow"`)
	assert.Contains(t, p, "# ✨ Optimized Query")

	p, err = renderPrompt(Request{Prompt: "overview", Mode: ModeExplainSchema})
	require.NoError(t, err)
	assert.Contains(t, p, "# 🏗️ Database Overview")
	assert.Contains(t, p, "null")
}
