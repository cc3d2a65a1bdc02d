package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []generateRequest
	paths    []string
	reply    func(req generateRequest) (int, string)
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req generateRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.Empty(t, r.URL.RawQuery)

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		status, text := f.reply(req)
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, text)
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func newTestClient(t *testing.T, reply func(req generateRequest) (int, string)) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{reply: reply}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	c := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/models", RPS: 1000})
	return c, api
}

func lastUserText(req generateRequest) string {
	c := req.Contents[len(req.Contents)-1]
	return c.Parts[0].Text
}

func TestDisabledClient(t *testing.T) {
	c := New(Config{})
	_, err := c.ClassifySentiment(context.Background(), "hi")
	require.ErrorIs(t, err, ErrDisabled)
	require.False(t, c.Enabled())
}

func TestTransportErrorOmitsKey(t *testing.T) {
	c := New(Config{APIKey: "secret-key-123", BaseURL: "http://127.0.0.1:1/models", RPS: 1000})
	_, err := c.ClassifySentiment(context.Background(), "hi")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret-key-123")
}

func TestClassifySentimentPrompt(t *testing.T) {
	c, api := newTestClient(t, func(generateRequest) (int, string) { return http.StatusOK, " Anxious\n" })
	got, err := c.ClassifySentiment(context.Background(), "I can't sleep")
	require.NoError(t, err)
	require.Equal(t, "Anxious", got)
	require.Len(t, api.requests, 1)
	require.Contains(t, lastUserText(api.requests[0]), "Calm, Content, Hopeful, Neutral, Anxious, Frustrated, Sad, Agitated")
	require.Equal(t, "/models/gemini-2.5-flash:generateContent", api.paths[0])
}

func TestReplyKeepsHistoryOnSuccessOnly(t *testing.T) {
	calls := 0
	c, api := newTestClient(t, func(generateRequest) (int, string) {
		calls++
		if calls == 2 {
			return http.StatusInternalServerError, "boom"
		}
		return http.StatusOK, fmt.Sprintf("answer %d", calls)
	})
	ctx := context.Background()
	rc := model.ReplyContext{Sentiment: "Anxious", Pattern: model.PatternFatigue, Theme: "Work", CognitiveLoad: 83}

	out, err := c.Reply(ctx, rc, "work again")
	require.NoError(t, err)
	require.Equal(t, "answer 1", out)
	require.Equal(t, "[CONTEXT: sentiment=Anxious, pattern=fatigue, theme=Work, cognitive_load=83] work again", lastUserText(api.requests[0]))
	require.NotNil(t, api.requests[0].SystemInstruction)

	_, err = c.Reply(ctx, rc, "second")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")

	_, err = c.Reply(ctx, rc, "third")
	require.NoError(t, err)
	require.Len(t, api.requests[2].Contents, 3)
	require.Equal(t, "model", api.requests[2].Contents[1].Role)

	c.ResetChat()
	_, err = c.Reply(ctx, rc, "fresh")
	require.NoError(t, err)
	require.Len(t, api.requests[3].Contents, 1)
}

func TestSmartPromptsParsesJSON(t *testing.T) {
	c, api := newTestClient(t, func(generateRequest) (int, string) {
		return http.StatusOK, `["What's on your mind tonight?", " ", "How was your day?", "Anything keeping you up?", "extra"]`
	})
	last := &model.AnalysisResult{ID: "x", Sentiment: "Sad", Theme: "Family", CognitiveLoad: 80}
	got, err := c.SmartPrompts(context.Background(), "evening", last)
	require.NoError(t, err)
	require.Equal(t, []string{"What's on your mind tonight?", "How was your day?", "Anything keeping you up?"}, got)
	require.Equal(t, "application/json", api.requests[0].GenerationConfig.ResponseMimeType)
	require.Contains(t, lastUserText(api.requests[0]), "It is currently evening.")
	require.Contains(t, lastUserText(api.requests[0]), "'Family'")
}

func TestSmartPromptsSurvivesCallerCancel(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	c, _ := newTestClient(t, func(generateRequest) (int, string) {
		close(arrived)
		<-release
		return http.StatusOK, `["Still awake?"]`
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
		close(release)
	}()
	got, err := c.SmartPrompts(ctx, "late night", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Still awake?"}, got)
}

func TestSmartPromptsRejectsGarbage(t *testing.T) {
	c, _ := newTestClient(t, func(generateRequest) (int, string) { return http.StatusOK, "not json" })
	_, err := c.SmartPrompts(context.Background(), "morning", nil)
	require.Error(t, err)
}

func TestPlanUsesPlanModelAndHotspots(t *testing.T) {
	c, api := newTestClient(t, func(generateRequest) (int, string) { return http.StatusOK, "### Final Analysis" })
	msgs := []model.Message{{Author: model.AuthorBot, Text: "Hello"}, {Author: model.AuthorUser, Text: "Work is hard"}}
	_, err := c.Plan(context.Background(), msgs, []string{"- Theme: 'Work' (mentioned 2 times) with an average cognitive load of 80/100."})
	require.NoError(t, err)
	require.Equal(t, "/models/gemini-2.5-pro:generateContent", api.paths[0])
	prompt := lastUserText(api.requests[0])
	require.Contains(t, prompt, "Assistant: Hello\nUser: Work is hard")
	require.Contains(t, prompt, "- Theme: 'Work'")

	_, err = c.Plan(context.Background(), msgs, nil)
	require.NoError(t, err)
	require.True(t, strings.Contains(lastUserText(api.requests[1]), "No specific themes were detected."))
}
