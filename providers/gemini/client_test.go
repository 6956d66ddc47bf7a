package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/KILLERTIAN/skillchaseBot/llm"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	APIKey string
	Body   generateRequest
}

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	GenerationConfig *struct {
		Temperature     *float64 `json:"temperature"`
		TopP            *float64 `json:"topP"`
		TopK            *float64 `json:"topK"`
		MaxOutputTokens int      `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func newTestServer(t *testing.T, replies []string) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body generateRequest
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		idx := len(captured)
		captured = append(captured, capturedRequest{Path: r.URL.Path, APIKey: r.Header.Get("x-goog-api-key"), Body: body})
		mu.Unlock()
		if idx >= len(replies) {
			idx = len(replies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": replies[idx]}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 3,
				"totalTokenCount":      15,
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedRequest, len(captured))
		copy(out, captured)
		return out
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: "  "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestSessionSendsSeedHistoryAndSettings(t *testing.T) {
	srv, requests := newTestServer(t, []string{"4"})
	client, err := New(context.Background(), Config{APIKey: "test-key", Endpoint: srv.URL})
	require.NoError(t, err)

	sess, err := client.StartSession(context.Background(), llm.SessionOptions{
		SystemInstruction: "You are Hu Tao.",
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "hello"},
			{Role: llm.RoleModel, Content: "hi there"},
		},
		Settings: llm.DefaultGenerationSettings(),
	})
	require.NoError(t, err)

	res, err := sess.Send(context.Background(), "what is 2+2?")
	require.NoError(t, err)
	require.Equal(t, "4", res.Text)
	require.Equal(t, 15, res.Usage.TotalTokens)

	got := requests()
	require.Len(t, got, 1)
	require.True(t, strings.HasSuffix(got[0].Path, "models/"+DefaultModel+":generateContent"), "path: %s", got[0].Path)
	require.Equal(t, "test-key", got[0].APIKey)
	require.Len(t, got[0].Body.Contents, 3)
	require.Equal(t, "user", got[0].Body.Contents[0].Role)
	require.Equal(t, "model", got[0].Body.Contents[1].Role)
	require.Equal(t, "what is 2+2?", got[0].Body.Contents[2].Parts[0].Text)
	require.NotNil(t, got[0].Body.SystemInstruction)
	require.Equal(t, "You are Hu Tao.", got[0].Body.SystemInstruction.Parts[0].Text)
	require.NotNil(t, got[0].Body.GenerationConfig)
	require.Equal(t, 2000, got[0].Body.GenerationConfig.MaxOutputTokens)
	require.NotNil(t, got[0].Body.GenerationConfig.TopK)
	require.InDelta(t, 64, *got[0].Body.GenerationConfig.TopK, 0.001)
}

func TestSessionKeepsTurnsWithinSession(t *testing.T) {
	srv, requests := newTestServer(t, []string{"hello", "hola"})
	client, err := New(context.Background(), Config{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	sess, err := client.StartSession(context.Background(), llm.SessionOptions{Settings: llm.DefaultGenerationSettings()})
	require.NoError(t, err)
	_, err = sess.Send(context.Background(), "hello")
	require.NoError(t, err)
	res, err := sess.Send(context.Background(), "Translate the following text to spanish: hello")
	require.NoError(t, err)
	require.Equal(t, "hola", res.Text)

	got := requests()
	require.Len(t, got, 2)
	require.Len(t, got[1].Body.Contents, 3)
	require.Equal(t, "model", got[1].Body.Contents[1].Role)
	require.Equal(t, "hello", got[1].Body.Contents[1].Parts[0].Text)
}

func TestSendWrapsUpstreamErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), Config{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	sess, err := client.StartSession(context.Background(), llm.SessionOptions{})
	require.NoError(t, err)

	_, err = sess.Send(context.Background(), "hi")
	require.Error(t, err)
	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 429, perr.Code)
	require.Equal(t, "RESOURCE_EXHAUSTED", perr.Status)
	require.Equal(t, "quota exceeded", perr.Message)
}

func TestToContentsRejectsUnknownRole(t *testing.T) {
	_, err := toContents([]llm.Message{{Role: "system", Content: "x"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported role")
}
