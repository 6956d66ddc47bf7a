package responder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/KILLERTIAN/skillchaseBot/llm"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	opts    llm.SessionOptions
	sent    []string
	replies []string
	errs    []error
}

func (s *fakeSession) Send(_ context.Context, text string) (llm.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.sent)
	s.sent = append(s.sent, text)
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.Result{}, s.errs[i]
	}
	if i < len(s.replies) {
		return llm.Result{Text: s.replies[i]}, nil
	}
	return llm.Result{Text: "reply " + text}, nil
}

type fakeClient struct {
	mu       sync.Mutex
	sessions []*fakeSession
	next     func() *fakeSession
	startErr error
}

func (c *fakeClient) StartSession(_ context.Context, opts llm.SessionOptions) (llm.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return nil, c.startErr
	}
	s := &fakeSession{}
	if c.next != nil {
		s = c.next()
	}
	s.opts = opts
	c.sessions = append(c.sessions, s)
	return s, nil
}

type recordingReplier struct {
	texts []string
	err   error
}

func (r *recordingReplier) Reply(_ context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

func testSeed() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleModel, Content: "hello"},
	}
}

func newTestResponder(t *testing.T, client llm.Client, logs *bytes.Buffer) *Responder {
	t.Helper()
	var logger *slog.Logger
	if logs != nil {
		logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	r, err := New(Options{
		Client:            client,
		Model:             "gemini-1.5-flash",
		SystemInstruction: "be nice",
		Seed:              testSeed(),
		Settings:          llm.DefaultGenerationSettings(),
		Logger:            logger,
	})
	require.NoError(t, err)
	return r
}

func TestNewRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.EqualError(t, err, "llm client is required")
}

func TestRespondRepliesWithModelText(t *testing.T) {
	t.Parallel()

	client := &fakeClient{next: func() *fakeSession {
		return &fakeSession{replies: []string{"4"}}
	}}
	r := newTestResponder(t, client, nil)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "what is 2+2?", replier, "en")

	require.Equal(t, []string{"4"}, replier.texts)
	require.Len(t, client.sessions, 1)
	s := client.sessions[0]
	require.Equal(t, []string{"what is 2+2?"}, s.sent)
	require.Equal(t, "be nice", s.opts.SystemInstruction)
	require.Equal(t, "gemini-1.5-flash", s.opts.Model)
	require.Equal(t, testSeed(), s.opts.History)
	require.Equal(t, llm.DefaultGenerationSettings(), s.opts.Settings)
}

func TestRespondTranslatesInSameSession(t *testing.T) {
	t.Parallel()

	client := &fakeClient{next: func() *fakeSession {
		return &fakeSession{replies: []string{"hello to you", "hola a ti"}}
	}}
	r := newTestResponder(t, client, nil)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "hello", replier, "spanish")

	require.Equal(t, []string{"hola a ti"}, replier.texts)
	require.Len(t, client.sessions, 1)
	require.Equal(t, []string{
		"hello",
		"Translate the following text to spanish: hello to you",
	}, client.sessions[0].sent)
}

func TestRespondSkipsTranslationForDefaultLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{"", "en"} {
		client := &fakeClient{}
		r := newTestResponder(t, client, nil)
		replier := &recordingReplier{}

		r.Respond(context.Background(), "ping", replier, lang)

		require.Equal(t, []string{"reply ping"}, replier.texts, "language %q", lang)
		require.Len(t, client.sessions[0].sent, 1, "language %q", lang)
	}
}

func TestRespondStartsFreshSessionEachCall(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	r := newTestResponder(t, client, nil)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "one", replier, "")
	r.Respond(context.Background(), "two", replier, "")

	require.Len(t, client.sessions, 2)
	for _, s := range client.sessions {
		require.Len(t, s.sent, 1)
		require.Equal(t, testSeed(), s.opts.History)
	}
}

func TestRespondSeedIsNotMutatedBySession(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	r := newTestResponder(t, client, nil)
	r.Respond(context.Background(), "one", &recordingReplier{}, "")

	client.sessions[0].opts.History[0].Content = "mutated"
	r.Respond(context.Background(), "two", &recordingReplier{}, "")
	require.Equal(t, "hi", client.sessions[1].opts.History[0].Content)
}

func TestRespondFallsBackOnModelFailure(t *testing.T) {
	t.Parallel()

	upstream := &llm.ProviderError{
		Provider: "gemini",
		Code:     429,
		Status:   "RESOURCE_EXHAUSTED",
		Message:  "quota exceeded",
	}
	client := &fakeClient{next: func() *fakeSession {
		return &fakeSession{errs: []error{upstream}}
	}}
	var logs bytes.Buffer
	r := newTestResponder(t, client, &logs)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "anything", replier, "")

	require.Equal(t, []string{FallbackText}, replier.texts)
	out := logs.String()
	require.Contains(t, out, "responder_generate_error")
	require.Contains(t, out, "code=429")
	require.Contains(t, out, "status=RESOURCE_EXHAUSTED")
}

func TestRespondFallsBackOnTranslationFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{next: func() *fakeSession {
		return &fakeSession{errs: []error{nil, errors.New("boom")}}
	}}
	r := newTestResponder(t, client, nil)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "hello", replier, "french")

	require.Equal(t, []string{FallbackText}, replier.texts)
}

func TestRespondFallsBackWhenSessionCannotStart(t *testing.T) {
	t.Parallel()

	client := &fakeClient{startErr: errors.New("dial failed")}
	r := newTestResponder(t, client, nil)
	replier := &recordingReplier{}

	r.Respond(context.Background(), "hello", replier, "")

	require.Equal(t, []string{FallbackText}, replier.texts)
}

func TestRespondLogsWhenFallbackReplyFails(t *testing.T) {
	t.Parallel()

	client := &fakeClient{startErr: errors.New("dial failed")}
	var logs bytes.Buffer
	r := newTestResponder(t, client, &logs)
	replier := &recordingReplier{err: errors.New("socket closed")}

	r.Respond(context.Background(), "hello", replier, "")

	require.Equal(t, []string{FallbackText}, replier.texts)
	require.True(t, strings.Contains(logs.String(), "responder_fallback_reply_error"))
}

func TestTranslationPrompt(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Translate the following text to spanish: hi", TranslationPrompt(" spanish ", "hi"))
}
