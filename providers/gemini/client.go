package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KILLERTIAN/skillchaseBot/llm"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

type Config struct {
	APIKey   string
	Model    string
	Endpoint string

	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

type Client struct {
	model          string
	requestTimeout time.Duration
	client         *genai.Client
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing gemini api key (set GEMINI_API_KEY)")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		cc.HTTPOptions.BaseURL = endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{
		model:          model,
		requestTimeout: cfg.RequestTimeout,
		client:         client,
	}, nil
}

func (c *Client) StartSession(ctx context.Context, opts llm.SessionOptions) (llm.Session, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("gemini client is not initialized")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = c.model
	}
	history, err := toContents(opts.History)
	if err != nil {
		return nil, err
	}
	chat, err := c.client.Chats.Create(ctx, model, buildConfig(opts), history)
	if err != nil {
		return nil, wrapError(err)
	}
	return &session{chat: chat, requestTimeout: c.requestTimeout}, nil
}

type session struct {
	chat           *genai.Chat
	requestTimeout time.Duration
}

func (s *session) Send(ctx context.Context, text string) (llm.Result, error) {
	start := time.Now()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return llm.Result{}, wrapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.Result{}, &llm.ProviderError{Provider: providerName, Message: "empty candidates"}
	}
	out := llm.Result{
		Text:     resp.Text(),
		Duration: time.Since(start),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func buildConfig(opts llm.SessionOptions) *genai.GenerateContentConfig {
	s := opts.Settings
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.Temperature)),
		TopP:        genai.Ptr(float32(s.TopP)),
	}
	if s.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(s.TopK))
	}
	if s.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxOutputTokens)
	}
	if instruction := strings.TrimSpace(opts.SystemInstruction); instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

func toContents(history []llm.Message) ([]*genai.Content, error) {
	if len(history) == 0 {
		return nil, nil
	}
	out := make([]*genai.Content, 0, len(history))
	for i, m := range history {
		var role genai.Role
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case llm.RoleUser:
			role = genai.RoleUser
		case llm.RoleModel, "assistant":
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("history[%d]: unsupported role %q", i, m.Role)
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out, nil
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			Provider: providerName,
			Code:     apiErr.Code,
			Status:   apiErr.Status,
			Message:  apiErr.Message,
			Details:  apiErr.Details,
			Err:      err,
		}
	}
	return &llm.ProviderError{Provider: providerName, Err: err}
}
