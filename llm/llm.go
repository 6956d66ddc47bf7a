package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

// GenerationSettings is applied to every model call of a session.
type GenerationSettings struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		Temperature:     0.4,
		TopP:            0.95,
		TopK:            64,
		MaxOutputTokens: 2000,
	}
}

type SessionOptions struct {
	Model             string
	SystemInstruction string
	History           []Message
	Settings          GenerationSettings
}

// Session is one stateful exchange with the model. Each Send appends the
// user turn and the model reply to the session history.
type Session interface {
	Send(ctx context.Context, text string) (Result, error)
}

type Client interface {
	StartSession(ctx context.Context, opts SessionOptions) (Session, error)
}

// ProviderError carries the error payload returned by the upstream service.
type ProviderError struct {
	Provider string
	Code     int
	Status   string
	Message  string
	Details  []map[string]any
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	provider := strings.TrimSpace(e.Provider)
	if provider == "" {
		provider = "llm"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code > 0 {
		return fmt.Sprintf("%s http %d: %s", provider, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", provider, msg)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CloneMessages returns a copy so callers can hand history to a session
// without sharing the backing array.
func CloneMessages(in []Message) []Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}
