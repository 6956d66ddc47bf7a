package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KILLERTIAN/skillchaseBot/internal/command"
	"github.com/KILLERTIAN/skillchaseBot/internal/logutil"
	"github.com/KILLERTIAN/skillchaseBot/llm"
)

const FallbackText = "Sorry, I encountered an error while processing your request."

// Replier sends one text reply back to wherever the prompt came from.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// ReplierFunc adapts a plain function to Replier.
type ReplierFunc func(ctx context.Context, text string) error

func (f ReplierFunc) Reply(ctx context.Context, text string) error {
	return f(ctx, text)
}

type Options struct {
	Client            llm.Client
	Model             string
	SystemInstruction string
	Seed              []llm.Message
	Settings          llm.GenerationSettings
	Logger            *slog.Logger
}

type Responder struct {
	client            llm.Client
	model             string
	systemInstruction string
	seed              []llm.Message
	settings          llm.GenerationSettings
	logger            *slog.Logger
}

func New(opts Options) (*Responder, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		client:            opts.Client,
		model:             strings.TrimSpace(opts.Model),
		systemInstruction: opts.SystemInstruction,
		seed:              llm.CloneMessages(opts.Seed),
		settings:          opts.Settings,
		logger:            logger,
	}, nil
}

// Respond never returns an error. Any failure is logged and answered with
// FallbackText.
func (r *Responder) Respond(ctx context.Context, prompt string, replier Replier, targetLanguage string) {
	if replier == nil {
		r.logger.Error("responder_missing_replier")
		return
	}
	text, err := r.Generate(ctx, prompt, targetLanguage)
	if err == nil {
		err = replier.Reply(ctx, text)
		if err == nil {
			return
		}
		err = fmt.Errorf("send reply: %w", err)
	}
	r.logFailure(err, targetLanguage)
	if replyErr := replier.Reply(ctx, FallbackText); replyErr != nil {
		r.logger.Error("responder_fallback_reply_error", "error", replyErr.Error())
	}
}

// Generate asks the model for a reply in a new seeded session. When
// targetLanguage is set to something other than the default, the reply is
// translated by a second turn in the same session.
func (r *Responder) Generate(ctx context.Context, prompt string, targetLanguage string) (string, error) {
	session, err := r.client.StartSession(ctx, llm.SessionOptions{
		Model:             r.model,
		SystemInstruction: r.systemInstruction,
		History:           llm.CloneMessages(r.seed),
		Settings:          r.settings,
	})
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	res, err := session.Send(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	r.logger.Debug("responder_generated",
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
		"duration_ms", res.Duration.Milliseconds(),
	)
	text := res.Text

	if command.NeedsTranslation(targetLanguage) {
		res, err = session.Send(ctx, TranslationPrompt(targetLanguage, text))
		if err != nil {
			return "", fmt.Errorf("translate reply: %w", err)
		}
		r.logger.Debug("responder_translated",
			"language", targetLanguage,
			"output_tokens", res.Usage.OutputTokens,
		)
		text = res.Text
	}
	return text, nil
}

func TranslationPrompt(language, text string) string {
	return fmt.Sprintf("Translate the following text to %s: %s", strings.TrimSpace(language), text)
}

func (r *Responder) logFailure(err error, targetLanguage string) {
	attrs := []any{"error", logutil.RedactError(err)}
	if strings.TrimSpace(targetLanguage) != "" {
		attrs = append(attrs, "language", targetLanguage)
	}
	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		attrs = append(attrs,
			"provider", perr.Provider,
			"code", perr.Code,
			"status", perr.Status,
			"upstream_message", perr.Message,
		)
		if len(perr.Details) > 0 {
			attrs = append(attrs, "details", perr.Details)
		}
	}
	r.logger.Warn("responder_generate_error", attrs...)
}
