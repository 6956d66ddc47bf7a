package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KILLERTIAN/skillchaseBot/internal/broadcast"
	"github.com/KILLERTIAN/skillchaseBot/internal/bus"
	"github.com/KILLERTIAN/skillchaseBot/internal/command"
	"github.com/KILLERTIAN/skillchaseBot/internal/responder"
)

// Platform is the chat platform surface the dispatcher needs.
type Platform interface {
	// Reply answers msg in its chat, quoting it.
	Reply(ctx context.Context, msg bus.Message, text string) error
	Participants(ctx context.Context, chatID string) ([]string, error)
	SendMentions(ctx context.Context, chatID string, text string, mentions []string) error
}

type Responder interface {
	Respond(ctx context.Context, prompt string, replier responder.Replier, targetLanguage string)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, group broadcast.Group) error
}

type Dependencies struct {
	Platform    Platform
	Responder   Responder
	Broadcaster Broadcaster
	Logger      *slog.Logger
}

type Dispatcher struct {
	platform    Platform
	responder   Responder
	broadcaster Broadcaster
	logger      *slog.Logger
}

func New(deps Dependencies) (*Dispatcher, error) {
	if deps.Platform == nil {
		return nil, fmt.Errorf("platform is required")
	}
	if deps.Responder == nil {
		return nil, fmt.Errorf("responder is required")
	}
	if deps.Broadcaster == nil {
		return nil, fmt.Errorf("broadcaster is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		platform:    deps.Platform,
		responder:   deps.Responder,
		broadcaster: deps.Broadcaster,
		logger:      logger,
	}, nil
}

// Wants reports whether msg carries a bot command.
func (d *Dispatcher) Wants(msg bus.Message) bool {
	return command.Classify(msg.Text).Kind != command.KindNoOp
}

// Handle classifies msg and runs the matching action. Only broadcast
// failures are returned; responder failures are handled inside the
// responder.
func (d *Dispatcher) Handle(ctx context.Context, msg bus.Message) error {
	cmd := command.Classify(msg.Text)
	if cmd.Kind == command.KindNoOp {
		return nil
	}
	d.logger.Debug("dispatch_command",
		"kind", cmd.Kind.String(),
		"chat_id", msg.ChatID,
		"message_id", msg.ID,
		"is_group", msg.IsGroup,
	)
	replier := d.replier(msg)

	switch cmd.Kind {
	case command.KindPrompt, command.KindTranslate:
		d.responder.Respond(ctx, cmd.Text, replier, cmd.Language)
		return nil
	case command.KindPromptUsage:
		return d.usage(ctx, replier, command.PromptUsageText)
	case command.KindTranslateUsage:
		return d.usage(ctx, replier, command.TranslateUsageText)
	case command.KindBroadcast:
		if !msg.IsGroup {
			return d.usage(ctx, replier, command.GroupOnlyText)
		}
		return d.broadcaster.Broadcast(ctx, groupChat{platform: d.platform, chatID: msg.ChatID})
	default:
		return nil
	}
}

func (d *Dispatcher) usage(ctx context.Context, replier responder.Replier, text string) error {
	if err := replier.Reply(ctx, text); err != nil {
		d.logger.Warn("dispatch_reply_error", "error", err.Error())
	}
	return nil
}

func (d *Dispatcher) replier(msg bus.Message) responder.Replier {
	return responder.ReplierFunc(func(ctx context.Context, text string) error {
		return d.platform.Reply(ctx, msg, text)
	})
}

type groupChat struct {
	platform Platform
	chatID   string
}

func (g groupChat) Participants(ctx context.Context) ([]string, error) {
	return g.platform.Participants(ctx, g.chatID)
}

func (g groupChat) SendMentions(ctx context.Context, text string, mentions []string) error {
	return g.platform.SendMentions(ctx, g.chatID, text, mentions)
}
