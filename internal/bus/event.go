package bus

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
)

type Kind string

const (
	KindMessage       Kind = "message"
	KindQR            Kind = "qr"
	KindAuthenticated Kind = "authenticated"
	KindReady         Kind = "ready"
	KindDisconnected  Kind = "disconnected"
	KindAuthFailure   Kind = "auth_failure"
)

// IsLifecycle reports whether events of this kind describe the connection
// rather than carry a chat message.
func (k Kind) IsLifecycle() bool {
	switch k {
	case KindQR, KindAuthenticated, KindReady, KindDisconnected, KindAuthFailure:
		return true
	default:
		return false
	}
}

// Message is one inbound chat message as delivered by the platform.
type Message struct {
	ID       string    `json:"id"`
	ChatID   string    `json:"chat_id"`
	SenderID string    `json:"sender_id"`
	PushName string    `json:"push_name,omitempty"`
	Text     string    `json:"text"`
	IsGroup  bool      `json:"is_group"`
	SentAt   time.Time `json:"sent_at"`
}

func (m Message) Validate() error {
	if err := validateRequiredCanonicalString("message id", m.ID); err != nil {
		return err
	}
	if err := validateRequiredCanonicalString("chat_id", m.ChatID); err != nil {
		return err
	}
	if err := validateOptionalCanonicalString("sender_id", m.SenderID); err != nil {
		return err
	}
	return nil
}

type Event struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	Channel         Channel   `json:"channel"`
	ConversationKey string    `json:"conversation_key,omitempty"`
	CorrelationID   string    `json:"correlation_id"`
	CreatedAt       time.Time `json:"created_at"`
	Message         *Message  `json:"message,omitempty"`
	// Detail carries the QR code, disconnect reason or failure text.
	Detail string `json:"detail,omitempty"`
}

func (e Event) Validate() error {
	if err := validateUUIDv7Field("id", e.ID); err != nil {
		return err
	}
	if !isValidChannel(e.Channel) {
		return fmt.Errorf("channel is invalid")
	}
	if err := validateRequiredCanonicalString("correlation_id", e.CorrelationID); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	switch {
	case e.Kind == KindMessage:
		if e.Message == nil {
			return fmt.Errorf("message is required for kind %q", e.Kind)
		}
		if err := e.Message.Validate(); err != nil {
			return err
		}
		if err := validateRequiredCanonicalString("conversation_key", e.ConversationKey); err != nil {
			return err
		}
	case e.Kind.IsLifecycle():
		if e.Message != nil {
			return fmt.Errorf("message is not allowed for kind %q", e.Kind)
		}
	default:
		return fmt.Errorf("kind is invalid")
	}
	return nil
}

// NewMessageEvent wraps an inbound chat message for the bus.
func NewMessageEvent(channel Channel, msg Message, now time.Time) (Event, error) {
	if err := msg.Validate(); err != nil {
		return Event{}, err
	}
	key, err := BuildConversationKey(channel, msg.ChatID)
	if err != nil {
		return Event{}, err
	}
	id, err := newEventID()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:              id,
		Kind:            KindMessage,
		Channel:         channel,
		ConversationKey: key,
		CorrelationID:   fmt.Sprintf("%s:%s", conversationKeyPrefix(channel), msg.ID),
		CreatedAt:       now.UTC(),
		Message:         &msg,
	}
	return ev, ev.Validate()
}

func NewLifecycleEvent(channel Channel, kind Kind, detail string, now time.Time) (Event, error) {
	if !kind.IsLifecycle() {
		return Event{}, fmt.Errorf("kind %q is not a lifecycle event", kind)
	}
	id, err := newEventID()
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:            id,
		Kind:          kind,
		Channel:       channel,
		CorrelationID: id,
		CreatedAt:     now.UTC(),
		Detail:        strings.TrimSpace(detail),
	}
	return ev, ev.Validate()
}

func newEventID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate event id: %w", err)
	}
	return id.String(), nil
}

func validateUUIDv7Field(field, value string) error {
	id, err := uuid.Parse(value)
	if err != nil {
		return fmt.Errorf("%s must be uuid_v7", field)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("%s must be uuid_v7", field)
	}
	return nil
}

func validateRequiredCanonicalString(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%s must not contain leading/trailing spaces", field)
	}
	return nil
}

func validateOptionalCanonicalString(field, value string) error {
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%s must not contain leading/trailing spaces", field)
	}
	return nil
}
