package whatsappclient

import (
	"strings"

	"github.com/KILLERTIAN/skillchaseBot/internal/bus"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// messageText returns the plain text of a message, or "" for media and
// other non-text payloads.
func messageText(m *waE2E.Message) string {
	if m == nil {
		return ""
	}
	if text := m.GetConversation(); text != "" {
		return text
	}
	if ext := m.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if img := m.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	if vid := m.GetVideoMessage(); vid != nil {
		return vid.GetCaption()
	}
	return ""
}

// inboundFromEvent converts an incoming whatsmeow message. Messages sent by
// this device and status broadcasts are skipped.
func inboundFromEvent(evt *events.Message) (bus.Message, bool) {
	if evt == nil || evt.Info.IsFromMe {
		return bus.Message{}, false
	}
	if evt.Info.Chat.Server == types.BroadcastServer {
		return bus.Message{}, false
	}
	text := messageText(evt.Message)
	if strings.TrimSpace(text) == "" {
		return bus.Message{}, false
	}
	return bus.Message{
		ID:       string(evt.Info.ID),
		ChatID:   evt.Info.Chat.String(),
		SenderID: evt.Info.Sender.String(),
		PushName: strings.TrimSpace(evt.Info.PushName),
		Text:     text,
		IsGroup:  evt.Info.IsGroup,
		SentAt:   evt.Info.Timestamp,
	}, true
}

// replyMessage builds a text message that quotes msg.
func replyMessage(msg bus.Message, text string) *waE2E.Message {
	ctxInfo := &waE2E.ContextInfo{
		StanzaID:      proto.String(msg.ID),
		QuotedMessage: &waE2E.Message{Conversation: proto.String(msg.Text)},
	}
	if msg.IsGroup && msg.SenderID != "" {
		ctxInfo.Participant = proto.String(msg.SenderID)
	}
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: ctxInfo,
		},
	}
}

func mentionMessage(text string, mentions []string) *waE2E.Message {
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				MentionedJID: append([]string(nil), mentions...),
			},
		},
	}
}

// lifecycleFromEvent maps connection events onto bus lifecycle kinds.
func lifecycleFromEvent(evt any) (bus.Kind, string, bool) {
	switch e := evt.(type) {
	case *events.PairSuccess:
		return bus.KindAuthenticated, e.ID.String(), true
	case *events.Connected:
		return bus.KindReady, "", true
	case *events.Disconnected:
		return bus.KindDisconnected, "connection closed", true
	case *events.StreamReplaced:
		return bus.KindDisconnected, "stream replaced by another client", true
	case *events.LoggedOut:
		return bus.KindAuthFailure, "logged out: " + e.Reason.String(), true
	case *events.ConnectFailure:
		detail := e.Reason.String()
		if msg := strings.TrimSpace(e.Message); msg != "" {
			detail += ": " + msg
		}
		return bus.KindAuthFailure, detail, true
	case *events.TemporaryBan:
		return bus.KindAuthFailure, e.String(), true
	default:
		return "", "", false
	}
}
