package bus

import (
	"fmt"
	"strings"
)

func BuildConversationKey(channel Channel, id string) (string, error) {
	if !isValidChannel(channel) {
		return "", fmt.Errorf("channel is invalid")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("conversation id is required")
	}
	if strings.Contains(id, " ") {
		return "", fmt.Errorf("conversation id must not contain spaces")
	}
	return fmt.Sprintf("%s:%s", conversationKeyPrefix(channel), id), nil
}

func BuildWhatsAppChatConversationKey(chatJID string) (string, error) {
	return BuildConversationKey(ChannelWhatsApp, chatJID)
}

func isValidChannel(channel Channel) bool {
	switch channel {
	case ChannelWhatsApp:
		return true
	default:
		return false
	}
}

func conversationKeyPrefix(channel Channel) string {
	switch channel {
	case ChannelWhatsApp:
		return "wa"
	default:
		return ""
	}
}
