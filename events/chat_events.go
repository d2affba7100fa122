package events

import (
	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a message has been stored.
type MessageSentEvent struct {
	MessageID    int64  `json:"message_id"`
	RoomID       int64  `json:"room_id"`
	SenderID     int64  `json:"sender_id"`
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	Content      string `json:"content"`
	SentAt       string `json:"sent_at"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)
)
