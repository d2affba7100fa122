package conversation

import "time"

// SentAtLayout is the wire format of Message.SentAt.
const SentAtLayout = "2006-01-02T15:04:05"

// Kind distinguishes group rooms from private threads.
type Kind string

const (
	KindGroup   Kind = "group"
	KindPrivate Kind = "private"
)

// Message represents one chat utterance as exchanged with clients.
// ID is 0 for messages that arrive over the live channel.
type Message struct {
	ID           int64  `json:"id"`
	Content      string `json:"content"`
	SenderID     int64  `json:"senderId"`
	RoomID       int64  `json:"roomId"`
	SentAt       string `json:"sentAt,omitempty"`
	SenderName   string `json:"senderName,omitempty"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
}

// SendRequest is the record emitted on the live channel to post a message.
type SendRequest struct {
	Content  string `json:"content"`
	RoomID   int64  `json:"roomId"`
	SenderID int64  `json:"senderId"`
}

// Room is a conversation: a group room or a private thread.
type Room struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// FormatSentAt renders t in the SentAt wire format.
func FormatSentAt(t time.Time) string {
	return t.UTC().Format(SentAtLayout)
}
