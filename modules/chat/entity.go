package chat

import (
	"time"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// Room is a stored conversation.
type Room struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:100;not null"`
	Kind      string    `gorm:"size:16;not null;default:group"`
	CreatedAt time.Time
}

// TableName returns the table name for Room model.
func (Room) TableName() string {
	return "rooms"
}

// Message is a stored chat message. IDs grow with insertion order.
type Message struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	RoomID       int64     `gorm:"not null;index:idx_messages_room_id"`
	SenderID     int64     `gorm:"not null"`
	SenderName   string    `gorm:"size:100"`
	SenderAvatar string    `gorm:"size:500"`
	Content      string    `gorm:"size:5000;not null"`
	SentAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for Message model.
func (Message) TableName() string {
	return "messages"
}

func (r *Room) toDomain() conversation.Room {
	return conversation.Room{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      conversation.Kind(r.Kind),
		CreatedAt: r.CreatedAt,
	}
}

func (m *Message) toDomain() conversation.Message {
	return conversation.Message{
		ID:           m.ID,
		Content:      m.Content,
		SenderID:     m.SenderID,
		RoomID:       m.RoomID,
		SentAt:       conversation.FormatSentAt(m.SentAt),
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
	}
}
