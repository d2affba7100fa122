package chat

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// Validation constants
const (
	MaxRoomNameLength   = 100
	MaxMessageLength    = 5000
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 1000
)

// Service names registered in the container.
const (
	ServiceGetHistory  = "get-history"
	ServiceSendMessage = "send-message"
	ServiceCreateRoom  = "create-room"
	ServiceListRooms   = "list-rooms"
	ServiceGetRoom     = "get-room"
)

// Errors
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomNameEmpty   = errors.New("room name cannot be empty")
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	ErrRoomNameInvalid = errors.New("room name contains invalid characters")
	ErrRoomKindInvalid = errors.New("room kind must be group or private")
	ErrMessageEmpty    = errors.New("message content cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrSenderRequired  = errors.New("sender id is required")
)

// Error codes carried in service responses. Domain failures travel as codes
// so callers on the other side of the container can match them.
var errorCodes = map[string]error{
	"room_not_found":     ErrRoomNotFound,
	"room_name_empty":    ErrRoomNameEmpty,
	"room_name_too_long": ErrRoomNameTooLong,
	"room_name_invalid":  ErrRoomNameInvalid,
	"room_kind_invalid":  ErrRoomKindInvalid,
	"message_empty":      ErrMessageEmpty,
	"message_too_long":   ErrMessageTooLong,
	"message_invalid":    ErrMessageInvalid,
	"sender_required":    ErrSenderRequired,
}

// codeOf returns the response code of a domain error, or "" for anything else.
func codeOf(err error) string {
	for code, target := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}

// errorOf maps a response code back to its error.
func errorOf(code string) error {
	if code == "" {
		return nil
	}
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return errors.New(code)
}

// GetHistoryRequest is the request for a room's message history.
type GetHistoryRequest struct {
	RoomID int64 `json:"room_id"`
	Limit  int   `json:"limit"`
}

// GetHistoryResponse carries the history, oldest first.
type GetHistoryResponse struct {
	Messages  []conversation.Message `json:"messages"`
	ErrorCode string                 `json:"error_code,omitempty"`
}

// SendMessageRequest is the request for posting a message.
type SendMessageRequest struct {
	RoomID       int64  `json:"room_id"`
	SenderID     int64  `json:"sender_id"`
	SenderName   string `json:"sender_name,omitempty"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
	Content      string `json:"content"`
}

// SendMessageResponse carries the stored message.
type SendMessageResponse struct {
	Message   conversation.Message `json:"message"`
	ErrorCode string               `json:"error_code,omitempty"`
}

// CreateRoomRequest is the request for creating a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// RoomResponse carries one room.
type RoomResponse struct {
	Room      conversation.Room `json:"room"`
	ErrorCode string            `json:"error_code,omitempty"`
}

// GetRoomRequest is the request for one room.
type GetRoomRequest struct {
	RoomID int64 `json:"room_id"`
}

// ListRoomsRequest is the request for listing rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse carries all rooms.
type ListRoomsResponse struct {
	Rooms []conversation.Room `json:"rooms"`
	Total int                 `json:"total"`
}

// ValidateRoomName validates a room name.
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrRoomNameInvalid
	}
	return nil
}

// ValidateMessage validates a message content.
func ValidateMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	return nil
}

// clampLimit applies the history defaults.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// IsDomainError reports whether err is a chat validation or lookup failure
// rather than an infrastructure error.
func IsDomainError(err error) bool {
	return codeOf(err) != ""
}
