package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

var (
	errUnknownFrame  = errors.New("unknown frame type")
	errMissingRoom   = errors.New("missing room id")
	errMissingBody   = errors.New("missing message")
	errEmptyContent  = errors.New("empty message content")
	errRoomMismatch  = errors.New("frame and message room differ")
	errMissingReason = errors.New("missing error text")
)

// decodeFrame parses and validates one inbound payload. Anything that does
// not match the schema of its type is rejected.
func decodeFrame(data []byte) (conversation.Frame, error) {
	var f conversation.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return conversation.Frame{}, fmt.Errorf("invalid json: %w", err)
	}

	switch f.Type {
	case conversation.FrameJoined, conversation.FrameLeft:
		if f.RoomID <= 0 {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errMissingRoom)
		}
	case conversation.FrameMessage:
		if f.Message == nil {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errMissingBody)
		}
		if f.Message.RoomID <= 0 {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errMissingRoom)
		}
		if f.RoomID != 0 && f.RoomID != f.Message.RoomID {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errRoomMismatch)
		}
		if strings.TrimSpace(f.Message.Content) == "" {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errEmptyContent)
		}
	case conversation.FrameError:
		if f.Error == "" {
			return conversation.Frame{}, fmt.Errorf("%s: %w", f.Type, errMissingReason)
		}
	default:
		return conversation.Frame{}, fmt.Errorf("%q: %w", f.Type, errUnknownFrame)
	}
	return f, nil
}
