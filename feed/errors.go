package feed

import (
	"errors"
	"fmt"
)

var (
	ErrBlankMessage   = errors.New("message text is blank")
	ErrNotOpen        = errors.New("feed is not open")
	ErrAlreadyOpen    = errors.New("feed is already open")
	ErrClosed         = errors.New("feed closed while opening")
	ErrConnectionLost = errors.New("live channel connection lost")
)

// ConnectionError reports that the live channel could not be joined.
// It is fatal to Open.
type ConnectionError struct {
	RoomID int64
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("join room %d: %v", e.RoomID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HistoryFetchError reports a failed history fetch. The feed is live
// regardless and shows only pushed messages.
type HistoryFetchError struct {
	RoomID int64
	Err    error
}

func (e *HistoryFetchError) Error() string {
	return fmt.Sprintf("fetch history of room %d: %v", e.RoomID, e.Err)
}

func (e *HistoryFetchError) Unwrap() error { return e.Err }
