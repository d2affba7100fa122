package feed

import (
	"context"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// HistoryFetcher returns the stored messages of a conversation, oldest first.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, roomID int64) ([]conversation.Message, error)
}

// LiveChannel is an explicitly owned push connection. Join subscribes to
// the event channel of one room; Emit posts a message on it.
type LiveChannel interface {
	Join(ctx context.Context, roomID int64) (Subscription, error)
	Emit(ctx context.Context, req conversation.SendRequest) error
}

// Subscription delivers pushed messages for one joined room.
// Done is closed when the underlying connection is gone.
// Close must be safe to call more than once.
type Subscription interface {
	Messages() <-chan conversation.Message
	Done() <-chan struct{}
	Close() error
}
