// Package feed keeps the ordered message list of one open conversation,
// combining a one-time history fetch with the room's live channel.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// State is the connection state of a Feed.
type State int

const (
	Disconnected State = iota
	Connecting
	Live
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Feed.
type Option func(*Feed)

// WithLogger sets the logger used for dropped or failed deliveries.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Feed is the view model of one conversation. A single goroutine started by
// Open performs every append; readers only take the read lock.
type Feed struct {
	history  HistoryFetcher
	live     LiveChannel
	senderID int64
	logger   *slog.Logger
	changed  chan struct{}

	mu       sync.RWMutex
	state    State
	roomID   int64
	messages []conversation.Message
	seen     map[int64]struct{}
	sub      Subscription
	stop     chan struct{}
	done     chan struct{}
}

type historyResult struct {
	messages []conversation.Message
	err      error
}

// New creates a disconnected feed that posts as senderID.
func New(history HistoryFetcher, live LiveChannel, senderID int64, opts ...Option) *Feed {
	f := &Feed{
		history:  history,
		live:     live,
		senderID: senderID,
		logger:   slog.Default(),
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open joins the room's live channel and installs its history.
//
// Messages pushed before the history arrives are held back and appended
// after it, so every historical message precedes every early live one.
// A failed history fetch is returned as *HistoryFetchError while the feed
// still goes live with an empty history.
func (f *Feed) Open(ctx context.Context, roomID int64) error {
	f.mu.Lock()
	if f.state != Disconnected {
		f.mu.Unlock()
		return ErrAlreadyOpen
	}
	f.state = Connecting
	f.roomID = roomID
	f.messages = nil
	f.seen = make(map[int64]struct{})
	f.mu.Unlock()
	f.notify()

	sub, err := f.live.Join(ctx, roomID)
	if err != nil {
		f.mu.Lock()
		f.state = Disconnected
		f.mu.Unlock()
		f.notify()
		return &ConnectionError{RoomID: roomID, Err: err}
	}

	installed := make(chan error, 1)
	stop := make(chan struct{})
	done := make(chan struct{})

	f.mu.Lock()
	if f.state != Connecting || f.roomID != roomID || f.stop != nil {
		// Closed while joining.
		f.mu.Unlock()
		_ = sub.Close()
		return ErrClosed
	}
	f.sub, f.stop, f.done = sub, stop, done
	f.mu.Unlock()

	historyCh := make(chan historyResult, 1)
	go func() {
		msgs, err := f.history.FetchHistory(ctx, roomID)
		historyCh <- historyResult{messages: msgs, err: err}
	}()

	go f.run(roomID, sub, historyCh, installed, stop, done)

	select {
	case err := <-installed:
		if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
			_ = f.Close()
			return ctxErr
		}
		return err
	case <-done:
		select {
		case err := <-installed:
			return err
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		_ = f.Close()
		return ctx.Err()
	}
}

func (f *Feed) run(roomID int64, sub Subscription, historyCh <-chan historyResult, installed chan<- error, stop, done chan struct{}) {
	defer close(done)

	var pending []conversation.Message
	waiting := true
	incoming := sub.Messages()

	for {
		select {
		case <-stop:
			return

		case <-sub.Done():
			f.logger.Warn("live channel dropped", "roomID", roomID)
			// Messages delivered before the drop still belong to the feed.
			pending = f.drain(incoming, roomID, stop, waiting, pending)
			f.mu.Lock()
			if f.stop == stop {
				f.state = Disconnected
			}
			f.mu.Unlock()
			_ = sub.Close()
			if waiting {
				installed <- &ConnectionError{RoomID: roomID, Err: ErrConnectionLost}
			}
			f.notify()
			return

		case res := <-historyCh:
			historyCh = nil
			waiting = false

			var notice error
			if res.err != nil {
				f.logger.Warn("history fetch failed, continuing with live messages only",
					"roomID", roomID, "error", res.err)
				notice = &HistoryFetchError{RoomID: roomID, Err: res.err}
				res.messages = nil
			}

			f.mu.Lock()
			if f.stop == stop {
				f.appendLocked(res.messages)
				f.appendLocked(pending)
				f.state = Live
			}
			f.mu.Unlock()

			pending = nil
			f.notify()
			installed <- notice

		case msg, ok := <-incoming:
			if !ok {
				incoming = nil
				continue
			}
			pending = f.accept(msg, roomID, stop, waiting, pending)
		}
	}
}

// accept appends msg to the feed, or to pending while the history is still
// outstanding. Nothing is written once stop no longer belongs to the feed.
func (f *Feed) accept(msg conversation.Message, roomID int64, stop chan struct{}, waiting bool, pending []conversation.Message) []conversation.Message {
	if msg.RoomID != roomID {
		f.logger.Debug("dropping message for another room",
			"roomID", roomID, "messageRoomID", msg.RoomID)
		return pending
	}
	if waiting {
		return append(pending, msg)
	}

	added := 0
	f.mu.Lock()
	if f.stop == stop {
		added = f.appendLocked([]conversation.Message{msg})
	}
	f.mu.Unlock()
	if added > 0 {
		f.notify()
	}
	return pending
}

// drain accepts every message already buffered on incoming without blocking.
func (f *Feed) drain(incoming <-chan conversation.Message, roomID int64, stop chan struct{}, waiting bool, pending []conversation.Message) []conversation.Message {
	for incoming != nil {
		select {
		case msg, ok := <-incoming:
			if !ok {
				return pending
			}
			pending = f.accept(msg, roomID, stop, waiting, pending)
		default:
			return pending
		}
	}
	return pending
}

// appendLocked appends msgs in order, skipping any whose non-zero ID is
// already present. Callers hold f.mu.
func (f *Feed) appendLocked(msgs []conversation.Message) int {
	added := 0
	for _, m := range msgs {
		if m.ID != 0 {
			if _, dup := f.seen[m.ID]; dup {
				continue
			}
			f.seen[m.ID] = struct{}{}
		}
		f.messages = append(f.messages, m)
		added++
	}
	return added
}

// Send posts text to the open room. Blank text is rejected without any
// network call. The message is not appended locally; it shows up when the
// live channel echoes it back.
func (f *Feed) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankMessage
	}

	f.mu.RLock()
	state, roomID := f.state, f.roomID
	f.mu.RUnlock()
	if state == Disconnected {
		return ErrNotOpen
	}

	req := conversation.SendRequest{
		Content:  text,
		RoomID:   roomID,
		SenderID: f.senderID,
	}
	if err := f.live.Emit(ctx, req); err != nil {
		return fmt.Errorf("send message to room %d: %w", roomID, err)
	}
	return nil
}

// Close releases the live subscription and discards the feed contents.
func (f *Feed) Close() error {
	f.mu.Lock()
	sub, stop, done := f.sub, f.stop, f.done
	f.sub, f.stop, f.done = nil, nil, nil
	f.state = Disconnected
	f.messages = nil
	f.seen = nil
	f.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	f.notify()
	return sub.Close()
}

// State returns the current connection state.
func (f *Feed) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// RoomID returns the room of the last Open.
func (f *Feed) RoomID() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.roomID
}

// Messages returns a copy of the feed in display order.
func (f *Feed) Messages() []conversation.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]conversation.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// Len returns the number of messages in the feed.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.messages)
}

// Changed signals after the messages or the state change. Signals coalesce;
// read Messages and State after receiving one.
func (f *Feed) Changed() <-chan struct{} {
	return f.changed
}

func (f *Feed) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}
