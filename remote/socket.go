package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/feed"
)

const (
	writeTimeout   = 5 * time.Second
	subscriberSize = 256
)

var (
	ErrNotConnected     = errors.New("socket is not connected")
	ErrAlreadyConnected = errors.New("socket is already connected")
	ErrDisconnected     = errors.New("socket disconnected")
)

var _ feed.LiveChannel = (*Socket)(nil)

// RemoteError is an error frame the server sent in reply to a join.
type RemoteError struct {
	RoomID  int64
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("room %d: server: %s", e.RoomID, e.Message)
}

// SocketURL builds the live channel endpoint of a server for one user.
// http and https servers map to ws and wss.
func SocketURL(server string, userID int64, name, avatar string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	if name != "" {
		q.Set("name", name)
	}
	if avatar != "" {
		q.Set("avatar", avatar)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SocketOption configures a Socket.
type SocketOption func(*Socket)

// WithSocketLogger sets the logger for dropped frames and connection loss.
func WithSocketLogger(logger *slog.Logger) SocketOption {
	return func(s *Socket) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDialer replaces the default WebSocket dialer.
func WithDialer(d *websocket.Dialer) SocketOption {
	return func(s *Socket) {
		if d != nil {
			s.dialer = d
		}
	}
}

// Socket is one live channel connection, owned by whoever created it.
// Connect and Disconnect may be repeated; every Disconnect or read failure
// ends all subscriptions taken on that connection.
type Socket struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	conn     *websocket.Conn
	done     chan struct{}
	readDone chan struct{}
	subs     map[int64]map[*subscription]struct{}
	joins    map[int64][]chan error
}

// NewSocket creates a disconnected socket for the endpoint at rawURL.
func NewSocket(rawURL string, opts ...SocketOption) *Socket {
	s := &Socket{
		url:    rawURL,
		dialer: websocket.DefaultDialer,
		logger: slog.Default(),
		subs:   make(map[int64]map[*subscription]struct{}),
		joins:  make(map[int64][]chan error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials the server and starts reading frames.
func (s *Socket) Connect(ctx context.Context) error {
	if s.Connected() {
		return ErrAlreadyConnected
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}

	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return ErrAlreadyConnected
	}
	done := make(chan struct{})
	readDone := make(chan struct{})
	s.conn, s.done, s.readDone = conn, done, readDone
	s.mu.Unlock()

	go s.readLoop(conn, done, readDone)
	s.logger.Info("live channel connected", "url", s.url)
	return nil
}

// Disconnect closes the connection and waits for the reader to stop.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	conn, readDone := s.conn, s.readDone
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()

	_ = conn.Close()
	<-readDone
	return nil
}

// Connected reports whether a connection is up.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Join subscribes to a room and waits until the server acknowledges it.
func (s *Socket) Join(ctx context.Context, roomID int64) (feed.Subscription, error) {
	if roomID <= 0 {
		return nil, fmt.Errorf("invalid room id %d", roomID)
	}

	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	sub := &subscription{
		socket: s,
		roomID: roomID,
		ch:     make(chan conversation.Message, subscriberSize),
		done:   s.done,
		closed: make(chan struct{}),
	}
	if s.subs[roomID] == nil {
		s.subs[roomID] = make(map[*subscription]struct{})
	}
	s.subs[roomID][sub] = struct{}{}
	ack := make(chan error, 1)
	s.joins[roomID] = append(s.joins[roomID], ack)
	s.mu.Unlock()

	if err := s.write(ctx, conversation.Frame{Type: conversation.FrameJoin, RoomID: roomID}); err != nil {
		s.dropJoin(roomID, ack)
		sub.release()
		return nil, err
	}

	select {
	case err := <-ack:
		if err != nil {
			sub.release()
			return nil, err
		}
		return sub, nil
	case <-ctx.Done():
		s.dropJoin(roomID, ack)
		sub.release()
		return nil, ctx.Err()
	}
}

// Emit posts a message to a room.
func (s *Socket) Emit(ctx context.Context, req conversation.SendRequest) error {
	return s.write(ctx, conversation.Frame{
		Type:     conversation.FrameSend,
		RoomID:   req.RoomID,
		Content:  req.Content,
		SenderID: req.SenderID,
	})
}

func (s *Socket) write(ctx context.Context, f conversation.Frame) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(f); err != nil {
		return fmt.Errorf("write %s frame: %w", f.Type, err)
	}
	return nil
}

func (s *Socket) readLoop(conn *websocket.Conn, done, readDone chan struct{}) {
	defer close(readDone)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("live channel lost", "error", err)
			}
			s.teardown(conn, done)
			return
		}

		f, err := decodeFrame(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", "error", err, "size", len(data))
			continue
		}
		s.dispatch(f)
	}
}

func (s *Socket) dispatch(f conversation.Frame) {
	switch f.Type {
	case conversation.FrameJoined:
		if !s.resolveJoin(f.RoomID, nil) {
			s.logger.Debug("unexpected join ack", "roomID", f.RoomID)
		}
	case conversation.FrameError:
		if f.RoomID != 0 && s.resolveJoin(f.RoomID, &RemoteError{RoomID: f.RoomID, Message: f.Error}) {
			return
		}
		s.logger.Warn("server reported an error", "roomID", f.RoomID, "error", f.Error)
	case conversation.FrameLeft:
		s.logger.Debug("left room", "roomID", f.RoomID)
	case conversation.FrameMessage:
		msg := *f.Message
		s.mu.Lock()
		targets := make([]*subscription, 0, len(s.subs[msg.RoomID]))
		for sub := range s.subs[msg.RoomID] {
			targets = append(targets, sub)
		}
		s.mu.Unlock()
		for _, sub := range targets {
			sub.deliver(msg)
		}
	}
}

func (s *Socket) resolveJoin(roomID int64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.joins[roomID]
	if len(waiters) == 0 {
		return false
	}
	waiters[0] <- err
	if len(waiters) == 1 {
		delete(s.joins, roomID)
	} else {
		s.joins[roomID] = waiters[1:]
	}
	return true
}

func (s *Socket) dropJoin(roomID int64, ack chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.joins[roomID]
	for i, w := range waiters {
		if w == ack {
			waiters = append(waiters[:i:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(s.joins, roomID)
	} else {
		s.joins[roomID] = waiters
	}
}

// teardown ends the connection that conn belongs to. Only the reader calls it.
func (s *Socket) teardown(conn *websocket.Conn, done chan struct{}) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn, s.done, s.readDone = nil, nil, nil
	}
	joins := s.joins
	s.joins = make(map[int64][]chan error)
	s.subs = make(map[int64]map[*subscription]struct{})
	s.mu.Unlock()

	close(done)
	for _, waiters := range joins {
		for _, w := range waiters {
			w <- ErrDisconnected
		}
	}
	_ = conn.Close()
}

// unsubscribe removes sub and leaves the room when it was the last one.
func (s *Socket) unsubscribe(sub *subscription) {
	s.mu.Lock()
	set, ok := s.subs[sub.roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, ok := set[sub]; !ok {
		s.mu.Unlock()
		return
	}
	delete(set, sub)
	last := len(set) == 0
	if last {
		delete(s.subs, sub.roomID)
	}
	connected := s.conn != nil && s.done == sub.done
	s.mu.Unlock()

	if last && connected {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.write(ctx, conversation.Frame{Type: conversation.FrameLeave, RoomID: sub.roomID}); err != nil {
			s.logger.Debug("leave failed", "roomID", sub.roomID, "error", err)
		}
	}
}

type subscription struct {
	socket    *Socket
	roomID    int64
	ch        chan conversation.Message
	done      <-chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *subscription) Messages() <-chan conversation.Message { return s.ch }

func (s *subscription) Done() <-chan struct{} { return s.done }

// Close leaves the room if no other subscription holds it.
func (s *subscription) Close() error {
	s.release()
	return nil
}

func (s *subscription) release() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.socket.unsubscribe(s)
	})
}

// deliver blocks while the buffer is full, until the subscription closes.
func (s *subscription) deliver(msg conversation.Message) {
	select {
	case s.ch <- msg:
	case <-s.closed:
	}
}
