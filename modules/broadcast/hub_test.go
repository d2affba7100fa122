package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/events"
)

type fakeConn struct {
	mu      sync.Mutex
	frames  []conversation.Frame
	closed  bool
	failing bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v.(conversation.Frame))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []conversation.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]conversation.Frame(nil), c.frames...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHub_BroadcastReachesRoomMembersOnly(t *testing.T) {
	hub, _ := startHub(t)

	inRoom, elsewhere := &fakeConn{}, &fakeConn{}
	a := NewClient(inRoom, 1, "ana", "")
	b := NewClient(elsewhere, 2, "bia", "")
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, 10)
	hub.Join(b, 20)

	frame := conversation.Frame{Type: conversation.FrameMessage, RoomID: 10}
	if !hub.Broadcast(10, frame) {
		t.Fatal("Broadcast() on a running hub returned false")
	}

	waitFor(t, func() bool { return len(inRoom.received()) == 1 })
	if got := inRoom.received()[0]; got.RoomID != 10 {
		t.Errorf("received frame for room %d, want 10", got.RoomID)
	}
	if n := len(elsewhere.received()); n != 0 {
		t.Errorf("client outside the room received %d frames", n)
	}
}

func TestHub_JoinLeave(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient(&fakeConn{}, 1, "ana", "")

	if hub.Join(client, 10) {
		t.Error("Join() should fail for an unregistered client")
	}

	hub.Register(client)
	hub.Join(client, 10)
	hub.Join(client, 11)

	if !client.InRoom(10) || !client.InRoom(11) {
		t.Fatal("client should be in rooms 10 and 11")
	}
	if hub.RoomCount() != 2 || hub.RoomClientCount(10) != 1 {
		t.Errorf("RoomCount() = %d, RoomClientCount(10) = %d", hub.RoomCount(), hub.RoomClientCount(10))
	}

	hub.Leave(client, 10)
	if client.InRoom(10) {
		t.Error("client still in room 10 after Leave()")
	}
	if hub.RoomClientCount(10) != 0 || hub.RoomCount() != 1 {
		t.Errorf("room 10 should be gone, RoomCount() = %d", hub.RoomCount())
	}

	hub.Leave(client, 99)

	hub.Unregister(client)
	if hub.ClientCount() != 0 || hub.RoomCount() != 0 {
		t.Errorf("after Unregister ClientCount() = %d, RoomCount() = %d", hub.ClientCount(), hub.RoomCount())
	}
	hub.Unregister(client)
}

func TestHub_FailedWriteDoesNotStopFanout(t *testing.T) {
	hub, _ := startHub(t)

	broken, healthy := &fakeConn{failing: true}, &fakeConn{}
	for i, conn := range []*fakeConn{broken, healthy} {
		c := NewClient(conn, int64(i+1), "", "")
		hub.Register(c)
		hub.Join(c, 5)
	}

	hub.Broadcast(5, conversation.Frame{Type: conversation.FrameMessage, RoomID: 5})
	waitFor(t, func() bool { return len(healthy.received()) == 1 })
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := &fakeConn{}
	hub.Register(NewClient(conn, 1, "", ""))

	cancel()
	hub.Wait()

	if !conn.isClosed() {
		t.Error("Run() should close clients on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown", hub.ClientCount())
	}
	if hub.Broadcast(1, conversation.Frame{}) {
		t.Error("Broadcast() after shutdown should return false")
	}
}

func TestMessageFrame(t *testing.T) {
	frame := MessageFrame(events.MessageSentEvent{
		MessageID:  42,
		RoomID:     7,
		SenderID:   3,
		SenderName: "ana",
		Content:    "hi",
		SentAt:     "2024-03-05T14:30:15",
	})

	if frame.Type != conversation.FrameMessage || frame.RoomID != 7 {
		t.Fatalf("frame = %+v", frame)
	}
	if frame.Message == nil {
		t.Fatal("frame.Message is nil")
	}
	if frame.Message.ID != 0 {
		t.Errorf("pushed message ID = %d, want 0", frame.Message.ID)
	}
	if frame.Message.RoomID != 7 || frame.Message.SenderID != 3 || frame.Message.Content != "hi" {
		t.Errorf("frame.Message = %+v", frame.Message)
	}
}

func TestBroadcastModule_HandleMessageSent(t *testing.T) {
	m := NewModule()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	conn := &fakeConn{}
	client := NewClient(conn, 9, "", "")
	m.GetHub().Register(client)
	m.GetHub().Join(client, 7)

	if err := m.handleMessageSent(context.Background(), events.MessageSentEvent{RoomID: 7, Content: "hey"}, nil); err != nil {
		t.Fatalf("handleMessageSent() error: %v", err)
	}
	waitFor(t, func() bool { return len(conn.received()) == 1 })

	status := m.Health(context.Background())
	if !status.Healthy || status.Details["connected_clients"] != 1 {
		t.Errorf("Health() = %+v", status)
	}

	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := m.handleMessageSent(context.Background(), events.MessageSentEvent{RoomID: 7}, nil); err == nil {
		t.Error("handleMessageSent() after Stop should fail")
	}
}
