package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	fws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/feed"
)

const rejectedRoom = 13

// startStub serves a minimal journey API on a loopback port and returns its
// base URL.
func startStub(t *testing.T) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/api/v1/rooms/:id/messages", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id == rejectedRoom {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "room not found"})
		}
		return c.JSON([]conversation.Message{
			{ID: 1, RoomID: int64(id), SenderID: 2, Content: "first"},
			{ID: 2, RoomID: int64(id), SenderID: 3, Content: "second"},
		})
	})
	app.Get("/api/v1/users/:id/events", func(c *fiber.Ctx) error {
		return c.JSON([]domain.EventRecord{
			{ID: 1, EventDate: "2024-03-05T10:00:00", Name: "standup"},
			{ID: 2, EventDate: "garbage", Name: "broken"},
		})
	})
	app.Get("/api/v1/groups/:id/events", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed", "message": "database unavailable"})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if fws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", fws.New(func(c *fws.Conn) {
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			var f conversation.Frame
			if err := json.Unmarshal(data, &f); err != nil {
				continue
			}
			switch f.Type {
			case conversation.FrameJoin:
				if f.RoomID == rejectedRoom {
					_ = c.WriteJSON(conversation.Frame{Type: conversation.FrameError, RoomID: f.RoomID, Error: "room not found"})
					continue
				}
				_ = c.WriteJSON(conversation.Frame{Type: conversation.FrameJoined, RoomID: f.RoomID})
			case conversation.FrameLeave:
				_ = c.WriteJSON(conversation.Frame{Type: conversation.FrameLeft, RoomID: f.RoomID})
			case conversation.FrameSend:
				if f.Content == "drop" {
					return
				}
				// Two malformed pushes precede every echo.
				_ = c.WriteMessage(fws.TextMessage, []byte(`{"type":"message","message":{"roomId":1}}`))
				_ = c.WriteMessage(fws.TextMessage, []byte(`garbage`))
				_ = c.WriteJSON(conversation.Frame{Type: conversation.FrameMessage, Message: &conversation.Message{
					RoomID: f.RoomID, SenderID: f.SenderID, Content: f.Content,
				}})
			}
		}
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func connectedSocket(t *testing.T, server string) *Socket {
	t.Helper()
	u, err := SocketURL(server, 7, "ana", "")
	require.NoError(t, err)
	s := NewSocket(u)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{server: "http://localhost:3000", want: "ws://localhost:3000/ws?name=ana&userId=7"},
		{server: "https://journey.example", want: "wss://journey.example/ws?name=ana&userId=7"},
		{server: "ws://10.0.0.2:8080/", want: "ws://10.0.0.2:8080/ws?name=ana&userId=7"},
	}
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := SocketURL(tt.server, 7, "ana", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SocketURL("ftp://host", 1, "", "")
	assert.Error(t, err)
}

func TestSocket_EchoSkipsMalformedFrames(t *testing.T) {
	s := connectedSocket(t, startStub(t))

	sub, err := s.Join(context.Background(), 4)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, s.Emit(context.Background(), conversation.SendRequest{Content: "hello", RoomID: 4, SenderID: 7}))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, conversation.Message{Content: "hello", RoomID: 4, SenderID: 7}, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no echo received")
	}

	select {
	case msg := <-sub.Messages():
		t.Fatalf("unexpected extra message %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSocket_JoinRejected(t *testing.T) {
	s := connectedSocket(t, startStub(t))

	_, err := s.Join(context.Background(), rejectedRoom)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, int64(rejectedRoom), remoteErr.RoomID)
	assert.Equal(t, "room not found", remoteErr.Message)
}

func TestSocket_NotConnected(t *testing.T) {
	s := NewSocket("ws://127.0.0.1:1/ws")

	_, err := s.Join(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, s.Emit(context.Background(), conversation.SendRequest{Content: "x", RoomID: 1}), ErrNotConnected)
	assert.NoError(t, s.Disconnect())
}

func TestSocket_ConnectTwice(t *testing.T) {
	s := connectedSocket(t, startStub(t))
	assert.ErrorIs(t, s.Connect(context.Background()), ErrAlreadyConnected)
}

func TestSocket_DisconnectEndsSubscriptions(t *testing.T) {
	server := startStub(t)
	s := connectedSocket(t, server)

	sub, err := s.Join(context.Background(), 4)
	require.NoError(t, err)

	require.NoError(t, s.Disconnect())
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still alive after Disconnect")
	}
	assert.False(t, s.Connected())
	assert.NoError(t, sub.Close())

	// A socket can be reconnected after a disconnect.
	require.NoError(t, s.Connect(context.Background()))
	again, err := s.Join(context.Background(), 4)
	require.NoError(t, err)
	assert.NoError(t, again.Close())
}

func TestSocket_ServerDropEndsSubscriptions(t *testing.T) {
	s := connectedSocket(t, startStub(t))

	sub, err := s.Join(context.Background(), 4)
	require.NoError(t, err)
	require.NoError(t, s.Emit(context.Background(), conversation.SendRequest{Content: "drop", RoomID: 4}))

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription still alive after the server hung up")
	}
	assert.Eventually(t, func() bool { return !s.Connected() }, time.Second, 10*time.Millisecond)
}

func TestClient_FetchHistory(t *testing.T) {
	c := NewClient(startStub(t))

	msgs, err := c.FetchHistory(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, int64(4), msgs[1].RoomID)

	_, err = c.FetchHistory(context.Background(), rejectedRoom)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, fiber.StatusNotFound, statusErr.Code)
	assert.Equal(t, "room not found", statusErr.Body)
}

func TestClient_FetchEvents(t *testing.T) {
	c := NewClient(startStub(t) + "/")

	records, err := c.FetchEvents(context.Background(), calendar.Scope{Kind: calendar.ScopeUser, ID: 1})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = c.FetchEvents(context.Background(), calendar.Scope{Kind: calendar.ScopeGroup, ID: 1})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, fiber.StatusInternalServerError, statusErr.Code)
}

func TestClient_ExpiredContext(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHistory(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCalendarOverClient(t *testing.T) {
	c := NewClient(startStub(t))
	agg := calendar.New(c, calendar.Scope{Kind: calendar.ScopeUser, ID: 1})

	require.NoError(t, agg.Load(context.Background()))
	assert.Equal(t, 1, agg.CountInMonth(2024, time.March))
	assert.Equal(t, 1, agg.Dropped())

	group := calendar.New(c, calendar.Scope{Kind: calendar.ScopeGroup, ID: 1})
	var fetchErr *calendar.FetchError
	assert.ErrorAs(t, group.Load(context.Background()), &fetchErr)
}

func TestFeedOverSocket(t *testing.T) {
	server := startStub(t)
	s := connectedSocket(t, server)
	f := feed.New(NewClient(server), s, 7)

	require.NoError(t, f.Open(context.Background(), 4))
	defer f.Close()
	require.Equal(t, 2, f.Len())

	require.NoError(t, f.Send(context.Background(), "hello"))
	require.Eventually(t, func() bool { return f.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	msgs := f.Messages()
	assert.Equal(t, "hello", msgs[2].Content)
	assert.Equal(t, int64(7), msgs[2].SenderID)
}
