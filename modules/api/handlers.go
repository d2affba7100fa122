package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/modules/broadcast"
	"github.com/BekaPrado/novo-mobile-sub000/modules/chat"
	"github.com/BekaPrado/novo-mobile-sub000/modules/schedule"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", m.upgradeMiddleware)
	app.Get("/ws", websocket.New(m.handleWebSocket))

	api := app.Group("/api/v1")

	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Get("/rooms/:id/messages", m.getHistory)

	api.Get("/users/:id/events", m.listEvents(calendar.ScopeUser))
	api.Get("/groups/:id/events", m.listEvents(calendar.ScopeGroup))
	api.Post("/events", m.createEvent)

	api.Get("/users/:id/calendar/:year/:month", m.getCalendar(calendar.ScopeUser))
	api.Get("/groups/:id/calendar/:year/:month", m.getCalendar(calendar.ScopeGroup))
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: code, Message: message})
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.chatAdapter.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "list_failed", "Failed to list rooms")
	}

	response := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
		Total: len(rooms),
	}
	for _, room := range rooms {
		response.Rooms = append(response.Rooms, RoomResponse{
			ID:        room.ID,
			Name:      room.Name,
			Kind:      string(room.Kind),
			CreatedAt: room.CreatedAt,
			Members:   m.hub.RoomClientCount(room.ID),
		})
	}
	return c.JSON(response)
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	room, err := m.chatAdapter.CreateRoom(c.UserContext(), req.Name, req.Kind)
	if err != nil {
		if chat.IsDomainError(err) {
			return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
		m.logger.Error("Failed to create room", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "create_failed", "Failed to create room")
	}

	return c.Status(fiber.StatusCreated).JSON(RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Kind:      string(room.Kind),
		CreatedAt: room.CreatedAt,
	})
}

// getHistory handles GET /api/v1/rooms/:id/messages.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("id")
	if err != nil || roomID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Room ID must be a positive integer")
	}
	limit := c.QueryInt("limit", chat.DefaultHistoryLimit)

	messages, err := m.chatAdapter.GetHistory(c.UserContext(), int64(roomID), limit)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Room not found")
		}
		m.logger.Error("Failed to load history", "roomID", roomID, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "history_failed", "Failed to load history")
	}
	if messages == nil {
		messages = []conversation.Message{}
	}
	return c.JSON(messages)
}

// listEvents handles GET /api/v1/{users,groups}/:id/events.
func (m *APIModule) listEvents(kind calendar.ScopeKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "ID must be a positive integer")
		}

		scope := calendar.Scope{Kind: kind, ID: int64(id)}
		records, err := m.scheduleAdapter.ListEvents(c.UserContext(), schedule.ListRequestFor(scope))
		if err != nil {
			m.logger.Error("Failed to list events", "scope", scope.String(), "error", err)
			return errorJSON(c, fiber.StatusInternalServerError, "list_failed", "Failed to list events")
		}
		if records == nil {
			records = []domain.EventRecord{}
		}
		return c.JSON(records)
	}
}

// createEvent handles POST /api/v1/events.
func (m *APIModule) createEvent(c *fiber.Ctx) error {
	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	record, err := m.scheduleAdapter.CreateEvent(c.UserContext(), schedule.CreateEventRequest{
		OwnerID:     req.OwnerID,
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		EventDate:   req.EventDate,
		Time:        req.Time,
		Link:        req.Link,
	})
	if err != nil {
		if schedule.IsValidationError(err) {
			return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
		m.logger.Error("Failed to create event", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "create_failed", "Failed to create event")
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// getCalendar handles GET /api/v1/{users,groups}/:id/calendar/:year/:month.
// An optional ?day= selects a day and returns its events.
func (m *APIModule) getCalendar(kind calendar.ScopeKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "ID must be a positive integer")
		}
		year, err := c.ParamsInt("year")
		if err != nil || year < 1 || year > 9999 {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Year must be between 1 and 9999")
		}
		monthNum, err := c.ParamsInt("month")
		if err != nil || monthNum < 1 || monthNum > 12 {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Month must be between 1 and 12")
		}
		month := time.Month(monthNum)

		day := c.QueryInt("day", 0)
		if day < 0 || day > calendar.DaysIn(year, month) {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Day is outside the month")
		}

		scope := calendar.Scope{Kind: kind, ID: int64(id)}
		agg := calendar.New(m.scheduleAdapter, scope, calendar.WithClock(func() time.Time {
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		}))

		var fetchErr *calendar.FetchError
		if err := agg.Load(c.UserContext()); errors.As(err, &fetchErr) {
			return errorJSON(c, fiber.StatusBadGateway, "fetch_failed", "Failed to load events")
		}

		response := CalendarResponse{
			Scope:   scope.String(),
			Year:    year,
			Month:   monthNum,
			Grid:    agg.Grid(),
			Count:   agg.CountInMonth(year, month),
			Dropped: agg.Dropped(),
		}
		if day > 0 {
			d := calendar.NewDate(year, month, day)
			agg.SelectDay(d)
			response.Day = d.String()
			response.Events = agg.SelectedEvents()
		}
		return c.JSON(response)
	}
}

// upgradeMiddleware admits WebSocket upgrades that name a user.
func (m *APIModule) upgradeMiddleware(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "userId query parameter is required")
	}
	c.Locals("userID", userID)
	return c.Next()
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(int64)
	client := broadcast.NewClient(c, userID, c.Query("name"), c.Query("avatar"))

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s (user %d)", client.ID, userID)
	}()

	log.Printf("[api] WebSocket client connected: %s (user %d)", client.ID, userID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error from %s: %v", client.ID, err)
			}
			return
		}

		var frame conversation.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			m.sendError(client, 0, "Invalid frame format")
			continue
		}

		switch frame.Type {
		case conversation.FrameJoin:
			m.handleJoin(client, frame)
		case conversation.FrameLeave:
			m.handleLeave(client, frame)
		case conversation.FrameSend:
			m.handleSend(client, frame)
		default:
			m.sendError(client, 0, "Unknown frame type: "+frame.Type)
		}
	}
}

func (m *APIModule) handleJoin(client *broadcast.Client, frame conversation.Frame) {
	if frame.RoomID <= 0 {
		m.sendError(client, 0, "Room ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := m.chatAdapter.GetRoom(ctx, frame.RoomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			m.sendError(client, frame.RoomID, "Room not found")
		} else {
			m.logger.Error("Failed to look up room", "roomID", frame.RoomID, "error", err)
			m.sendError(client, frame.RoomID, "Failed to join room")
		}
		return
	}

	m.hub.Join(client, frame.RoomID)
	m.reply(client, conversation.Frame{Type: conversation.FrameJoined, RoomID: frame.RoomID})
}

func (m *APIModule) handleLeave(client *broadcast.Client, frame conversation.Frame) {
	if !client.InRoom(frame.RoomID) {
		m.sendError(client, 0, "Not in room")
		return
	}
	m.hub.Leave(client, frame.RoomID)
	m.reply(client, conversation.Frame{Type: conversation.FrameLeft, RoomID: frame.RoomID})
}

// handleSend stores the message. The sender sees it when the broadcast
// comes back, like every other member of the room.
func (m *APIModule) handleSend(client *broadcast.Client, frame conversation.Frame) {
	if !client.InRoom(frame.RoomID) {
		m.sendError(client, 0, "Join the room first")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	_, err := m.chatAdapter.SendMessage(ctx, chat.SendMessageRequest{
		RoomID:       frame.RoomID,
		SenderID:     client.UserID,
		SenderName:   client.Name,
		SenderAvatar: client.Avatar,
		Content:      frame.Content,
	})
	if err != nil {
		if chat.IsDomainError(err) {
			m.sendError(client, 0, err.Error())
			return
		}
		m.logger.Error("Failed to send message", "roomID", frame.RoomID, "userID", client.UserID, "error", err)
		m.sendError(client, 0, "Failed to send message")
	}
}

func (m *APIModule) reply(client *broadcast.Client, frame conversation.Frame) {
	if err := client.Send(frame); err != nil {
		log.Printf("[api] Failed to write to %s: %v", client.ID, err)
	}
}

// sendError writes an error frame. A non-zero roomID ties it to a pending join.
func (m *APIModule) sendError(client *broadcast.Client, roomID int64, message string) {
	m.reply(client, conversation.Frame{Type: conversation.FrameError, RoomID: roomID, Error: message})
}
