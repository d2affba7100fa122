package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BekaPrado/novo-mobile-sub000/events"
)

// DefaultRoomName is the room created on first start.
const DefaultRoomName = "General Lobby"

// Module stores rooms and messages in SQLite and publishes MessageSent.
type Module struct {
	db       *gorm.DB
	service  *Service
	eventBus mono.EventBus
	dbPath   string
	dbDebug  bool
	logger   types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat module backed by the database at dbPath.
func NewModule(dbPath string, dbDebug bool, logger types.Logger) *Module {
	return &Module{
		dbPath:  dbPath,
		dbDebug: dbDebug,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetHistory, json.Unmarshal, json.Marshal, m.getHistory,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetHistory, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSendMessage, json.Unmarshal, json.Marshal, m.sendMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSendMessage, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateRoom, json.Unmarshal, json.Marshal, m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetRoom, json.Unmarshal, json.Marshal, m.getRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetRoom, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	log.Printf("[chat] Registered services: services.chat.{%s,%s,%s,%s,%s}",
		ServiceGetHistory, ServiceSendMessage, ServiceCreateRoom, ServiceGetRoom, ServiceListRooms)
	return nil
}

// Start opens the database, migrates it and seeds the default room.
func (m *Module) Start(ctx context.Context) error {
	log.Printf("[chat] Connecting to SQLite database: %s", m.dbPath)

	db, err := openDB(m.dbPath, m.dbDebug)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewRepository(db)
	m.service = NewService(repo, m.publish)

	n, err := repo.CountRooms(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := m.service.CreateRoom(ctx, DefaultRoomName, ""); err != nil {
			return fmt.Errorf("failed to seed default room: %w", err)
		}
		m.logger.Info("Seeded default room", "name", DefaultRoomName)
	}

	log.Println("[chat] Module started")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[chat] Module stopped")
	return nil
}

// Health pings the database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"driver": "sqlite", "path": m.dbPath},
	}
}

func (m *Module) publish(_ context.Context, event events.MessageSentEvent) error {
	return events.MessageSentV1.Publish(m.eventBus, event, nil)
}

// Service handlers. Domain failures are answered with an error code;
// only infrastructure failures are returned as errors.

func (m *Module) getHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	msgs, err := m.service.History(ctx, req.RoomID, req.Limit)
	if code := codeOf(err); code != "" {
		return GetHistoryResponse{ErrorCode: code}, nil
	}
	if err != nil {
		return GetHistoryResponse{}, err
	}
	return GetHistoryResponse{Messages: msgs}, nil
}

func (m *Module) sendMessage(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	msg, err := m.service.Send(ctx, req)
	if code := codeOf(err); code != "" {
		return SendMessageResponse{ErrorCode: code}, nil
	}
	if err != nil {
		m.logger.Error("Failed to send message", "roomID", req.RoomID, "error", err)
		return SendMessageResponse{}, err
	}
	m.logger.Debug("Message sent", "roomID", msg.RoomID, "messageID", msg.ID)
	return SendMessageResponse{Message: msg}, nil
}

func (m *Module) createRoom(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	room, err := m.service.CreateRoom(ctx, req.Name, req.Kind)
	if code := codeOf(err); code != "" {
		return RoomResponse{ErrorCode: code}, nil
	}
	if err != nil {
		return RoomResponse{}, err
	}
	m.logger.Info("Room created", "roomID", room.ID, "name", room.Name)
	return RoomResponse{Room: room}, nil
}

func (m *Module) getRoom(ctx context.Context, req GetRoomRequest, _ *mono.Msg) (RoomResponse, error) {
	room, err := m.service.GetRoom(ctx, req.RoomID)
	if code := codeOf(err); code != "" {
		return RoomResponse{ErrorCode: code}, nil
	}
	if err != nil {
		return RoomResponse{}, err
	}
	return RoomResponse{Room: room}, nil
}

func (m *Module) listRooms(ctx context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	rooms, err := m.service.ListRooms(ctx)
	if err != nil {
		return ListRoomsResponse{}, err
	}
	return ListRoomsResponse{Rooms: rooms, Total: len(rooms)}, nil
}

func openDB(path string, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Room{}, &Message{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
