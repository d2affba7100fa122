package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
)

// ChatPort defines the interface for chat operations.
type ChatPort interface {
	CreateRoom(ctx context.Context, name, kind string) (conversation.Room, error)
	GetRoom(ctx context.Context, roomID int64) (conversation.Room, error)
	ListRooms(ctx context.Context) ([]conversation.Room, error)
	GetHistory(ctx context.Context, roomID int64, limit int) ([]conversation.Message, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (conversation.Message, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) ChatPort {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// CreateRoom creates a new chat room.
func (a *ChatAdapter) CreateRoom(ctx context.Context, name, kind string) (conversation.Room, error) {
	req := CreateRoomRequest{Name: name, Kind: kind}
	var resp RoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return conversation.Room{}, fmt.Errorf("failed to create room: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return conversation.Room{}, err
	}
	return resp.Room, nil
}

// GetRoom retrieves a room by ID.
func (a *ChatAdapter) GetRoom(ctx context.Context, roomID int64) (conversation.Room, error) {
	req := GetRoomRequest{RoomID: roomID}
	var resp RoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return conversation.Room{}, fmt.Errorf("failed to get room: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return conversation.Room{}, err
	}
	return resp.Room, nil
}

// ListRooms returns all available rooms.
func (a *ChatAdapter) ListRooms(ctx context.Context) ([]conversation.Room, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// GetHistory retrieves message history for a room.
func (a *ChatAdapter) GetHistory(ctx context.Context, roomID int64, limit int) ([]conversation.Message, error) {
	req := GetHistoryRequest{RoomID: roomID, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage stores a message and triggers its broadcast.
func (a *ChatAdapter) SendMessage(ctx context.Context, req SendMessageRequest) (conversation.Message, error) {
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return conversation.Message{}, fmt.Errorf("failed to send message: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return conversation.Message{}, err
	}
	return resp.Message, nil
}
