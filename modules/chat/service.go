package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/events"
)

// Publisher announces stored messages.
type Publisher func(ctx context.Context, event events.MessageSentEvent) error

// Service provides chat room operations over the repository.
type Service struct {
	repo    *Repository
	publish Publisher
	now     func() time.Time
}

// NewService creates a new chat service.
func NewService(repo *Repository, publish Publisher) *Service {
	return &Service{
		repo:    repo,
		publish: publish,
		now:     time.Now,
	}
}

// CreateRoom creates a new room. An empty kind means a group room.
func (s *Service) CreateRoom(ctx context.Context, name, kind string) (conversation.Room, error) {
	if err := ValidateRoomName(name); err != nil {
		return conversation.Room{}, err
	}
	switch conversation.Kind(kind) {
	case "":
		kind = string(conversation.KindGroup)
	case conversation.KindGroup, conversation.KindPrivate:
	default:
		return conversation.Room{}, ErrRoomKindInvalid
	}

	room := &Room{Name: name, Kind: kind}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return conversation.Room{}, err
	}
	return room.toDomain(), nil
}

// GetRoom retrieves a room by ID.
func (s *Service) GetRoom(ctx context.Context, roomID int64) (conversation.Room, error) {
	room, err := s.repo.FindRoom(ctx, roomID)
	if err != nil {
		return conversation.Room{}, err
	}
	return room.toDomain(), nil
}

// ListRooms returns all rooms.
func (s *Service) ListRooms(ctx context.Context) ([]conversation.Room, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]conversation.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// History returns the last limit messages of a room, oldest first.
// limit <= 0 selects DefaultHistoryLimit; larger values are capped.
func (s *Service) History(ctx context.Context, roomID int64, limit int) ([]conversation.Message, error) {
	if _, err := s.repo.FindRoom(ctx, roomID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.History(ctx, roomID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]conversation.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// Send validates, stores and announces a message.
func (s *Service) Send(ctx context.Context, req SendMessageRequest) (conversation.Message, error) {
	if err := ValidateMessage(req.Content); err != nil {
		return conversation.Message{}, err
	}
	if req.SenderID <= 0 {
		return conversation.Message{}, ErrSenderRequired
	}
	if _, err := s.repo.FindRoom(ctx, req.RoomID); err != nil {
		return conversation.Message{}, err
	}

	msg := &Message{
		RoomID:       req.RoomID,
		SenderID:     req.SenderID,
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
		Content:      req.Content,
		SentAt:       s.now().UTC().Truncate(time.Second),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return conversation.Message{}, err
	}
	stored := msg.toDomain()

	if s.publish != nil {
		event := events.MessageSentEvent{
			MessageID:    stored.ID,
			RoomID:       stored.RoomID,
			SenderID:     stored.SenderID,
			SenderName:   stored.SenderName,
			SenderAvatar: stored.SenderAvatar,
			Content:      stored.Content,
			SentAt:       stored.SentAt,
		}
		if err := s.publish(ctx, event); err != nil {
			return stored, fmt.Errorf("failed to publish message %d: %w", stored.ID, err)
		}
	}
	return stored, nil
}
