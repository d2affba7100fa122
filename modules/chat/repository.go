package chat

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository provides access to room and message storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chat repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateRoom saves a new room and fills in its ID.
func (r *Repository) CreateRoom(ctx context.Context, room *Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// FindRoom retrieves a room by its ID.
func (r *Repository) FindRoom(ctx context.Context, id int64) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// ListRooms retrieves all rooms in creation order.
func (r *Repository) ListRooms(ctx context.Context) ([]*Room, error) {
	var rooms []*Room
	if err := r.db.WithContext(ctx).Order("id").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// CountRooms returns the number of stored rooms.
func (r *Repository) CountRooms(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Room{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return n, nil
}

// CreateMessage saves a message and fills in its ID.
func (r *Repository) CreateMessage(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// History returns the last limit messages of a room, oldest first.
func (r *Repository) History(ctx context.Context, roomID int64, limit int) ([]*Message, error) {
	var msgs []*Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
