package schedule

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository provides access to calendar event storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new event repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new event and fills in its ID.
func (r *Repository) Create(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// ListByOwner returns the events a user owns, by date.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]*Event, error) {
	var events []*Event
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("event_date, id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events of user %d: %w", ownerID, err)
	}
	return events, nil
}

// ListByGroup returns the events shared with a group, by date.
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Event, error) {
	var events []*Event
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("event_date, id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events of group %d: %w", groupID, err)
	}
	return events, nil
}
