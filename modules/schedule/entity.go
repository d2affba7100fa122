package schedule

import (
	"time"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// Event is a stored calendar entry owned by a user and optionally shared
// with a group.
type Event struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	OwnerID     int64     `gorm:"not null;index:idx_events_owner_id"`
	GroupID     *int64    `gorm:"index:idx_events_group_id"`
	Name        string    `gorm:"size:200;not null"`
	Description string    `gorm:"size:2000"`
	EventDate   time.Time `gorm:"not null;index"`
	Time        *string   `gorm:"size:5"`
	Link        *string   `gorm:"size:500"`
	CreatedAt   time.Time
}

// TableName returns the table name for Event model.
func (Event) TableName() string {
	return "events"
}

func (e *Event) toRecord() domain.EventRecord {
	return domain.EventRecord{
		ID:          e.ID,
		EventDate:   e.EventDate.Format(domain.EventDateLayout),
		Name:        e.Name,
		Description: e.Description,
		Time:        e.Time,
		Link:        e.Link,
		GroupID:     e.GroupID,
	}
}
