package api

import (
	"time"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
)

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// RoomResponse is the API response for a room.
type RoomResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	Members   int       `json:"members"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Total int            `json:"total"`
}

// CreateEventRequest is the API request to schedule an event.
type CreateEventRequest struct {
	OwnerID     int64   `json:"ownerId"`
	GroupID     *int64  `json:"groupId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	EventDate   string  `json:"eventDate"`
	Time        *string `json:"time,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// CalendarResponse is one month of a user's or group's calendar.
type CalendarResponse struct {
	Scope   string           `json:"scope"`
	Year    int              `json:"year"`
	Month   int              `json:"month"`
	Grid    []calendar.Cell  `json:"grid"`
	Count   int              `json:"count"`
	Dropped int              `json:"dropped"`
	Day     string           `json:"day,omitempty"`
	Events  []calendar.Event `json:"events,omitempty"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
