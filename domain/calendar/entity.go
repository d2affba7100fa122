package calendar

// EventDateLayout is the format the backend uses for EventRecord.EventDate.
const EventDateLayout = "2006-01-02T15:04:05"

// EventRecord is a calendar entry as returned by the event fetch.
// EventDate carries date and time; Time is an optional "HH:MM".
type EventRecord struct {
	ID          int64   `json:"id"`
	EventDate   string  `json:"eventDate"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Time        *string `json:"time,omitempty"`
	Link        *string `json:"link,omitempty"`
	GroupID     *int64  `json:"groupId,omitempty"`
}
