package calendar

import (
	"errors"
	"strings"
	"time"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

var errNoLayout = errors.New("no known date layout matches")

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	domain.EventDateLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Event is a parsed calendar entry.
type Event struct {
	ID          int64  `json:"id"`
	Date        Date   `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Time        string `json:"time,omitempty"`
	Link        string `json:"link,omitempty"`
	GroupID     *int64 `json:"groupId,omitempty"`
}

// parseDate extracts the calendar day of a raw eventDate value. The date is
// taken as written; no timezone conversion is applied.
func parseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, errNoLayout
}

// validClock reports whether s is an "HH:MM" time of day.
func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

// parseRecord converts a fetched record. Only an unusable date rejects the
// record; a malformed time of day is cleared.
func parseRecord(rec domain.EventRecord) (Event, error) {
	date, err := parseDate(rec.EventDate)
	if err != nil {
		return Event{}, &ParseError{ID: rec.ID, Field: "eventDate", Value: rec.EventDate, Err: err}
	}

	ev := Event{
		ID:          rec.ID,
		Date:        date,
		Name:        rec.Name,
		Description: rec.Description,
		GroupID:     rec.GroupID,
	}
	if rec.Time != nil && validClock(strings.TrimSpace(*rec.Time)) {
		ev.Time = strings.TrimSpace(*rec.Time)
	}
	if rec.Link != nil {
		ev.Link = *rec.Link
	}
	return ev, nil
}
