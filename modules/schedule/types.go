package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// Validation constants
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxLinkLength        = 500
)

// Service names registered in the container.
const (
	ServiceListEvents  = "list-events"
	ServiceCreateEvent = "create-event"
)

// Errors
var (
	ErrScopeRequired  = errors.New("exactly one of user id or group id is required")
	ErrOwnerRequired  = errors.New("owner id is required")
	ErrNameEmpty      = errors.New("event name cannot be empty")
	ErrNameTooLong    = errors.New("event name exceeds maximum length")
	ErrDescTooLong    = errors.New("event description exceeds maximum length")
	ErrTextInvalid    = errors.New("event text contains invalid characters")
	ErrDateInvalid    = errors.New("event date must be YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS")
	ErrTimeInvalid    = errors.New("event time must be HH:MM")
	ErrLinkTooLong    = errors.New("event link exceeds maximum length")
	ErrGroupIDInvalid = errors.New("group id must be positive")
)

var errorCodes = map[string]error{
	"scope_required":   ErrScopeRequired,
	"owner_required":   ErrOwnerRequired,
	"name_empty":       ErrNameEmpty,
	"name_too_long":    ErrNameTooLong,
	"desc_too_long":    ErrDescTooLong,
	"text_invalid":     ErrTextInvalid,
	"date_invalid":     ErrDateInvalid,
	"time_invalid":     ErrTimeInvalid,
	"link_too_long":    ErrLinkTooLong,
	"group_id_invalid": ErrGroupIDInvalid,
}

func codeOf(err error) string {
	for code, target := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}

func errorOf(code string) error {
	if code == "" {
		return nil
	}
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return errors.New(code)
}

// ListEventsRequest selects the events of a user or of a group.
type ListEventsRequest struct {
	UserID  int64 `json:"user_id,omitempty"`
	GroupID int64 `json:"group_id,omitempty"`
}

// ListEventsResponse carries events ordered by date.
type ListEventsResponse struct {
	Events    []domain.EventRecord `json:"events"`
	Cached    bool                 `json:"cached"`
	ErrorCode string               `json:"error_code,omitempty"`
}

// CreateEventRequest is the request for scheduling an event.
type CreateEventRequest struct {
	OwnerID     int64   `json:"owner_id"`
	GroupID     *int64  `json:"group_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	EventDate   string  `json:"event_date"`
	Time        *string `json:"time,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// CreateEventResponse carries the stored event.
type CreateEventResponse struct {
	Event     domain.EventRecord `json:"event"`
	ErrorCode string             `json:"error_code,omitempty"`
}

func cacheKey(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func userKey(id int64) string  { return cacheKey("user", id) }
func groupKey(id int64) string { return cacheKey("group", id) }

// ValidateCreate checks a create request and returns the parsed date.
func ValidateCreate(req CreateEventRequest) (time.Time, error) {
	if req.OwnerID <= 0 {
		return time.Time{}, ErrOwnerRequired
	}
	if req.GroupID != nil && *req.GroupID <= 0 {
		return time.Time{}, ErrGroupIDInvalid
	}
	if strings.TrimSpace(req.Name) == "" {
		return time.Time{}, ErrNameEmpty
	}
	if len(req.Name) > MaxNameLength {
		return time.Time{}, ErrNameTooLong
	}
	if len(req.Description) > MaxDescriptionLength {
		return time.Time{}, ErrDescTooLong
	}
	if !utf8.ValidString(req.Name) || !utf8.ValidString(req.Description) {
		return time.Time{}, ErrTextInvalid
	}
	if req.Time != nil {
		if _, err := time.Parse("15:04", *req.Time); err != nil || len(*req.Time) != 5 {
			return time.Time{}, ErrTimeInvalid
		}
	}
	if req.Link != nil && len(*req.Link) > MaxLinkLength {
		return time.Time{}, ErrLinkTooLong
	}
	return parseEventDate(req.EventDate)
}

func parseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{domain.EventDateLayout, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrDateInvalid
}

// IsValidationError reports whether err is a rejected request rather than
// an infrastructure error.
func IsValidationError(err error) bool {
	return codeOf(err) != ""
}
