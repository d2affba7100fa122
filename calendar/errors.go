package calendar

import "fmt"

// FetchError reports that the event fetch failed. The aggregator keeps
// working with an empty event set.
type FetchError struct {
	Scope Scope
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch events for %s: %v", e.Scope, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError describes one record dropped during Load.
type ParseError struct {
	ID    int64
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("event %d: invalid %s %q: %v", e.ID, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
