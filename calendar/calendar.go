// Package calendar aggregates a user's or a group's events into a month view.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// ScopeKind selects whose events are loaded.
type ScopeKind int

const (
	ScopeUser ScopeKind = iota
	ScopeGroup
)

// Scope identifies the owner of an event set.
type Scope struct {
	Kind ScopeKind
	ID   int64
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeUser:
		return fmt.Sprintf("user %d", s.ID)
	case ScopeGroup:
		return fmt.Sprintf("group %d", s.ID)
	default:
		return fmt.Sprintf("scope(%d) %d", int(s.Kind), s.ID)
	}
}

// EventFetcher loads the raw event records of a scope.
type EventFetcher interface {
	FetchEvents(ctx context.Context, scope Scope) ([]domain.EventRecord, error)
}

// Cell is one slot of a month grid. Empty cells pad the first week.
type Cell struct {
	Empty bool `json:"empty"`
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the clock used to pick the initial month.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger used for dropped records.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator holds the loaded events of one scope and the month being viewed.
type Aggregator struct {
	fetcher EventFetcher
	scope   Scope
	now     func() time.Time
	logger  *slog.Logger

	mu          sync.RWMutex
	events      []Event
	byDate      map[Date][]int
	dropped     int
	year        int
	month       time.Month
	selected    Date
	hasSelected bool
}

// New creates an aggregator with no events, showing the current month.
func New(fetcher EventFetcher, scope Scope, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		scope:   scope,
		now:     time.Now,
		logger:  slog.Default(),
		byDate:  make(map[Date][]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	today := DateOf(a.now())
	a.year, a.month = today.Year, today.Month
	return a
}

// Scope returns the scope the aggregator loads.
func (a *Aggregator) Scope() Scope { return a.scope }

// Load replaces the event set with a fresh fetch. Records with an unusable
// date are dropped and counted. On a fetch failure the event set is left
// empty and a *FetchError is returned.
func (a *Aggregator) Load(ctx context.Context) error {
	records, err := a.fetcher.FetchEvents(ctx, a.scope)
	if err != nil {
		a.mu.Lock()
		a.events = nil
		a.byDate = make(map[Date][]int)
		a.dropped = 0
		a.mu.Unlock()
		a.logger.Warn("event fetch failed", "scope", a.scope.String(), "error", err)
		return &FetchError{Scope: a.scope, Err: err}
	}

	events := make([]Event, 0, len(records))
	byDate := make(map[Date][]int)
	dropped := 0
	for _, rec := range records {
		ev, err := parseRecord(rec)
		if err != nil {
			dropped++
			a.logger.Debug("dropping event", "scope", a.scope.String(), "error", err)
			continue
		}
		byDate[ev.Date] = append(byDate[ev.Date], len(events))
		events = append(events, ev)
	}

	a.mu.Lock()
	a.events = events
	a.byDate = byDate
	a.dropped = dropped
	a.mu.Unlock()
	return nil
}

// Dropped returns how many records the last Load discarded.
func (a *Aggregator) Dropped() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropped
}

// Events returns every loaded event in fetch order.
func (a *Aggregator) Events() []Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// MonthGrid lays out a month Sunday-first. The grid starts with one empty
// cell per weekday before the 1st and has no trailing padding.
func (a *Aggregator) MonthGrid(year int, month time.Month) []Cell {
	first := NewDate(year, month, 1)
	year, month = first.Year, first.Month
	leading := int(first.Weekday())
	days := DaysIn(year, month)

	a.mu.RLock()
	defer a.mu.RUnlock()

	cells := make([]Cell, leading, leading+days)
	for i := range cells {
		cells[i] = Cell{Empty: true}
	}
	for day := 1; day <= days; day++ {
		d := Date{Year: year, Month: month, Day: day}
		cells = append(cells, Cell{Date: d, Count: len(a.byDate[d])})
	}
	return cells
}

// EventsOn returns the events dated d in fetch order.
func (a *Aggregator) EventsOn(d Date) []Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eventsOnLocked(d)
}

func (a *Aggregator) eventsOnLocked(d Date) []Event {
	idx := a.byDate[d]
	out := make([]Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, a.events[i])
	}
	return out
}

// CountInMonth returns the number of loaded events dated in the month.
func (a *Aggregator) CountInMonth(year int, month time.Month) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, ev := range a.events {
		if ev.Date.InMonth(year, month) {
			n++
		}
	}
	return n
}

// Selected returns the month being viewed.
func (a *Aggregator) Selected() (int, time.Month) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.year, a.month
}

// PreviousMonth moves the view back one month. Events are not reloaded.
func (a *Aggregator) PreviousMonth() {
	a.shift(-1)
}

// NextMonth moves the view forward one month. Events are not reloaded.
func (a *Aggregator) NextMonth() {
	a.shift(1)
}

func (a *Aggregator) shift(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.year, a.month = shiftMonth(a.year, a.month, delta)
}

// SelectDay marks d as the highlighted day.
func (a *Aggregator) SelectDay(d Date) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = d
	a.hasSelected = true
}

// SelectedDay returns the highlighted day, if any.
func (a *Aggregator) SelectedDay() (Date, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selected, a.hasSelected
}

// SelectedEvents returns the events of the highlighted day, or nil.
func (a *Aggregator) SelectedEvents() []Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.hasSelected {
		return nil
	}
	return a.eventsOnLocked(a.selected)
}

// Grid returns MonthGrid for the month being viewed.
func (a *Aggregator) Grid() []Cell {
	year, month := a.Selected()
	return a.MonthGrid(year, month)
}
