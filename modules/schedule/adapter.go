package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// SchedulePort defines the interface for event operations.
type SchedulePort interface {
	ListEvents(ctx context.Context, req ListEventsRequest) ([]domain.EventRecord, error)
	CreateEvent(ctx context.Context, req CreateEventRequest) (domain.EventRecord, error)
	FetchEvents(ctx context.Context, scope calendar.Scope) ([]domain.EventRecord, error)
}

// ScheduleAdapter implements SchedulePort using the service container.
type ScheduleAdapter struct {
	container mono.ServiceContainer
}

var _ calendar.EventFetcher = (*ScheduleAdapter)(nil)

// NewScheduleAdapter creates a new ScheduleAdapter.
func NewScheduleAdapter(container mono.ServiceContainer) SchedulePort {
	if container == nil {
		panic("schedule: ServiceContainer is nil")
	}
	return &ScheduleAdapter{container: container}
}

// ListEvents returns the events of a user or a group.
func (a *ScheduleAdapter) ListEvents(ctx context.Context, req ListEventsRequest) ([]domain.EventRecord, error) {
	var resp ListEventsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListEvents,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// CreateEvent schedules a new event.
func (a *ScheduleAdapter) CreateEvent(ctx context.Context, req CreateEventRequest) (domain.EventRecord, error) {
	var resp CreateEventResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateEvent,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.EventRecord{}, fmt.Errorf("failed to create event: %w", err)
	}
	if err := errorOf(resp.ErrorCode); err != nil {
		return domain.EventRecord{}, err
	}
	return resp.Event, nil
}

// FetchEvents lists the events of a calendar scope.
func (a *ScheduleAdapter) FetchEvents(ctx context.Context, scope calendar.Scope) ([]domain.EventRecord, error) {
	return a.ListEvents(ctx, ListRequestFor(scope))
}

// ListRequestFor builds the list request of a calendar scope.
func ListRequestFor(scope calendar.Scope) ListEventsRequest {
	if scope.Kind == calendar.ScopeGroup {
		return ListEventsRequest{GroupID: scope.ID}
	}
	return ListEventsRequest{UserID: scope.ID}
}
