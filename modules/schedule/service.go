package schedule

import (
	"context"
	"log"

	"golang.org/x/sync/singleflight"

	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
)

// Service lists and schedules events. Lists go through the cache when one
// is configured.
type Service struct {
	repo    *Repository
	cache   EventCache
	sfGroup singleflight.Group
}

// NewService creates a new schedule service. cache may be nil.
func NewService(repo *Repository, cache EventCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns the events of a user or a group. The second result reports
// whether the list came from the cache.
func (s *Service) List(ctx context.Context, req ListEventsRequest) ([]domain.EventRecord, bool, error) {
	var key string
	switch {
	case req.UserID > 0 && req.GroupID == 0:
		key = userKey(req.UserID)
	case req.GroupID > 0 && req.UserID == 0:
		key = groupKey(req.GroupID)
	default:
		return nil, false, ErrScopeRequired
	}

	if s.cache != nil {
		var cached []domain.EventRecord
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[schedule] Cache error for %s: %v", key, err)
		}
		if found {
			log.Printf("[schedule] Cache HIT for %s", key)
			return cached, true, nil
		}
		log.Printf("[schedule] Cache MISS for %s, querying database", key)
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		var (
			rows []*Event
			err  error
		)
		if req.UserID > 0 {
			rows, err = s.repo.ListByOwner(ctx, req.UserID)
		} else {
			rows, err = s.repo.ListByGroup(ctx, req.GroupID)
		}
		if err != nil {
			return nil, err
		}
		records := make([]domain.EventRecord, 0, len(rows))
		for _, e := range rows {
			records = append(records, e.toRecord())
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, key, records); err != nil {
				log.Printf("[schedule] Warning: failed to cache %s: %v", key, err)
			}
		}
		return records, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]domain.EventRecord), false, nil
}

// Create validates and stores an event, then drops the cached lists it
// belongs to.
func (s *Service) Create(ctx context.Context, req CreateEventRequest) (domain.EventRecord, error) {
	date, err := ValidateCreate(req)
	if err != nil {
		return domain.EventRecord{}, err
	}

	event := &Event{
		OwnerID:     req.OwnerID,
		GroupID:     req.GroupID,
		Name:        req.Name,
		Description: req.Description,
		EventDate:   date,
		Time:        req.Time,
		Link:        req.Link,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return domain.EventRecord{}, err
	}

	if s.cache != nil {
		keys := []string{userKey(event.OwnerID)}
		if event.GroupID != nil {
			keys = append(keys, groupKey(*event.GroupID))
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			log.Printf("[schedule] Warning: failed to invalidate %v: %v", keys, err)
		}
	}

	log.Printf("[schedule] Created event ID=%d for user %d", event.ID, event.OwnerID)
	return event.toRecord(), nil
}
