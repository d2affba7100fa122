package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Event{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// memCache is an EventCache kept in a map.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = data
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestValidateCreate(t *testing.T) {
	valid := CreateEventRequest{OwnerID: 1, Name: "Standup", EventDate: "2024-03-05T09:00:00"}

	tests := []struct {
		name    string
		mutate  func(*CreateEventRequest)
		wantErr error
		wantDay int
	}{
		{name: "valid", mutate: func(*CreateEventRequest) {}, wantDay: 5},
		{name: "date only", mutate: func(r *CreateEventRequest) { r.EventDate = "2024-03-07" }, wantDay: 7},
		{name: "missing owner", mutate: func(r *CreateEventRequest) { r.OwnerID = 0 }, wantErr: ErrOwnerRequired},
		{name: "bad group", mutate: func(r *CreateEventRequest) { r.GroupID = ptr(int64(0)) }, wantErr: ErrGroupIDInvalid},
		{name: "blank name", mutate: func(r *CreateEventRequest) { r.Name = " " }, wantErr: ErrNameEmpty},
		{name: "long name", mutate: func(r *CreateEventRequest) { r.Name = strings.Repeat("n", MaxNameLength+1) }, wantErr: ErrNameTooLong},
		{name: "long description", mutate: func(r *CreateEventRequest) { r.Description = strings.Repeat("d", MaxDescriptionLength+1) }, wantErr: ErrDescTooLong},
		{name: "invalid utf8", mutate: func(r *CreateEventRequest) { r.Name = "x\xff" }, wantErr: ErrTextInvalid},
		{name: "bad time", mutate: func(r *CreateEventRequest) { r.Time = ptr("9am") }, wantErr: ErrTimeInvalid},
		{name: "short time", mutate: func(r *CreateEventRequest) { r.Time = ptr("9:00") }, wantErr: ErrTimeInvalid},
		{name: "good time", mutate: func(r *CreateEventRequest) { r.Time = ptr("09:30") }, wantDay: 5},
		{name: "long link", mutate: func(r *CreateEventRequest) { r.Link = ptr(strings.Repeat("l", MaxLinkLength+1)) }, wantErr: ErrLinkTooLong},
		{name: "bad date", mutate: func(r *CreateEventRequest) { r.EventDate = "05/03/2024" }, wantErr: ErrDateInvalid},
		{name: "empty date", mutate: func(r *CreateEventRequest) { r.EventDate = "" }, wantErr: ErrDateInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			date, err := ValidateCreate(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ValidateCreate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateCreate() unexpected error: %v", err)
			}
			if date.Day() != tt.wantDay {
				t.Errorf("ValidateCreate() day = %d, want %d", date.Day(), tt.wantDay)
			}
		})
	}
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewRepository(setupTestDB(t)), nil)

	seed := []CreateEventRequest{
		{OwnerID: 1, Name: "later", EventDate: "2024-03-20T10:00:00"},
		{OwnerID: 1, GroupID: ptr(int64(5)), Name: "team", EventDate: "2024-03-02", Time: ptr("14:00")},
		{OwnerID: 2, GroupID: ptr(int64(5)), Name: "other team", EventDate: "2024-03-10"},
		{OwnerID: 2, Name: "private", EventDate: "2024-03-11"},
	}
	for _, req := range seed {
		if _, err := service.Create(ctx, req); err != nil {
			t.Fatalf("Create(%q) error: %v", req.Name, err)
		}
	}

	tests := []struct {
		name      string
		req       ListEventsRequest
		wantNames []string
		wantErr   error
	}{
		{name: "user", req: ListEventsRequest{UserID: 1}, wantNames: []string{"team", "later"}},
		{name: "group", req: ListEventsRequest{GroupID: 5}, wantNames: []string{"team", "other team"}},
		{name: "unknown user", req: ListEventsRequest{UserID: 99}, wantNames: []string{}},
		{name: "no scope", req: ListEventsRequest{}, wantErr: ErrScopeRequired},
		{name: "both scopes", req: ListEventsRequest{UserID: 1, GroupID: 5}, wantErr: ErrScopeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, cached, err := service.List(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("List() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() unexpected error: %v", err)
			}
			if cached {
				t.Error("List() reported a cache hit without a cache")
			}
			if len(records) != len(tt.wantNames) {
				t.Fatalf("List() len = %d, want %d", len(records), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if records[i].Name != want {
					t.Errorf("List()[%d] = %q, want %q", i, records[i].Name, want)
				}
			}
		})
	}

	records, _, _ := service.List(ctx, ListEventsRequest{UserID: 1})
	team := records[0]
	if team.EventDate != "2024-03-02T00:00:00" {
		t.Errorf("EventDate = %q, want 2024-03-02T00:00:00", team.EventDate)
	}
	if team.Time == nil || *team.Time != "14:00" {
		t.Errorf("Time = %v, want 14:00", team.Time)
	}
	if team.GroupID == nil || *team.GroupID != 5 {
		t.Errorf("GroupID = %v, want 5", team.GroupID)
	}
}

func TestService_ListCacheAside(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	service := NewService(NewRepository(setupTestDB(t)), cache)

	if _, err := service.Create(ctx, CreateEventRequest{OwnerID: 1, Name: "first", EventDate: "2024-03-01"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	records, cached, err := service.List(ctx, ListEventsRequest{UserID: 1})
	if err != nil || cached || len(records) != 1 {
		t.Fatalf("first List() = %d records, cached=%v, err=%v", len(records), cached, err)
	}

	records, cached, err = service.List(ctx, ListEventsRequest{UserID: 1})
	if err != nil || !cached || len(records) != 1 {
		t.Fatalf("second List() = %d records, cached=%v, err=%v", len(records), cached, err)
	}
	if records[0].Name != "first" {
		t.Errorf("cached record = %q, want first", records[0].Name)
	}

	cache.deleted = nil
	if _, err := service.Create(ctx, CreateEventRequest{OwnerID: 1, GroupID: ptr(int64(3)), Name: "second", EventDate: "2024-03-02"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if strings.Join(cache.deleted, ",") != "user:1,group:3" {
		t.Errorf("Create() invalidated %v, want [user:1 group:3]", cache.deleted)
	}

	records, cached, err = service.List(ctx, ListEventsRequest{UserID: 1})
	if err != nil || cached || len(records) != 2 {
		t.Fatalf("List() after create = %d records, cached=%v, err=%v", len(records), cached, err)
	}
}

func TestService_ListConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewRepository(setupTestDB(t)), newMemCache())

	for _, name := range []string{"a", "b"} {
		if _, err := service.Create(ctx, CreateEventRequest{OwnerID: 4, Name: name, EventDate: "2024-05-01"}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, _, err := service.List(ctx, ListEventsRequest{UserID: 4})
			if err == nil && len(records) != 2 {
				err = errors.New("wrong number of records")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent List() error: %v", err)
		}
	}
}

func TestErrorCodes_RoundTrip(t *testing.T) {
	for code, want := range errorCodes {
		if got := errorOf(codeOf(want)); !errors.Is(got, want) {
			t.Errorf("code %q: got %v, want %v", code, got, want)
		}
	}
	if codeOf(errors.New("disk full")) != "" {
		t.Error("codeOf() should not map infrastructure errors")
	}
}
