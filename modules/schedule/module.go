package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the schedule module settings. An empty RedisAddr disables
// the list cache.
type Config struct {
	DBPath    string
	DBDebug   bool
	RedisAddr string
	CacheTTL  time.Duration
}

// Module stores calendar events and serves them through the container.
type Module struct {
	cfg     Config
	db      *gorm.DB
	cache   *RedisCache
	service *Service
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new schedule module.
func NewModule(cfg Config, logger types.Logger) *Module {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &Module{cfg: cfg, logger: logger}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "schedule"
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListEvents, json.Unmarshal, json.Marshal, m.listEvents,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListEvents, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateEvent, json.Unmarshal, json.Marshal, m.createEvent,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateEvent, err)
	}

	log.Printf("[schedule] Registered services: services.schedule.{%s,%s}", ServiceListEvents, ServiceCreateEvent)
	return nil
}

// Start opens the database and, when configured, connects to Redis.
func (m *Module) Start(ctx context.Context) error {
	logLevel := gormlogger.Silent
	if m.cfg.DBDebug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(sqlite.Open(m.cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Event{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.db = db

	var eventCache EventCache
	if m.cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         m.cfg.RedisAddr,
			PoolSize:     50,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		m.cache = NewRedisCache(client, "schedule:", m.cfg.CacheTTL)
		eventCache = m.cache
		log.Printf("[schedule] Connected to Redis at %s (TTL: %s)", m.cfg.RedisAddr, m.cfg.CacheTTL)
	} else {
		m.logger.Warn("REDIS_ADDR not set, event lists are not cached")
	}

	m.service = NewService(NewRepository(db), eventCache)
	log.Println("[schedule] Module started")
	return nil
}

// Stop closes the Redis and database connections.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			log.Printf("[schedule] Error closing Redis connection: %v", err)
		}
	}
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	log.Println("[schedule] Module stopped")
	return nil
}

// Health reports database and cache state.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}

	details := map[string]any{"driver": "sqlite", "cache": "disabled"}
	if m.cache != nil {
		if err := m.cache.Ping(ctx); err != nil {
			return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err)}
		}
		details["cache"] = m.cache.Snapshot()
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}

func (m *Module) listEvents(ctx context.Context, req ListEventsRequest, _ *mono.Msg) (ListEventsResponse, error) {
	records, cached, err := m.service.List(ctx, req)
	if code := codeOf(err); code != "" {
		return ListEventsResponse{ErrorCode: code}, nil
	}
	if err != nil {
		m.logger.Error("Failed to list events", "userID", req.UserID, "groupID", req.GroupID, "error", err)
		return ListEventsResponse{}, err
	}
	return ListEventsResponse{Events: records, Cached: cached}, nil
}

func (m *Module) createEvent(ctx context.Context, req CreateEventRequest, _ *mono.Msg) (CreateEventResponse, error) {
	record, err := m.service.Create(ctx, req)
	if code := codeOf(err); code != "" {
		return CreateEventResponse{ErrorCode: code}, nil
	}
	if err != nil {
		m.logger.Error("Failed to create event", "ownerID", req.OwnerID, "error", err)
		return CreateEventResponse{}, err
	}
	m.logger.Info("Event created", "eventID", record.ID, "date", record.EventDate)
	return CreateEventResponse{Event: record}, nil
}
