package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/BekaPrado/novo-mobile-sub000/modules/api"
	"github.com/BekaPrado/novo-mobile-sub000/modules/broadcast"
	"github.com/BekaPrado/novo-mobile-sub000/modules/chat"
	"github.com/BekaPrado/novo-mobile-sub000/modules/schedule"
)

const shutdownTimeout = 30 * time.Second

func main() {
	port := getEnv("PORT", "3000")
	dbPath := getEnv("DB_PATH", "journey.db")
	dbDebug := getEnvBool("DB_DEBUG", false)
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	allowedOrigins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	log.Println("=== Journey - Chat Rooms + Calendar ===")
	log.Printf("Database: %s", dbPath)
	if redisAddr != "" {
		log.Printf("Redis: %s (TTL %s)", redisAddr, cacheTTL)
	} else {
		log.Println("Redis: disabled")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	chatModule := chat.NewModule(dbPath, dbDebug, logger.WithModule("chat"))
	scheduleModule := schedule.NewModule(schedule.Config{
		DBPath:    dbPath,
		DBDebug:   dbDebug,
		RedisAddr: redisAddr,
		CacheTTL:  cacheTTL,
	}, logger.WithModule("schedule"))
	broadcastModule := broadcast.NewModule()
	apiModule := api.NewModule(port, allowedOrigins, logger.WithModule("api"))

	// The hub is not exposed via ServiceContainer.
	apiModule.SetHub(broadcastModule.GetHub())

	// Independent modules first, then modules with dependencies.
	app.Register(chatModule)      // rooms + messages, emits MessageSent
	app.Register(scheduleModule)  // calendar events
	app.Register(broadcastModule) // WebSocket hub, consumes MessageSent
	app.Register(apiModule)       // HTTP/WebSocket API

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(port)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port string) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                                - Health check")
	log.Println("  GET    /api/v1/rooms                          - List rooms")
	log.Println("  POST   /api/v1/rooms                          - Create a room")
	log.Println("  GET    /api/v1/rooms/:id/messages?limit=      - Message history, oldest first")
	log.Println("  GET    /api/v1/users/:id/events               - Events of a user")
	log.Println("  GET    /api/v1/groups/:id/events              - Events of a group")
	log.Println("  POST   /api/v1/events                         - Schedule an event")
	log.Println("  GET    /api/v1/users/:id/calendar/:year/:month  - Month grid (?day= for a day's events)")
	log.Println("  GET    /api/v1/groups/:id/calendar/:year/:month - Month grid of a group")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws?userId=&name=&avatar=):", port)
	log.Println("  Frames: join, leave, send -> joined, left, message, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
