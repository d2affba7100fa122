// Package remote connects the feed and the calendar to the journey server:
// an HTTP client for the one-time fetches and a WebSocket live channel.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/BekaPrado/novo-mobile-sub000/calendar"
	domain "github.com/BekaPrado/novo-mobile-sub000/domain/calendar"
	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/feed"
)

const defaultTimeout = 10 * time.Second

var (
	_ feed.HistoryFetcher   = (*Client)(nil)
	_ calendar.EventFetcher = (*Client)(nil)
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.Code, e.Body)
}

// Client performs the history and event fetches over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds each request. Context deadlines shorten it further.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientLogger sets the request logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:3000".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHistory returns the stored messages of a room, oldest first.
func (c *Client) FetchHistory(ctx context.Context, roomID int64) ([]conversation.Message, error) {
	var msgs []conversation.Message
	if err := c.get(ctx, fmt.Sprintf("/api/v1/rooms/%d/messages", roomID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// FetchEvents returns the raw event records of a user or a group.
func (c *Client) FetchEvents(ctx context.Context, scope calendar.Scope) ([]domain.EventRecord, error) {
	var path string
	switch scope.Kind {
	case calendar.ScopeUser:
		path = fmt.Sprintf("/api/v1/users/%d/events", scope.ID)
	case calendar.ScopeGroup:
		path = fmt.Sprintf("/api/v1/groups/%d/events", scope.ID)
	default:
		return nil, fmt.Errorf("unsupported scope kind %d", scope.Kind)
	}

	var records []domain.EventRecord
	if err := c.get(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Get(c.baseURL + path)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeout)

	start := time.Now()
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("GET %s: %w", path, errors.Join(errs...))
	}
	c.logger.Debug("fetched", "path", path, "status", code, "latency", time.Since(start))

	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return &StatusError{Code: code, Path: path, Body: errorMessage(body)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// errorMessage extracts the message of an ErrorResponse body.
func errorMessage(body []byte) string {
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if resp.Message != "" {
		return resp.Message
	}
	return resp.Error
}
