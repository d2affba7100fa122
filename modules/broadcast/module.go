package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/BekaPrado/novo-mobile-sub000/domain/conversation"
	"github.com/BekaPrado/novo-mobile-sub000/events"
)

// BroadcastModule is an EventConsumerModule that pushes stored messages to
// the WebSocket clients of their room.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.hub.RoomCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageSent")
	return nil
}

func (m *BroadcastModule) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Broadcasting message %d from user %d in room %d", event.MessageID, event.SenderID, event.RoomID)

	if !m.hub.Broadcast(event.RoomID, MessageFrame(event)) {
		return fmt.Errorf("hub stopped, message %d not delivered", event.MessageID)
	}
	return nil
}

// MessageFrame builds the frame pushed for a stored message. Pushed
// messages carry no id; clients key them by position in the feed.
func MessageFrame(event events.MessageSentEvent) conversation.Frame {
	return conversation.Frame{
		Type:   conversation.FrameMessage,
		RoomID: event.RoomID,
		Message: &conversation.Message{
			Content:      event.Content,
			SenderID:     event.SenderID,
			RoomID:       event.RoomID,
			SentAt:       event.SentAt,
			SenderName:   event.SenderName,
			SenderAvatar: event.SenderAvatar,
		},
	}
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
