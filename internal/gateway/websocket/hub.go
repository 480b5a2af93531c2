// Package websocket provides the WebSocket gateway: a hub of client
// connections, an action dispatcher and broadcasters that relay command
// lifecycle events to connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/common/logger"
	ws "github.com/procdock/procdock/pkg/websocket"
)

// CatchupProvider returns the messages that bring a late subscriber up to
// date on a command: its current snapshot and buffered output.
type CatchupProvider func(ctx context.Context, commandID string) ([]*ws.Message, error)

// Hub manages all WebSocket client connections
type Hub struct {
	// All registered clients
	clients map[*Client]bool

	// Clients subscribed to individual commands, for output streaming
	commandSubscribers map[string]map[*Client]bool

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Channel for broadcasting notifications
	broadcast chan *ws.Message

	// Message dispatcher
	dispatcher *ws.Dispatcher

	// Optional provider for command catch-up on subscription
	catchupProvider CatchupProvider

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(dispatcher *ws.Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		commandSubscribers: make(map[string]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		broadcast:          make(chan *ws.Message, 256),
		dispatcher:         dispatcher,
		logger:             log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// closeAllClients closes all client connections
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.commandSubscribers = make(map[string]map[*Client]bool)
}

// removeClient removes a client from the hub
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		// Remove from all command subscriptions
		for commandID := range client.subscriptions {
			if clients, ok := h.commandSubscribers[commandID]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.commandSubscribers, commandID)
				}
			}
		}
	}
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

// broadcastMessage sends a message to every connected client
func (h *Hub) broadcastMessage(msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client buffer full, will be cleaned up by write pump
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a notification to all connected clients
func (h *Hub) Broadcast(msg *ws.Message) {
	h.broadcast <- msg
}

// BroadcastToCommand sends a notification to clients subscribed to a command.
// Output streams can be high volume, so they only go to subscribers.
func (h *Hub) BroadcastToCommand(commandID string, msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := h.commandSubscribers[commandID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Buffer full
		}
	}
}

// SubscribeToCommand subscribes a client to a command's output stream
func (h *Hub) SubscribeToCommand(client *Client, commandID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.commandSubscribers[commandID]; !ok {
		h.commandSubscribers[commandID] = make(map[*Client]bool)
	}
	h.commandSubscribers[commandID][client] = true
	client.subscriptions[commandID] = true

	h.logger.Debug("Client subscribed to command",
		zap.String("client_id", client.ID),
		zap.String("command_id", commandID))
}

// UnsubscribeFromCommand unsubscribes a client from a command's output
func (h *Hub) UnsubscribeFromCommand(client *Client, commandID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.subscriptions, commandID)
	if clients, ok := h.commandSubscribers[commandID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.commandSubscribers, commandID)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetDispatcher returns the message dispatcher
func (h *Hub) GetDispatcher() *ws.Dispatcher {
	return h.dispatcher
}

// SetCatchupProvider sets the provider used to replay command state to new
// subscribers.
func (h *Hub) SetCatchupProvider(provider CatchupProvider) {
	h.catchupProvider = provider
}

// CatchupMessages returns the replay messages for a command, or nil when no
// provider is configured.
func (h *Hub) CatchupMessages(ctx context.Context, commandID string) ([]*ws.Message, error) {
	if h.catchupProvider == nil {
		return nil, nil
	}
	return h.catchupProvider(ctx, commandID)
}
