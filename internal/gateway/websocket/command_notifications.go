package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/events"
	"github.com/procdock/procdock/internal/events/bus"
	ws "github.com/procdock/procdock/pkg/websocket"
)

// CommandEventBroadcaster relays command lifecycle events from the event bus
// to WebSocket clients. Registry events and status changes go to every
// client so command lists stay live; output chunks only go to clients
// subscribed to that command.
type CommandEventBroadcaster struct {
	hub           *Hub
	subscriptions []bus.Subscription
	logger        *logger.Logger
}

// RegisterCommandNotifications wires the event bus to the hub. The
// broadcaster shuts down when the context is cancelled.
func RegisterCommandNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *CommandEventBroadcaster {
	b := &CommandEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws-command-broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	b.subscribe(eventBus, events.CommandRegistered, ws.ActionCommandRegistered, false)
	b.subscribe(eventBus, events.CommandRemoved, ws.ActionCommandRemoved, false)
	b.subscribe(eventBus, events.BuildCommandStatusWildcardSubject(), ws.ActionCommandStatus, false)
	b.subscribe(eventBus, events.BuildCommandOutputWildcardSubject(), ws.ActionCommandOutput, true)

	go func() {
		<-ctx.Done()
		b.Close()
	}()

	return b
}

// Close drops all event bus subscriptions.
func (b *CommandEventBroadcaster) Close() {
	for _, sub := range b.subscriptions {
		if sub != nil && sub.IsValid() {
			_ = sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *CommandEventBroadcaster) subscribe(eventBus bus.EventBus, subject, action string, subscribersOnly bool) {
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		msg, err := ws.NewNotification(action, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification",
				zap.String("action", action),
				zap.Error(err))
			return nil
		}

		if subscribersOnly {
			commandID, _ := event.Data["command_id"].(string)
			if commandID == "" {
				return nil
			}
			b.hub.BroadcastToCommand(commandID, msg)
			return nil
		}

		b.hub.Broadcast(msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}

// NewCommandCatchupProvider builds a catch-up provider backed by registry
// snapshots. New subscribers receive the current status and the buffered
// output in the same payload shape as live notifications.
func NewCommandCatchupProvider(runner *command.Runner) CatchupProvider {
	return func(ctx context.Context, commandID string) ([]*ws.Message, error) {
		info, err := runner.Find(commandID, command.ScopeAll, true)
		if err != nil {
			return nil, err
		}

		statusData := map[string]interface{}{
			"command_id": info.ID,
			"category":   info.Category,
			"status":     string(info.Status),
			"updated_at": info.UpdatedAt,
		}
		if info.Exit != nil {
			statusData["exit_code"] = info.Exit.Code
			if info.Exit.Signal != "" {
				statusData["signal"] = info.Exit.Signal
			}
			if info.Exit.Error != "" {
				statusData["error"] = info.Exit.Error
			}
		}

		msgs := make([]*ws.Message, 0, len(info.Output)+1)
		statusMsg, err := ws.NewNotification(ws.ActionCommandStatus, statusData)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, statusMsg)

		for _, chunk := range info.Output {
			outputMsg, err := ws.NewNotification(ws.ActionCommandOutput, map[string]interface{}{
				"command_id": info.ID,
				"stream":     chunk.Stream,
				"data":       chunk.Data,
				"timestamp":  chunk.Timestamp,
			})
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, outputMsg)
		}
		return msgs, nil
	}
}
