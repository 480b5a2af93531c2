package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/events"
	"github.com/procdock/procdock/internal/events/bus"
)

// eventSource identifies this package as the origin of published events.
const eventSource = "command-runner"

func publishRegisteredEvent(eventBus bus.EventBus, log *logger.Logger, info Info) {
	if eventBus == nil {
		return
	}
	event := bus.NewEvent(events.CommandRegistered, eventSource, map[string]interface{}{
		"command_id":  info.ID,
		"category":    info.Category,
		"kind":        info.Kind,
		"command":     info.Command,
		"working_dir": info.WorkingDir,
		"pty":         info.Pty,
	})
	if err := eventBus.Publish(context.Background(), events.CommandRegistered, event); err != nil {
		log.Debug("failed to publish registered event", zap.String("command_id", info.ID), zap.Error(err))
	}
}

func publishRemovedEvent(eventBus bus.EventBus, log *logger.Logger, id string) {
	if eventBus == nil {
		return
	}
	event := bus.NewEvent(events.CommandRemoved, eventSource, map[string]interface{}{
		"command_id": id,
	})
	if err := eventBus.Publish(context.Background(), events.CommandRemoved, event); err != nil {
		log.Debug("failed to publish removed event", zap.String("command_id", id), zap.Error(err))
	}
}

func publishStatusEvent(eventBus bus.EventBus, log *logger.Logger, info Info) {
	if eventBus == nil {
		return
	}
	data := map[string]interface{}{
		"command_id": info.ID,
		"category":   info.Category,
		"status":     string(info.Status),
		"updated_at": info.UpdatedAt,
	}
	if info.Exit != nil {
		data["exit_code"] = info.Exit.Code
		if info.Exit.Signal != "" {
			data["signal"] = info.Exit.Signal
		}
		if info.Exit.Error != "" {
			data["error"] = info.Exit.Error
		}
	}
	event := bus.NewEvent(events.CommandStatus, eventSource, data)
	if err := eventBus.Publish(context.Background(), events.BuildCommandStatusSubject(info.ID), event); err != nil {
		log.Debug("failed to publish status event", zap.String("command_id", info.ID), zap.Error(err))
	}
}

func publishOutputEvent(eventBus bus.EventBus, log *logger.Logger, id string, chunk OutputChunk) {
	if eventBus == nil {
		return
	}
	event := bus.NewEvent(events.CommandOutput, eventSource, map[string]interface{}{
		"command_id": id,
		"stream":     chunk.Stream,
		"data":       chunk.Data,
		"timestamp":  chunk.Timestamp,
	})
	if err := eventBus.Publish(context.Background(), events.BuildCommandOutputSubject(id), event); err != nil {
		log.Debug("failed to publish output event", zap.String("command_id", id), zap.Error(err))
	}
}
