// Package handlers provides the HTTP API for the command runner.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	"github.com/procdock/procdock/internal/common/logger"
	v1 "github.com/procdock/procdock/pkg/api/v1"
)

// CommandHandlers exposes the command runner over HTTP.
type CommandHandlers struct {
	runner *command.Runner
	logger *logger.Logger
}

// RegisterCommandRoutes mounts the command API under /api/v1/commands.
func RegisterCommandRoutes(router *gin.Engine, runner *command.Runner, log *logger.Logger) {
	handlers := &CommandHandlers{
		runner: runner,
		logger: log.WithFields(zap.String("component", "command-handlers")),
	}
	api := router.Group("/api/v1")
	commands := api.Group("/commands")
	commands.POST("", handlers.httpRunCommand)
	commands.GET("", handlers.httpListCommands)
	commands.DELETE("", handlers.httpRemoveAllCommands)
	commands.GET("/:commandId", handlers.httpGetCommand)
	commands.DELETE("/:commandId", handlers.httpRemoveCommand)
	commands.POST("/:commandId/stop", handlers.httpStopCommand)
	commands.POST("/:commandId/restart", handlers.httpRestartCommand)
	commands.POST("/:commandId/input", handlers.httpSendInput)
	commands.POST("/:commandId/resize", handlers.httpResizeCommand)
	commands.GET("/:commandId/screen", handlers.httpGetScreen)
}

func (h *CommandHandlers) httpRunCommand(c *gin.Context) {
	var req v1.RunCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("run command invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	info, err := h.runner.Run(c.Request.Context(), command.RunRequest{
		Category:         req.Category,
		Kind:             req.Kind,
		Command:          req.Command,
		Args:             req.Args,
		WorkingDir:       req.WorkingDir,
		Env:              req.Env,
		Pty:              req.Pty,
		Cols:             req.Cols,
		Rows:             req.Rows,
		DisableStreaming: req.DisableStreaming,
	})
	if err != nil {
		h.logger.Warn("failed to run command",
			zap.String("command", req.Command),
			zap.String("category", req.Category),
			zap.Error(err))
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"command": info.ToAPI()})
}

func (h *CommandHandlers) httpListCommands(c *gin.Context) {
	scope, ok := parseScope(c.Query("scope"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be recent or all"})
		return
	}
	commands := h.runner.List(scope)
	list := v1.CommandList{Commands: make([]*v1.Command, 0, len(commands)), Total: len(commands)}
	for _, info := range commands {
		list.Commands = append(list.Commands, info.ToAPI())
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommandHandlers) httpGetCommand(c *gin.Context) {
	id := c.Param("commandId")
	scope, ok := parseScope(c.Query("scope"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be recent or all"})
		return
	}
	includeOutput := c.Query("include_output") == "true"

	info, err := h.runner.Find(id, scope, includeOutput)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"command": info.ToAPI()})
}

func (h *CommandHandlers) httpStopCommand(c *gin.Context) {
	id := c.Param("commandId")
	if err := h.runner.Stop(id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandlers) httpRestartCommand(c *gin.Context) {
	id := c.Param("commandId")
	info, err := h.runner.Restart(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("failed to restart command",
			zap.String("command_id", id),
			zap.Error(err))
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"command": info.ToAPI()})
}

func (h *CommandHandlers) httpRemoveCommand(c *gin.Context) {
	id := c.Param("commandId")
	if err := h.runner.Remove(id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandlers) httpRemoveAllCommands(c *gin.Context) {
	h.runner.RemoveAll()
	c.Status(http.StatusNoContent)
}

func (h *CommandHandlers) httpSendInput(c *gin.Context) {
	id := c.Param("commandId")
	var body v1.InputRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.runner.Input(id, []byte(body.Data)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandlers) httpResizeCommand(c *gin.Context) {
	id := c.Param("commandId")
	var body v1.ResizeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.runner.Resize(id, body.Cols, body.Rows); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommandHandlers) httpGetScreen(c *gin.Context) {
	id := c.Param("commandId")
	screen, err := h.runner.Screen(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"command_id": id, "screen": screen})
}

// parseScope maps the scope query parameter onto a registry scope. An empty
// value selects the full scope.
func parseScope(value string) (command.Scope, bool) {
	switch value {
	case "", string(command.ScopeAll):
		return command.ScopeAll, true
	case string(command.ScopeRecent):
		return command.ScopeRecent, true
	default:
		return "", false
	}
}
