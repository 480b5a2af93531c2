package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	"github.com/procdock/procdock/internal/common/logger"
)

// respondError maps command errors onto HTTP status codes: unknown ids are
// 404, duplicate registrations 409, bad executables 400 and spawn failures
// 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, command.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, command.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, command.ErrNoTerminal):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var notFound *command.ExecutableNotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var spawnErr *command.SpawnError
	if errors.As(err, &spawnErr) {
		log.Error("command spawn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
