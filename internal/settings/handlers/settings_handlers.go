// Package handlers provides the HTTP API for daemon settings.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/settings"
)

// SettingsHandlers serves the key-value settings endpoints.
type SettingsHandlers struct {
	store  settings.Store
	logger *logger.Logger
}

// NewSettingsHandlers creates handlers backed by the given store.
func NewSettingsHandlers(store settings.Store, log *logger.Logger) *SettingsHandlers {
	return &SettingsHandlers{
		store:  store,
		logger: log.WithFields(zap.String("component", "settings-handlers")),
	}
}

// RegisterSettingsRoutes mounts the settings endpoints on the router.
func RegisterSettingsRoutes(router *gin.Engine, store settings.Store, log *logger.Logger) *SettingsHandlers {
	h := NewSettingsHandlers(store, log)

	api := router.Group("/api/v1/settings")
	api.GET("", h.GetSettings)
	api.PUT("", h.UpdateSettings)
	api.DELETE("/:key", h.DeleteSetting)

	return h
}

// GetSettings returns every stored setting.
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.store.All()})
}

// UpdateSettings merges the submitted values into the store and persists it.
func (h *SettingsHandlers) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	for key, value := range req {
		h.store.Set(key, value)
	}
	if err := h.store.Save(); err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": h.store.All()})
}

// DeleteSetting removes a single key and persists the store.
func (h *SettingsHandlers) DeleteSetting(c *gin.Context) {
	key := c.Param("key")
	h.store.Delete(key)
	if err := h.store.Save(); err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.Status(http.StatusNoContent)
}
