package handlers

import (
	"net/http"

	"gcsmedia/backend/internal/plugin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListPluginsHandler returns the installed plugins with their action links.
func (h *Handler) ListPluginsHandler(c *gin.Context) {
	info, err := h.Plugin.Describe(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to describe plugin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list plugins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plugins": []plugin.Info{info}})
}

// ActivatePluginHandler activates the plugin named by :slug.
func (h *Handler) ActivatePluginHandler(c *gin.Context) {
	if c.Param("slug") != plugin.Slug {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plugin not found"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Plugin.Activate(ctx); err != nil {
		h.logger.Error("Plugin activation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate plugin: " + err.Error()})
		return
	}

	info, err := h.Plugin.Describe(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to describe plugin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plugin activated", "plugin": info})
}
