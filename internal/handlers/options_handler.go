package handlers

import (
	"bytes"
	"net/http"
	"net/url"

	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/hooks"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const settingsSavedNotice = `<div id="setting-error-settings_updated" class="notice notice-success"><p><strong>Settings saved.</strong></p></div>
`

// OptionsPageHandler renders an admin page registered under the options
// menu, selected by ?page=<slug>.
func (h *Handler) OptionsPageHandler(c *gin.Context) {
	slug := c.Query("page")
	if slug == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "page query parameter is required"})
		return
	}

	ctx := c.Request.Context()
	viewer := auth.ViewerFromContext(c)
	if err := h.Bus.DoAction(ctx, hooks.AdminMenu, viewer); err != nil {
		h.logger.Error("admin_menu action failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build admin menu"})
		return
	}

	page, ok := h.Menu.Page(slug)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin page not found"})
		return
	}
	if !viewer.Can(page.Capability) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Sorry, you are not allowed to access this page."})
		return
	}

	var buf bytes.Buffer
	if c.Query("settings-updated") == "true" {
		buf.WriteString(settingsSavedNotice)
	}
	if err := page.Render(ctx, viewer, &buf); err != nil {
		h.logger.Error("Failed to render admin page", zap.String("page", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SaveOptionsHandler stores every option of the posted option_page group
// after running it through its sanitize callback, then redirects back to
// the settings page.
func (h *Handler) SaveOptionsHandler(c *gin.Context) {
	group := c.PostForm("option_page")
	if group == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option_page is required"})
		return
	}
	names := h.Registry.Fields(group)
	if len(names) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown option page: " + group})
		return
	}

	ctx := c.Request.Context()
	for _, name := range names {
		value, err := h.Registry.Sanitize(name, c.PostForm(name))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := h.Store.Update(ctx, name, value); err != nil {
			h.logger.Error("Failed to save option", zap.String("option", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
	}

	h.logger.Info("Settings saved",
		zap.String("option_page", group),
		zap.String("user_id", auth.ViewerFromContext(c).UserID.String()))

	redirect := url.Values{}
	redirect.Set("page", group)
	redirect.Set("settings-updated", "true")
	c.Redirect(http.StatusSeeOther, "/wp-admin/options-general.php?"+redirect.Encode())
}
