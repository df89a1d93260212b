package admin

import (
	"context"
	"io"
	"testing"

	"gcsmedia/backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOptionsPage(t *testing.T) {
	m := NewMenu()
	render := func(context.Context, auth.Viewer, io.Writer) error { return nil }

	hook := m.AddOptionsPage("Media", "Media", auth.CapManageOptions, "media", render)
	assert.Equal(t, "admin_page_media", hook)
	m.AddOptionsPage("GCS Plugin", "GCS", auth.CapManageOptions, "gcs", render)
	m.AddOptionsPage("GCS Plugin", "GCS", auth.CapManageOptions, "gcs", render)

	page, ok := m.Page("gcs")
	require.True(t, ok)
	assert.Equal(t, "GCS", page.MenuTitle)
	assert.Equal(t, "admin_page_gcs", page.Hook)

	pages := m.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, "gcs", pages[0].Slug)
	assert.Equal(t, "media", pages[1].Slug)

	_, ok = m.Page("missing")
	assert.False(t, ok)
}
