// Package admin holds the admin menu pages registered by plugins.
package admin

import (
	"context"
	"io"
	"sort"
	"sync"

	"gcsmedia/backend/internal/auth"
)

// RenderFunc writes a page body for the current viewer.
type RenderFunc func(ctx context.Context, viewer auth.Viewer, w io.Writer) error

// Page is a registered admin page.
type Page struct {
	Slug       string
	PageTitle  string
	MenuTitle  string
	Capability string
	Hook       string
	Render     RenderFunc
}

// Menu is the options menu of the admin surface.
type Menu struct {
	mu    sync.RWMutex
	pages map[string]Page
}

func NewMenu() *Menu {
	return &Menu{pages: make(map[string]Page)}
}

// AddOptionsPage registers a page under the options menu and returns its
// hook name, "admin_page_<slug>".
func (m *Menu) AddOptionsPage(pageTitle, menuTitle, capability, slug string, render RenderFunc) string {
	hook := "admin_page_" + slug
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[slug] = Page{
		Slug:       slug,
		PageTitle:  pageTitle,
		MenuTitle:  menuTitle,
		Capability: capability,
		Hook:       hook,
		Render:     render,
	}
	return hook
}

// Page looks up a registered page by slug.
func (m *Menu) Page(slug string) (Page, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[slug]
	return p, ok
}

// Pages returns the registered pages sorted by slug.
func (m *Menu) Pages() []Page {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pages := make([]Page, 0, len(m.pages))
	for _, p := range m.pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages
}
