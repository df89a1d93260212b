package handlers

import (
	"gcsmedia/backend/internal/admin"
	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/media"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/plugin"
	"gcsmedia/backend/internal/settings"
	phxlog "gcsmedia/backend/pkg/log"

	"go.uber.org/zap"
)

// Deps are the services the HTTP handlers call into.
type Deps struct {
	Bus      *hooks.Bus
	Store    options.Store
	Registry *settings.Registry
	Menu     *admin.Menu
	Plugin   *plugin.Plugin
	Media    *media.Service
}

// Handler serves the admin and API endpoints.
type Handler struct {
	Deps
	logger *zap.Logger
}

// New returns the HTTP handlers over deps.
func New(deps Deps) *Handler {
	return &Handler{Deps: deps, logger: phxlog.L.Named("handlers")}
}
