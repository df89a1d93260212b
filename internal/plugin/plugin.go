// Package plugin wires the GCS media plugin into the hook bus, the admin
// menu and the settings registry.
package plugin

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	"gcsmedia/backend/internal/admin"
	"gcsmedia/backend/internal/auth"
	"gcsmedia/backend/internal/filestorage"
	"gcsmedia/backend/internal/hooks"
	"gcsmedia/backend/internal/options"
	"gcsmedia/backend/internal/settings"
	"gcsmedia/backend/internal/uploads"
	phxlog "gcsmedia/backend/pkg/log"

	"go.uber.org/zap"
)

const (
	Slug     = "gcs"
	Basename = "gcs/gcs.php"
	Name     = "Google Cloud Storage plugin"

	// ActiveOption is set to "1" once the plugin has been activated.
	ActiveOption = "gcs_plugin_active"

	settingsURL = "options-general.php?page=" + Slug
)

// Config carries the plugin's collaborators.
type Config struct {
	Bus      *hooks.Bus
	Store    options.Store
	Registry *settings.Registry
	Menu     *admin.Menu
	Uploads  *uploads.Uploads
	Info     filestorage.ClientInfo
	// DefaultBucket is seeded into gcs_bucket on activation when no bucket is set.
	DefaultBucket string
}

// Plugin is the GCS media plugin: its settings, admin page, activation
// hook and action links.
type Plugin struct {
	cfg    Config
	logger *zap.Logger
}

// New returns a plugin bound to cfg. Call Register to subscribe it.
func New(cfg Config) *Plugin {
	return &Plugin{cfg: cfg, logger: phxlog.L.Named("plugin")}
}

// Version is the plugin version reported in the x-goog-api-client header.
func (p *Plugin) Version() string {
	return p.cfg.Info.PluginVersion
}

// InfoHeader returns "wp/<host version> wp-gcs/<plugin version>".
func (p *Plugin) InfoHeader() string {
	return p.cfg.Info.InfoHeader()
}

// Register subscribes every plugin callback on the bus.
func (p *Plugin) Register() {
	bus := p.cfg.Bus
	bus.AddAction(hooks.AdminInit, func(ctx context.Context, _ ...any) error {
		return p.RegisterSettings(ctx)
	}, hooks.DefaultPriority)
	bus.AddAction(hooks.AdminMenu, func(_ context.Context, args ...any) error {
		p.OptionsPage(viewerArg(args))
		return nil
	}, hooks.DefaultPriority)
	bus.AddAction(hooks.Activation, func(ctx context.Context, _ ...any) error {
		return p.cfg.Uploads.SeedDefaults(ctx, p.cfg.DefaultBucket)
	}, hooks.DefaultPriority)
	hooks.AddFilter[[]string](bus, hooks.PluginActionLinks+Basename, p.SettingsLink, hooks.DefaultPriority)
	p.cfg.Uploads.Register(bus)
}

func viewerArg(args []any) auth.Viewer {
	if len(args) > 0 {
		if v, ok := args[0].(auth.Viewer); ok {
			return v
		}
	}
	return auth.Viewer{}
}

// RegisterSettings declares the plugin's options and settings fields.
func (p *Plugin) RegisterSettings(ctx context.Context) error {
	if err := p.cfg.Uploads.RegisterSettings(ctx, p.cfg.Registry); err != nil {
		return fmt.Errorf("failed to register %s settings: %w", Slug, err)
	}
	return nil
}

// OptionsPage adds the settings page to the options menu. It returns the
// page hook for viewers allowed to manage options and "" for everyone else.
func (p *Plugin) OptionsPage(viewer auth.Viewer) string {
	if !viewer.Can(auth.CapManageOptions) {
		return ""
	}
	return p.cfg.Menu.AddOptionsPage("GCS Plugin", "GCS", auth.CapManageOptions, Slug, p.OptionsPageView)
}

var optionsPageTmpl = template.Must(template.New("options").Parse(`<div class="wrap">
<h1>{{.Title}}</h1>
<form action="options.php" method="post">
{{.Fields}}{{.Sections}}<p class="submit"><input type="submit" name="submit" id="submit" class="button button-primary" value="Save Changes"></p>
</form>
</div>
`))

// OptionsPageView writes the settings form. Viewers without the
// manage_options capability get no output.
func (p *Plugin) OptionsPageView(ctx context.Context, viewer auth.Viewer, w io.Writer) error {
	if !viewer.Can(auth.CapManageOptions) {
		return nil
	}

	var fields, sections bytes.Buffer
	if err := p.cfg.Registry.RenderFields(&fields, uploads.OptionGroup); err != nil {
		return err
	}
	if err := p.cfg.Registry.RenderSections(ctx, &sections, uploads.SettingsPage); err != nil {
		return err
	}

	return optionsPageTmpl.Execute(w, struct {
		Title    string
		Fields   template.HTML
		Sections template.HTML
	}{
		Title:    "GCS Plugin Settings",
		Fields:   template.HTML(fields.String()),
		Sections: template.HTML(sections.String()),
	})
}

// SettingsLink prepends the settings page link to the plugin's action links.
func (p *Plugin) SettingsLink(_ context.Context, links []string) []string {
	link := `<a href="` + settingsURL + `">Settings</a>`
	return append([]string{link}, links...)
}

// Activate marks the plugin active and fires gcs_activation.
func (p *Plugin) Activate(ctx context.Context) error {
	if err := p.cfg.Store.Update(ctx, ActiveOption, "1"); err != nil {
		return fmt.Errorf("failed to mark plugin active: %w", err)
	}
	return p.ActivationHook(ctx)
}

// ActivationHook fires the gcs_activation action.
func (p *Plugin) ActivationHook(ctx context.Context) error {
	p.logger.Info("Firing activation hook", zap.String("hook", hooks.Activation))
	return p.cfg.Bus.DoAction(ctx, hooks.Activation)
}

// IsActive reports whether Activate has run.
func (p *Plugin) IsActive(ctx context.Context) (bool, error) {
	return options.GetBool(ctx, p.cfg.Store, ActiveOption, false)
}

// Info describes the plugin on the plugins listing.
type Info struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Basename    string   `json:"basename"`
	Version     string   `json:"version"`
	Active      bool     `json:"active"`
	ActionLinks []string `json:"action_links"`
}

// Describe returns the listing entry, with action links passed through
// plugin_action_links_<basename>.
func (p *Plugin) Describe(ctx context.Context) (Info, error) {
	active, err := p.IsActive(ctx)
	if err != nil {
		return Info{}, err
	}
	links := hooks.ApplyFilters[[]string](ctx, p.cfg.Bus, hooks.PluginActionLinks+Basename, []string{})
	return Info{
		Name:        Name,
		Slug:        Slug,
		Basename:    Basename,
		Version:     p.Version(),
		Active:      active,
		ActionLinks: links,
	}, nil
}
