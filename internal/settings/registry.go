// Package settings keeps track of registered options, their sanitize
// callbacks and the sections/fields that render them on an admin page.
package settings

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"sync"
)

// SanitizeFunc normalizes a submitted value into its stored form.
type SanitizeFunc func(raw string) string

// RenderFunc writes the markup for a section or field.
type RenderFunc func(ctx context.Context, w io.Writer) error

// Setting describes one registered option.
type Setting struct {
	Group    string
	Name     string
	Sanitize SanitizeFunc
}

type section struct {
	id     string
	title  string
	render RenderFunc
}

type field struct {
	id      string
	title   string
	section string
	render  RenderFunc
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	settings map[string]Setting
	groups   map[string][]string
	sections map[string][]section
	fields   map[string][]field
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		settings: make(map[string]Setting),
		groups:   make(map[string][]string),
		sections: make(map[string][]section),
		fields:   make(map[string][]field),
	}
}

// RegisterSetting declares name in group. Registering the same name again
// replaces its sanitize callback but keeps its position.
func (r *Registry) RegisterSetting(group, name string, sanitize SanitizeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.settings[name]; !exists {
		r.groups[group] = append(r.groups[group], name)
	}
	r.settings[name] = Setting{Group: group, Name: name, Sanitize: sanitize}
}

// Setting returns the registration for name.
func (r *Registry) Setting(name string) (Setting, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[name]
	return s, ok
}

// Fields lists the option names of group in registration order.
func (r *Registry) Fields(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.groups[group]...)
}

// Sanitize runs the sanitize callback registered for name. Unregistered
// names are rejected.
func (r *Registry) Sanitize(name, raw string) (string, error) {
	s, ok := r.Setting(name)
	if !ok {
		return "", fmt.Errorf("setting %q is not registered", name)
	}
	if s.Sanitize == nil {
		return raw, nil
	}
	return s.Sanitize(raw), nil
}

// AddSection adds a section to page. Re-adding an id is a no-op.
func (r *Registry) AddSection(page, id, title string, render RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sections[page] {
		if s.id == id {
			return
		}
	}
	r.sections[page] = append(r.sections[page], section{id: id, title: title, render: render})
}

// AddField adds a field to a section of page. Re-adding an id is a no-op.
func (r *Registry) AddField(page, sectionID, id, title string, render RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fields[page] {
		if f.id == id {
			return
		}
	}
	r.fields[page] = append(r.fields[page], field{id: id, title: title, section: sectionID, render: render})
}

var (
	sectionHeadTmpl = template.Must(template.New("section").Parse(`<h2>{{.}}</h2>
`))
	tableOpenTmpl = template.Must(template.New("table").Parse(`<table class="form-table" role="presentation">
`))
	rowOpenTmpl = template.Must(template.New("row").Parse(`<tr><th scope="row"><label for="{{.ID}}">{{.Title}}</label></th><td>`))
	groupTmpl   = template.Must(template.New("group").Parse(`<input type="hidden" name="option_page" value="{{.}}">
<input type="hidden" name="action" value="update">
`))
)

// RenderSections writes every section of page with its fields, in
// registration order.
func (r *Registry) RenderSections(ctx context.Context, w io.Writer, page string) error {
	r.mu.RLock()
	sections := append([]section(nil), r.sections[page]...)
	fields := append([]field(nil), r.fields[page]...)
	r.mu.RUnlock()

	for _, s := range sections {
		if s.title != "" {
			if err := sectionHeadTmpl.Execute(w, s.title); err != nil {
				return err
			}
		}
		if s.render != nil {
			if err := s.render(ctx, w); err != nil {
				return fmt.Errorf("render section %s: %w", s.id, err)
			}
		}
		if err := tableOpenTmpl.Execute(w, nil); err != nil {
			return err
		}
		for _, f := range fields {
			if f.section != s.id {
				continue
			}
			if err := rowOpenTmpl.Execute(w, struct{ ID, Title string }{f.id, f.title}); err != nil {
				return err
			}
			if err := f.render(ctx, w); err != nil {
				return fmt.Errorf("render field %s: %w", f.id, err)
			}
			if _, err := io.WriteString(w, "</td></tr>\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</table>\n"); err != nil {
			return err
		}
	}
	return nil
}

// RenderFields writes the hidden inputs that tie a form post to group.
func (r *Registry) RenderFields(w io.Writer, group string) error {
	return groupTmpl.Execute(w, group)
}
