// Package hooks is the event bus plugins subscribe to. Actions are
// fire-and-forget notifications; filters thread a typed value through
// every subscriber and return the result.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	phxlog "gcsmedia/backend/pkg/log"

	"go.uber.org/zap"
)

// Hook names used across the service.
const (
	UploadDir         = "upload_dir"
	DeleteFile        = "wp_delete_file"
	AttachmentURL     = "wp_get_attachment_url"
	AdminInit         = "admin_init"
	AdminMenu         = "admin_menu"
	Activation        = "gcs_activation"
	PluginActionLinks = "plugin_action_links_"
)

// DefaultPriority matches the host's default callback priority.
const DefaultPriority = 10

// ActionFunc handles an action. Errors are collected, not short-circuited.
type ActionFunc func(ctx context.Context, args ...any) error

// FilterFunc transforms a value of type T.
type FilterFunc[T any] func(ctx context.Context, value T) T

type callback struct {
	priority int
	seq      int
	fn       any
}

// Bus holds action and filter subscriptions.
type Bus struct {
	mu      sync.RWMutex
	seq     int
	actions map[string][]callback
	filters map[string][]callback
	fired   map[string]int
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{
		actions: make(map[string][]callback),
		filters: make(map[string][]callback),
		fired:   make(map[string]int),
	}
}

func (b *Bus) add(m map[string][]callback, name string, fn any, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	cbs := append(m[name], callback{priority: priority, seq: b.seq, fn: fn})
	sort.SliceStable(cbs, func(i, j int) bool {
		if cbs[i].priority != cbs[j].priority {
			return cbs[i].priority < cbs[j].priority
		}
		return cbs[i].seq < cbs[j].seq
	})
	m[name] = cbs
}

func (b *Bus) snapshot(m map[string][]callback, name string) []callback {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]callback(nil), m[name]...)
}

// AddAction subscribes fn to the named action.
func (b *Bus) AddAction(name string, fn ActionFunc, priority int) {
	b.add(b.actions, name, fn, priority)
}

// DoAction runs every subscriber of name in priority order and joins their errors.
func (b *Bus) DoAction(ctx context.Context, name string, args ...any) error {
	b.mu.Lock()
	b.fired[name]++
	b.mu.Unlock()

	var errs []error
	for _, cb := range b.snapshot(b.actions, name) {
		fn := cb.fn.(ActionFunc)
		if err := fn(ctx, args...); err != nil {
			errs = append(errs, fmt.Errorf("action %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// DidAction reports how many times name has been fired.
func (b *Bus) DidAction(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fired[name]
}

// HasAction reports whether any callback is registered for action name.
func (b *Bus) HasAction(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.actions[name]) > 0
}

// HasFilter reports whether any callback is registered for filter name.
func (b *Bus) HasFilter(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.filters[name]) > 0
}

// AddFilter subscribes fn to the named filter.
func AddFilter[T any](b *Bus, name string, fn FilterFunc[T], priority int) {
	b.add(b.filters, name, fn, priority)
}

// ApplyFilters passes value through every subscriber of name. Subscribers
// registered for a different value type are skipped.
func ApplyFilters[T any](ctx context.Context, b *Bus, name string, value T) T {
	for _, cb := range b.snapshot(b.filters, name) {
		fn, ok := cb.fn.(FilterFunc[T])
		if !ok {
			phxlog.L.Warn("Skipping filter callback with mismatched type",
				zap.String("filter", name),
				zap.String("callback_type", fmt.Sprintf("%T", cb.fn)))
			continue
		}
		value = fn(ctx, value)
	}
	return value
}
