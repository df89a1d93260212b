package hooks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFiltersOrder(t *testing.T) {
	ctx := context.Background()
	bus := New()

	AddFilter(bus, "title", FilterFunc[string](func(_ context.Context, v string) string { return v + "-late" }), 20)
	AddFilter(bus, "title", FilterFunc[string](func(_ context.Context, v string) string { return v + "-a" }), DefaultPriority)
	AddFilter(bus, "title", FilterFunc[string](func(_ context.Context, v string) string { return v + "-b" }), DefaultPriority)
	AddFilter(bus, "title", FilterFunc[string](func(_ context.Context, v string) string { return "early-" + v }), 1)

	assert.True(t, bus.HasFilter("title"))
	assert.Equal(t, "early-x-a-b-late", ApplyFilters(ctx, bus, "title", "x"))
}

func TestApplyFiltersWithoutSubscribers(t *testing.T) {
	bus := New()
	assert.False(t, bus.HasFilter(UploadDir))
	assert.Equal(t, 7, ApplyFilters(context.Background(), bus, "nothing", 7))
}

func TestApplyFiltersSkipsMismatchedType(t *testing.T) {
	ctx := context.Background()
	bus := New()

	AddFilter(bus, "links", FilterFunc[string](func(_ context.Context, v string) string { return "wrong" }), DefaultPriority)
	AddFilter(bus, "links", FilterFunc[[]string](func(_ context.Context, v []string) []string { return append(v, "settings") }), DefaultPriority)

	assert.Equal(t, []string{"deactivate", "settings"}, ApplyFilters(ctx, bus, "links", []string{"deactivate"}))
}

func TestDoAction(t *testing.T) {
	ctx := context.Background()
	bus := New()

	var calls []string
	bus.AddAction("gcs_activation", func(_ context.Context, args ...any) error {
		calls = append(calls, "second")
		return errors.New("seed failed")
	}, 20)
	bus.AddAction("gcs_activation", func(_ context.Context, args ...any) error {
		calls = append(calls, "first:"+args[0].(string))
		return nil
	}, DefaultPriority)

	assert.Equal(t, 0, bus.DidAction("gcs_activation"))
	err := bus.DoAction(ctx, "gcs_activation", "arg")

	assert.Equal(t, []string{"first:arg", "second"}, calls)
	assert.ErrorContains(t, err, "seed failed")
	assert.True(t, strings.HasPrefix(err.Error(), "action gcs_activation"))
	assert.Equal(t, 1, bus.DidAction("gcs_activation"))
	assert.True(t, bus.HasAction("gcs_activation"))

	assert.NoError(t, bus.DoAction(ctx, "unsubscribed"))
	assert.Equal(t, 1, bus.DidAction("unsubscribed"))
}

func TestBusConcurrentUse(t *testing.T) {
	ctx := context.Background()
	bus := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			AddFilter(bus, "n", FilterFunc[int](func(_ context.Context, v int) int { return v + 1 }), DefaultPriority)
		}()
		go func() {
			defer wg.Done()
			_ = ApplyFilters(ctx, bus, "n", 0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, ApplyFilters(ctx, bus, "n", 0))
}
