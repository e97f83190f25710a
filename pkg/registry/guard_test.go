package registry_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traitwatch/traitwatch/pkg/domain"
	"github.com/traitwatch/traitwatch/pkg/registry"
)

func TestHandler_ReceivesListenerFailure(t *testing.T) {
	var gotName string
	var gotErr error
	defer registry.ScopedHandler(func(obj domain.Observable, name string, old, new any, err error) {
		gotName = name
		gotErr = err
	}, false, false)()

	reg := registry.New()
	_, err := reg.Add("age", domain.DefaultGroup, func() { panic("kaput") })
	require.NoError(t, err)

	reg.Notify(&probe{}, "age", 1, 2)

	assert.Equal(t, "age", gotName)
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "kaput")
}

func TestHandler_Reraise(t *testing.T) {
	defer registry.ScopedHandler(func(obj domain.Observable, name string, old, new any, err error) {}, true, true)()

	reg := registry.New()
	_, err := reg.Add("age", domain.DefaultGroup, func() { panic("kaput") })
	require.NoError(t, err)

	assert.PanicsWithValue(t, "kaput", func() {
		reg.Notify(&probe{}, "age", 1, 2)
	})
}

func TestHandler_ReraiseAfterWholeRound(t *testing.T) {
	defer registry.ScopedHandler(func(obj domain.Observable, name string, old, new any, err error) {}, true, false)()

	reg := registry.New()
	var afterRan bool
	_, err := reg.Add("age", domain.DefaultGroup, func() { panic("kaput") })
	require.NoError(t, err)
	_, err = reg.Add("age", domain.DefaultGroup, func() { afterRan = true })
	require.NoError(t, err)

	assert.Panics(t, func() { reg.Notify(&probe{}, "age", 1, 2) })
	assert.True(t, afterRan, "re-raise must not rob later listeners of their delivery")
}

func TestHandler_StackDiscipline(t *testing.T) {
	var calls []string
	registry.PushHandler(func(obj domain.Observable, name string, old, new any, err error) {
		calls = append(calls, "bottom")
	}, false, true)
	registry.PushHandler(func(obj domain.Observable, name string, old, new any, err error) {
		calls = append(calls, "top")
	}, false, false)
	t.Cleanup(registry.PopHandler)

	reg := registry.New()
	_, err := reg.Add("age", domain.DefaultGroup, func() { panic("kaput") })
	require.NoError(t, err)

	reg.Notify(&probe{}, "age", 1, 2)
	registry.PopHandler()
	reg.Notify(&probe{}, "age", 2, 3)

	assert.Equal(t, []string{"top", "bottom"}, calls)
}

func TestHandler_PopEmptyChain(t *testing.T) {
	assert.NotPanics(t, registry.PopHandler)
}

func TestNoHandler_LogsAndContinues(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	reg := registry.New()
	var afterRan bool
	_, err := reg.Add("age", domain.DefaultGroup, func() { panic("kaput") })
	require.NoError(t, err)
	_, err = reg.Add("age", domain.DefaultGroup, func() { afterRan = true })
	require.NoError(t, err)

	assert.NotPanics(t, func() { reg.Notify(&probe{}, "age", 1, 2) })
	assert.True(t, afterRan)
	assert.Contains(t, buf.String(), "trait change listener failed")
}
