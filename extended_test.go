package traitwatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traitwatch/traitwatch"
)

type item struct {
	traitwatch.Holder
}

type box struct {
	traitwatch.Holder
}

// TestExtendedPath_Retargeting is the canonical "sub.a" scenario:
// mutating the leaf notifies, replacing the intermediate wholesale
// re-targets the subscription, and the old object is fully released.
func TestExtendedPath_Retargeting(t *testing.T) {
	first := &item{}
	first.Set("a", 1)
	root := &box{}
	root.Set("sub", first)
	defer root.Close()

	var events []any
	_, err := traitwatch.Subscribe(root, "sub.a", func(new any) {
		events = append(events, new)
	})
	require.NoError(t, err)

	first.Set("a", 2)

	second := &item{}
	second.Set("a", 3)
	root.Set("sub", second)

	second.Set("a", 4)

	assert.Equal(t, []any{2, 3, 4}, events)

	// The old intermediate must not retain the subscription.
	first.Set("a", 99)
	assert.Equal(t, []any{2, 3, 4}, events)
	assert.Equal(t, 0, first.TraitRegistry().Len())
}

func TestExtendedPath_SwapCarriesLeafTransition(t *testing.T) {
	first := &item{}
	first.Set("a", 10)
	root := &box{}
	root.Set("sub", first)
	defer root.Close()

	var got traitwatch.Notification
	_, err := traitwatch.Subscribe(root, "sub.a", func(n traitwatch.Notification) {
		got = n
	})
	require.NoError(t, err)

	second := &item{}
	second.Set("a", 20)
	root.Set("sub", second)

	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 10, got.Old)
	assert.Equal(t, 20, got.New)
	assert.Same(t, second, got.Object)
}

func TestExtendedPath_DeepChain(t *testing.T) {
	c := &item{}
	c.Set("value", 1)
	b := &box{}
	b.Set("c", c)
	a := &box{}
	a.Set("b", b)
	root := &box{}
	root.Set("a", a)
	defer root.Close()

	var events []any
	_, err := traitwatch.Subscribe(root, "a.b.c.value", func(new any) {
		events = append(events, new)
	})
	require.NoError(t, err)

	c.Set("value", 2)

	// Replace the middle of the chain.
	c2 := &item{}
	c2.Set("value", 3)
	b2 := &box{}
	b2.Set("c", c2)
	a.Set("b", b2)

	c2.Set("value", 4)

	assert.Equal(t, []any{2, 3, 4}, events)

	// Nothing still watches the abandoned branch.
	c.Set("value", 99)
	assert.Equal(t, []any{2, 3, 4}, events)
}

func TestExtendedPath_NonObservableIntermediate(t *testing.T) {
	first := &item{}
	first.Set("a", 1)
	root := &box{}
	root.Set("sub", first)
	defer root.Close()

	var events []any
	_, err := traitwatch.Subscribe(root, "sub.a", func(new any) {
		events = append(events, new)
	})
	require.NoError(t, err)

	// A primitive in the middle of the path ends instrumentation
	// silently; nothing is delivered and nothing breaks.
	assert.NotPanics(t, func() { root.Set("sub", 42) })
	assert.Empty(t, events)

	// Observation resumes when an observable object returns.
	second := &item{}
	second.Set("a", 5)
	root.Set("sub", second)
	second.Set("a", 6)

	assert.Equal(t, []any{5, 6}, events)
}

func TestExtendedPath_UnsubscribeReleasesHops(t *testing.T) {
	first := &item{}
	first.Set("a", 1)
	root := &box{}
	root.Set("sub", first)
	defer root.Close()

	var events []any
	listener := func(new any) { events = append(events, new) }
	_, err := traitwatch.Subscribe(root, "sub.a", listener)
	require.NoError(t, err)

	first.Set("a", 2)
	traitwatch.Unsubscribe(root, "sub.a", listener)
	first.Set("a", 3)
	root.Set("sub", &item{})

	assert.Equal(t, []any{2}, events)
	assert.Equal(t, 0, first.TraitRegistry().Len())
	assert.Equal(t, 0, root.TraitRegistry().Len())
}

func TestExtendedPath_Idempotent(t *testing.T) {
	first := &item{}
	first.Set("a", 1)
	root := &box{}
	root.Set("sub", first)
	defer root.Close()

	var events []any
	listener := func(new any) { events = append(events, new) }

	_, err := traitwatch.Subscribe(root, "sub.a", listener)
	require.NoError(t, err)
	_, err = traitwatch.Subscribe(root, "sub.a", listener)
	require.NoError(t, err)

	first.Set("a", 2)
	assert.Equal(t, []any{2}, events)
}

func TestExtendedPath_TeardownReleasesDownstream(t *testing.T) {
	first := &item{}
	first.Set("a", 1)
	root := &box{}
	root.Set("sub", first)

	var events []any
	_, err := traitwatch.Subscribe(root, "sub.a", func(new any) {
		events = append(events, new)
	})
	require.NoError(t, err)

	root.Close()
	first.Set("a", 2)

	assert.Empty(t, events)
	assert.Equal(t, 0, first.TraitRegistry().Len())
}

func TestExtendedPath_EmptySegment(t *testing.T) {
	root := &box{}
	defer root.Close()

	_, err := traitwatch.Subscribe(root, "sub..a", func() {})
	assert.Error(t, err)
}
