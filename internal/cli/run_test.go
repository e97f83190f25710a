package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traitwatch/traitwatch/internal/logging"
)

func TestRunner_PlaysScript(t *testing.T) {
	sc := &Scenario{
		Description: "demo",
		Traits:      map[string]any{"name": "Joe", "age": 22},
		Watch: []WatchSpec{
			{Trait: "age"},
			{Trait: "age", Group: "audit"},
		},
		Script: []Step{
			{Set: map[string]any{"age": 23}},
			{Set: map[string]any{"age": 23}}, // unchanged: silent
			{Fire: map[string]any{"age": 23}},
		},
	}
	require.NoError(t, sc.Validate())

	var out bytes.Buffer
	r := NewRunner(logging.NewNop(), &out)
	require.NoError(t, r.Run(context.Background(), sc))

	assert.Equal(t, "demo\n"+
		"[default] age: 22 -> 23\n"+
		"[audit] age: 22 -> 23\n"+
		"[default] age: 23 -> 23\n"+
		"[audit] age: 23 -> 23\n", out.String())
}

func TestRunner_SeedDoesNotNotify(t *testing.T) {
	sc := &Scenario{
		Traits: map[string]any{"age": 22},
		Watch:  []WatchSpec{{Trait: "age"}},
	}

	var out bytes.Buffer
	r := NewRunner(logging.NewNop(), &out)
	require.NoError(t, r.Run(context.Background(), sc))

	assert.Empty(t, out.String())
}

func TestRunner_BadWatchSurfacesError(t *testing.T) {
	sc := &Scenario{
		Traits: map[string]any{"sub": nil},
		Watch:  []WatchSpec{{Trait: "sub..a"}},
	}

	var out bytes.Buffer
	r := NewRunner(logging.NewNop(), &out)
	assert.Error(t, r.Run(context.Background(), sc))
}

func TestRunner_HonorsContextCancellation(t *testing.T) {
	sc := &Scenario{
		Traits: map[string]any{"age": 22},
		Script: []Step{{Set: map[string]any{"age": 23}}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	r := NewRunner(logging.NewNop(), &out)
	assert.ErrorIs(t, r.Run(ctx, sc), context.Canceled)
}
