package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	segs, err := ParsePath("sub.a")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub", "a"}, segs)

	segs, err = ParsePath("age")
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, segs)

	for _, bad := range []string{"", ".", "sub.", ".a", "sub..a"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, "path %q", bad)
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, isNil(nil))

	var p *int
	assert.True(t, isNil(p))
	assert.False(t, isNil(new(int)))
	assert.False(t, isNil(0))
	assert.False(t, isNil("x"))

	var m map[string]int
	assert.True(t, isNil(m))
}
