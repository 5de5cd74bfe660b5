package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	r, err := parseRange("", [2]int{0, 10})
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 10}, r)

	r, err = parseRange("2:5", [2]int{0, 10})
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 5}, r)

	r, err = parseRange(":4", [2]int{0, 10})
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 4}, r)

	r, err = parseRange("3:", [2]int{0, 10})
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 10}, r)

	_, err = parseRange("7", [2]int{0, 10})
	assert.Error(t, err)
	_, err = parseRange("a:b", [2]int{0, 10})
	assert.Error(t, err)
}

func TestRootCommandListsSubcommands(t *testing.T) {
	root, ctx := newRootCommand()
	defer ctx.close()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())
	for _, name := range []string{"stack", "info", "window", "extremum", "find", "normalize", "resample", "catalog"} {
		assert.Contains(t, out.String(), name)
	}
}
