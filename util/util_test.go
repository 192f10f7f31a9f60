package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatherAllMidiPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"b.mid", "a.MIDI", "notes.txt", "nested/c.mid"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	assert := assert.New(t)
	paths, err := GatherAllMidiPaths(dir, 0)
	assert.NoError(err)
	assert.Equal([]string{
		filepath.Join(dir, "a.MIDI"),
		filepath.Join(dir, "b.mid"),
		filepath.Join(dir, "nested", "c.mid"),
	}, paths)

	paths, err = GatherAllMidiPaths(dir, 2)
	assert.NoError(err)
	assert.Len(paths, 2)

	_, err = GatherAllMidiPaths(filepath.Join(dir, "missing"), 0)
	assert.Error(err)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"flat", "in-tune", "sharp"}, SortedKeys(map[string]int{"sharp": 1, "flat": 0, "in-tune": 3}))
}

func TestMinAndSum(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(3, Min(3, 9))
	assert.Equal(uint8(2), Min(uint8(7), uint8(2)))
	assert.Equal(uint64(10), Sum([]int{1, 2, 3, 4}))
}
