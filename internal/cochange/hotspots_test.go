package cochange

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotspots(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.ts"), []byte("a\nb\nc\nd\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "small.ts"), []byte("a\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0x00, 0x01, 0x02}, 0644))

	g := NewGraph()
	g.FileFrequencies["big.ts"] = 3   // 3 * 4 = 12
	g.FileFrequencies["small.ts"] = 5 // 5 * 1 = 5
	g.FileFrequencies["bin.dat"] = 9  // binary, skipped
	g.FileFrequencies["gone.ts"] = 9  // missing, skipped

	spots := Hotspots(g, root, 10)
	require.Len(t, spots, 2)
	assert.Equal(t, "big.ts", spots[0].Path)
	assert.InDelta(t, 12, spots[0].Score, 1e-9)
	assert.Equal(t, "small.ts", spots[1].Path)

	topOne := Hotspots(g, root, 1)
	require.Len(t, topOne, 1)
	assert.Equal(t, "big.ts", topOne[0].Path)
}

func TestCountLines(t *testing.T) {
	root := t.TempDir()

	path := filepath.Join(root, "f.ts")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree"), 0644))
	n, ok := countLines(path)
	assert.True(t, ok)
	assert.Equal(t, 3, n, "trailing partial line still counts")

	_, ok = countLines(filepath.Join(root, "missing.ts"))
	assert.False(t, ok)
}

func TestSlope(t *testing.T) {
	assert.InDelta(t, 10.0, slope([]int{0, 10, 20, 30}), 1e-9)
	assert.InDelta(t, -5.0, slope([]int{20, 15, 10, 5}), 1e-9)
	assert.InDelta(t, 0.0, slope([]int{7, 7, 7}), 1e-9)
	assert.InDelta(t, 0.0, slope([]int{7}), 1e-9)
}

func TestFileNeighborhood(t *testing.T) {
	g := NewGraph()
	g.apply([]string{"a.ts", "b.ts"})
	g.apply([]string{"a.ts", "b.ts"})
	g.apply([]string{"a.ts", "c.ts", "d.ts"})

	neighbors := FileNeighborhood(g, "a.ts", stubImports{"a.ts": {"c.ts": true}})
	require.Len(t, neighbors, 3)

	assert.Equal(t, "b.ts", neighbors[0].File, "heaviest edge first")
	assert.InDelta(t, 2.0, neighbors[0].Weight, 1e-9)
	assert.False(t, neighbors[0].HasImport)

	// c.ts and d.ts tie on weight; path order breaks the tie.
	assert.Equal(t, "c.ts", neighbors[1].File)
	assert.True(t, neighbors[1].HasImport)
	assert.Equal(t, "d.ts", neighbors[2].File)
}

type stubImports map[string]map[string]bool

func (s stubImports) Imports(from, to string) bool { return s[from][to] }
