package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src/auth"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src/core"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src/core/util.ts"), []byte("export const u = 1;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src/auth/login.ts"), []byte("import { u } from '../core/util';\n"), 0644))

	manifestPath := filepath.Join(root, "varp.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`version: "1"
components:
  auth:
    path: src/auth
    deps: [core]
  core:
    path: src/core
`), 0644))

	g, err := Assemble(context.Background(), Options{ManifestPath: manifestPath, WithCoupling: true})
	require.NoError(t, err)

	// Not a git repository: the co-change side is empty but advisory.
	assert.True(t, g.CoChange.GitUnavailable)
	assert.Empty(t, g.CoChange.Edges)

	require.NotNil(t, g.Imports)
	assert.Equal(t, []string{"core"}, g.Imports.ImportDeps["auth"])

	require.NotNil(t, g.Coupling)
	assert.Empty(t, g.HiddenCoupling(), "no behavioral signal, nothing hidden")

	assert.Equal(t, "auth", g.OwnerOf(filepath.Join(root, "src/auth/login.ts")))
	assert.Equal(t, "", g.OwnerOf(filepath.Join(root, "README.md")))
}
