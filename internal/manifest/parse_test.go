package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"varp/internal/types"
)

const sampleManifest = `version: "1"
components:
  auth:
    path: src/auth
    deps: [core]
    tags: [backend, security]
    env: [AUTH_SECRET]
    stability: stable
  api:
    path: [src/api, src/api-admin]
    deps: [auth, core]
    tags: [backend]
  core:
    path: src/core
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "varp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	m, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "1", m.Version)
	assert.Len(t, m.Components, 3)

	auth := m.Component("auth")
	require.NotNil(t, auth)
	assert.Equal(t, []string{"src/auth"}, auth.Path.Paths)
	assert.Equal(t, StabilityStable, auth.Stability)
	assert.Equal(t, []string{"core"}, auth.Deps)

	api := m.Component("api")
	require.NotNil(t, api)
	assert.Equal(t, []string{"src/api", "src/api-admin"}, api.Path.Paths)

	// Stability defaults to active.
	assert.Equal(t, StabilityActive, m.Component("core").Stability)
}

func TestParse_CacheByMtime(t *testing.T) {
	path := writeManifest(t, sampleManifest)

	first, err := Parse(path)
	require.NoError(t, err)
	second, err := Parse(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file should hit the cache")
}

func TestParse_Invalid(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := ParseBytes([]byte("version: \"1\"\ncomponents:\n  auth:\n    tags: [x]\n"), t.TempDir())
		var invalid *types.ManifestInvalidError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "auth")
	})

	t.Run("unknown dep", func(t *testing.T) {
		_, err := ParseBytes([]byte("version: \"1\"\ncomponents:\n  auth:\n    path: a\n    deps: [ghost]\n"), t.TempDir())
		var invalid *types.ManifestInvalidError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "ghost")
	})

	t.Run("bad stability", func(t *testing.T) {
		_, err := ParseBytes([]byte("version: \"1\"\ncomponents:\n  auth:\n    path: a\n    stability: frozen\n"), t.TempDir())
		var invalid *types.ManifestInvalidError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("dependency cycle", func(t *testing.T) {
		cyclic := `version: "1"
components:
  a:
    path: a
    deps: [b]
  b:
    path: b
    deps: [a]
  c:
    path: c
`
		_, err := ParseBytes([]byte(cyclic), t.TempDir())
		var invalid *types.ManifestInvalidError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, invalid.Reason, "a, b")
		members := strings.Split(invalid.Reason[strings.LastIndex(invalid.Reason, ": ")+2:], ", ")
		assert.NotContains(t, members, "c")
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := ParseBytes([]byte("{{{"), t.TempDir())
		var invalid *types.ManifestInvalidError
		assert.True(t, errors.As(err, &invalid))
	})
}

func TestSerialize_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := ParseBytes([]byte(sampleManifest), dir)
	require.NoError(t, err)

	data, err := m.Serialize()
	require.NoError(t, err)

	again, err := ParseBytes(data, dir)
	require.NoError(t, err)
	assert.Equal(t, m, again)

	// Single-path components keep their scalar shape.
	assert.Contains(t, string(data), "path: src/auth")
}
