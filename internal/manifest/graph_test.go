package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainManifest(t *testing.T) *Manifest {
	t.Helper()
	// core <- auth <- api <- web ; util standalone
	m, err := ParseBytes([]byte(`version: "1"
components:
  core:
    path: src/core
  auth:
    path: src/auth
    deps: [core]
  api:
    path: src/api
    deps: [auth]
  web:
    path: src/web
    deps: [api]
  util:
    path: src/util
`), t.TempDir())
	require.NoError(t, err)
	return m
}

func TestInvalidationCascade(t *testing.T) {
	m := chainManifest(t)

	t.Run("leaf change ripples up", func(t *testing.T) {
		got := InvalidationCascade(m, []string{"core"})
		assert.Equal(t, []string{"api", "auth", "core", "web"}, got)
	})

	t.Run("middle change", func(t *testing.T) {
		got := InvalidationCascade(m, []string{"api"})
		assert.Equal(t, []string{"api", "web"}, got)
	})

	t.Run("standalone", func(t *testing.T) {
		got := InvalidationCascade(m, []string{"util"})
		assert.Equal(t, []string{"util"}, got)
	})

	t.Run("unknown seed ignored", func(t *testing.T) {
		got := InvalidationCascade(m, []string{"ghost"})
		assert.Empty(t, got)
	})
}

func TestValidateDependencyGraph(t *testing.T) {
	assert.NoError(t, ValidateDependencyGraph(chainManifest(t)))
}

func TestRenderDependencyGraph(t *testing.T) {
	m := chainManifest(t)
	out := RenderDependencyGraph(m)
	assert.Contains(t, out, "auth (active) -> core")
	assert.Contains(t, out, "util (active)\n")

	// Deterministic across calls.
	assert.Equal(t, out, RenderDependencyGraph(m))
}

func TestCheckEnv(t *testing.T) {
	m, err := ParseBytes([]byte(`version: "1"
components:
  auth:
    path: src/auth
    env: [AUTH_SECRET, DB_URL]
  api:
    path: src/api
    env: [DB_URL, API_KEY]
`), t.TempDir())
	require.NoError(t, err)

	report := CheckEnv(m, []string{"auth", "api"}, map[string]string{
		"DB_URL":  "postgres://x",
		"API_KEY": "",
	})
	assert.Equal(t, []string{"DB_URL"}, report.Set)
	assert.Equal(t, []string{"API_KEY", "AUTH_SECRET"}, report.Missing)
}
