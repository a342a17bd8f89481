package imports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolveTS_Relative(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/auth/login.ts", "")
	write(t, root, "src/api/index.ts", "")
	from := write(t, root, "src/app.ts", "")

	r := newResolver(root, nil)

	t.Run("extension attempts", func(t *testing.T) {
		resolved, ok := r.resolveTS(from, "./auth/login")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/auth/login.ts"), resolved)
	})

	t.Run("directory index", func(t *testing.T) {
		resolved, ok := r.resolveTS(from, "./api")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/api/index.ts"), resolved)
	})

	t.Run("external is skipped", func(t *testing.T) {
		_, ok := r.resolveTS(from, "react")
		assert.False(t, ok)
	})
}

func TestResolveTS_Aliases(t *testing.T) {
	root := t.TempDir()
	write(t, root, "tsconfig.base.json", `{
  // shared settings
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@app/*": ["src/app/*"]
    }
  }
}`)
	write(t, root, "tsconfig.json", `{"extends": "./tsconfig.base", "compilerOptions": {"paths": {"@lib": ["src/lib/index.ts"]}}}`)
	write(t, root, "src/app/types.ts", "")
	write(t, root, "src/lib/index.ts", "")
	from := write(t, root, "src/main.ts", "")

	r := newResolver(root, nil)

	t.Run("wildcard alias from extended config", func(t *testing.T) {
		resolved, ok := r.resolveTS(from, "@app/types")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/app/types.ts"), resolved)
	})

	t.Run("exact alias", func(t *testing.T) {
		resolved, ok := r.resolveTS(from, "@lib")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/lib/index.ts"), resolved)
	})
}

func TestResolveTS_Workspaces(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"name": "mono", "workspaces": ["packages/*"]}`)
	write(t, root, "packages/ui/package.json", `{"name": "@mono/ui"}`)
	write(t, root, "packages/ui/src/index.ts", "")
	write(t, root, "packages/ui/src/button.ts", "")
	from := write(t, root, "apps/web/main.ts", "")

	r := newResolver(root, nil)

	resolved, ok := r.resolveTS(from, "@mono/ui")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages/ui/src/index.ts"), resolved)

	resolved, ok = r.resolveTS(from, "@mono/ui/src/button")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages/ui/src/button.ts"), resolved)
}

func TestResolvePython(t *testing.T) {
	root := t.TempDir()
	write(t, root, "etl/loaders/postgres.py", "")
	write(t, root, "etl/shared/__init__.py", "")
	from := write(t, root, "etl/jobs/nightly.py", "")

	r := newResolver(root, []string{root})

	t.Run("absolute module", func(t *testing.T) {
		resolved, ok := r.resolvePython(from, "etl.loaders.postgres")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "etl/loaders/postgres.py"), resolved)
	})

	t.Run("package init", func(t *testing.T) {
		resolved, ok := r.resolvePython(from, "etl.shared")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "etl/shared/__init__.py"), resolved)
	})

	t.Run("relative import", func(t *testing.T) {
		resolved, ok := r.resolvePython(from, "..shared")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "etl/shared/__init__.py"), resolved)
	})

	t.Run("stdlib is skipped", func(t *testing.T) {
		_, ok := r.resolvePython(from, "os")
		assert.False(t, ok)
	})
}

func TestResolveRust(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Cargo.toml", "[package]\nname = \"svc\"\n")
	write(t, root, "src/auth/token.rs", "")
	write(t, root, "src/storage/mod.rs", "")
	write(t, root, "src/api/config.rs", "")
	from := write(t, root, "src/api/handlers.rs", "")

	r := newResolver(root, nil)

	t.Run("crate path", func(t *testing.T) {
		resolved, ok := r.resolveRust(from, "crate::auth::token")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/auth/token.rs"), resolved)
	})

	t.Run("mod.rs", func(t *testing.T) {
		resolved, ok := r.resolveRust(from, "crate::storage")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/storage/mod.rs"), resolved)
	})

	t.Run("item in module resolves to the module", func(t *testing.T) {
		resolved, ok := r.resolveRust(from, "crate::auth::token::Claims")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/auth/token.rs"), resolved)
	})

	t.Run("super lands in the enclosing module", func(t *testing.T) {
		resolved, ok := r.resolveRust(from, "super::config")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "src/api/config.rs"), resolved)
	})

	t.Run("external crate is skipped", func(t *testing.T) {
		_, ok := r.resolveRust(from, "serde::Deserialize")
		assert.False(t, ok)
	})
}

func TestStripJSONComments(t *testing.T) {
	in := []byte(`{
  // line comment
  "a": "value // not a comment",
  /* block */ "b": 2
}`)
	out := stripJSONComments(in)
	assert.NotContains(t, string(out), "line comment")
	assert.NotContains(t, string(out), "block")
	assert.Contains(t, string(out), "value // not a comment")
}
