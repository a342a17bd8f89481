package manifest

import (
	"path/filepath"
	"sort"
	"strings"

	"varp/internal/types"
)

// PathEntry maps one absolute component path to its component name.
type PathEntry struct {
	Component string
	AbsPath   string
}

func sortStrings(s []string) { sort.Strings(s) }

// ComponentPaths normalizes a component's single-or-list path to a list
// of absolute paths.
func (m *Manifest) ComponentPaths(name string) []string {
	comp := m.Components[name]
	if comp == nil {
		return nil
	}
	paths := make([]string, 0, len(comp.Path.Paths))
	for _, p := range comp.Path.Paths {
		paths = append(paths, m.absPath(p))
	}
	return paths
}

func (m *Manifest) absPath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(m.Dir, p))
}

// BuildComponentPaths returns one entry per (component, absolute path),
// sorted by descending path length so that longest-prefix lookups can
// take the first match. Ties break by path then component name for
// determinism.
func BuildComponentPaths(m *Manifest) []PathEntry {
	entries := make([]PathEntry, 0, len(m.Components))
	for name := range m.Components {
		for _, abs := range m.ComponentPaths(name) {
			entries = append(entries, PathEntry{Component: name, AbsPath: abs})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].AbsPath) != len(entries[j].AbsPath) {
			return len(entries[i].AbsPath) > len(entries[j].AbsPath)
		}
		if entries[i].AbsPath != entries[j].AbsPath {
			return entries[i].AbsPath < entries[j].AbsPath
		}
		return entries[i].Component < entries[j].Component
	})
	return entries
}

// FindOwningComponent returns the component owning filePath via
// longest-prefix match, or "" if the file sits outside every component.
func FindOwningComponent(filePath string, m *Manifest) string {
	return findOwner(filePath, BuildComponentPaths(m), m.Dir)
}

// findOwner is the prefix walk over pre-sorted entries. Callers that
// look up many files build the entries once.
func findOwner(filePath string, entries []PathEntry, dir string) string {
	target := filePath
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	target = filepath.Clean(target)
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	for _, entry := range entries {
		rel, err := filepath.Rel(entry.AbsPath, target)
		if err != nil {
			continue
		}
		if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return entry.Component
	}
	return ""
}

// Index supports repeated ownership lookups without rebuilding the
// sorted entry list per call.
type Index struct {
	entries []PathEntry
	dir     string
}

// NewIndex builds an ownership index over the manifest's components.
func NewIndex(m *Manifest) *Index {
	return &Index{entries: BuildComponentPaths(m), dir: m.Dir}
}

// Owner returns the component owning path, or "".
func (ix *Index) Owner(path string) string {
	return findOwner(path, ix.entries, ix.dir)
}

// Entries exposes the sorted (component, path) entries.
func (ix *Index) Entries() []PathEntry { return ix.entries }

// ResolveComponentRefs maps each ref to component names. A ref is a
// component name (takes precedence) or a tag; a tag expands to every
// component carrying it, in sorted order. Unknown refs fail.
func ResolveComponentRefs(m *Manifest, refs []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if _, ok := m.Components[ref]; ok {
			if !seen[ref] {
				out = append(out, ref)
				seen[ref] = true
			}
			continue
		}

		matched := false
		for _, name := range m.ComponentNames() {
			if m.Components[name].HasTag(ref) {
				matched = true
				if !seen[name] {
					out = append(out, name)
					seen[name] = true
				}
			}
		}
		if !matched {
			return nil, &types.UnknownRefError{Ref: ref}
		}
	}
	return out, nil
}
