package manifest

import (
	"os"
	"path/filepath"
	"sort"

	"varp/internal/logging"
	"varp/internal/types"
)

// Doc is a discovered or declared documentation file. Public docs are
// loaded for both reads and writes; private docs only for writes.
type Doc struct {
	Path      string `json:"path"`
	Component string `json:"component"`
	Public    bool   `json:"public"`
	Explicit  bool   `json:"explicit,omitempty"`
}

// discoveryRoots returns the doc discovery roots for one component path:
// the path itself, its parent when the path's last segment is src/, and
// any src/ child. Layered layouts put the README beside src/ rather than
// inside it.
func discoveryRoots(abs string) []string {
	roots := []string{abs}
	if filepath.Base(abs) == "src" {
		roots = append(roots, filepath.Dir(abs))
	}
	srcChild := filepath.Join(abs, "src")
	if info, err := os.Stat(srcChild); err == nil && info.IsDir() {
		roots = append(roots, srcChild)
	}
	return roots
}

// DiscoverDocs finds all docs for one component: README.md at each
// discovery root (public), every root/docs/*.md (private), and the
// component's explicit docs: entries (private). Deduplicated by
// canonical path; a path discovered as public stays public.
func DiscoverDocs(m *Manifest, name string) []Doc {
	comp := m.Components[name]
	if comp == nil {
		return nil
	}

	byPath := make(map[string]*Doc)
	add := func(path string, public, explicit bool) {
		canonical := filepath.Clean(path)
		if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
			canonical = resolved
		}
		if existing, ok := byPath[canonical]; ok {
			existing.Public = existing.Public || public
			return
		}
		byPath[canonical] = &Doc{Path: canonical, Component: name, Public: public, Explicit: explicit}
	}

	for _, abs := range m.ComponentPaths(name) {
		for _, root := range discoveryRoots(abs) {
			readme := filepath.Join(root, "README.md")
			if info, err := os.Stat(readme); err == nil && !info.IsDir() {
				add(readme, true, false)
			}

			docsDir := filepath.Join(root, "docs")
			entries, err := os.ReadDir(docsDir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
					continue
				}
				add(filepath.Join(docsDir, entry.Name()), false, false)
			}
		}
	}

	for _, explicit := range comp.Docs {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.Dir, path)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			add(path, false, true)
		}
	}

	docs := make([]Doc, 0, len(byPath))
	for _, doc := range byPath {
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	logging.ManifestDebug("DiscoverDocs(%s): %d docs", name, len(docs))
	return docs
}

// ResolveDocsForTouches returns the docs a task should load: every doc
// of each written component, public docs only of each read component.
func ResolveDocsForTouches(m *Manifest, touches types.Touches) []Doc {
	byPath := make(map[string]Doc)

	for _, name := range touches.Writes {
		for _, doc := range DiscoverDocs(m, name) {
			byPath[doc.Path] = doc
		}
	}
	for _, name := range touches.Reads {
		for _, doc := range DiscoverDocs(m, name) {
			if !doc.Public {
				continue
			}
			if _, ok := byPath[doc.Path]; !ok {
				byPath[doc.Path] = doc
			}
		}
	}

	docs := make([]Doc, 0, len(byPath))
	for _, doc := range byPath {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}
