package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"varp/internal/logging"
	"varp/internal/types"
)

// cacheEntry holds a parsed manifest keyed by file mtime. Re-parse is
// triggered by mtime change; correctness never depends on a hit.
type cacheEntry struct {
	modTime int64
	man     *Manifest
}

var (
	parseCache   = make(map[string]cacheEntry)
	parseCacheMu sync.Mutex
)

// Parse loads and validates a manifest file. Results are cached by
// (absolute path, mtime).
func Parse(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &types.FileSystemError{Path: path, Op: "resolve", Err: err}
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &types.FileSystemError{Path: abs, Op: "stat", Err: err}
	}

	parseCacheMu.Lock()
	if entry, ok := parseCache[abs]; ok && entry.modTime == info.ModTime().UnixNano() {
		parseCacheMu.Unlock()
		logging.ManifestDebug("Manifest cache hit: %s", abs)
		return entry.man, nil
	}
	parseCacheMu.Unlock()

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &types.FileSystemError{Path: abs, Op: "read", Err: err}
	}

	man, err := ParseBytes(data, filepath.Dir(abs))
	if err != nil {
		return nil, err
	}

	parseCacheMu.Lock()
	parseCache[abs] = cacheEntry{modTime: info.ModTime().UnixNano(), man: man}
	parseCacheMu.Unlock()

	logging.Manifest("Parsed manifest %s: %d components", abs, len(man.Components))
	return man, nil
}

// ParseBytes parses and validates manifest content. dir anchors relative
// component paths.
func ParseBytes(data []byte, dir string) (*Manifest, error) {
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, &types.ManifestInvalidError{Reason: fmt.Sprintf("yaml: %v", err)}
	}
	man.Dir = dir

	if err := validate(&man); err != nil {
		return nil, err
	}
	return &man, nil
}

// validate enforces schema invariants: path present, stability in range,
// deps known, dependency graph acyclic.
func validate(m *Manifest) error {
	if len(m.Components) == 0 {
		return &types.ManifestInvalidError{Reason: "no components declared"}
	}

	for _, name := range m.ComponentNames() {
		comp := m.Components[name]
		if comp == nil {
			return &types.ManifestInvalidError{Reason: fmt.Sprintf("component %q is empty", name)}
		}
		if len(comp.Path.Paths) == 0 {
			return &types.ManifestInvalidError{Reason: fmt.Sprintf("component %q has no path", name)}
		}
		for _, p := range comp.Path.Paths {
			if p == "" {
				return &types.ManifestInvalidError{Reason: fmt.Sprintf("component %q has an empty path entry", name)}
			}
		}

		switch comp.Stability {
		case "":
			comp.Stability = StabilityActive
		case StabilityStable, StabilityActive, StabilityExperimental:
		default:
			return &types.ManifestInvalidError{
				Reason: fmt.Sprintf("component %q has unknown stability %q", name, comp.Stability),
			}
		}

		for _, dep := range comp.Deps {
			if _, ok := m.Components[dep]; !ok {
				return &types.ManifestInvalidError{
					Reason: fmt.Sprintf("component %q depends on unknown component %q", name, dep),
				}
			}
		}
	}

	return ValidateDependencyGraph(m)
}
