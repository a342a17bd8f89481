package imports

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"varp/internal/logging"
	"varp/internal/manifest"
	"varp/internal/types"
)

// defaultIgnoreDirs are skipped during the file walk.
var defaultIgnoreDirs = map[string]bool{
	".git":         true,
	".varp":        true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".next":        true,
}

// ScanOptions tunes a scan.
type ScanOptions struct {
	// Concurrency caps parallel file parses; 0 picks a CPU-based default.
	Concurrency int
}

// DepEdge is one inferred or declared cross-component dependency.
type DepEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ParseWarning records a file the scanner could not parse. Warnings
// accumulate; they never abort the scan.
type ParseWarning struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// ScanResult is the import scanner's output.
type ScanResult struct {
	// ImportDeps maps each component to the components it imports from,
	// sorted.
	ImportDeps map[string][]string `json:"import_deps"`

	// DepCounts carries the import-evidence count per component edge.
	DepCounts map[string]map[string]int `json:"dep_counts"`

	// MissingDeps are inferred edges absent from the manifest's deps.
	MissingDeps []DepEdge `json:"missing_deps"`

	// ExtraDeps are declared deps with no import evidence.
	ExtraDeps []DepEdge `json:"extra_deps"`

	TotalFilesScanned    int `json:"total_files_scanned"`
	TotalImportsScanned  int `json:"total_imports_scanned"`
	ComponentsWithSource int `json:"components_with_source"`

	Warnings []ParseWarning `json:"warnings,omitempty"`

	// fileEdges records file-level import edges, keyed by paths
	// relative to the manifest dir (slash-separated).
	fileEdges map[string]map[string]bool
	root      string
}

// Imports reports whether file from imports file to. Paths are relative
// to the manifest's directory, slash-separated.
func (s *ScanResult) Imports(from, to string) bool {
	return s.fileEdges[from][to]
}

// FileEdges returns all file-level edges, sorted.
func (s *ScanResult) FileEdges() []DepEdge {
	var edges []DepEdge
	for from, tos := range s.fileEdges {
		for to := range tos {
			edges = append(edges, DepEdge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// WarningError folds the accumulated parse warnings into one error, or
// nil when the scan was clean.
func (s *ScanResult) WarningError() error {
	var result *multierror.Error
	for _, w := range s.Warnings {
		result = multierror.Append(result, &types.FileSystemError{Path: w.Path, Op: "parse", Err: w.Err})
	}
	return result.ErrorOrNil()
}

// Scan extracts imports from every source file under the manifest's
// components, resolves them, and infers cross-component dependencies.
func Scan(ctx context.Context, m *manifest.Manifest, opts ScanOptions) (*ScanResult, error) {
	start := time.Now()
	registry := NewRegistry()
	index := manifest.NewIndex(m)

	// Python absolute modules resolve against component roots and the
	// repo root.
	pyRoots := []string{m.Dir}
	for _, entry := range index.Entries() {
		pyRoots = append(pyRoots, entry.AbsPath)
	}
	res := newResolver(m.Dir, pyRoots)

	type scanFile struct {
		abs       string
		component string
	}
	var files []scanFile
	seen := make(map[string]bool)
	for _, name := range m.ComponentNames() {
		for _, root := range m.ComponentPaths(name) {
			filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					if defaultIgnoreDirs[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				if registry.ForFile(path) == nil || seen[path] {
					return nil
				}
				seen[path] = true
				files = append(files, scanFile{abs: path, component: index.Owner(path)})
				return nil
			})
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
		if concurrency > 8 {
			concurrency = 8
		}
	}

	// Tree-sitter parsers are not safe for concurrent use; each worker
	// draws its own registry from the pool.
	pool := sync.Pool{New: func() interface{} { return NewRegistry() }}

	result := &ScanResult{
		ImportDeps: make(map[string][]string),
		DepCounts:  make(map[string]map[string]int),
		fileEdges:  make(map[string]map[string]bool),
		root:       m.Dir,
	}
	componentsWithSource := make(map[string]bool)
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, f := range files {
		f := f
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return &types.CancelledError{Op: "import scan"}
			}

			content, err := os.ReadFile(f.abs)
			if err != nil {
				mu.Lock()
				result.Warnings = append(result.Warnings, ParseWarning{Path: f.abs, Err: err})
				mu.Unlock()
				return nil
			}

			reg := pool.Get().(*Registry)
			parser := reg.ForFile(f.abs)
			refs, err := parser.ParseImports(f.abs, content)
			lang := parser.Language()
			pool.Put(reg)
			if err != nil {
				mu.Lock()
				result.Warnings = append(result.Warnings, ParseWarning{Path: f.abs, Err: err})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			result.TotalFilesScanned++
			if f.component != "" {
				componentsWithSource[f.component] = true
			}
			result.TotalImportsScanned += len(refs)

			for _, ref := range refs {
				resolved, ok := res.Resolve(lang, f.abs, ref.Specifier)
				if !ok {
					continue
				}
				toComp := index.Owner(resolved)
				relFrom := relToRoot(m.Dir, f.abs)
				relTo := relToRoot(m.Dir, resolved)
				if result.fileEdges[relFrom] == nil {
					result.fileEdges[relFrom] = make(map[string]bool)
				}
				result.fileEdges[relFrom][relTo] = true

				if f.component != "" && toComp != "" && toComp != f.component {
					if result.DepCounts[f.component] == nil {
						result.DepCounts[f.component] = make(map[string]int)
					}
					result.DepCounts[f.component][toComp]++
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &types.CancelledError{Op: "import scan"}
	}

	finalize(result, m, componentsWithSource)
	logging.Imports("Import scan: %d files, %d imports, %d components with source, %d warnings in %v",
		result.TotalFilesScanned, result.TotalImportsScanned, result.ComponentsWithSource,
		len(result.Warnings), time.Since(start))
	return result, nil
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// finalize derives the sorted dep lists and the missing/extra sets.
func finalize(result *ScanResult, m *manifest.Manifest, withSource map[string]bool) {
	result.ComponentsWithSource = len(withSource)

	for from, tos := range result.DepCounts {
		list := make([]string, 0, len(tos))
		for to := range tos {
			list = append(list, to)
		}
		sort.Strings(list)
		result.ImportDeps[from] = list
	}

	declared := make(map[string]map[string]bool)
	for _, name := range m.ComponentNames() {
		declared[name] = make(map[string]bool)
		for _, dep := range m.Components[name].Deps {
			declared[name][dep] = true
		}
	}

	for _, from := range m.ComponentNames() {
		for _, to := range result.ImportDeps[from] {
			if !declared[from][to] {
				result.MissingDeps = append(result.MissingDeps, DepEdge{From: from, To: to})
			}
		}
		deps := append([]string(nil), m.Components[from].Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			if result.DepCounts[from][dep] == 0 {
				result.ExtraDeps = append(result.ExtraDeps, DepEdge{From: from, To: dep})
			}
		}
	}
}
