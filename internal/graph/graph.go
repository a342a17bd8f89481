// Package graph assembles the individual analyses into one queryable
// codebase graph. Consumers - agents, CLIs, audit engines - take this
// single structure rather than wiring the analyses themselves.
package graph

import (
	"context"
	"time"

	"varp/internal/cochange"
	"varp/internal/config"
	"varp/internal/coupling"
	"varp/internal/imports"
	"varp/internal/logging"
	"varp/internal/manifest"
)

// Options controls assembly.
type Options struct {
	// ManifestPath locates the manifest; required.
	ManifestPath string

	// Root is the repository root for git and cache access; defaults to
	// the manifest's directory.
	Root string

	// WithCoupling additionally builds the coupling matrix.
	WithCoupling bool

	// CouplingGranularity defaults to file-level.
	CouplingGranularity coupling.Granularity

	// Config supplies tunables; nil loads .varp/config.json.
	Config *config.Config
}

// CodebaseGraph is the composite analysis output.
type CodebaseGraph struct {
	Manifest *manifest.Manifest  `json:"-"`
	CoChange *cochange.Graph     `json:"co_change"`
	Imports  *imports.ScanResult `json:"imports"`
	Coupling *coupling.Matrix    `json:"coupling,omitempty"`

	Root string `json:"root"`
}

// Assemble runs the analyses and composes the graph. Import parse
// warnings accumulate on the scan result; only validation and I/O
// failures abort.
func Assemble(ctx context.Context, opts Options) (*CodebaseGraph, error) {
	start := time.Now()

	m, err := manifest.Parse(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	root := opts.Root
	if root == "" {
		root = m.Dir
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(root)
		if err != nil {
			return nil, err
		}
		cfg = &loaded
	}

	co, err := cochange.Analyze(ctx, root, cfg.Cochange)
	if err != nil {
		return nil, err
	}

	scan, err := imports.Scan(ctx, m, imports.ScanOptions{})
	if err != nil {
		return nil, err
	}

	g := &CodebaseGraph{Manifest: m, CoChange: co, Imports: scan, Root: root}
	if opts.WithCoupling {
		g.Coupling = coupling.Build(co, scan, m, coupling.Options{Granularity: opts.CouplingGranularity})
	}

	logging.Graph("Codebase graph assembled in %v: %d components, %d co-change edges, %d files scanned",
		time.Since(start), len(m.Components), len(co.Edges), scan.TotalFilesScanned)
	return g, nil
}

// FileNeighborhood queries the co-change neighborhood of one file,
// annotated with import evidence.
func (g *CodebaseGraph) FileNeighborhood(file string) []cochange.Neighbor {
	return cochange.FileNeighborhood(g.CoChange, file, g.Imports)
}

// HiddenCoupling returns the hidden-coupling findings, highest
// behavioral weight first. Nil without a coupling matrix.
func (g *CodebaseGraph) HiddenCoupling() []coupling.Entry {
	if g.Coupling == nil {
		return nil
	}
	return coupling.FindHiddenCoupling(g.Coupling)
}

// OwnerOf maps a file to its owning component.
func (g *CodebaseGraph) OwnerOf(path string) string {
	return manifest.FindOwningComponent(path, g.Manifest)
}
