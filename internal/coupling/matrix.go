// Package coupling fuses the structural (import) and behavioral
// (co-change) signals into a 2x2 classification per pair. The prize
// finding is hidden coupling: files that change together with no import
// relating them.
package coupling

import (
	"sort"

	"varp/internal/cochange"
	"varp/internal/imports"
	"varp/internal/logging"
	"varp/internal/manifest"
)

// Classification is the quadrant a pair lands in.
type Classification string

const (
	ClassExplicitModule  Classification = "explicit_module"  // high structural, high behavioral
	ClassStableInterface Classification = "stable_interface" // high structural, low behavioral
	ClassHiddenCoupling  Classification = "hidden_coupling"  // low structural, high behavioral
	ClassUnrelated       Classification = "unrelated"        // low both
)

// Granularity selects file-pair or component-pair entries.
type Granularity string

const (
	GranularityFile      Granularity = "file"
	GranularityComponent Granularity = "component"
)

// Entry is one pair with its two weights and classification.
type Entry struct {
	A                string         `json:"a"`
	B                string         `json:"b"`
	ComponentA       string         `json:"component_a,omitempty"`
	ComponentB       string         `json:"component_b,omitempty"`
	StructuralWeight float64        `json:"structural_weight"`
	BehavioralWeight float64        `json:"behavioral_weight"`
	Class            Classification `json:"classification"`
}

// Matrix is the full set of classified entries plus the thresholds that
// produced them.
type Matrix struct {
	Granularity         Granularity `json:"granularity"`
	Entries             []Entry     `json:"entries"`
	StructuralThreshold float64     `json:"structural_threshold"`
	BehavioralThreshold float64     `json:"behavioral_threshold"`
}

// Options tunes matrix construction. Zero thresholds auto-calibrate to
// the median of non-zero values on that axis; absolute weight scales
// vary too much across projects for fixed cutoffs.
type Options struct {
	Granularity         Granularity
	StructuralThreshold float64
	BehavioralThreshold float64
}

// Build computes the coupling matrix from the two signals.
func Build(co *cochange.Graph, scan *imports.ScanResult, m *manifest.Manifest, opts Options) *Matrix {
	if opts.Granularity == "" {
		opts.Granularity = GranularityFile
	}

	var entries []Entry
	if opts.Granularity == GranularityComponent {
		entries = componentEntries(co, scan, m)
	} else {
		entries = fileEntries(co, scan, m)
	}

	structural := opts.StructuralThreshold
	if structural == 0 {
		structural = medianNonZero(entries, func(e Entry) float64 { return e.StructuralWeight })
	}
	behavioral := opts.BehavioralThreshold
	if behavioral == 0 {
		behavioral = medianNonZero(entries, func(e Entry) float64 { return e.BehavioralWeight })
	}

	for i := range entries {
		entries[i].Class = classify(entries[i], structural, behavioral)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].A != entries[j].A {
			return entries[i].A < entries[j].A
		}
		return entries[i].B < entries[j].B
	})

	logging.Coupling("Coupling matrix (%s): %d entries, thresholds structural=%.2f behavioral=%.2f",
		opts.Granularity, len(entries), structural, behavioral)
	return &Matrix{
		Granularity:         opts.Granularity,
		Entries:             entries,
		StructuralThreshold: structural,
		BehavioralThreshold: behavioral,
	}
}

// fileEntries builds one entry per file pair appearing in either
// signal. Structural weight counts import directions (0, 1, or 2).
func fileEntries(co *cochange.Graph, scan *imports.ScanResult, m *manifest.Manifest) []Entry {
	index := manifest.NewIndex(m)
	type pair struct{ a, b string }
	weights := make(map[pair]*Entry)

	at := func(a, b string) *Entry {
		if a > b {
			a, b = b, a
		}
		key := pair{a, b}
		e := weights[key]
		if e == nil {
			e = &Entry{A: a, B: b, ComponentA: index.Owner(a), ComponentB: index.Owner(b)}
			weights[key] = e
		}
		return e
	}

	for key, edge := range co.Edges {
		a, b := cochange.SplitPairKey(key)
		at(a, b).BehavioralWeight = edge.Weight
	}
	for _, edge := range scan.FileEdges() {
		at(edge.From, edge.To).StructuralWeight++
	}

	entries := make([]Entry, 0, len(weights))
	for _, e := range weights {
		entries = append(entries, *e)
	}
	return entries
}

// componentEntries rolls both signals up through ownership. Structural
// weight is the summed import-evidence count in both directions;
// behavioral weight sums co-change edge weight across owning pairs.
func componentEntries(co *cochange.Graph, scan *imports.ScanResult, m *manifest.Manifest) []Entry {
	index := manifest.NewIndex(m)
	type pair struct{ a, b string }
	weights := make(map[pair]*Entry)

	at := func(a, b string) *Entry {
		if a > b {
			a, b = b, a
		}
		key := pair{a, b}
		e := weights[key]
		if e == nil {
			e = &Entry{A: a, B: b, ComponentA: a, ComponentB: b}
			weights[key] = e
		}
		return e
	}

	for key, edge := range co.Edges {
		fa, fb := cochange.SplitPairKey(key)
		ca, cb := index.Owner(fa), index.Owner(fb)
		if ca == "" || cb == "" || ca == cb {
			continue
		}
		at(ca, cb).BehavioralWeight += edge.Weight
	}
	for from, tos := range scan.DepCounts {
		for to, count := range tos {
			at(from, to).StructuralWeight += float64(count)
		}
	}

	entries := make([]Entry, 0, len(weights))
	for _, e := range weights {
		entries = append(entries, *e)
	}
	return entries
}

func classify(e Entry, structural, behavioral float64) Classification {
	highS := e.StructuralWeight >= structural && e.StructuralWeight > 0
	highB := e.BehavioralWeight >= behavioral && e.BehavioralWeight > 0
	switch {
	case highS && highB:
		return ClassExplicitModule
	case highS:
		return ClassStableInterface
	case highB:
		return ClassHiddenCoupling
	default:
		return ClassUnrelated
	}
}

// medianNonZero is the median of the non-zero values on one axis, or 0
// when the axis is empty.
func medianNonZero(entries []Entry, axis func(Entry) float64) float64 {
	var values []float64
	for _, e := range entries {
		if v := axis(e); v > 0 {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

// FindHiddenCoupling returns all hidden-coupling entries sorted by
// behavioral weight descending.
func FindHiddenCoupling(m *Matrix) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Class == ClassHiddenCoupling {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BehavioralWeight != out[j].BehavioralWeight {
			return out[i].BehavioralWeight > out[j].BehavioralWeight
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// ComponentCouplingProfile returns the entries involving one component.
func ComponentCouplingProfile(m *Matrix, component string) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.ComponentA == component || e.ComponentB == component {
			out = append(out, e)
		}
	}
	return out
}
