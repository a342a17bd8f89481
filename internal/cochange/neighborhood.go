package cochange

import "sort"

// Neighbor is one co-change edge incident to a query file, annotated
// with whether a static import runs the same direction.
type Neighbor struct {
	File        string  `json:"file"`
	Weight      float64 `json:"weight"`
	CommitCount uint64  `json:"commit_count"`
	HasImport   bool    `json:"has_import"`
}

// ImportEdges answers whether file a imports file b. The import scanner
// supplies an implementation; a nil lookup annotates nothing.
type ImportEdges interface {
	Imports(from, to string) bool
}

// FileNeighborhood returns every co-change edge incident to file,
// sorted by weight descending (ties by path), annotated with import
// evidence from the query file outward.
func FileNeighborhood(g *Graph, file string, imports ImportEdges) []Neighbor {
	var neighbors []Neighbor
	for key, edge := range g.Edges {
		a, b := SplitPairKey(key)
		var other string
		switch file {
		case a:
			other = b
		case b:
			other = a
		default:
			continue
		}
		n := Neighbor{File: other, Weight: edge.Weight, CommitCount: edge.CommitCount}
		if imports != nil {
			n.HasImport = imports.Imports(file, other)
		}
		neighbors = append(neighbors, n)
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Weight != neighbors[j].Weight {
			return neighbors[i].Weight > neighbors[j].Weight
		}
		return neighbors[i].File < neighbors[j].File
	})
	return neighbors
}
