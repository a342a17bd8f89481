package manifest

import (
	"fmt"
	"sort"
	"strings"

	"varp/internal/types"
)

// ValidateDependencyGraph checks the declared deps graph for cycles
// using Kahn's algorithm. The residual set after draining zero-in-degree
// nodes is exactly the cycle membership, which Tarjan would not hand us
// for free.
func ValidateDependencyGraph(m *Manifest) error {
	inDegree := make(map[string]int, len(m.Components))
	dependents := make(map[string][]string, len(m.Components))

	for name, comp := range m.Components {
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		for _, dep := range comp.Deps {
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	queue := make([]string, 0, len(inDegree))
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	emitted := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		emitted++
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if emitted == len(inDegree) {
		return nil
	}

	var cycle []string
	for name, deg := range inDegree {
		if deg > 0 {
			cycle = append(cycle, name)
		}
	}
	sort.Strings(cycle)
	return &types.ManifestInvalidError{
		Reason: fmt.Sprintf("dependency cycle among components: %s", strings.Join(cycle, ", ")),
	}
}

// InvalidationCascade returns the closure of components transitively
// depending on any of the changed set, including the changed set itself.
// Iterative reverse-BFS: monorepo dep chains can exceed recursion depth.
func InvalidationCascade(m *Manifest, changed []string) []string {
	// Reverse adjacency: B -> A when A depends on B.
	dependents := make(map[string][]string)
	for name, comp := range m.Components {
		for _, dep := range comp.Deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	visited := make(map[string]bool)
	queue := make([]string, 0, len(changed))
	for _, c := range changed {
		if _, ok := m.Components[c]; ok && !visited[c] {
			visited[c] = true
			queue = append(queue, c)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		next := append([]string(nil), dependents[current]...)
		sort.Strings(next)
		for _, dependent := range next {
			if !visited[dependent] {
				visited[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	out := make([]string, 0, len(visited))
	for name := range visited {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RenderDependencyGraph renders the declared graph as deterministic
// text, one component per line with stability and deps.
func RenderDependencyGraph(m *Manifest) string {
	var b strings.Builder
	for _, name := range m.ComponentNames() {
		comp := m.Components[name]
		b.WriteString(name)
		b.WriteString(" (")
		b.WriteString(string(comp.Stability))
		b.WriteString(")")
		if len(comp.Deps) > 0 {
			deps := append([]string(nil), comp.Deps...)
			sort.Strings(deps)
			b.WriteString(" -> ")
			b.WriteString(strings.Join(deps, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
