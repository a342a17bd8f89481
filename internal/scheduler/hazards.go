// Package scheduler derives the execution schedule for a plan's tasks:
// pairwise data-hazard detection over touch sets, wave assignment via
// longest-path over the constraining hazards, and the RAW critical
// path. Everything is deterministic under a fixed task ordering.
package scheduler

import (
	"sort"

	"varp/internal/logging"
	"varp/internal/types"
)

// DetectHazards runs the pairwise scan. For each ordered task pair
// (i before j) and each component in the union of their touch sets:
//
//	i writes c, j reads c             -> RAW(i->j, c)
//	j writes c, i reads c, i !write c -> WAR(j->i, c)
//	i writes c, j writes c            -> WAW(i->j, c)
//
// WAR is suppressed when the earlier task also writes the component:
// that case is already covered by WAW plus RAW. Shared mutexes yield
// MUTEX(i->j, name). Output order is deterministic: outer loop by task
// index, inner by sorted component name, mutexes after components.
func DetectHazards(tasks []types.Task) []types.Hazard {
	var hazards []types.Hazard

	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			earlier, later := tasks[i], tasks[j]

			for _, c := range touchUnion(earlier.Touches, later.Touches) {
				if earlier.Touches.WritesComponent(c) && later.Touches.ReadsComponent(c) {
					hazards = append(hazards, types.Hazard{
						Type: types.HazardRAW, Source: earlier.ID, Target: later.ID, Component: c,
					})
				}
				if later.Touches.WritesComponent(c) && earlier.Touches.ReadsComponent(c) &&
					!earlier.Touches.WritesComponent(c) {
					hazards = append(hazards, types.Hazard{
						Type: types.HazardWAR, Source: later.ID, Target: earlier.ID, Component: c,
					})
				}
				if earlier.Touches.WritesComponent(c) && later.Touches.WritesComponent(c) {
					hazards = append(hazards, types.Hazard{
						Type: types.HazardWAW, Source: earlier.ID, Target: later.ID, Component: c,
					})
				}
			}

			for _, mutex := range mutexIntersection(earlier.Mutexes, later.Mutexes) {
				hazards = append(hazards, types.Hazard{
					Type: types.HazardMutex, Source: earlier.ID, Target: later.ID, Component: mutex,
				})
			}
		}
	}

	logging.SchedDebug("DetectHazards: %d tasks -> %d hazards", len(tasks), len(hazards))
	return hazards
}

// touchUnion returns the sorted union of both tasks' touched components.
func touchUnion(a, b types.Touches) []string {
	set := make(map[string]bool)
	for _, list := range [][]string{a.Reads, a.Writes, b.Reads, b.Writes} {
		for _, c := range list {
			set[c] = true
		}
	}
	union := make([]string, 0, len(set))
	for c := range set {
		union = append(union, c)
	}
	sort.Strings(union)
	return union
}

// mutexIntersection returns the sorted shared mutex names.
func mutexIntersection(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, m := range a {
		set[m] = true
	}
	var shared []string
	seen := make(map[string]bool)
	for _, m := range b {
		if set[m] && !seen[m] {
			shared = append(shared, m)
			seen[m] = true
		}
	}
	sort.Strings(shared)
	return shared
}
