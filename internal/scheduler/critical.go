package scheduler

import (
	"sort"

	"varp/internal/types"
)

// CriticalPath returns the longest chain of RAW dependencies as a task
// id sequence, earliest first. RAW alone defines the critical path:
// WAW and MUTEX order execution but carry no dataflow.
func CriticalPath(tasks []types.Task, hazards []types.Hazard) []string {
	chainTo, _ := rawLongestTo(tasks, hazards)

	// Global maximum, smallest id on ties for determinism.
	end := ""
	best := 0
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if chainTo[id] > best {
			best = chainTo[id]
			end = id
		}
	}
	if end == "" {
		return nil
	}

	// Trace back through argmax predecessors.
	preds := rawPredecessors(hazards)
	path := []string{end}
	current := end
	for chainTo[current] > 1 {
		want := chainTo[current] - 1
		candidates := append([]string(nil), preds[current]...)
		sort.Strings(candidates)
		for _, p := range candidates {
			if chainTo[p] == want {
				path = append(path, p)
				current = p
				break
			}
		}
	}

	// Reverse into execution order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// rawPredecessors maps each task to its RAW sources.
func rawPredecessors(hazards []types.Hazard) map[string][]string {
	preds := make(map[string][]string)
	for _, h := range hazards {
		if h.Type == types.HazardRAW {
			preds[h.Target] = append(preds[h.Target], h.Source)
		}
	}
	return preds
}

// rawLongestTo computes, per task, the length of the longest RAW chain
// ending at it (counting tasks, so an isolated task scores 1). The
// second return is the successor map for chain-from computations.
func rawLongestTo(tasks []types.Task, hazards []types.Hazard) (map[string]int, map[string][]string) {
	preds := rawPredecessors(hazards)
	succs := make(map[string][]string)
	for _, h := range hazards {
		if h.Type == types.HazardRAW {
			succs[h.Source] = append(succs[h.Source], h.Target)
		}
	}

	memo := make(map[string]int, len(tasks))
	var longest func(id string) int
	longest = func(id string) int {
		if v, ok := memo[id]; ok {
			return v
		}
		best := 0
		for _, p := range preds[id] {
			if l := longest(p); l > best {
				best = l
			}
		}
		memo[id] = best + 1
		return best + 1
	}
	for _, t := range tasks {
		longest(t.ID)
	}
	return memo, succs
}

// rawChainMetrics returns the longest RAW chain length starting from
// each task, plus the critical path itself.
func rawChainMetrics(tasks []types.Task, hazards []types.Hazard) (map[string]int, []string) {
	_, succs := rawLongestTo(tasks, hazards)

	memo := make(map[string]int, len(tasks))
	var longestFrom func(id string) int
	longestFrom = func(id string) int {
		if v, ok := memo[id]; ok {
			return v
		}
		best := 0
		for _, s := range succs[id] {
			if l := longestFrom(s); l > best {
				best = l
			}
		}
		memo[id] = best + 1
		return best + 1
	}
	for _, t := range tasks {
		longestFrom(t.ID)
	}
	return memo, CriticalPath(tasks, hazards)
}
