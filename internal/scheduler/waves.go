package scheduler

import (
	"sort"

	"varp/internal/logging"
	"varp/internal/types"
)

// AssignWaves computes the wave for every task: the longest path from
// any root through the constraining hazard edges (RAW, WAW, MUTEX; WAR
// imposes nothing). A task with no dependencies lands in wave 0.
func AssignWaves(tasks []types.Task, hazards []types.Hazard) ([]types.Wave, map[string]int, error) {
	deps := make(map[string][]string, len(tasks)) // task -> tasks it must follow
	for _, h := range hazards {
		if !h.Constrains() {
			continue
		}
		deps[h.Target] = append(deps[h.Target], h.Source)
	}

	const (
		unvisited = 0
		inPath    = 1
		done      = 2
	)
	state := make(map[string]int, len(tasks))
	wave := make(map[string]int, len(tasks))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case inPath:
			return &types.CyclicPlanError{Tasks: []string{id}}
		}
		state[id] = inPath

		max := -1
		predecessors := append([]string(nil), deps[id]...)
		sort.Strings(predecessors)
		for _, dep := range predecessors {
			if err := visit(dep); err != nil {
				if cyc, ok := err.(*types.CyclicPlanError); ok && state[cyc.Tasks[len(cyc.Tasks)-1]] == inPath {
					return &types.CyclicPlanError{Tasks: append([]string{id}, cyc.Tasks...)}
				}
				return err
			}
			if wave[dep] > max {
				max = wave[dep]
			}
		}

		state[id] = done
		wave[id] = max + 1
		return nil
	}

	for _, t := range tasks {
		if err := visit(t.ID); err != nil {
			return nil, nil, err
		}
	}

	longestFrom, critical := rawChainMetrics(tasks, hazards)

	byWave := make(map[int][]string)
	highest := 0
	for _, t := range tasks {
		w := wave[t.ID]
		byWave[w] = append(byWave[w], t.ID)
		if w > highest {
			highest = w
		}
	}

	criticalSet := make(map[string]bool, len(critical))
	for _, id := range critical {
		criticalSet[id] = true
	}

	waves := make([]types.Wave, 0, highest+1)
	for w := 0; w <= highest; w++ {
		ids := byWave[w]
		// Critical-path members first (longer remaining chain first),
		// then the rest by id.
		sort.Slice(ids, func(i, j int) bool {
			ci, cj := criticalSet[ids[i]], criticalSet[ids[j]]
			if ci != cj {
				return ci
			}
			if ci && longestFrom[ids[i]] != longestFrom[ids[j]] {
				return longestFrom[ids[i]] > longestFrom[ids[j]]
			}
			return ids[i] < ids[j]
		})
		waves = append(waves, types.Wave{ID: w, Tasks: ids})
	}

	logging.Sched("AssignWaves: %d tasks across %d waves", len(tasks), len(waves))
	return waves, wave, nil
}

// Schedule is the one-call composition: hazards, waves, critical path.
func Schedule(tasks []types.Task) (*types.Schedule, error) {
	hazards := DetectHazards(tasks)
	waves, assignment, err := AssignWaves(tasks, hazards)
	if err != nil {
		return nil, err
	}
	return &types.Schedule{
		Waves:        waves,
		Assignment:   assignment,
		CriticalPath: CriticalPath(tasks, hazards),
		Hazards:      hazards,
	}, nil
}
