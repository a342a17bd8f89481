package enforce

import (
	"fmt"
	"sort"
	"strings"

	"varp/internal/logging"
	"varp/internal/types"
)

// DeriveRestartStrategy decides how to respond to a failed task given
// what has already run.
//
//   - No writes and no mutexes: isolated_retry, always safe.
//   - No completed or dispatched task consumed the failure's outputs or
//     shares a mutex: isolated_retry.
//   - A completed task consumed them: escalate - that task committed to
//     possibly-wrong output and a human must intervene.
//   - Only dispatched tasks are affected: cascade_restart of the whole
//     affected set.
//
// The decision is a pure function of its inputs; identical inputs yield
// an identical decision, reason string included.
func DeriveRestartStrategy(failed types.Task, allTasks []types.Task, completedIDs, dispatchedIDs []string) types.RestartDecision {
	if len(failed.Touches.Writes) == 0 && len(failed.Mutexes) == 0 {
		return types.RestartDecision{
			Strategy: types.RestartIsolated,
			Reason:   fmt.Sprintf("task %s writes nothing and holds no mutexes; retry cannot invalidate other work", failed.ID),
		}
	}

	completed := toSet(completedIDs)
	dispatched := toSet(dispatchedIDs)
	byID := make(map[string]types.Task, len(allTasks))
	for _, t := range allTasks {
		byID[t.ID] = t
	}

	// Affected: completed or dispatched tasks (other than the failure)
	// that read a written component or share a mutex.
	type overlap struct {
		id        string
		completed bool
		via       []string
	}
	var affected []overlap
	candidates := make([]string, 0, len(completed)+len(dispatched))
	for id := range completed {
		candidates = append(candidates, id)
	}
	for id := range dispatched {
		if !completed[id] {
			candidates = append(candidates, id)
		}
	}
	sort.Strings(candidates)

	for _, id := range candidates {
		if id == failed.ID {
			continue
		}
		task, ok := byID[id]
		if !ok {
			continue
		}

		var via []string
		for _, written := range failed.Touches.Writes {
			if task.Touches.ReadsComponent(written) {
				via = append(via, "reads "+written)
			}
		}
		for _, mutex := range failed.Mutexes {
			for _, other := range task.Mutexes {
				if mutex == other {
					via = append(via, "shares mutex "+mutex)
				}
			}
		}
		if len(via) > 0 {
			sort.Strings(via)
			affected = append(affected, overlap{id: id, completed: completed[id], via: via})
		}
	}

	if len(affected) == 0 {
		return types.RestartDecision{
			Strategy: types.RestartIsolated,
			Reason:   fmt.Sprintf("no completed or dispatched task consumes outputs of %s; retry in place", failed.ID),
		}
	}

	var ids []string
	var clauses []string
	anyCompleted := false
	for _, o := range affected {
		ids = append(ids, o.id)
		state := "dispatched"
		if o.completed {
			state = "completed"
			anyCompleted = true
		}
		clauses = append(clauses, fmt.Sprintf("%s (%s, %s)", o.id, state, strings.Join(o.via, ", ")))
	}

	if anyCompleted {
		decision := types.RestartDecision{
			Strategy: types.RestartEscalate,
			Affected: ids,
			Reason: fmt.Sprintf("task %s failed after consumers committed: %s; completed work may be built on invalid output",
				failed.ID, strings.Join(clauses, "; ")),
		}
		logging.Enforce("Restart strategy for %s: escalate (%d affected)", failed.ID, len(ids))
		return decision
	}

	return types.RestartDecision{
		Strategy: types.RestartCascade,
		Affected: ids,
		Reason: fmt.Sprintf("task %s failed with in-flight consumers: %s; cancel and reschedule the affected set",
			failed.ID, strings.Join(clauses, "; ")),
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
