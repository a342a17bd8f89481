package plan

import (
	"fmt"
	"strings"

	"varp/internal/logging"
	"varp/internal/manifest"
	"varp/internal/types"
)

// ValidationWarning is advisory: the plan is usable but probably not
// what the author intended.
type ValidationWarning struct {
	Kind    string `json:"kind"` // waw | undeclared_read
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// ValidationResult carries the warnings from a successful validation.
type ValidationResult struct {
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

// Validate checks the plan against the manifest. Duplicate task ids,
// unknown components, and empty verify commands are errors. When
// hazards are supplied each WAW becomes a warning; when import deps are
// supplied, a written component importing from outside the task's read
// set becomes an advisory warning.
func Validate(p *Plan, m *manifest.Manifest, hazards []types.Hazard, importDeps map[string][]string) (*ValidationResult, error) {
	seen := make(map[string]bool)
	for _, task := range p.Tasks {
		if seen[task.ID] {
			return nil, &types.PlanInvalidError{TaskID: task.ID, Reason: "duplicate task id"}
		}
		seen[task.ID] = true

		for _, comp := range task.Touches.Reads {
			if m.Component(comp) == nil {
				return nil, &types.PlanInvalidError{TaskID: task.ID, Reason: fmt.Sprintf("reads unknown component %q", comp)}
			}
		}
		for _, comp := range task.Touches.Writes {
			if m.Component(comp) == nil {
				return nil, &types.PlanInvalidError{TaskID: task.ID, Reason: fmt.Sprintf("writes unknown component %q", comp)}
			}
		}
	}

	if err := validateConditions("precondition", p.Contract.Preconditions); err != nil {
		return nil, err
	}
	for _, inv := range p.Contract.Invariants {
		if strings.TrimSpace(inv.Verify) == "" {
			return nil, &types.PlanInvalidError{Reason: fmt.Sprintf("invariant %q has an empty verify command", inv.ID)}
		}
	}
	if err := validateConditions("postcondition", p.Contract.Postconditions); err != nil {
		return nil, err
	}

	result := &ValidationResult{}
	for _, h := range hazards {
		if h.Type == types.HazardWAW {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Kind:    "waw",
				TaskID:  h.Target,
				Message: fmt.Sprintf("tasks %s and %s both write %s; the later write wins", h.Source, h.Target, h.Component),
			})
		}
	}

	if importDeps != nil {
		for _, task := range p.Tasks {
			for _, written := range task.Touches.Writes {
				for _, imported := range importDeps[written] {
					if task.Touches.ReadsComponent(imported) {
						continue
					}
					result.Warnings = append(result.Warnings, ValidationWarning{
						Kind:   "undeclared_read",
						TaskID: task.ID,
						Message: fmt.Sprintf("task %s writes %s, which imports from %s, but %s is not in its read set",
							task.ID, written, imported, imported),
					})
				}
			}
		}
	}

	logging.PlanDebug("Validated plan %q: %d tasks, %d warnings", p.Metadata.Name, len(p.Tasks), len(result.Warnings))
	return result, nil
}

func validateConditions(kind string, conditions []Condition) error {
	for _, c := range conditions {
		if strings.TrimSpace(c.Verify) == "" {
			return &types.PlanInvalidError{Reason: fmt.Sprintf("%s %q has an empty verify command", kind, c.ID)}
		}
	}
	return nil
}
