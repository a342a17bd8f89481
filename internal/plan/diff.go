package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"varp/internal/types"
)

// ChangeType classifies one diff entry.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FieldChange is one modified field with before/after rendering.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ConditionChange is a contract-section diff entry.
type ConditionChange struct {
	Type    ChangeType    `json:"type"`
	Section string        `json:"section"` // preconditions | invariants | postconditions
	ID      string        `json:"id"`
	Fields  []FieldChange `json:"fields,omitempty"`
}

// TaskChange is a task diff entry.
type TaskChange struct {
	Type   ChangeType    `json:"type"`
	ID     string        `json:"id"`
	Fields []FieldChange `json:"fields,omitempty"`
}

// PlanDiff is the full structural diff between two plan revisions.
type PlanDiff struct {
	Metadata  []FieldChange     `json:"metadata,omitempty"`
	Contracts []ConditionChange `json:"contracts,omitempty"`
	Tasks     []TaskChange      `json:"tasks,omitempty"`
}

// Empty reports whether the two plans were identical.
func (d *PlanDiff) Empty() bool {
	return len(d.Metadata) == 0 && len(d.Contracts) == 0 && len(d.Tasks) == 0
}

// DiffPlans compares two plans, matching contract conditions and tasks
// by id. A plan diffed against itself yields an empty diff.
func DiffPlans(a, b *Plan) *PlanDiff {
	d := &PlanDiff{}

	d.Metadata = diffFields([]FieldChange{
		{Field: "name", Old: a.Metadata.Name, New: b.Metadata.Name},
		{Field: "version", Old: a.Metadata.Version, New: b.Metadata.Version},
		{Field: "author", Old: a.Metadata.Author, New: b.Metadata.Author},
		{Field: "description", Old: a.Metadata.Description, New: b.Metadata.Description},
	})

	d.Contracts = append(d.Contracts, diffConditions("preconditions", a.Contract.Preconditions, b.Contract.Preconditions)...)
	d.Contracts = append(d.Contracts, diffInvariants(a.Contract.Invariants, b.Contract.Invariants)...)
	d.Contracts = append(d.Contracts, diffConditions("postconditions", a.Contract.Postconditions, b.Contract.Postconditions)...)

	d.Tasks = diffTasks(a.Tasks, b.Tasks)
	return d
}

// diffFields keeps only entries whose old and new differ.
func diffFields(candidates []FieldChange) []FieldChange {
	var out []FieldChange
	for _, fc := range candidates {
		if fc.Old != fc.New {
			out = append(out, fc)
		}
	}
	return out
}

func diffConditions(section string, a, b []Condition) []ConditionChange {
	aByID := make(map[string]Condition, len(a))
	for _, c := range a {
		aByID[c.ID] = c
	}
	bByID := make(map[string]Condition, len(b))
	for _, c := range b {
		bByID[c.ID] = c
	}

	var out []ConditionChange
	for _, id := range sortedKeys(aByID) {
		old := aByID[id]
		if updated, ok := bByID[id]; ok {
			fields := diffFields([]FieldChange{
				{Field: "description", Old: old.Description, New: updated.Description},
				{Field: "verify", Old: old.Verify, New: updated.Verify},
			})
			if len(fields) > 0 {
				out = append(out, ConditionChange{Type: ChangeModified, Section: section, ID: id, Fields: fields})
			}
		} else {
			out = append(out, ConditionChange{Type: ChangeRemoved, Section: section, ID: id})
		}
	}
	for _, id := range sortedKeys(bByID) {
		if _, ok := aByID[id]; !ok {
			out = append(out, ConditionChange{Type: ChangeAdded, Section: section, ID: id})
		}
	}
	return out
}

func diffInvariants(a, b []Invariant) []ConditionChange {
	aByID := make(map[string]Invariant, len(a))
	for _, inv := range a {
		aByID[inv.ID] = inv
	}
	bByID := make(map[string]Invariant, len(b))
	for _, inv := range b {
		bByID[inv.ID] = inv
	}

	var out []ConditionChange
	for _, id := range sortedKeys(aByID) {
		old := aByID[id]
		if updated, ok := bByID[id]; ok {
			fields := diffFields([]FieldChange{
				{Field: "description", Old: old.Description, New: updated.Description},
				{Field: "verify", Old: old.Verify, New: updated.Verify},
				{Field: "critical", Old: fmt.Sprint(old.Critical), New: fmt.Sprint(updated.Critical)},
			})
			if len(fields) > 0 {
				out = append(out, ConditionChange{Type: ChangeModified, Section: "invariants", ID: id, Fields: fields})
			}
		} else {
			out = append(out, ConditionChange{Type: ChangeRemoved, Section: "invariants", ID: id})
		}
	}
	for _, id := range sortedKeys(bByID) {
		if _, ok := aByID[id]; !ok {
			out = append(out, ConditionChange{Type: ChangeAdded, Section: "invariants", ID: id})
		}
	}
	return out
}

func diffTasks(a, b []types.Task) []TaskChange {
	aByID := make(map[string]types.Task, len(a))
	for _, t := range a {
		aByID[t.ID] = t
	}
	bByID := make(map[string]types.Task, len(b))
	for _, t := range b {
		bByID[t.ID] = t
	}

	var out []TaskChange
	for _, id := range sortedKeys(aByID) {
		old := aByID[id]
		updated, ok := bByID[id]
		if !ok {
			out = append(out, TaskChange{Type: ChangeRemoved, ID: id})
			continue
		}
		if cmp.Equal(old, updated) {
			continue
		}
		fields := diffFields([]FieldChange{
			{Field: "description", Old: old.Description, New: updated.Description},
			{Field: "action", Old: string(old.Action), New: string(updated.Action)},
			{Field: "values", Old: strings.Join(old.Values, ", "), New: strings.Join(updated.Values, ", ")},
			{Field: "reads", Old: strings.Join(old.Touches.Reads, ", "), New: strings.Join(updated.Touches.Reads, ", ")},
			{Field: "writes", Old: strings.Join(old.Touches.Writes, ", "), New: strings.Join(updated.Touches.Writes, ", ")},
			{Field: "mutexes", Old: strings.Join(old.Mutexes, ", "), New: strings.Join(updated.Mutexes, ", ")},
			{Field: "budget", Old: renderBudget(old.Budget), New: renderBudget(updated.Budget)},
		})
		if len(fields) > 0 {
			out = append(out, TaskChange{Type: ChangeModified, ID: id, Fields: fields})
		}
	}
	for _, id := range sortedKeys(bByID) {
		if _, ok := aByID[id]; !ok {
			out = append(out, TaskChange{Type: ChangeAdded, ID: id})
		}
	}
	return out
}

func renderBudget(b *types.Budget) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("tokens=%d minutes=%d", b.Tokens, b.Minutes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
