package plan

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"varp/internal/logging"
	"varp/internal/types"
)

// XML wire shapes. Sections that may hold multiple children (condition,
// invariant, task) decode into slices, so a singular child still
// materializes as a one-element list.

type planXML struct {
	XMLName  xml.Name    `xml:"plan"`
	Metadata metadataXML `xml:"metadata"`
	Contract contractXML `xml:"contract"`
	Tasks    []taskXML   `xml:"tasks>task"`
}

type metadataXML struct {
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Author      string `xml:"author"`
	Description string `xml:"description"`
}

type contractXML struct {
	Preconditions  []conditionXML `xml:"preconditions>condition"`
	Invariants     []invariantXML `xml:"invariants>invariant"`
	Postconditions []conditionXML `xml:"postconditions>condition"`
}

type conditionXML struct {
	ID          string `xml:"id,attr"`
	Description string `xml:"description"`
	Verify      string `xml:"verify"`
}

type invariantXML struct {
	conditionXML
	Critical string `xml:"critical,attr"`
}

type taskXML struct {
	ID          string      `xml:"id,attr"`
	Description string      `xml:"description"`
	Action      string      `xml:"action"`
	Values      string      `xml:"values"`
	Touches     *touchesXML `xml:"touches"`
	Mutexes     string      `xml:"mutexes"`
	Budget      *budgetXML  `xml:"budget"`
}

type touchesXML struct {
	Writes string `xml:"writes,attr"`
	Reads  string `xml:"reads,attr"`
}

type budgetXML struct {
	Tokens  string `xml:"tokens,attr"`
	Minutes string `xml:"minutes,attr"`
}

// Parse reads a plan file.
func Parse(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.FileSystemError{Path: path, Op: "read", Err: err}
	}
	p, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	logging.Plan("Parsed plan %s: %d tasks", path, len(p.Tasks))
	return p, nil
}

// ParseBytes parses plan XML content.
func ParseBytes(data []byte) (*Plan, error) {
	var raw planXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, &types.PlanInvalidError{Reason: fmt.Sprintf("xml: %v", err)}
	}

	p := &Plan{
		Metadata: Metadata{
			Name:        strings.TrimSpace(raw.Metadata.Name),
			Version:     strings.TrimSpace(raw.Metadata.Version),
			Author:      strings.TrimSpace(raw.Metadata.Author),
			Description: strings.TrimSpace(raw.Metadata.Description),
		},
	}

	for _, c := range raw.Contract.Preconditions {
		p.Contract.Preconditions = append(p.Contract.Preconditions, toCondition(c))
	}
	for _, inv := range raw.Contract.Invariants {
		p.Contract.Invariants = append(p.Contract.Invariants, Invariant{
			Condition: toCondition(inv.conditionXML),
			Critical:  strings.EqualFold(strings.TrimSpace(inv.Critical), "true"),
		})
	}
	for _, c := range raw.Contract.Postconditions {
		p.Contract.Postconditions = append(p.Contract.Postconditions, toCondition(c))
	}

	for _, t := range raw.Tasks {
		task, err := toTask(t)
		if err != nil {
			return nil, err
		}
		p.Tasks = append(p.Tasks, task)
	}
	return p, nil
}

func toCondition(c conditionXML) Condition {
	return Condition{
		ID:          strings.TrimSpace(c.ID),
		Description: strings.TrimSpace(c.Description),
		Verify:      strings.TrimSpace(c.Verify),
	}
}

func toTask(t taskXML) (types.Task, error) {
	task := types.Task{
		ID:          strings.TrimSpace(t.ID),
		Description: strings.TrimSpace(t.Description),
		Values:      splitCommaList(t.Values),
		Mutexes:     splitCommaList(t.Mutexes),
	}
	if task.ID == "" {
		return task, &types.PlanInvalidError{Reason: "task missing id attribute"}
	}

	action := types.ActionVerb(strings.ToLower(strings.TrimSpace(t.Action)))
	switch action {
	case types.ActionImplement, types.ActionTest, types.ActionDocument,
		types.ActionRefactor, types.ActionMigrate:
		task.Action = action
	case "":
		task.Action = types.ActionImplement
	default:
		return task, &types.PlanInvalidError{TaskID: task.ID, Reason: fmt.Sprintf("unknown action %q", t.Action)}
	}

	if t.Touches != nil {
		task.Touches = types.Touches{
			Writes: splitCommaList(t.Touches.Writes),
			Reads:  splitCommaList(t.Touches.Reads),
		}
	}

	if t.Budget != nil {
		budget := &types.Budget{}
		var err error
		if budget.Tokens, err = parseBudgetField(task.ID, "tokens", t.Budget.Tokens); err != nil {
			return task, err
		}
		if budget.Minutes, err = parseBudgetField(task.ID, "minutes", t.Budget.Minutes); err != nil {
			return task, err
		}
		task.Budget = budget
	}
	return task, nil
}

func parseBudgetField(taskID, field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, &types.PlanInvalidError{TaskID: taskID, Reason: fmt.Sprintf("budget %s is not a non-negative integer: %q", field, value)}
	}
	return n, nil
}

// splitCommaList splits "a, b, c" into trimmed non-empty parts.
func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
