package plan

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"varp/internal/types"
)

// Execution log wire shapes; same element-and-attribute dialect as the
// plan itself.

type executionLogXML struct {
	XMLName xml.Name      `xml:"execution-log"`
	Session sessionXML    `xml:"session"`
	Waves   []waveRecXML  `xml:"wave"`
}

type sessionXML struct {
	Started string `xml:"started,attr"`
	Mode    string `xml:"mode,attr"`
}

type waveRecXML struct {
	ID              string         `xml:"id,attr"`
	Status          string         `xml:"status,attr"`
	Tasks           []taskRecXML   `xml:"task"`
	InvariantChecks []checkXML     `xml:"invariant-check"`
}

type taskRecXML struct {
	ID             string      `xml:"id,attr"`
	Status         string      `xml:"status,attr"`
	Metrics        *metricsXML `xml:"metrics"`
	FilesModified  []string    `xml:"files-modified>file"`
	Postconditions []checkXML  `xml:"postconditions>result"`
	Observations   string      `xml:"observations"`
}

type metricsXML struct {
	Tokens  string `xml:"tokens,attr"`
	Minutes string `xml:"minutes,attr"`
	Tools   string `xml:"tools,attr"`
}

type checkXML struct {
	ID     string `xml:"id,attr"`
	Passed string `xml:"passed,attr"`
	Detail string `xml:",chardata"`
}

// ParseExecutionLog reads an execution log file.
func ParseExecutionLog(path string) (*ExecutionLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.FileSystemError{Path: path, Op: "read", Err: err}
	}
	return ParseExecutionLogBytes(data)
}

// ParseExecutionLogBytes parses execution log content.
func ParseExecutionLogBytes(data []byte) (*ExecutionLog, error) {
	var raw executionLogXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, &types.PlanInvalidError{Reason: fmt.Sprintf("execution log xml: %v", err)}
	}

	log := &ExecutionLog{
		Session: Session{Started: strings.TrimSpace(raw.Session.Started), Mode: strings.TrimSpace(raw.Session.Mode)},
	}

	for _, w := range raw.Waves {
		wave := WaveRecord{Status: strings.TrimSpace(w.Status)}
		if id, err := strconv.Atoi(strings.TrimSpace(w.ID)); err == nil {
			wave.ID = id
		}

		for _, t := range w.Tasks {
			record, err := toTaskRecord(t)
			if err != nil {
				return nil, err
			}
			wave.Tasks = append(wave.Tasks, record)
		}
		for _, c := range w.InvariantChecks {
			wave.InvariantChecks = append(wave.InvariantChecks, toCheck(c))
		}
		log.Waves = append(log.Waves, wave)
	}
	return log, nil
}

func toTaskRecord(t taskRecXML) (TaskRecord, error) {
	record := TaskRecord{
		ID:           strings.TrimSpace(t.ID),
		Observations: strings.TrimSpace(t.Observations),
	}

	status := TaskStatus(strings.ToUpper(strings.TrimSpace(t.Status)))
	switch status {
	case TaskComplete, TaskPartial, TaskBlocked, TaskNeedsReplan:
		record.Status = status
	default:
		return record, &types.PlanInvalidError{TaskID: record.ID, Reason: fmt.Sprintf("unknown task status %q", t.Status)}
	}

	if t.Metrics != nil {
		record.Metrics = TaskMetrics{
			Tokens:  atoiOrZero(t.Metrics.Tokens),
			Minutes: atoiOrZero(t.Metrics.Minutes),
			Tools:   atoiOrZero(t.Metrics.Tools),
		}
	}
	for _, f := range t.FilesModified {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			record.FilesModified = append(record.FilesModified, trimmed)
		}
	}
	for _, c := range t.Postconditions {
		record.Postconditions = append(record.Postconditions, toCheck(c))
	}
	return record, nil
}

func toCheck(c checkXML) CheckResult {
	return CheckResult{
		ID:     strings.TrimSpace(c.ID),
		Passed: strings.EqualFold(strings.TrimSpace(c.Passed), "true"),
		Detail: strings.TrimSpace(c.Detail),
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
