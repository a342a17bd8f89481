package manifest

import "sort"

// EnvReport partitions required environment variables into present and
// missing against a supplied environment.
type EnvReport struct {
	Set     []string `json:"set"`
	Missing []string `json:"missing"`
}

// CheckEnv unions the env requirements of the requested components and
// partitions them against environ. A variable counts as set only when
// its value is non-empty.
func CheckEnv(m *Manifest, components []string, environ map[string]string) EnvReport {
	required := make(map[string]bool)
	for _, name := range components {
		comp := m.Components[name]
		if comp == nil {
			continue
		}
		for _, v := range comp.Env {
			required[v] = true
		}
	}

	report := EnvReport{Set: []string{}, Missing: []string{}}
	for v := range required {
		if environ[v] != "" {
			report.Set = append(report.Set, v)
		} else {
			report.Missing = append(report.Missing, v)
		}
	}
	sort.Strings(report.Set)
	sort.Strings(report.Missing)
	return report
}
