// Package enforce checks executed work against declared contracts:
// whether a task's modified files fall inside its write scope, and what
// restart strategy applies when a task fails mid-plan.
package enforce

import (
	"strings"

	"varp/internal/logging"
	"varp/internal/manifest"
	"varp/internal/types"
)

// VerifyCapabilities checks every modified path against the task's
// declared write set. A file outside every component is a violation
// only when the write set is non-empty; an empty write set is a
// declared touch-nothing contract, and unowned files cannot breach it.
func VerifyCapabilities(m *manifest.Manifest, touches types.Touches, modifiedPaths []string) types.CapabilityReport {
	index := manifest.NewIndex(m)
	report := types.CapabilityReport{Valid: true}

	for _, path := range modifiedPaths {
		owner := index.Owner(path)

		if owner == "" {
			if len(touches.Writes) > 0 {
				report.Violations = append(report.Violations, types.CapabilityViolation{
					Path:              path,
					DeclaredComponent: strings.Join(touches.Writes, ","),
				})
			}
			continue
		}

		if !touches.WritesComponent(owner) {
			report.Violations = append(report.Violations, types.CapabilityViolation{
				Path:              path,
				DeclaredComponent: strings.Join(touches.Writes, ","),
				ActualComponent:   owner,
			})
		}
	}

	report.Valid = len(report.Violations) == 0
	if !report.Valid {
		logging.Enforce("Capability check failed: %d violations across %d paths", len(report.Violations), len(modifiedPaths))
	}
	return report
}
