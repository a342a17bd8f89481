package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"varp/internal/cochange"
	"varp/internal/graph"
	"varp/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// renderSchedule prints waves, hazards, and the critical path.
func renderSchedule(s *types.Schedule) {
	fmt.Println(headerStyle.Render("Waves"))
	for _, wave := range s.Waves {
		fmt.Printf("  %d: %s\n", wave.ID, strings.Join(wave.Tasks, ", "))
	}

	if len(s.Hazards) > 0 {
		fmt.Println(headerStyle.Render("Hazards"))
		for _, h := range s.Hazards {
			line := fmt.Sprintf("  %s", h)
			if !h.Constrains() {
				line += dimStyle.Render("  (no ordering)")
			}
			fmt.Println(line)
		}
	}

	if len(s.CriticalPath) > 0 {
		fmt.Println(headerStyle.Render("Critical path"))
		fmt.Printf("  %s (length %d)\n", strings.Join(s.CriticalPath, " -> "), len(s.CriticalPath))
	}
}

// renderHotspots prints the top churn hotspots.
func renderHotspots(g *graph.CodebaseGraph, top int) {
	if g.CoChange.GitUnavailable {
		fmt.Println(alertStyle.Render("git unavailable; no co-change data"))
		return
	}
	fmt.Println(headerStyle.Render("Hotspots"))
	for _, spot := range cochange.Hotspots(g.CoChange, g.Root, top) {
		fmt.Printf("  %8.0f  %s %s\n", spot.Score, spot.Path,
			dimStyle.Render(fmt.Sprintf("(%d changes, %d lines)", spot.Frequency, spot.Lines)))
	}
}
