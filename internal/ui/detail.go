package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// detailView renders the currently selected site: live metrics on one
// side, configuration from the CRUD cache on the other. Empty when
// nothing is selected.
func (m Model) detailView() string {
	snap := m.sites.Snapshot()
	if snap.Current == nil {
		return ""
	}
	cfg := snap.Current

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(cfg.Name))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(cfg.URL))
	b.WriteString("\n")

	enabled := "enabled"
	if !cfg.Enabled {
		enabled = "disabled"
	}
	b.WriteString(fmt.Sprintf("env %s  interval %ds  timeout %ds  threshold %dms  %s",
		cfg.Environment, cfg.IntervalSec, cfg.TimeoutSec, cfg.DegradationThresholdMs, enabled))
	b.WriteString("\n")

	verdict := string(cfg.LastStatus)
	if verdict == "" {
		verdict = notAvailable
	}
	b.WriteString(fmt.Sprintf("last verdict %s  response %s  checked %s",
		m.verdictStyle(verdict).Render(verdict),
		formatOptionalMillis(cfg.LastResponseTimeMs),
		formatAge(cfg.ParsedLastCheckAt())))

	if svc, ok := m.live.Get(cfg.ID); ok && len(svc.Endpoints) > 0 {
		b.WriteString("\n")
		probes := make([]string, 0, len(svc.Endpoints))
		for _, ep := range svc.Endpoints {
			probes = append(probes, fmt.Sprintf("%s=%s", ep.URL, probeCodeText(ep.Code)))
		}
		b.WriteString(m.styles.Muted.Render("probes  " + strings.Join(probes, "  ")))
	}

	return m.styles.Border.Width(maxInt(m.width-2, 20)).Render(b.String())
}

func (m Model) verdictStyle(verdict string) lipgloss.Style {
	switch verdict {
	case "GREEN":
		return m.styles.Success
	case "YELLOW":
		return m.styles.Warning
	case "RED":
		return m.styles.Danger
	default:
		return m.styles.Muted
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
