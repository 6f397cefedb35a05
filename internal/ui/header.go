package ui

import (
	"fmt"
	"strings"

	"github.com/pingdeck/pingdeck/internal/push"
	"github.com/pingdeck/pingdeck/internal/view"
)

const (
	footerHeight = 2
	// title line + stats line + filter line + table top border
	headerHeight = 4
)

func (m Model) headerView() string {
	status := m.push.Status()

	title := m.styles.Title.Render("pingdeck")
	conn := m.connBadge(status)
	applied := ""
	if !status.LastApplied.IsZero() {
		applied = m.styles.Muted.Render(" updated " + formatAge(status.LastApplied))
	}

	services := view.ComputeVisible(m.live.Services(), m.filter)
	sum := view.Summarize(services)
	stats := fmt.Sprintf("%s %s  %s %s  %s %s  avg %s",
		m.styles.Success.Render("up"), fmt.Sprintf("%d", sum.Healthy),
		m.styles.Danger.Render("down"), fmt.Sprintf("%d", sum.Down),
		m.styles.Accent.Render("total"), fmt.Sprintf("%d", sum.Total),
		formatMillis(sum.AvgLatencyMs),
	)
	for _, env := range view.EnvStats(services) {
		stats += m.styles.Muted.Render(fmt.Sprintf("  %s:%d", env.Env, env.Count))
	}

	return title + "  " + conn + applied + "\n" + stats + "\n" + m.filterLine()
}

func (m Model) connBadge(status push.Status) string {
	switch status.State {
	case push.StateConnected:
		return m.styles.Success.Render("● live")
	case push.StateConnecting:
		return m.styles.Warning.Render("◌ connecting")
	case push.StateError:
		label := "● error"
		if status.LastError != "" {
			label += " " + truncate(status.LastError, 48)
		}
		if status.ReconnectAttempts > 0 {
			label += fmt.Sprintf(" (retry %d)", status.ReconnectAttempts)
		}
		return m.styles.Danger.Render(label)
	default:
		return m.styles.Muted.Render("○ offline")
	}
}

func (m Model) filterLine() string {
	var parts []string
	if len(m.filter.Status) == 0 {
		parts = append(parts, "status:all")
	} else {
		labels := make([]string, 0, len(m.filter.Status))
		for _, code := range m.filter.Status {
			labels = append(labels, statusCodeLabel(code))
		}
		parts = append(parts, "status:"+strings.Join(labels, ","))
	}
	if len(m.filter.Env) == 0 {
		parts = append(parts, "env:all")
	} else {
		parts = append(parts, "env:"+strings.Join(m.filter.Env, ","))
	}
	return m.styles.Status.Render("filters  " + strings.Join(parts, "  "))
}

func statusCodeLabel(code view.StatusCode) string {
	switch code {
	case view.CodeOK:
		return "OK"
	case view.CodeWarn:
		return "WARN"
	case view.CodeCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

func (m Model) footerView() string {
	snap := m.sites.Snapshot()

	line := m.styles.Muted.Render("q quit  ? help  r refresh  a add  enter detail")
	if snap.Loading {
		line = m.styles.Warning.Render("working…") + "  " + line
	}

	if snap.Error != "" {
		return m.styles.Danger.Render(truncate(snap.Error, m.width)) + "\n" + line
	}
	if m.notice != "" {
		return m.styles.Accent.Render(truncate(m.notice, m.width)) + "\n" + line
	}
	return "\n" + line
}
