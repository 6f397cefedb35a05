package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/pingdeck/pingdeck/internal/view"
)

// column describes one sites-table column. Keys reuse the dashboard's
// historical column names so persisted layout survives from older
// releases.
type column struct {
	key   string
	title string
}

var allColumns = []column{
	{key: "n", title: "Name"},
	{key: "e", title: "Env"},
	{key: "st", title: "Status"},
	{key: "p95", title: "P95"},
	{key: "avg", title: "Avg"},
	{key: "up", title: "Uptime"},
	{key: "ok", title: "Checks"},
	{key: "dlt", title: "DOM"},
	{key: "ttfb", title: "TTFB"},
	{key: "ssl", title: "TLS"},
	{key: "lc", title: "Last check"},
}

// extraColumns are hidden/shown together with the H key.
var extraColumns = []string{"dlt", "ttfb", "ssl"}

func defaultColumnWidths() map[string]int {
	return map[string]int{
		"n":    24,
		"e":    7,
		"st":   6,
		"p95":  8,
		"avg":  8,
		"up":   8,
		"ok":   6,
		"dlt":  7,
		"ttfb": 7,
		"ssl":  5,
		"lc":   14,
	}
}

func defaultColumnVisibility() map[string]bool {
	vis := make(map[string]bool, len(allColumns))
	for _, col := range allColumns {
		vis[col.key] = true
	}
	return vis
}

// visibleColumnKeys returns the keys of the columns currently shown,
// in canonical order.
func (m Model) visibleColumnKeys() []string {
	keys := make([]string, 0, len(allColumns))
	for _, col := range allColumns {
		if show, ok := m.colVisible[col.key]; ok && !show {
			continue
		}
		keys = append(keys, col.key)
	}
	return keys
}

// visibleColumns resolves the persisted layout into concrete table
// columns, in canonical order.
func (m Model) visibleColumns() []table.Column {
	cols := make([]table.Column, 0, len(allColumns))
	for _, col := range allColumns {
		if show, ok := m.colVisible[col.key]; ok && !show {
			continue
		}
		width := m.colWidths[col.key]
		if width <= 0 {
			width = defaultColumnWidths()[col.key]
		}
		cols = append(cols, table.Column{Title: col.title, Width: width})
	}
	return cols
}

func newSitesTable(theme Theme, cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	t.SetStyles(styles)
	return t
}

// buildRows renders the joined rows into table cells, matching the
// visible column keys in order.
func buildRows(rows []view.Row, keys []string) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		svc := row.Status
		cells := make(table.Row, 0, len(keys))
		for _, key := range keys {
			var value string
			switch key {
			case "n":
				value = svc.Name
			case "e":
				value = svc.Environment
			case "st":
				value = statusText(svc)
			case "p95":
				value = formatMillis(svc.LatencyP95Ms)
			case "avg":
				value = formatMillis(svc.LatencyAvgMs)
			case "up":
				value = formatPercent(svc.UptimePercent)
			case "ok":
				value = fmt.Sprintf("%d", svc.SuccessfulChecks)
			case "dlt":
				value = formatOptionalMillis(svc.DOMLoadMs)
			case "ttfb":
				value = formatOptionalMillis(svc.TimeToFirstByteMs)
			case "ssl":
				value = formatOptionalDays(svc.TLSExpiryDays)
			case "lc":
				value = formatAge(svc.ParsedLastCheckedAt())
			}
			cells = append(cells, value)
		}
		out = append(out, cells)
	}
	return out
}
