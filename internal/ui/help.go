package ui

import "strings"

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{
		title: "General",
		keys: [][2]string{
			{"q / ctrl+c", "quit"},
			{"?", "toggle this help"},
			{"esc", "clear selection / dismiss"},
		},
	},
	{
		title: "Data",
		keys: [][2]string{
			{"r", "request a fresh push snapshot"},
			{"R", "reload site configuration (REST)"},
			{"enter", "select row and fetch its configuration"},
			{"c", "run a check on the selected site now"},
		},
	},
	{
		title: "Configuration",
		keys: [][2]string{
			{"a", "add a site"},
			{"x", "enable/disable the selected site"},
			{"X X", "delete the selected site (press twice)"},
		},
	},
	{
		title: "Filters",
		keys: [][2]string{
			{"1 / 2 / 3", "toggle OK / WARN / CRIT status filter"},
			{"0", "show all statuses"},
			{"p / s / v", "toggle prod / stage / dev env filter"},
			{"A", "clear all filters"},
		},
	},
	{
		title: "Layout",
		keys: [][2]string{
			{"H", "show/hide DOM, TTFB, and TLS columns"},
			{"+ / -", "widen/narrow the name column"},
		},
	},
}

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("pingdeck keys"))
	b.WriteString("\n\n")
	for _, section := range helpSections {
		b.WriteString(m.styles.Accent.Render(section.title))
		b.WriteString("\n")
		for _, k := range section.keys {
			b.WriteString("  ")
			b.WriteString(m.styles.Text.Render(padRight(k[0], 12)))
			b.WriteString(m.styles.Muted.Render(k[1]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("filters and layout persist across restarts"))
	return b.String()
}

func (m Model) addView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("add site"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("name "))
	b.WriteString(m.addInputs[0].View())
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("url  "))
	b.WriteString(m.addInputs[1].View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("tab switch field  enter create  esc cancel"))
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
