// Package ui renders the pingdeck dashboard with Bubble Tea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pingdeck/pingdeck/internal/prefs"
	"github.com/pingdeck/pingdeck/internal/push"
	"github.com/pingdeck/pingdeck/internal/state"
	"github.com/pingdeck/pingdeck/internal/tower"
	"github.com/pingdeck/pingdeck/internal/view"
)

const uiTick = time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	Sites     *state.SiteStore
	Live      *state.LiveStore
	Push      *push.Manager
	Prefs     *prefs.Store
	ThemeName string
}

type tickMsg time.Time

// opDoneMsg reports a finished CRUD operation. Late arrivals after the
// program stops are dropped by the runtime, which is exactly the
// behavior we want for in-flight requests at teardown.
type opDoneMsg struct {
	what string
	err  error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx   context.Context
	sites *state.SiteStore
	live  *state.LiveStore
	push  *push.Manager
	prefs *prefs.Store

	theme  Theme
	styles Styles
	width  int
	height int
	ready  bool

	filter     view.FilterState
	colWidths  map[string]int
	colVisible map[string]bool

	table       table.Model
	rows        []view.Row
	liveVersion uint64

	showHelp      bool
	showAdd       bool
	addInputs     [2]textinput.Model
	addFocus      int
	confirmDelete string
	notice        string
}

// New creates a new Bubble Tea model, restoring persisted view state.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = defaultThemeName
		if opts.Prefs != nil {
			opts.Prefs.Load(prefs.KeyTheme, &themeName)
		}
	}
	theme := GetTheme(themeName)

	m := Model{
		ctx:        ctx,
		sites:      opts.Sites,
		live:       opts.Live,
		push:       opts.Push,
		prefs:      opts.Prefs,
		theme:      theme,
		styles:     theme.Styles(),
		colWidths:  defaultColumnWidths(),
		colVisible: defaultColumnVisibility(),
	}

	if m.prefs != nil {
		m.prefs.Load(prefs.KeyStatusFilter, &m.filter.Status)
		m.prefs.Load(prefs.KeyEnvFilter, &m.filter.Env)
		m.prefs.Load(prefs.KeyColumnWidths, &m.colWidths)
		m.prefs.Load(prefs.KeyColumnVisibility, &m.colVisible)
	}

	m.table = newSitesTable(m.theme, m.visibleColumns())

	name := textinput.New()
	name.Placeholder = "name"
	name.CharLimit = 80
	addr := textinput.New()
	addr.Placeholder = "https://example.com"
	addr.CharLimit = 200
	m.addInputs = [2]textinput.Model{name, addr}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeTable()
		return m, nil

	case tickMsg:
		// Rebuild rows only when the live collection moved; CRUD
		// completions refresh explicitly via opDoneMsg.
		if m.live.Version() != m.liveVersion {
			m.refreshRows()
		}
		return m, tick()

	case opDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = msg.what + " ok"
		}
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showAdd {
		return m.handleAddKey(msg)
	}
	if m.showHelp {
		switch msg.String() {
		case "q", "esc", "?":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "r":
		if err := m.push.Refresh(); err != nil {
			if errors.Is(err, push.ErrNotConnected) {
				m.notice = "refresh failed: not connected"
			} else {
				m.notice = err.Error()
			}
		} else {
			m.notice = "refresh requested"
		}
		return m, nil

	case "R":
		return m, m.opCmd("reload", func(ctx context.Context) error {
			return m.sites.Fetch(ctx)
		})

	case "enter":
		if id := m.selectedID(); id != "" {
			m.sites.SetCurrent(id)
			return m, m.opCmd("select", func(ctx context.Context) error {
				return m.sites.FetchByID(ctx, id)
			})
		}
		return m, nil

	case "esc":
		m.confirmDelete = ""
		m.sites.SetCurrent("")
		m.sites.ClearError()
		m.notice = ""
		return m, nil

	case "c":
		if id := m.selectedID(); id != "" {
			return m, m.opCmd("check scheduled", func(ctx context.Context) error {
				return m.sites.RunCheck(ctx, id)
			})
		}
		return m, nil

	case "x":
		return m.toggleEnabled()

	case "X":
		return m.deleteSelected()

	case "a":
		m.showAdd = true
		m.addFocus = 0
		m.addInputs[0].SetValue("")
		m.addInputs[1].SetValue("")
		m.addInputs[0].Focus()
		m.addInputs[1].Blur()
		return m, textinput.Blink

	case "0":
		return m.setStatusFilter(nil)
	case "1":
		return m.toggleStatusFilter(view.CodeOK)
	case "2":
		return m.toggleStatusFilter(view.CodeWarn)
	case "3":
		return m.toggleStatusFilter(view.CodeCrit)

	case "p":
		return m.toggleEnvFilter("prod")
	case "s":
		return m.toggleEnvFilter("stage")
	case "v":
		return m.toggleEnvFilter("dev")
	case "A":
		return m.clearFilters()

	case "H":
		return m.toggleExtras()
	case "+":
		return m.adjustNameWidth(2)
	case "-":
		return m.adjustNameWidth(-2)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showAdd = false
		return m, nil
	case "tab", "shift+tab":
		m.addFocus = (m.addFocus + 1) % 2
		for i := range m.addInputs {
			if i == m.addFocus {
				m.addInputs[i].Focus()
			} else {
				m.addInputs[i].Blur()
			}
		}
		return m, nil
	case "enter":
		name := m.addInputs[0].Value()
		addr := m.addInputs[1].Value()
		if name == "" || addr == "" {
			m.notice = "name and url are required"
			return m, nil
		}
		m.showAdd = false
		body := tower.CreateSiteConfig{
			Name:                   name,
			URL:                    addr,
			Environment:            "prod",
			IntervalSec:            60,
			TimeoutSec:             5,
			DegradationThresholdMs: 2000,
			Enabled:                true,
		}
		return m, m.opCmd("create", func(ctx context.Context) error {
			_, err := m.sites.Create(ctx, body)
			return err
		})
	}

	var cmd tea.Cmd
	m.addInputs[m.addFocus], cmd = m.addInputs[m.addFocus].Update(msg)
	return m, cmd
}

// opCmd runs one CRUD operation off the UI loop. The store owns the
// pending/fulfilled/rejected bookkeeping; the message only carries the
// outcome back for the notice line.
func (m Model) opCmd(what string, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{what: what, err: op(ctx)}
	}
}

func (m Model) toggleEnabled() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRow()
	if !ok || row.Config == nil {
		m.notice = "no configuration for selection"
		return m, nil
	}
	enabled := !row.Config.Enabled
	id := row.Config.ID
	return m, m.opCmd("update", func(ctx context.Context) error {
		return m.sites.Update(ctx, id, tower.UpdateSiteConfig{Enabled: &enabled})
	})
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	id := m.selectedID()
	if id == "" {
		return m, nil
	}
	// First press arms, second press confirms.
	if m.confirmDelete != id {
		m.confirmDelete = id
		m.notice = "press X again to delete " + id
		return m, nil
	}
	m.confirmDelete = ""
	return m, m.opCmd("delete", func(ctx context.Context) error {
		return m.sites.Delete(ctx, id)
	})
}

func (m Model) setStatusFilter(codes []view.StatusCode) (tea.Model, tea.Cmd) {
	m.persistFilters(codes, m.filter.Env)
	m.refreshRows()
	return m, nil
}

func (m Model) toggleStatusFilter(code view.StatusCode) (tea.Model, tea.Cmd) {
	next := make([]view.StatusCode, 0, len(m.filter.Status)+1)
	found := false
	for _, c := range m.filter.Status {
		if c == code {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		next = append(next, code)
	}
	m.persistFilters(next, m.filter.Env)
	m.refreshRows()
	return m, nil
}

func (m Model) toggleEnvFilter(env string) (tea.Model, tea.Cmd) {
	next := make([]string, 0, len(m.filter.Env)+1)
	found := false
	for _, e := range m.filter.Env {
		if e == env {
			found = true
			continue
		}
		next = append(next, e)
	}
	if !found {
		next = append(next, env)
	}
	m.persistFilters(m.filter.Status, next)
	m.refreshRows()
	return m, nil
}

func (m Model) clearFilters() (tea.Model, tea.Cmd) {
	m.persistFilters(nil, nil)
	m.refreshRows()
	return m, nil
}

// persistFilters mirrors the selection to durable storage before the
// model adopts it, so a reload always resumes what is on screen.
func (m *Model) persistFilters(status []view.StatusCode, env []string) {
	if m.prefs != nil {
		m.prefs.Save(prefs.KeyStatusFilter, status)
		m.prefs.Save(prefs.KeyEnvFilter, env)
	}
	m.filter.Status = status
	m.filter.Env = env
}

func (m Model) toggleExtras() (tea.Model, tea.Cmd) {
	show := !m.colVisible["dlt"]
	for _, col := range extraColumns {
		m.colVisible[col] = show
	}
	if m.prefs != nil {
		m.prefs.Save(prefs.KeyColumnVisibility, m.colVisible)
	}
	m.rebuildTable()
	return m, nil
}

func (m Model) adjustNameWidth(delta int) (tea.Model, tea.Cmd) {
	w := m.colWidths["n"] + delta
	if w < 10 {
		w = 10
	}
	if w > 60 {
		w = 60
	}
	m.colWidths["n"] = w
	if m.prefs != nil {
		m.prefs.Save(prefs.KeyColumnWidths, m.colWidths)
	}
	m.rebuildTable()
	return m, nil
}

func (m *Model) refreshRows() {
	services := view.ComputeVisible(m.live.Services(), m.filter)
	snap := m.sites.Snapshot()
	m.rows = view.Join(services, snap.Sites)
	m.liveVersion = m.live.Version()
	m.table.SetRows(buildRows(m.rows, m.visibleColumnKeys()))
}

func (m *Model) rebuildTable() {
	cursor := m.table.Cursor()
	m.table = newSitesTable(m.theme, m.visibleColumns())
	m.resizeTable()
	m.refreshRows()
	m.table.SetCursor(cursor)
}

func (m *Model) resizeTable() {
	if !m.ready {
		return
	}
	height := m.height - headerHeight - footerHeight
	if height < 3 {
		height = 3
	}
	m.table.SetHeight(height)
	m.table.SetWidth(m.width)
}

func (m Model) selectedRow() (view.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return view.Row{}, false
	}
	return m.rows[i], true
}

func (m Model) selectedID() string {
	row, ok := m.selectedRow()
	if !ok {
		return ""
	}
	return row.Status.ID
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}
	if m.showAdd {
		return m.addView()
	}

	body := m.headerView() + "\n" + m.table.View()
	if detail := m.detailView(); detail != "" {
		body += "\n" + detail
	}
	return body + "\n" + m.footerView()
}

// Run starts the dashboard and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Sites == nil || opts.Live == nil || opts.Push == nil {
		return fmt.Errorf("ui requires sites, live, and push stores")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) {
		// Context cancellation is a normal shutdown path.
		return nil
	}
	return err
}
