// Package tui is the interactive front end: a full-screen table of the
// loader's dataset with load and clear actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/leapstack-labs/dataload/internal/loader"
	"github.com/leapstack-labs/dataload/internal/notifier"
	"github.com/leapstack-labs/dataload/internal/table"
)

// chromeLines is the number of screen lines used around the table: title,
// table borders and header, inspector, alert, status and help.
const chromeLines = 10

// Options configures the view.
type Options struct {
	Title    string
	MinWidth int
	MaxWidth int
	// AutoLoad triggers a load as soon as the view starts.
	AutoLoad bool
}

// loadDoneMsg reports the end of a triggered load.
type loadDoneMsg struct{ err error }

// noticeMsg carries a notice from the loader.
type noticeMsg notifier.Notice

// Model is the bubbletea model.
type Model struct {
	ctx    context.Context
	loader *loader.Loader
	notes  chan notifier.Notice
	opts   Options

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	styles  Styles

	view     table.View
	inFlight int
	alert    string
	row, col int
	offset   int
	width    int
	height   int
	quitting bool
}

// New creates a model bound to l. The model subscribes to l's notices;
// call Close when the program has exited.
func New(ctx context.Context, l *loader.Loader, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "dataload"
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	m := Model{
		ctx:     ctx,
		loader:  l,
		notes:   l.Notifier().Subscribe(),
		opts:    opts,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		styles:  DefaultStyles(),
		view:    table.Build(l.Dataset()),
	}
	if opts.AutoLoad {
		m.inFlight = 1
	}
	return m
}

// Close releases the notice subscription.
func (m Model) Close() {
	m.loader.Notifier().Unsubscribe(m.notes)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForNotice()}
	if m.opts.AutoLoad {
		cmds = append(cmds, m.load(), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToSelection()
		return m, nil

	case tea.KeyMsg:
		m.alert = ""
		return m.handleKey(msg)

	case loadDoneMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		m.refresh()
		return m, nil

	case noticeMsg:
		m.alert = msg.Message
		return m, m.waitForNotice()

	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Load):
		cmd := m.startLoad()
		return m, cmd
	case key.Matches(msg, m.keys.Clear):
		m.loader.Clear()
		m.refresh()
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.clampSelection()
	m.scrollToSelection()
	return m, nil
}

// startLoad counts the load as in flight and returns the commands that run
// it and animate the spinner. The caller must store the updated model.
func (m *Model) startLoad() tea.Cmd {
	m.inFlight++
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m Model) load() tea.Cmd {
	ctx, l := m.ctx, m.loader
	return func() tea.Msg {
		return loadDoneMsg{err: l.TriggerLoad(ctx)}
	}
}

func (m Model) waitForNotice() tea.Cmd {
	ch := m.notes
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

// refresh rebuilds the view from the loader's current dataset.
func (m *Model) refresh() {
	m.view = table.Build(m.loader.Dataset())
	m.clampSelection()
	m.scrollToSelection()
}

func (m *Model) clampSelection() {
	if m.view.Empty {
		m.row, m.col, m.offset = 0, 0, 0
		return
	}
	m.row = clamp(m.row, 0, len(m.view.Rows)-1)
	m.col = clamp(m.col, 0, len(m.view.Columns)-1)
}

func (m *Model) scrollToSelection() {
	visible := m.visibleRows()
	if m.row < m.offset {
		m.offset = m.row
	}
	if m.row >= m.offset+visible {
		m.offset = m.row - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) visibleRows() int {
	if m.height == 0 {
		return len(m.view.Rows)
	}
	if n := m.height - chromeLines; n > 0 {
		return n
	}
	return 1
}

// Selected returns the selected cell and its column name.
func (m Model) Selected() (table.Cell, string, bool) {
	if m.view.Empty || len(m.view.Rows) == 0 || len(m.view.Columns) == 0 {
		return table.Cell{}, "", false
	}
	return m.view.Rows[m.row].Cells[m.col], m.view.Columns[m.col], true
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool { return m.inFlight > 0 }

// Alert returns the notice currently shown, if any.
func (m Model) Alert() string { return m.alert }

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.opts.Title))
	b.WriteString("\n\n")

	if m.view.Empty {
		b.WriteString(m.styles.Placeholder.Render(m.view.Placeholder))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTable())
		b.WriteString("\n")
		if cell, column, ok := m.Selected(); ok {
			rowKey := m.view.Rows[m.row].Key
			if rowKey == "" {
				rowKey = fmt.Sprintf("#%d", m.row+1)
			}
			b.WriteString(m.styles.Inspector.Render(fmt.Sprintf("%s › %s: %s", rowKey, column, cell.Title)))
			b.WriteString("\n")
		}
	}

	if m.alert != "" {
		b.WriteString(m.styles.Alert.Render("! " + m.alert))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Status.Render(m.status()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) status() string {
	s := "dataset: " + m.loader.Dataset().String()
	if !m.view.Empty {
		s += fmt.Sprintf("  row %d/%d", m.row+1, len(m.view.Rows))
	}
	if m.inFlight > 0 {
		s = m.spinner.View() + " loading…  " + s
	}
	return s
}

func (m Model) renderTable() string {
	end := m.offset + m.visibleRows()
	if end > len(m.view.Rows) {
		end = len(m.view.Rows)
	}

	headers := make([]string, len(m.view.Headers))
	for i, h := range m.view.Headers {
		headers[i] = m.fit(h)
	}
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		cells := make([]string, len(m.view.Rows[i].Cells))
		for j, c := range m.view.Rows[i].Cells {
			cells[j] = m.fit(c.Text)
		}
		rows = append(rows, cells)
	}

	selRow := m.row - m.offset
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.styles.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return m.styles.Header
			case row == selRow && col == m.col:
				return m.styles.Selected
			default:
				return m.styles.Cell
			}
		})
	return t.String()
}

// fit truncates s to the maximum column width and pads it to the minimum.
func (m Model) fit(s string) string {
	s = table.Truncate(s, m.opts.MaxWidth)
	if w := lipgloss.Width(s); w < m.opts.MinWidth {
		s += strings.Repeat(" ", m.opts.MinWidth-w)
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run starts the interactive view and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, l *loader.Loader, opts Options, progOpts ...tea.ProgramOption) error {
	m := New(ctx, l, opts)
	defer m.Close()

	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, progOpts...)
	if _, err := tea.NewProgram(m, progOpts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("interactive view: %w", err)
	}
	return nil
}
