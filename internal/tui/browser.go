package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"braid.dev/braid/internal/diffcache"
	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/runtime"
)

type browserKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Restack key.Binding
	Quit    key.Binding
}

func (k browserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Restack, k.Quit}
}

func (k browserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Restack, k.Quit},
	}
}

var defaultBrowserKeys = browserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Restack: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restack"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q", "esc"),
		key.WithHelp("q/esc", "quit"),
	),
}

type browserStyles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	branch   lipgloss.Style
	trunk    lipgloss.Style
	stale    lipgloss.Style
	dim      lipgloss.Style
	status   lipgloss.Style
	errText  lipgloss.Style
	pane     lipgloss.Style
}

func newBrowserStyles() browserStyles {
	return browserStyles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		branch:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		trunk:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		stale:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pane:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
	}
}

// browserRow is one line of the tree pane.
type browserRow struct {
	name         string
	depth        int
	needsRestack bool
}

// diffLoadedMsg carries the diff pane content for a branch.
type diffLoadedMsg struct {
	branch  string
	content string
	err     error
}

// restackFinishedMsg reports the outcome of an in-browser restack.
type restackFinishedMsg struct {
	branch string
	result engine.RestackResult
	err    error
}

// browserModel is the bubbletea model for the stack browser.
type browserModel struct {
	ctx      context.Context
	rt       *runtime.Context
	rows     []browserRow
	cursor   int
	viewport viewport.Model
	ready    bool
	pending  string // diff content waiting for the first WindowSizeMsg
	busy     bool
	status   string
	width    int
	height   int
	keys     browserKeyMap
	help     help.Model
	styles   browserStyles
}

func newBrowserModel(ctx context.Context, rt *runtime.Context) browserModel {
	m := browserModel{
		ctx:    ctx,
		rt:     rt,
		keys:   defaultBrowserKeys,
		help:   help.New(),
		styles: newBrowserStyles(),
	}
	m.reloadRows()
	return m
}

// reloadRows rebuilds the tree pane from the engine, keeping the cursor on
// the same branch when it still exists.
func (m *browserModel) reloadRows() {
	selected := ""
	if m.cursor < len(m.rows) {
		selected = m.rows[m.cursor].name
	}

	eng := m.rt.Engine
	m.rows = m.rows[:0]
	for name, depth := range eng.BranchesDepthFirst("") {
		row := browserRow{name: name, depth: depth}
		if !eng.IsTrunk(name) {
			row.needsRestack = eng.GetRestackStatus(name) == engine.StatusNeedsRestack
		}
		m.rows = append(m.rows, row)
	}

	m.cursor = 0
	for i, row := range m.rows {
		if row.name == selected {
			m.cursor = i
			break
		}
	}
}

func (m browserModel) selectedBranch() string {
	if m.cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.cursor].name
}

// loadDiffCmd computes the diff pane content for a branch through the diff
// cache. Runs on the bubbletea command goroutine.
func (m browserModel) loadDiffCmd(branchName string) tea.Cmd {
	ctx, rt := m.ctx, m.rt
	return func() tea.Msg {
		eng := rt.Engine
		if eng.IsTrunk(branchName) {
			return diffLoadedMsg{branch: branchName, content: "The trunk has no parent to diff against.\nSelect a branch to see its changes."}
		}

		parent := eng.GetParent(branchName)
		if parent == "" {
			return diffLoadedMsg{branch: branchName, content: "The parent of this branch no longer exists."}
		}
		parentTip, err := eng.GetRevision(parent)
		if err != nil {
			return diffLoadedMsg{branch: branchName, err: err}
		}
		branchTip, err := eng.GetRevision(branchName)
		if err != nil {
			return diffLoadedMsg{branch: branchName, err: err}
		}

		entry, err := rt.Diffs.GetOrCompute(parentTip, branchTip, func() (*diffcache.Entry, error) {
			return diffcache.ComputeEntry(ctx, rt.Runner, parentTip, branchTip)
		})
		if err != nil {
			return diffLoadedMsg{branch: branchName, err: err}
		}

		if strings.TrimSpace(entry.Diff) == "" {
			return diffLoadedMsg{branch: branchName, content: fmt.Sprintf("No changes against %s.", parent)}
		}
		header := fmt.Sprintf("%s → %s  (+%d -%d)\n\n", parent, branchName, entry.Added, entry.Deleted)
		return diffLoadedMsg{branch: branchName, content: header + entry.Diff}
	}
}

// restackCmd restacks one branch. A conflict is aborted on the spot so the
// browser never leaves a rebase hanging; the user is pointed at the CLI.
func (m browserModel) restackCmd(branchName string) tea.Cmd {
	ctx, rt := m.ctx, m.rt
	return func() tea.Msg {
		res, err := rt.Engine.RestackBranch(ctx, branchName, false)
		if err != nil {
			return restackFinishedMsg{branch: branchName, err: err}
		}
		if res.Result == engine.RestackConflict {
			if res.WorktreeDir != "" {
				_ = rt.Runner.RebaseAbortIn(ctx, res.WorktreeDir)
			} else {
				_ = rt.Runner.RebaseAbort(ctx)
			}
		}
		return restackFinishedMsg{branch: branchName, result: res.Result}
	}
}

func (m browserModel) Init() tea.Cmd {
	if branch := m.selectedBranch(); branch != "" {
		return m.loadDiffCmd(branch)
	}
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpWidth, vpHeight := m.paneSize()
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.SetContent(m.pending)
			m.pending = ""
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case m.busy:
			// Ignore everything else while a restack runs.
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.status = ""
				return m, m.loadDiffCmd(m.selectedBranch())
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.status = ""
				return m, m.loadDiffCmd(m.selectedBranch())
			}

		case key.Matches(msg, m.keys.Restack):
			branch := m.selectedBranch()
			if branch == "" || m.rt.Engine.IsTrunk(branch) {
				m.status = m.styles.dim.Render("The trunk is never restacked.")
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Restacking %s...", branch)
			return m, m.restackCmd(branch)
		}

	case diffLoadedMsg:
		// A stale load for a branch no longer selected is dropped.
		if msg.branch != m.selectedBranch() {
			return m, nil
		}
		content := msg.content
		if msg.err != nil {
			content = m.styles.errText.Render(fmt.Sprintf("Could not load the diff: %v", msg.err))
		}
		if m.ready {
			m.viewport.SetContent(content)
			m.viewport.GotoTop()
		} else {
			m.pending = content
		}
		return m, nil

	case restackFinishedMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = m.styles.errText.Render(fmt.Sprintf("Restacking %s failed: %v", msg.branch, msg.err))
		case msg.result == engine.RestackConflict:
			m.status = m.styles.errText.Render(fmt.Sprintf("Restacking %s hit a conflict; the rebase was aborted. Run braid restack from the terminal to resolve it.", msg.branch))
		case msg.result == engine.RestackUnneeded:
			m.status = m.styles.status.Render(fmt.Sprintf("%s is already up to date.", msg.branch))
		default:
			m.status = m.styles.status.Render(fmt.Sprintf("Restacked %s.", msg.branch))
		}
		if err := m.rt.Engine.Rebuild(); err != nil {
			m.status = m.styles.errText.Render(fmt.Sprintf("Reload failed: %v", err))
			return m, nil
		}
		m.rt.Diffs.InvalidateAll()
		m.reloadRows()
		if branch := m.selectedBranch(); branch != "" {
			return m, m.loadDiffCmd(branch)
		}
		return m, nil
	}

	// Remaining messages (mouse, paging keys) scroll the diff pane.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// paneSize returns the diff viewport dimensions for the current window.
func (m browserModel) paneSize() (width, height int) {
	width = m.width - m.treeWidth() - 2
	if width < 20 {
		width = 20
	}
	// Title, status and help lines sit outside the panes.
	height = m.height - 4
	if height < 5 {
		height = 5
	}
	return width, height
}

func (m browserModel) treeWidth() int {
	width := 24
	for _, row := range m.rows {
		if w := lipgloss.Width(m.renderRow(row, false)); w > width {
			width = w
		}
	}
	if limit := m.width / 2; m.width > 0 && width > limit {
		width = limit
	}
	return width
}

func (m browserModel) renderRow(row browserRow, styled bool) string {
	indent := strings.Repeat("  ", row.depth)

	symbol := "◯"
	if row.name == m.rt.Engine.CurrentBranch() {
		symbol = "◉"
	}

	line := fmt.Sprintf("%s%s %s", indent, symbol, row.name)
	if !styled {
		if row.needsRestack {
			line += " ⟳"
		}
		return "  " + line
	}

	style := m.styles.branch
	if m.rt.Engine.IsTrunk(row.name) {
		style = m.styles.trunk
	}
	cursor := "  "
	if m.rows[m.cursor].name == row.name {
		cursor = m.styles.cursor.Render("▸ ")
		style = m.styles.selected
	}

	rendered := cursor + style.Render(line)
	if row.needsRestack {
		rendered += m.styles.stale.Render(" ⟳")
	}
	return rendered
}

func (m browserModel) View() string {
	var tree strings.Builder
	for _, row := range m.rows {
		tree.WriteString(m.renderRow(row, true))
		tree.WriteString("\n")
	}

	treePane := lipgloss.NewStyle().Width(m.treeWidth() + 2).Render(tree.String())

	diffPane := ""
	if m.ready {
		diffPane = m.styles.pane.Render(m.viewport.View())
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("braid"))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, treePane, diffPane))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
