package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"dropd/internal/index"
	"dropd/internal/ingest"
	"dropd/internal/log"
	"dropd/internal/watch"
	"dropd/pkg/types"
)

// Messages delivered to the model by the background listeners.
type (
	snapshotMsg index.Snapshot
	reloadMsg   string
	resultMsg   ingest.DropResult
	watchErrMsg struct{ err error }
)

// Model is the directory browser: a live listing of one directory that
// follows filesystem changes through the watch session and shows drop
// outcomes as they land. All published state lives here and is only
// mutated inside Update.
type Model struct {
	engine  *ingest.Engine
	session *watch.Session
	idx     *index.Index
	icons   types.IconProvider

	dir     string
	entries []types.DirectoryEntry
	loading bool
	cursor  int

	status   string
	statusOK bool
	showHelp bool
	width    int
	height   int
	spinner  spinner.Model

	updates chan index.Snapshot
}

// New wires the browser to its collaborators. The caller owns the
// session and engine and tears them down after the program exits.
func New(engine *ingest.Engine, session *watch.Session, idx *index.Index, icons types.IconProvider, dir string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	m := &Model{
		engine:   engine,
		session:  session,
		idx:      idx,
		icons:    icons,
		dir:      dir,
		spinner:  s,
		statusOK: true,
		updates:  make(chan index.Snapshot, 8),
	}
	// Forward snapshots without ever blocking the index: when the buffer
	// is full the oldest update is dropped, never the newest.
	idx.SetOnUpdate(func(snap index.Snapshot) {
		for {
			select {
			case m.updates <- snap:
				return
			default:
				select {
				case <-m.updates:
				default:
				}
			}
		}
	})
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.enterDirectory(m.dir),
		m.listenIndex(),
		m.listenReloads(),
		m.listenResults(),
	)
}

// enterDirectory retargets the watch session and kicks off a reload.
func (m *Model) enterDirectory(dir string) tea.Cmd {
	return func() tea.Msg {
		if err := m.session.Watch(dir); err != nil {
			return watchErrMsg{err: err}
		}
		m.idx.Reload(dir)
		return nil
	}
}

// listenIndex forwards the next published index snapshot.
func (m *Model) listenIndex() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

// listenReloads forwards the next coalesced change trigger.
func (m *Model) listenReloads() tea.Cmd {
	return func() tea.Msg {
		return reloadMsg(<-m.session.Reloads())
	}
}

// listenResults forwards the next finished drop.
func (m *Model) listenResults() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.engine.Results()
		if !ok {
			return nil
		}
		return resultMsg(result)
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.entries = msg.Entries
		m.loading = msg.Loading
		m.clampCursor()
		return m, m.listenIndex()

	case reloadMsg:
		m.idx.Reload(string(msg))
		return m, m.listenReloads()

	case resultMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("drop failed: %v", msg.Err)
			m.statusOK = false
		} else {
			m.status = "dropped " + filepath.Base(msg.Path)
			m.statusOK = true
		}
		return m, m.listenResults()

	case watchErrMsg:
		m.status = fmt.Sprintf("watch failed: %v", msg.err)
		m.statusOK = false
		log.LogWithError(msg.err).Error("Watch session failed")
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "g":
		m.cursor = 0

	case "G":
		if len(m.entries) > 0 {
			m.cursor = len(m.entries) - 1
		}

	case "h", "left":
		parent := filepath.Dir(m.dir)
		if parent != m.dir {
			m.dir = parent
			m.cursor = 0
			m.loading = true
			return m, m.enterDirectory(parent)
		}

	case "l", "right", "enter":
		if entry, ok := m.currentEntry(); ok && entry.IsDir {
			m.dir = entry.Path
			m.cursor = 0
			m.loading = true
			return m, m.enterDirectory(entry.Path)
		}

	case "r":
		m.loading = true
		m.idx.Reload(m.dir)

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) currentEntry() (types.DirectoryEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return types.DirectoryEntry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	title := TitleStyle
	if m.width > 0 {
		title = title.MaxWidth(m.width)
	}
	b.WriteString(title.Render(m.dir))
	b.WriteString("\n\n")

	if len(m.entries) == 0 && !m.loading {
		b.WriteString(StatusStyle.Render("  (empty)"))
		b.WriteString("\n")
	}

	first, last := m.visibleRange()
	for i := first; i < last; i++ {
		entry := m.entries[i]
		line := fmt.Sprintf("%s %s", m.icons.Icon(entry), entry.Name)
		if !entry.IsDir {
			line += StatusStyle.Render("  " + humanSize(entry.Size))
		}

		switch {
		case i == m.cursor:
			b.WriteString(SelectedStyle.Render("> " + line))
		case entry.IsDir:
			b.WriteString(DirStyle.Render("  " + line))
		default:
			b.WriteString(FileStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("j/k move · h parent · l enter · r reload · ? help · q quit"))
	}
	return b.String()
}

// visibleRange windows the listing around the cursor so it fits the
// terminal height.
func (m *Model) visibleRange() (int, int) {
	rows := m.height - 6
	if rows < 1 || m.height == 0 {
		rows = len(m.entries)
	}
	if rows >= len(m.entries) {
		return 0, len(m.entries)
	}

	first := m.cursor - rows/2
	if first < 0 {
		first = 0
	}
	last := first + rows
	if last > len(m.entries) {
		last = len(m.entries)
		first = last - rows
	}
	return first, last
}

func (m *Model) statusLine() string {
	if m.loading {
		return StatusStyle.Render(m.spinner.View() + " loading…")
	}
	if m.status != "" {
		if m.statusOK {
			return StatusStyle.Render(m.status)
		}
		return ErrorStyle.Render(m.status)
	}
	return StatusStyle.Render(fmt.Sprintf("%d entries", len(m.entries)))
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
