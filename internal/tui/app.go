// Package tui provides an interactive terminal dashboard for real-time log monitoring.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Geun-Oh/vcilog/internal/buffer"
	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/filter"
	"github.com/Geun-Oh/vcilog/internal/format"
	"github.com/Geun-Oh/vcilog/internal/monitor"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#353533"))

	notificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6600")).
			Bold(true)
)

// --- Messages ---

// LogMsg delivers an accepted entry to the TUI.
type LogMsg entry.Entry

// AlertMsg notifies the TUI that an alert was triggered.
type AlertMsg struct {
	Rules []string
	Entry entry.Entry
}

// SpikeMsg notifies the TUI that a rate spike was detected.
type SpikeMsg struct {
	Rate float64
}

// TickMsg triggers periodic UI updates.
type TickMsg time.Time

// DoneMsg signals the source has finished.
type DoneMsg struct{}

// --- Keys ---

type keyMap struct {
	Search key.Binding
	Pause  key.Binding
	Up     key.Binding
	Down   key.Binding
	Bottom key.Binding
	Top    key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Pause, k.Up, k.Down, k.Bottom, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Search, k.Pause}, {k.Up, k.Down, k.Bottom, k.Top}, {k.Quit}}
}

var defaultKeys = keyMap{
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Bottom: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "bottom")),
	Top:    key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "top")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// --- Model ---

// Model is the bubbletea model for the TUI dashboard.
type Model struct {
	// Display state.
	logs       []entry.Entry
	maxLines   int
	width      int
	height     int
	scrollPos  int // 0 = bottom (auto-scroll), >0 = scrolled up
	paused     bool
	pauseQueue []entry.Entry

	// Search state.
	input        textinput.Model
	searching    bool
	searchQuery  string
	searchCond   filter.Condition
	searchResult []int // indices into logs that match
	historyHits  int   // matches among the ring buffer history

	keys keyMap
	help help.Model

	// Monitoring.
	Format  format.Formatter
	Stats   *monitor.Stats
	Rate    *monitor.RateDetector
	Alerts  *monitor.AlertEngine
	RingBuf *buffer.Ring
	Source  string

	// Alert display.
	lastAlert  string
	alertFlash int // countdown for alert flash

	// Level counters over shown entries.
	errorCount  int
	warnCount   int
	notifyCount int
	totalCount  int

	// Done state.
	done bool
}

// NewModel creates a new TUI model. A nil formatter uses format.Default.
func NewModel(stats *monitor.Stats, rate *monitor.RateDetector, alerts *monitor.AlertEngine, ringBuf *buffer.Ring, sourceName string, f format.Formatter) Model {
	if f == nil {
		f = format.Default
	}
	if stats == nil {
		stats = monitor.NewStats()
	}
	if rate == nil {
		rate = monitor.NewRateDetector(0, 0)
	}

	input := textinput.New()
	input.Prompt = " Search: "
	input.Placeholder = "text or /regex/"

	return Model{
		maxLines: 1000,
		input:    input,
		keys:     defaultKeys,
		help:     help.New(),
		Format:   f,
		Stats:    stats,
		Rate:     rate,
		Alerts:   alerts,
		RingBuf:  ringBuf,
		Source:   sourceName,
	}
}

// Init starts the tick timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.WindowSize())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LogMsg:
		return m.handleLog(entry.Entry(msg)), nil

	case AlertMsg:
		m.lastAlert = fmt.Sprintf("⚠ ALERT [%s]: %s", strings.Join(msg.Rules, ","), truncate(msg.Entry.Message(), 60))
		m.alertFlash = 10
		return m, nil

	case SpikeMsg:
		m.lastAlert = fmt.Sprintf("📈 SPIKE: %.0f entries/s", msg.Rate)
		m.alertFlash = 8
		return m, nil

	case TickMsg:
		if m.alertFlash > 0 {
			m.alertFlash--
		}
		return m, tickCmd()

	case DoneMsg:
		m.done = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.input.Blur()
			m.input.Reset()
			m.clearSearch()
			return m, nil
		case tea.KeyEnter:
			m.searching = false
			m.input.Blur()
			m.searchQuery = m.input.Value()
			m.performSearch()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			m.logs = append(m.logs, m.pauseQueue...)
			m.pauseQueue = nil
			m.trimLogs()
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.input.Reset()
		m.clearSearch()
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		if m.scrollPos < len(m.logs)-1 {
			m.scrollPos++
		}
	case key.Matches(msg, m.keys.Down):
		if m.scrollPos > 0 {
			m.scrollPos--
		}
	case key.Matches(msg, m.keys.Bottom):
		m.scrollPos = 0
	case key.Matches(msg, m.keys.Top):
		m.scrollPos = max(len(m.logs)-1, 0)
	}
	return m, nil
}

func (m Model) handleLog(e entry.Entry) Model {
	m.totalCount++
	switch {
	case e.Kind() == entry.KindNotification:
		m.notifyCount++
	case e.Level() <= entry.LevelError:
		m.errorCount++
	case e.Level() <= entry.LevelWarning:
		m.warnCount++
	}

	if m.paused {
		m.pauseQueue = append(m.pauseQueue, e)
		return m
	}

	m.logs = append(m.logs, e)
	m.trimLogs()
	return m
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sb strings.Builder

	// Title bar.
	title := titleStyle.Render(fmt.Sprintf(" vcilog · %s ", m.Source))
	status := "▶ RUNNING"
	if m.paused {
		status = "⏸ PAUSED"
	}
	if m.done {
		status = "✔ DONE"
	}
	statusText := statusBarStyle.Render(fmt.Sprintf(" %s  %d entries ", status, m.totalCount))
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(statusText), 0)
	sb.WriteString(title + statusBarStyle.Render(strings.Repeat(" ", gap)) + statusText)
	sb.WriteString("\n")

	headerLines := 1
	if m.alertFlash > 0 && m.lastAlert != "" {
		sb.WriteString(highlightStyle.Render(m.lastAlert))
		sb.WriteString("\n")
		headerLines++
	}
	if m.searching {
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
		headerLines++
	} else if m.searchQuery != "" {
		sb.WriteString(fmt.Sprintf(" Search %s: %d shown, %d in history", m.searchCond, len(m.searchResult), m.historyHits))
		sb.WriteString("\n")
		headerLines++
	}

	footerLines := 2 // stats bar + help bar
	viewportHeight := max(m.height-headerLines-footerLines, 1)

	visibleLogs := m.getVisibleLogs(viewportHeight)
	for _, line := range visibleLogs {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for i := len(visibleLogs); i < viewportHeight; i++ {
		sb.WriteString("\n")
	}

	// Stats bar.
	rate := m.Rate.CurrentRate()
	statsLine := fmt.Sprintf(" Rate: %s %.0f/s │ ERR: %d │ WARN: %d │ Shown: %d/%d",
		m.renderRateBar(rate, 10), rate, m.errorCount, m.warnCount, m.totalCount, m.Stats.Total())
	if m.notifyCount > 0 {
		statsLine += fmt.Sprintf(" │ Notices: %d", m.notifyCount)
	}
	if m.Alerts != nil && m.Alerts.TotalAlerts() > 0 {
		statsLine += fmt.Sprintf(" │ Alerts: %d", m.Alerts.TotalAlerts())
	}
	if m.scrollPos > 0 {
		statsLine += fmt.Sprintf(" │ ↑ %d", m.scrollPos)
	}
	sb.WriteString(statusBarStyle.Render(padRight(statsLine, m.width)))
	sb.WriteString("\n")

	helpText := m.help.View(m.keys)
	if m.paused {
		helpText += fmt.Sprintf("  (queued: %d)", len(m.pauseQueue))
	}
	sb.WriteString(helpText)

	return sb.String()
}

// --- Helpers ---

func (m *Model) formatLogLine(e *entry.Entry) string {
	line := truncate(m.Format(e), m.width-2)
	if e.Kind() == entry.KindNotification {
		return notificationStyle.Render(line)
	}
	return line
}

func (m *Model) getVisibleLogs(height int) []string {
	if len(m.logs) == 0 {
		return nil
	}

	end := max(len(m.logs)-m.scrollPos, 0)
	start := max(end-height, 0)

	result := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		marker := "  "
		if m.searchQuery != "" && m.searchCond.Evaluate(&m.logs[i]) {
			marker = highlightStyle.Render("» ")
		}
		result = append(result, marker+m.formatLogLine(&m.logs[i]))
	}
	return result
}

// performSearch evaluates the query against the shown entries and the ring
// buffer history. Queries wrapped in slashes are regular expressions.
func (m *Model) performSearch() {
	m.searchResult = nil
	m.historyHits = 0
	if m.searchQuery == "" {
		return
	}

	m.searchCond = searchCondition(m.searchQuery)
	for i := range m.logs {
		if m.searchCond.Evaluate(&m.logs[i]) {
			m.searchResult = append(m.searchResult, i)
		}
	}
	if m.RingBuf != nil {
		m.historyHits = len(m.RingBuf.Select(m.searchCond))
	}

	// Scroll to last match.
	if len(m.searchResult) > 0 {
		lastMatch := m.searchResult[len(m.searchResult)-1]
		m.scrollPos = len(m.logs) - lastMatch - 1
	}
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchCond = filter.Never()
	m.searchResult = nil
	m.historyHits = 0
}

func searchCondition(query string) filter.Condition {
	if len(query) > 2 && strings.HasPrefix(query, "/") && strings.HasSuffix(query, "/") {
		return filter.FallbackFieldMatch(filter.TextKeys, query[1:len(query)-1])
	}
	return filter.FieldInclude(filter.TextKeys, query)
}

func (m *Model) trimLogs() {
	if len(m.logs) > m.maxLines {
		excess := len(m.logs) - m.maxLines
		m.logs = m.logs[excess:]
	}
}

func (m *Model) renderRateBar(rate float64, width int) string {
	maxRate := 200.0 // scale: 200 entries/s = full bar
	filled := min(int(rate/maxRate*float64(width)), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// truncate shortens s to maxLen cells, keeping escape sequences intact.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	return ansi.Truncate(s, maxLen, "…")
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
