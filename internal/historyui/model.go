// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/stats"
)

const (
	tabOverview = iota
	tabRounds
	tabDocuments
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Settings holds the active filter and trend window.
type Settings struct {
	Filter model.HistoryFilter
	Window int
}

// Model implements the Bubble Tea history browser.
type Model struct {
	source   stats.HistoryLister
	settings Settings

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history browser over source.
func NewModel(source stats.HistoryLister, settings Settings) *Model {
	if settings.Window < 1 {
		settings.Window = 1
	}
	m := &Model{
		source:   source,
		settings: settings,
		tabs:     []string{"Overview", "Rounds", "Documents"},
		overview: viewport.New(0, 0),
	}
	rounds := newTable(roundColumns())
	docs := newTable(documentColumns())
	m.tables = map[int]*table.Model{tabRounds: &rounds, tabDocuments: &docs}
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.settings.Window = nextWindow(m.settings.Window)
			m.renderOverview()
			return m, nil
		case "-":
			m.settings.Window = prevWindow(m.settings.Window)
			m.renderOverview()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if t, ok := m.tables[m.activeTab]; ok {
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			m.overview, cmd = m.overview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Doc: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Trend window: "),
	}
	m.setInputsFromSettings()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromSettings() {
	f := m.settings.Filter
	m.filterInputs[0].SetValue(f.DocID)
	if f.Since != nil {
		m.filterInputs[1].SetValue(f.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[1].SetValue("")
	}
	if f.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(f.Last))
	} else {
		m.filterInputs[2].SetValue("")
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.settings.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(max(1, bodyHeight-1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	next := m.activeTab + delta
	if next < 0 {
		next = len(m.tabs) - 1
	}
	if next >= len(m.tabs) {
		next = 0
	}
	m.activeTab = next
	for idx, t := range m.tables {
		if idx == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	f := m.settings.Filter
	doc := f.DocID
	if doc == "" {
		doc = "any"
	}
	since := "any"
	if f.Since != nil {
		since = f.Since.Format("2006-01-02")
	}
	last := "all"
	if f.Last > 0 {
		last = strconv.Itoa(f.Last)
	}
	summary := fmt.Sprintf("Settings: doc=%s  since=%s  last=%s  window=%d", doc, since, last, m.settings.Window)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if t, ok := m.tables[m.activeTab]; ok {
		if len(m.report.Records) == 0 {
			return fitLines("No rounds recorded.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(t.View()), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.source, m.settings.Filter)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.tables[tabRounds].SetRows(roundRows(m.report.Records))
	m.tables[tabDocuments].SetRows(documentRows(m.report))
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load history.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report.Records, m.settings.Window, width))
}

func renderOverview(records []model.HistoryRecord, window, width int) string {
	if len(records) == 0 {
		return "No rounds recorded."
	}
	var totalWPM, totalAcc float64
	best := records[0]
	for _, r := range records {
		totalWPM += r.NetWPM
		totalAcc += r.Accuracy
		if r.Words > best.Words || (r.Words == best.Words && r.Errors < best.Errors) {
			best = r
		}
	}
	count := float64(len(records))
	cards := []string{
		metricCard("Rounds", strconv.Itoa(len(records))),
		metricCard("Best round", fmt.Sprintf("%d words / %d err", best.Words, best.Errors)),
		metricCard("Avg net WPM", fmt.Sprintf("%.1f", totalWPM/count)),
		metricCard("Avg accuracy", fmt.Sprintf("%.1f%%", totalAcc/count*100)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, records, window, width); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func roundColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Doc", Width: 10},
		{Title: "Round", Width: 5},
		{Title: "Mode", Width: 10},
		{Title: "Words", Width: 5},
		{Title: "Errors", Width: 6},
		{Title: "Net WPM", Width: 7},
		{Title: "Accuracy", Width: 8},
	}
}

func documentColumns() []table.Column {
	return []table.Column{
		{Title: "Doc", Width: 10},
		{Title: "Rounds", Width: 6},
		{Title: "Best", Width: 14},
		{Title: "Avg WPM", Width: 7},
		{Title: "Avg Acc", Width: 8},
	}
}

// roundRows lists rounds newest first.
func roundRows(records []model.HistoryRecord) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		rows = append(rows, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.DocID,
			strconv.Itoa(r.Round),
			string(r.Mode),
			strconv.Itoa(r.Words),
			strconv.Itoa(r.Errors),
			fmt.Sprintf("%.1f", r.NetWPM),
			fmt.Sprintf("%.1f%%", r.Accuracy*100),
		})
	}
	return rows
}

// documentRows aggregates rounds per document, most practiced first.
func documentRows(report stats.Report) []table.Row {
	type agg struct {
		doc      string
		rounds   int
		wpm, acc float64
	}
	byDoc := map[string]*agg{}
	for _, r := range report.Records {
		a, ok := byDoc[r.DocID]
		if !ok {
			a = &agg{doc: r.DocID}
			byDoc[r.DocID] = a
		}
		a.rounds++
		a.wpm += r.NetWPM
		a.acc += r.Accuracy
	}
	aggs := make([]*agg, 0, len(byDoc))
	for _, a := range byDoc {
		aggs = append(aggs, a)
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].rounds == aggs[j].rounds {
			return aggs[i].doc < aggs[j].doc
		}
		return aggs[i].rounds > aggs[j].rounds
	})
	rows := make([]table.Row, 0, len(aggs))
	for _, a := range aggs {
		best := report.Best[a.doc]
		n := float64(a.rounds)
		rows = append(rows, table.Row{
			a.doc,
			strconv.Itoa(a.rounds),
			fmt.Sprintf("%dw / %d err", best.Words, best.Errors),
			fmt.Sprintf("%.1f", a.wpm/n),
			fmt.Sprintf("%.1f%%", a.acc/n*100),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromSettings()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		settings, err := parseSettings(m.filterInputs)
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.settings = settings
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func parseSettings(inputs []textinput.Model) (Settings, error) {
	doc := strings.TrimSpace(inputs[0].Value())
	var since *time.Time
	if v := strings.TrimSpace(inputs[1].Value()); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		since = &parsed
	}
	last := 0
	if v := strings.TrimSpace(inputs[2].Value()); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return Settings{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		last = parsed
	}
	window := 1
	if v := strings.TrimSpace(inputs[3].Value()); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return Settings{}, fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}
	return Settings{
		Filter: model.HistoryFilter{DocID: doc, Since: since, Last: last},
		Window: window,
	}, nil
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
