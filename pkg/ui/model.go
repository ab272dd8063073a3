package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/demo"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

const (
	defaultWidth  = 100
	defaultHeight = 32
	minBodyHeight = 4
)

// CommandMsg carries a command from a peripheral control (the remote, the
// cue file) into Update. Send it with tea.Program.Send.
type CommandMsg struct {
	Cmd flow.Command
}

// CopiedMsg reports the result of a clipboard copy.
type CopiedMsg struct {
	Err error
}

// Option configures a Model.
type Option func(*Model)

// WithNavigator uses nav instead of a fresh navigator. Listeners already
// subscribed to nav keep receiving transitions.
func WithNavigator(nav *flow.Navigator) Option {
	return func(m *Model) {
		if nav != nil {
			m.nav = nav
		}
	}
}

// WithFixtures sets the mock data set.
func WithFixtures(fx *demo.Fixtures) Option {
	return func(m *Model) {
		if fx != nil {
			m.fx = fx
		}
	}
}

// WithGuide sets whether the guided overlay starts visible.
func WithGuide(visible bool) Option {
	return func(m *Model) { m.guideOn = visible }
}

// WithWordWrap caps the guide description wrap width.
func WithWordWrap(n int) Option {
	return func(m *Model) { m.wrap = n }
}

// WithTheme replaces the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// Model is the walkthrough program. The navigator owns the position; the
// model only forwards input to it and redraws from its views.
type Model struct {
	nav    *flow.Navigator
	record *demo.Record
	fx     *demo.Fixtures

	theme    Theme
	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	guide    GuideModel
	guideOn  bool
	wrap     int
	copy     func(string) error

	width  int
	height int

	statusMsg     string
	statusIsError bool
}

// NewModel creates the walkthrough model.
func NewModel(opts ...Option) Model {
	m := Model{
		nav:     flow.NewNavigator(),
		record:  &demo.Record{},
		fx:      demo.DefaultFixtures(),
		theme:   DefaultTheme(lipgloss.DefaultRenderer()),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		guideOn: true,
		copy:    clipboard.WriteAll,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.guide = NewGuideModel(m.theme, m.width)
	m.guide.SetVisible(m.guideOn)
	m.guide.SetWrap(m.wrap)
	m.viewport = viewport.New(m.width, minBodyHeight)
	m.record.Enter(m.nav.Step(), m.fx)
	m.layout()
	return m
}

// Navigator returns the navigator the model drives.
func (m Model) Navigator() *flow.Navigator { return m.nav }

// Record returns the business record built so far.
func (m Model) Record() *demo.Record { return m.record }

// GuideVisible reports whether the guided overlay is shown.
func (m Model) GuideVisible() bool { return m.guide.Visible() }

// Status returns the status line text and whether it is an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("loanwalk")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.guide.SetWidth(msg.Width)
		m.layout()
		return m, nil

	case CommandMsg:
		tr := m.nav.Apply(msg.Cmd)
		debug.Log("ui: external %s: %s -> %s", msg.Cmd, tr.From, tr.To)
		m.sync(tr)
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("❌ Clipboard error: %v", msg.Err)
			m.statusIsError = true
		} else {
			m.statusMsg = "📋 Copied executive summary to clipboard"
			m.statusIsError = false
		}
		m.layout()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg, m.statusIsError = "", false

	if t, ok := m.keys.tabFor(msg); ok {
		m.sync(m.nav.GoToTab(t))
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.sync(m.nav.NextTab())
	case key.Matches(msg, m.keys.PrevTab):
		m.sync(m.nav.PrevTab())
	case key.Matches(msg, m.keys.NextStep):
		m.sync(m.nav.NextStep())
	case key.Matches(msg, m.keys.PrevStep):
		m.sync(m.nav.PrevStep())
	case key.Matches(msg, m.keys.Reset):
		m.sync(m.nav.Reset())
	case key.Matches(msg, m.keys.ToggleGuide):
		m.guide.Toggle()
		m.layout()
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.Copy):
		return m, m.copySummary()
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// sync brings the record and the body up to date after a transition.
func (m *Model) sync(tr flow.Transition) {
	if tr.Cause == flow.OpReset {
		m.record.Reset()
	}
	m.record.Enter(tr.To, m.fx)
	m.layout()
	if tr.From.Tab() != tr.To.Tab() {
		m.viewport.GotoTop()
	}
}

func (m Model) copySummary() tea.Cmd {
	text := ExecutiveSummary(m.record, m.fx)
	write := m.copy
	return func() tea.Msg {
		return CopiedMsg{Err: write(text)}
	}
}

// layout sizes the viewport to what the chrome leaves and refreshes its
// content.
func (m *Model) layout() {
	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderTabBar()) +
		lipgloss.Height(m.renderFooter())
	if g := m.guide.View(m.nav.GuidedView()); g != "" {
		used += lipgloss.Height(g)
	}
	// The panel border takes two rows and two columns.
	m.viewport.Width = max(m.width-4, 10)
	m.viewport.Height = max(m.height-used-2, minBodyHeight)
	m.viewport.SetContent(renderScreen(screen{
		theme:  m.theme,
		step:   m.nav.Step(),
		record: m.record,
		fx:     m.fx,
		width:  m.viewport.Width,
	}))
}

func (m Model) View() string {
	parts := []string{
		m.renderHeader(),
		m.renderTabBar(),
		PanelStyle.Width(max(m.width-2, 0)).Render(m.viewport.View()),
	}
	if g := m.guide.View(m.nav.GuidedView()); g != "" {
		parts = append(parts, g)
	}
	parts = append(parts, m.renderFooter())

	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	tv := m.nav.TabView()
	title := m.theme.Header.Render("loanwalk")
	app := m.theme.SecondaryText.Render(fmt.Sprintf(" %s · %s", m.fx.Application.ID, m.fx.Application.Applicant))
	pos := m.theme.MutedText.Render(fmt.Sprintf("  tab %d/%d", tv.Index+1, flow.TabCount()))
	return truncateStyled(title+app+pos, m.width)
}

func (m Model) renderTabBar() string {
	active := m.nav.Tab()
	labels := make([]string, 0, flow.TabCount())
	compact := m.width < 110
	for _, t := range flow.Tabs() {
		label := fmt.Sprintf("%d %s", t.Index()+1, t.Title())
		if compact && t != active {
			label = fmt.Sprint(t.Index() + 1)
		}
		if t == active {
			labels = append(labels, m.theme.ActiveTab.Render(label))
		} else {
			labels = append(labels, m.theme.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, labels...)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := m.theme.InfoText
		if m.statusIsError {
			style = m.theme.Renderer.NewStyle().Foreground(ColorDanger)
		}
		return style.Render(m.statusMsg)
	}
	return m.help.View(m.keys)
}

// truncateStyled cuts a styled line to width cells, keeping escape
// sequences intact.
func truncateStyled(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.TrimRight(s, " "))
}
