// Package tui provides the Bubble Tea typing test interface.
package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
	"github.com/verte-zerg/typespeed/internal/typingtest"
)

const (
	title        = "Typing Speed Detector"
	instructions = "Press ctrl+n to begin. Type the text shown below as quickly and accurately as possible, then press ctrl+s."
	placeholder  = "Press ctrl+n to see the text you need to type"
	inputHeight  = 4
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Bold(true)
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	resultStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	referenceStyle   = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
)

type tickMsg time.Time

// Model implements the Bubble Tea typing test UI. It forwards input events to
// a typingtest.Controller and renders its state.
type Model struct {
	ctrl      *typingtest.Controller
	timeLimit time.Duration
	now       func() time.Time

	keys  KeyMap
	help  help.Model
	input textarea.Model

	width  int
	height int

	notice string
}

// NewModel constructs a typing test TUI model around ctrl.
func NewModel(ctrl *typingtest.Controller, cfg model.Config) *Model {
	input := textarea.New()
	input.Placeholder = "Type here..."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.Blur()

	return &Model{
		ctrl:      ctrl,
		timeLimit: cfg.TimeLimit,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		input:     input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(m.contentWidth())
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.checkTimeLimit()
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m, m.startTest()
	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.reset()
		return m, nil
	}

	if !m.ctrl.State().Active() {
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil
	}

	m.ctrl.OnKeystroke(m.now())
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startTest() tea.Cmd {
	m.ctrl.StartTest()
	m.input.Reset()
	m.notice = ""
	return m.input.Focus()
}

// submit reports whether the session completed.
func (m *Model) submit() bool {
	if _, err := m.ctrl.SubmitTest(m.input.Value(), m.now()); err != nil {
		m.notice = typingtest.Notice(err)
		return false
	}
	m.notice = ""
	m.input.Blur()
	return true
}

func (m *Model) reset() {
	m.ctrl.Reset()
	m.input.Reset()
	m.input.Blur()
	m.notice = ""
}

// checkTimeLimit submits on the user's behalf when a running session reaches
// the configured limit. A rejected submit ends the session instead, so no
// session outlives the limit.
func (m *Model) checkTimeLimit() {
	if m.timeLimit <= 0 || m.ctrl.State() != typingtest.Running {
		return
	}
	if m.ctrl.Elapsed(m.now()) < m.timeLimit.Seconds() {
		return
	}
	if !m.submit() {
		notice := m.notice
		m.reset()
		m.notice = notice
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.contentWidth()
	sections := []string{
		titleStyle.Render(title),
		lipgloss.NewStyle().Width(width).Render(instructions),
		"",
		referenceStyle.Width(width).Render(m.renderReference(width - 4)),
		"",
		labelStyle.Render("Type here:"),
		m.input.View(),
	}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, "", status)
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	footer := m.renderFooter() + "\n" + m.help.View(m.keys)

	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerBlock := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
	return body + "\n" + footerBlock
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 80
	}
	return max(int(float64(m.width)*0.70), 20)
}

func (m *Model) renderReference(width int) string {
	ref := m.ctrl.ReferenceText()
	if ref == "" {
		return pendingStyle.Render(placeholder)
	}
	targetRunes := []rune(ref)
	inputRunes := []rune(m.scoredInput())
	cursorIndex := -1
	if m.ctrl.State().Active() && len(inputRunes) < len(targetRunes) {
		cursorIndex = len(inputRunes)
	}
	return wrapStyledRunes(buildStyledRunes(targetRunes, inputRunes, cursorIndex), width)
}

// scoredInput is the input as positions are compared on submit. Leading
// whitespace is trimmed there too; trailing whitespace shifts nothing.
func (m *Model) scoredInput() string {
	return strings.TrimLeftFunc(m.input.Value(), unicode.IsSpace)
}

func (m *Model) renderStatus() string {
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	if result, ok := m.ctrl.Result(); ok {
		return resultStyle.Render(stats.FormatSummary(result))
	}
	return ""
}

func (m *Model) renderFooter() string {
	state := m.ctrl.State()
	segments := []string{fmt.Sprintf("State %s", state)}
	if state != typingtest.Idle {
		segments = append(segments, fmt.Sprintf("Elapsed %.1fs", m.ctrl.Elapsed(m.now())))
		if refLen := len([]rune(m.ctrl.ReferenceText())); refLen > 0 {
			typed := len([]rune(m.scoredInput()))
			progress := min(int(float64(typed)/float64(refLen)*100), 100)
			segments = append(segments, fmt.Sprintf("Progress %d%%", progress))
		}
	}
	if m.timeLimit > 0 {
		segments = append(segments, fmt.Sprintf("Limit %s", m.timeLimit))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
