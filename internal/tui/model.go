package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chemtutor/internal/session"
)

// TutorPort is the subset of the HTTP client the TUI needs.
type TutorPort interface {
	Ask(ctx context.Context, question string) (string, error)
	SetMode(ctx context.Context, mode string) (session.Mode, error)
}

type answerMsg struct {
	question string
	answer   string
	err      error
}

type modeMsg struct {
	mode session.Mode
	err  error
}

type entry struct {
	who  string
	text string
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	tutor    TutorPort
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	log      []entry
	mode     session.Mode
	status   string
	waiting  bool
	ready    bool
}

func New(tutor TutorPort, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a chemistry question, or /mode normal|accessibility|teacher"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		tutor:    tutor,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		mode:     session.ModeNormal,
		status:   "Ready.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, lh := logBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + lh // header, status
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-1)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.log = append(m.log, entry{who: "tutor", text: msg.answer})
			m.status = "Ready."
		}
		m.refresh()
		return m, nil

	case modeMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.mode = msg.mode
			m.status = fmt.Sprintf("Mode set to %s.", msg.mode)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.SetValue("")

	if fields := strings.Fields(text); fields[0] == "/mode" {
		if len(fields) != 2 {
			m.status = "Usage: /mode normal|accessibility|teacher"
			return m, nil
		}
		m.waiting = true
		m.status = "Switching mode..."
		return m, m.setMode(fields[1])
	}
	if text == "/quit" {
		return m, tea.Quit
	}

	m.log = append(m.log, entry{who: "you", text: text})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()
	return m, m.ask(text)
}

func (m Model) ask(question string) tea.Cmd {
	tutor, timeout := m.tutor, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ans, err := tutor.Ask(ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

func (m Model) setMode(mode string) tea.Cmd {
	tutor, timeout := m.tutor, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		got, err := tutor.SetMode(ctx, mode)
		return modeMsg{mode: got, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Chemistry Tutor") + "  " + modeStyle.Render("["+string(m.mode)+"]")
	status := statusStyle.Render(m.status)
	return header + "\n" + logBoxStyle.Render(m.viewport.View()) + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderLog() string {
	if len(m.log) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, e := range m.log {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if e.who == "you" {
			b.WriteString(youStyle.Render("You: "))
		} else {
			b.WriteString(tutorStyle.Render("Tutor: "))
		}
		b.WriteString(e.text)
	}
	return b.String()
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	modeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	youStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	tutorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	logBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
