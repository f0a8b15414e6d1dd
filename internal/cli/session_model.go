package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/prio/internal/core"
	"github.com/valter-silva-au/prio/internal/exchange"
	"github.com/valter-silva-au/prio/internal/render"
	"github.com/valter-silva-au/prio/pkg/models"
)

// Task form fields, in tab order.
const (
	fieldTitle = iota
	fieldDue
	fieldHours
	fieldImportance
	fieldDeps
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Due date", "Est. hours", "Importance", "Depends on"}

// reservedRows is the height taken by everything above and below the results
// pane.
const reservedRows = 16

var (
	sessionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	focusedLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Width(12)
	strategyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	statusErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	keyHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// analyzeDoneMsg carries an analyze result back to the model.
type analyzeDoneMsg struct {
	strategy models.Strategy
	res      *exchange.AnalyzeResult
	err      error
}

// suggestDoneMsg carries a suggest result back to the model.
type suggestDoneMsg struct {
	res *exchange.SuggestResult
	err error
}

type sessionModel struct {
	ctx      context.Context
	session  *core.Session
	strategy models.Strategy

	inputs   []textinput.Model
	focus    int
	bulk     textarea.Model
	bulkMode bool
	results  viewport.Model

	tasks     []models.Task
	suggested []models.Task

	status    string
	statusErr bool
	width     int
}

func newSessionModel(ctx context.Context, session *core.Session, strategy models.Strategy) sessionModel {
	if !strategy.Valid() {
		strategy = models.DefaultStrategy
	}

	placeholders := [fieldCount]string{"Fix login bug", "2025-12-01", "2.5", "1-10", "1, 2"}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 200
		in.Width = 40
		inputs[i] = in
	}
	inputs[fieldTitle].Focus()

	bulk := textarea.New()
	bulk.Placeholder = `[{"title": "Write docs", "importance": 5, "estimated_hours": 2}]`
	bulk.CharLimit = 0
	bulk.ShowLineNumbers = false
	bulk.SetWidth(72)
	bulk.SetHeight(5)

	m := sessionModel{
		ctx:      ctx,
		session:  session,
		strategy: strategy,
		inputs:   inputs,
		bulk:     bulk,
		results:  viewport.New(80, 20),
		tasks:    session.Store().Tasks(),
		width:    80,
	}
	m.refreshResults()
	return m
}

func (m sessionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.bulkMode {
				return m, m.setBulkMode(false)
			}
			return m, tea.Quit
		case "ctrl+o":
			return m, m.setBulkMode(!m.bulkMode)
		case "ctrl+t":
			m.strategy = m.strategy.Next()
			return m, nil
		case "ctrl+r":
			return m.startAnalyze()
		case "ctrl+g":
			return m.startSuggest()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

		if m.bulkMode {
			if msg.String() == "ctrl+s" {
				m.loadBulk()
				return m, nil
			}
			var cmd tea.Cmd
			m.bulk, cmd = m.bulk.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % fieldCount
			return m, m.updateFocus()
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
			return m, m.updateFocus()
		case "enter":
			return m, m.submitForm()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.results.Width = msg.Width
		m.results.Height = max(msg.Height-reservedRows, 3)
		m.bulk.SetWidth(min(msg.Width-2, 100))
		m.refreshResults()
		return m, nil

	case analyzeDoneMsg:
		if errors.Is(msg.err, core.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(engineFailure("analyze", msg.err), true)
			return m, nil
		}
		echoed := msg.res.Strategy
		if echoed == "" {
			echoed = msg.strategy
		}
		m.tasks = msg.res.Tasks
		m.setStatus(fmt.Sprintf("Analyzed using strategy: %s.", echoed), false)
		m.refreshResults()
		return m, nil

	case suggestDoneMsg:
		if errors.Is(msg.err, core.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(engineFailure("suggest", msg.err), true)
			return m, nil
		}
		m.suggested = msg.res.Tasks
		m.setStatus(fmt.Sprintf("Top %d tasks suggested.", len(msg.res.Tasks)), false)
		m.refreshResults()
		return m, nil
	}

	if m.bulkMode {
		var cmd tea.Cmd
		m.bulk, cmd = m.bulk.Update(msg)
		return m, cmd
	}
	return m, m.updateInputs(msg)
}

func (m *sessionModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m *sessionModel) setBulkMode(on bool) tea.Cmd {
	m.bulkMode = on
	if on {
		m.inputs[m.focus].Blur()
		return m.bulk.Focus()
	}
	m.bulk.Blur()
	return m.inputs[m.focus].Focus()
}

func (m *sessionModel) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focus {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *sessionModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// submitForm adds the form contents as a task. The form is cleared only when
// the task was accepted.
func (m *sessionModel) submitForm() tea.Cmd {
	_, err := m.session.Add(core.TaskInput{
		Title:          m.inputs[fieldTitle].Value(),
		DueDate:        m.inputs[fieldDue].Value(),
		EstimatedHours: m.inputs[fieldHours].Value(),
		Importance:     m.inputs[fieldImportance].Value(),
		Dependencies:   m.inputs[fieldDeps].Value(),
	})
	if err != nil {
		m.setStatus(formFailure(err), true)
		return nil
	}

	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.focus = fieldTitle
	m.tasks = m.session.Store().Tasks()
	m.setStatus("Task added.", false)
	m.refreshResults()
	return m.updateFocus()
}

func (m *sessionModel) loadBulk() {
	if _, err := m.session.BulkLoad(m.bulk.Value()); err != nil {
		m.setStatus(importFailure(err), true)
		return
	}
	m.tasks = m.session.Store().Tasks()
	m.setStatus("Loaded tasks from JSON.", false)
	m.refreshResults()
}

func (m sessionModel) startAnalyze() (tea.Model, tea.Cmd) {
	if m.session.Store().Len() == 0 {
		m.setStatus("Add at least one task before analyzing.", true)
		return m, nil
	}
	m.setStatus("Analyzing tasks...", false)
	m.suggested = nil
	m.refreshResults()

	ctx, session, strategy := m.ctx, m.session, m.strategy
	return m, func() tea.Msg {
		res, err := session.Analyze(ctx, strategy)
		return analyzeDoneMsg{strategy: strategy, res: res, err: err}
	}
}

func (m sessionModel) startSuggest() (tea.Model, tea.Cmd) {
	if m.session.Store().Len() == 0 {
		m.setStatus("Add at least one task before requesting suggestions.", true)
		return m, nil
	}
	m.setStatus("Fetching suggestions...", false)

	ctx, session, strategy := m.ctx, m.session, m.strategy
	return m, func() tea.Msg {
		res, err := session.Suggest(ctx, strategy)
		return suggestDoneMsg{res: res, err: err}
	}
}

func (m *sessionModel) refreshResults() {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Tasks"))
	b.WriteString("\n")
	b.WriteString(render.List(m.tasks, m.width))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Suggested"))
	b.WriteString("\n")
	b.WriteString(render.List(m.suggested, m.width))
	m.results.SetContent(b.String())
}

func (m sessionModel) View() string {
	var b strings.Builder

	b.WriteString(sessionTitleStyle.Render(" prio "))
	b.WriteString("  strategy: ")
	b.WriteString(strategyStyle.Render(string(m.strategy)))
	b.WriteString("\n\n")

	if m.bulkMode {
		b.WriteString("Paste a JSON array of tasks:\n")
		b.WriteString(m.bulk.View())
		b.WriteString("\n")
	} else {
		for i, in := range m.inputs {
			style := labelStyle
			if i == m.focus {
				style = focusedLabel
			}
			b.WriteString(style.Render(fieldLabels[i]))
			b.WriteString(in.View())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.statusErr {
		b.WriteString(statusErrStyle.Render(m.status))
	} else {
		b.WriteString(statusOKStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.results.View())
	b.WriteString("\n")

	help := "enter: add task | tab: next field | ctrl+o: bulk import | ctrl+r: analyze | ctrl+g: suggest | ctrl+t: strategy | pgup/pgdn: scroll | esc: quit"
	if m.bulkMode {
		help = "ctrl+s: load JSON | esc: back to form | ctrl+r: analyze | ctrl+g: suggest | ctrl+t: strategy"
	}
	b.WriteString(keyHelpStyle.Render(help))

	return b.String()
}

// formFailure words a rejected task the way the status line shows it.
func formFailure(err error) string {
	switch {
	case errors.Is(err, core.ErrTitleRequired):
		return "Title is required."
	case errors.Is(err, core.ErrImportanceRange):
		return "Importance must be between 1 and 10."
	case errors.Is(err, core.ErrEstimatedHours):
		return "Estimated hours must be a positive number."
	default:
		return err.Error()
	}
}

func importFailure(err error) string {
	var ie *core.ImportError
	if errors.As(err, &ie) {
		if ie.Kind == core.ImportEmpty {
			return "Paste a JSON array first."
		}
		return "Invalid JSON: " + ie.Err.Error()
	}
	return "Invalid JSON: " + err.Error()
}

// engineFailure words a failed analyze or suggest call.
func engineFailure(op string, err error) string {
	switch {
	case errors.Is(err, core.ErrNoTasks) && op == "suggest":
		return "Add at least one task before requesting suggestions."
	case errors.Is(err, core.ErrNoTasks):
		return "Add at least one task before analyzing."
	case errors.Is(err, exchange.ErrUnexpectedResponse):
		return "Unexpected API response."
	case op == "suggest":
		return "Failed to fetch suggestions: " + err.Error()
	default:
		return "Failed to analyze tasks: " + err.Error()
	}
}
