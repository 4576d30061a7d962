package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/fault"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type mode int

const (
	modeLogin mode = iota
	modeMenu
	modePrompt
	modeWorking
	modeConfirm
	modeOutput
)

const maxLoginAttempts = 3

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	previewStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const banner = `
  ___   __   ____   __   ____  ____  ____   __
 / __) / _\ (    \ / _\ / ___)(_  _)(  _ \ /  \
( (__ /    \ ) D (/    \\___ \  )(   )   /(  O )
 \___)\_/\_/(____/\_/\_/(____/ (__) (__\_) \__/
`

// Model drives the whole terminal session: login, menu navigation, prompt
// sequences and action output.
type Model struct {
	act      *actions
	mode     mode
	menu     *Menu
	cursor   int
	prompt   *activePrompt
	login    *activePrompt
	attempts int
	authed   bool
	output   string
	isErr    bool
	status   string
	preview  string
	answers  chan bool
}

func newModel(act *actions) *Model {
	m := &Model{
		act:     act,
		mode:    modeLogin,
		answers: make(chan bool, 1),
	}
	m.menu = buildMenuTree(act)
	m.login = newActivePrompt(&PromptSpec{
		Title: "Login",
		Fields: []Field{
			{Label: "Username"},
			{Label: "Password", Secret: true},
		},
	})
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) checkLogin(username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OpTimeout)
		defer cancel()

		ok, err := m.act.records.Authenticate(ctx, username, password)
		if err != nil {
			return loginMsg{err: err}
		}
		if !ok {
			m.act.aud.Logf(ctx, audit.LevelWarning, "failed login attempt for %q", username)
		} else {
			m.act.aud.Logf(ctx, audit.LevelInfo, "user %q logged in", username)
		}
		return loginMsg{ok: ok}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return ErrMsg{Err: msg.err} }
		}
		if msg.ok {
			m.authed = true
			m.mode = modeMenu
			return m, nil
		}
		m.attempts++
		if m.attempts >= maxLoginAttempts {
			m.output = "Too many failed attempts."
			m.isErr = true
			return m, tea.Sequence(m.logLockout(), tea.Quit)
		}
		m.status = fmt.Sprintf("Invalid credentials (%d of %d attempts).", m.attempts, maxLoginAttempts)
		m.login = newActivePrompt(m.login.spec)
		m.mode = modeLogin
		return m, nil

	case WdMsg:
		m.status = string(msg)
		return m, nil

	case previewMsg:
		m.preview = string(msg)
		m.mode = modeConfirm
		return m, nil

	case DoneMsg:
		m.output = string(msg)
		m.isErr = false
		m.mode = modeOutput
		return m, nil

	case ErrMsg:
		m.output = formatErr(msg.Err)
		m.isErr = true
		m.mode = modeOutput
		return m, nil
	}
	return m, nil
}

func (m *Model) logLockout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OpTimeout)
		defer cancel()
		m.act.aud.Log(ctx, audit.LevelCritical, "login locked out after repeated failures")
		return nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.mode {
	case modeLogin:
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.login.advance() {
				vals := m.login.values()
				m.status = "Checking credentials..."
				m.mode = modeWorking
				return m, m.checkLogin(strings.TrimSpace(vals[0]), vals[1])
			}
			return m, nil
		}
		return m, m.login.update(msg)

	case modeMenu:
		return m.handleMenuKey(msg)

	case modePrompt:
		switch msg.Type {
		case tea.KeyEsc:
			m.prompt = nil
			m.mode = modeMenu
			return m, nil
		case tea.KeyEnter:
			if m.prompt.advance() {
				cmd := m.prompt.spec.Submit(m.prompt.values())
				m.prompt = nil
				m.status = "Working..."
				m.mode = modeWorking
				return m, cmd
			}
			return m, nil
		}
		return m, m.prompt.update(msg)

	case modeConfirm:
		switch strings.ToLower(msg.String()) {
		case "y", "s":
			m.answers <- true
		default:
			m.answers <- false
		}
		m.status = "Working..."
		m.mode = modeWorking
		return m, nil

	case modeOutput:
		m.output = ""
		if !m.authed {
			m.login = newActivePrompt(m.login.spec)
			m.mode = modeLogin
			return m, nil
		}
		m.mode = modeMenu
		return m, nil
	}

	// modeWorking ignores everything except ctrl+c
	return m, nil
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "left", "h", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
	case "enter", "right", "l":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Submenu != nil:
			m.menu = item.Submenu
			m.cursor = 0
		case item.Prompt != nil:
			m.prompt = newActivePrompt(item.Prompt)
			m.mode = modePrompt
		case item.Action != nil:
			m.status = "Working..."
			m.mode = modeWorking
			return m, item.Action()
		}
	}
	return m, nil
}

func formatErr(err error) string {
	if errors.Is(err, fault.ErrCancelled) {
		return "Operation cancelled."
	}
	um := fault.MapError(err)
	out := fmt.Sprintf("[%s] %s", um.Code, um.Message)
	if um.Action != "" {
		out += "\n" + um.Action
	}
	return out
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(banner))
	b.WriteString("\n")

	switch m.mode {
	case modeLogin:
		b.WriteString(titleStyle.Render("Login") + "\n\n")
		b.WriteString(m.renderPrompt(m.login))
		if m.status != "" {
			b.WriteString("\n" + errStyle.Render(m.status))
		}
		b.WriteString("\n" + hintStyle.Render("enter: next  esc: quit"))

	case modeMenu:
		b.WriteString(titleStyle.Render(m.menu.Title) + "\n\n")
		for i, item := range m.menu.Items {
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> "+item.Label) + "\n")
			} else {
				b.WriteString("  " + item.Label + "\n")
			}
		}
		b.WriteString("\n" + hintStyle.Render("up/down: move  enter: select  esc: back  q: quit"))

	case modePrompt:
		b.WriteString(titleStyle.Render(m.prompt.spec.Title) + "\n\n")
		b.WriteString(m.renderPrompt(m.prompt))
		b.WriteString("\n" + hintStyle.Render("enter: next  esc: cancel"))

	case modeWorking:
		b.WriteString(labelStyle.Render(m.status))

	case modeConfirm:
		b.WriteString(titleStyle.Render("Preview") + "\n")
		b.WriteString(previewStyle.Render(truncate(m.preview, 2000)) + "\n\n")
		b.WriteString(labelStyle.Render("Proceed? (y/N)"))

	case modeOutput:
		style := okStyle
		if m.isErr {
			style = errStyle
		}
		b.WriteString(style.Render(m.output))
		b.WriteString("\n\n" + hintStyle.Render("press any key to continue"))
	}

	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderPrompt(p *activePrompt) string {
	var b strings.Builder
	for i, f := range p.spec.Fields {
		marker := "  "
		if i == p.idx {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + labelStyle.Render(f.Label) + ": " + p.inputs[i].View() + "\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
