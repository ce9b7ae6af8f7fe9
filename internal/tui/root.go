package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"chemviz/internal/app"
)

type view int

const (
	viewAuth view = iota
	viewBrowse
)

// Model is the root TUI model: the anonymous form or the authenticated
// browser, switched by the auth controller's outcomes.
type Model struct {
	app   *app.Application
	theme Theme

	view    view
	login   loginForm
	browser browser

	width  int
	height int
}

func New(application *app.Application) *Model {
	theme := NewTheme()
	return &Model{
		app:     application,
		theme:   theme,
		view:    viewAuth,
		login:   newLoginForm(theme),
		browser: newBrowser(application, theme),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		cmds = append(cmds, cmd)
		m.browser, cmd = m.browser.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.view == viewBrowse && !m.browser.picking {
				return m, tea.Quit
			}
		case "ctrl+l":
			if m.view == viewBrowse {
				m.app.Auth.Logout()
				m.view = viewAuth
				m.login = newLoginForm(m.theme)
				m.browser = newBrowser(m.app, m.theme)
				var cmd tea.Cmd
				m.login, cmd = m.login.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
				return m, cmd
			}
		}

	case loginSubmitMsg:
		return m, m.authCmd(msg)

	case authResultMsg:
		m.login = m.login.finish(msg.err)
		if msg.err == nil {
			m.view = viewBrowse
			m.browser = newBrowser(m.app, m.theme)
			var cmd tea.Cmd
			m.browser, cmd = m.browser.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case viewAuth:
		m.login, cmd = m.login.Update(msg)
	case viewBrowse:
		m.browser, cmd = m.browser.Update(msg)
	}
	return m, cmd
}

func (m *Model) View() string {
	switch m.view {
	case viewBrowse:
		return m.browser.View()
	default:
		return m.login.View()
	}
}

// authCmd runs the controller operation off the UI goroutine and reports
// back with a typed message.
func (m *Model) authCmd(msg loginSubmitMsg) tea.Cmd {
	auth := m.app.Auth
	return func() tea.Msg {
		var err error
		if msg.register {
			err = auth.Register(context.Background(), msg.cred)
		} else {
			err = auth.Login(context.Background(), msg.cred)
		}
		return authResultMsg{username: msg.cred.Username, register: msg.register, err: err}
	}
}
