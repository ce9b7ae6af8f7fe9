package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chemviz/internal/api"
)

const minPasswordLen = 4

// loginForm is the non-blocking credential entry: a submit produces a
// typed message for the root model, never a synchronous call.
type loginForm struct {
	theme Theme

	registering bool
	inputs      []textinput.Model // username, password, confirm (register only)
	focused     int

	errText string
	busy    bool

	width  int
	height int
}

func newLoginForm(theme Theme) loginForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 150
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'

	return loginForm{
		theme:  theme,
		inputs: []textinput.Model{username, password, confirm},
	}
}

func (f loginForm) fieldCount() int {
	if f.registering {
		return 3
	}
	return 2
}

func (f loginForm) Update(msg tea.Msg) (loginForm, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		f.height = msg.Height
		return f, nil

	case tea.KeyMsg:
		if f.busy {
			return f, nil
		}
		switch msg.String() {
		case "tab", "down":
			f.moveFocus(1)
			return f, nil
		case "shift+tab", "up":
			f.moveFocus(-1)
			return f, nil
		case "ctrl+r":
			f.registering = !f.registering
			f.errText = ""
			f.inputs[2].Reset()
			if f.focused >= f.fieldCount() {
				f.setFocus(0)
			}
			return f, nil
		case "enter":
			return f.submit()
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

// submit runs the local form validation the server never needs to see.
func (f loginForm) submit() (loginForm, tea.Cmd) {
	username := strings.TrimSpace(f.inputs[0].Value())
	password := f.inputs[1].Value()

	if f.registering {
		confirm := f.inputs[2].Value()
		switch {
		case username == "" || password == "" || confirm == "":
			f.errText = "Please fill in all fields."
			return f, nil
		case password != confirm:
			f.errText = "Passwords do not match."
			return f, nil
		case len(password) < minPasswordLen:
			f.errText = "Password must be at least 4 characters."
			return f, nil
		}
	} else if username == "" || password == "" {
		f.errText = "Please enter both username and password."
		return f, nil
	}

	f.errText = ""
	f.busy = true
	cred := api.Credential{Username: username, Password: password}
	register := f.registering
	return f, func() tea.Msg {
		return loginSubmitMsg{cred: cred, register: register}
	}
}

// loginSubmitMsg asks the root model to run the controller operation; the
// form itself never touches the network.
type loginSubmitMsg struct {
	cred     api.Credential
	register bool
}

// finish is called by the root model when the auth result lands.
func (f loginForm) finish(err error) loginForm {
	f.busy = false
	if err != nil {
		f.errText = UserMessage(err)
		return f
	}
	f.errText = ""
	f.inputs[1].Reset()
	f.inputs[2].Reset()
	return f
}

func (f *loginForm) moveFocus(delta int) {
	next := f.focused + delta
	count := f.fieldCount()
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	f.setFocus(next)
}

func (f *loginForm) setFocus(i int) {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.focused = i
	f.inputs[i].Focus()
}

func (f loginForm) View() string {
	title := "Chemical Equipment Visualizer"
	subtitle := "Sign in to continue"
	action := "enter sign in   ctrl+r register instead"
	if f.registering {
		subtitle = "Create an account"
		action = "enter register   ctrl+r back to sign in"
	}

	var b strings.Builder
	b.WriteString(f.theme.TopBarTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(f.theme.TopBarMeta.Render(subtitle))
	b.WriteString("\n\n")

	labels := []string{"Username", "Password", "Confirm"}
	for i := 0; i < f.fieldCount(); i++ {
		box := f.theme.InputBox
		if i == f.focused {
			box = f.theme.InputBoxF
		}
		b.WriteString(f.theme.PaneTitle.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(box.Width(40).Render(f.inputs[i].View()))
		b.WriteString("\n")
	}

	if f.busy {
		b.WriteString("\n")
		b.WriteString(f.theme.StatusInfo.Render("Contacting server…"))
	} else if f.errText != "" {
		b.WriteString("\n")
		b.WriteString(f.theme.StatusErr.Render(f.errText))
	}

	b.WriteString("\n\n")
	b.WriteString(f.theme.Footer.Render(action + "   ctrl+c quit"))

	card := f.theme.Pane.Padding(1, 3).Render(b.String())
	if f.width > 0 && f.height > 0 {
		return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, card)
	}
	return card
}
