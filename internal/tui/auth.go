package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/session"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
)

// Inline fallbacks when the API gave no message of its own.
const (
	loginFallback    = "Invalid email or password"
	registerFallback = "Registration failed"
)

// authResultMsg carries the outcome of a login or register round trip,
// including recording the session in the holder.
type authResultMsg struct {
	tagged
	err error
}

func authenticate(sc screen, h *session.Holder, call func() (*client.AuthResponse, error)) tea.Cmd {
	tag := sc.tag()
	return func() tea.Msg {
		resp, err := call()
		if err == nil {
			err = sc.ctx.Err()
		}
		if err == nil {
			err = h.Login(resp.User, resp.Token)
		}
		return authResultMsg{tagged: tag, err: err}
	}
}

// -- login --

const (
	loginEmail = iota
	loginPassword
)

type loginModel struct {
	screen
	client     *client.Client
	holder     *session.Holder
	form       form
	err        string
	submitting bool
}

func newLoginModel(sc screen, d Deps) loginModel {
	email := newField("email", "you@example.com", 200)
	return loginModel{
		screen: sc,
		client: d.Client,
		holder: d.Holder,
		form:   newForm(email, passwordField("password")),
	}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case authResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.UserMessage(msg.err, loginFallback)
			return m, nil
		}
		tag := m.tag()
		return m, func() tea.Msg { return authenticatedMsg{tagged: tag} }

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "ctrl+r":
			return m, navigate(guard.RouteRegister)
		case "enter":
			if m.form.onLast() {
				return m.submit()
			}
			m.form = m.form.next()
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	req := client.LoginRequest{
		Email:    m.form.value(loginEmail),
		Password: m.form.raw(loginPassword),
	}
	if err := validate.Login(req); err != nil {
		m.err = validate.Message(err)
		return m, nil
	}
	m.err = ""
	m.submitting = true
	c, ctx := m.client, m.ctx
	return m, authenticate(m.screen, m.holder, func() (*client.AuthResponse, error) {
		return c.Login(ctx, req)
	})
}

func (m loginModel) helpKeys() []string {
	return []string{
		helpEntry("tab", "next"),
		helpEntry("enter", "log in"),
		helpEntry("ctrl+r", "register"),
		helpEntry("esc", "back"),
	}
}

func (m loginModel) View() string {
	return authView("Log in", m.form, m.err, m.submitting, "logging in…",
		"No account yet? ctrl+r to register.")
}

// -- register --

const (
	regFirstName = iota
	regLastName
	regUsername
	regEmail
	regPassword
)

type registerModel struct {
	screen
	client     *client.Client
	holder     *session.Holder
	form       form
	err        string
	submitting bool
}

func newRegisterModel(sc screen, d Deps) registerModel {
	return registerModel{
		screen: sc,
		client: d.Client,
		holder: d.Holder,
		form: newForm(
			newField("first name", "", 100),
			newField("last name", "", 100),
			newField("username", "", 50),
			newField("email", "you@example.com", 200),
			passwordField("password"),
		),
	}
}

func (m registerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case authResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.UserMessage(msg.err, registerFallback)
			return m, nil
		}
		tag := m.tag()
		return m, func() tea.Msg { return authenticatedMsg{tagged: tag} }

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "ctrl+l":
			return m, navigate(guard.RouteLogin)
		case "enter":
			if m.form.onLast() {
				return m.submit()
			}
			m.form = m.form.next()
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	req := client.RegisterRequest{
		FirstName: m.form.value(regFirstName),
		LastName:  m.form.value(regLastName),
		Username:  m.form.value(regUsername),
		Email:     m.form.value(regEmail),
		Password:  m.form.raw(regPassword),
	}
	if err := validate.Register(req); err != nil {
		m.err = validate.Message(err)
		return m, nil
	}
	m.err = ""
	m.submitting = true
	c, ctx := m.client, m.ctx
	return m, authenticate(m.screen, m.holder, func() (*client.AuthResponse, error) {
		return c.Register(ctx, req)
	})
}

func (m registerModel) helpKeys() []string {
	return []string{
		helpEntry("tab", "next"),
		helpEntry("enter", "register"),
		helpEntry("ctrl+l", "log in"),
		helpEntry("esc", "back"),
	}
}

func (m registerModel) View() string {
	return authView("Create account", m.form, m.err, m.submitting, "creating account…",
		"Already registered? ctrl+l to log in.")
}

func authView(title string, f form, errMsg string, submitting bool, busy, hint string) string {
	var sb strings.Builder
	sb.WriteString("\n  " + selectedStyle.Render(title) + "\n\n")
	sb.WriteString(f.view())
	sb.WriteString("\n")
	switch {
	case submitting:
		sb.WriteString("  " + dimStyle.Render(busy) + "\n")
	case errMsg != "":
		sb.WriteString("  " + errorStyle.Render(errMsg) + "\n")
	}
	sb.WriteString("\n  " + metaStyle.Render(hint) + "\n")
	return sb.String()
}
