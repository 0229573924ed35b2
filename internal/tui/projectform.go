package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

const (
	projectName = iota
	projectDescription
)

const (
	createProjectFallback = "Failed to create project"
	loadProjectFallback   = "Failed to load data"
)

type projectFetchedMsg struct {
	tagged
	project *domain.Project
	err     error
}

type projectSavedMsg struct {
	tagged
	project *domain.Project
	err     error
}

// projectFormModel creates a project, or edits one when id is set.
type projectFormModel struct {
	screen
	client     *client.Client
	id         string
	form       form
	loading    bool
	loadErr    string
	err        string
	submitting bool
}

func newProjectFormModel(sc screen, d Deps, id string) projectFormModel {
	return projectFormModel{
		screen:  sc,
		client:  d.Client,
		id:      id,
		loading: id != "",
		form: newForm(
			newField("name", "project name", 120),
			newField("description", "what is it about", maxInputLen),
		),
	}
}

func (m projectFormModel) editing() bool { return m.id != "" }

func (m projectFormModel) Init() tea.Cmd {
	if !m.editing() {
		return textinput.Blink
	}
	c, ctx, tag, id := m.client, m.ctx, m.tag(), m.id
	return func() tea.Msg {
		p, err := c.GetProject(ctx, id)
		return projectFetchedMsg{tagged: tag, project: p, err: err}
	}
}

func (m projectFormModel) Update(msg tea.Msg) (projectFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case projectFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = client.UserMessage(msg.err, loadProjectFallback)
			return m, nil
		}
		m.form.setValue(projectName, msg.project.Name)
		m.form.setValue(projectDescription, msg.project.Description)
		return m, textinput.Blink

	case projectSavedMsg:
		m.submitting = false
		if msg.err != nil {
			fallback := createProjectFallback
			if m.editing() {
				fallback = updateFallback
			}
			m.err = client.UserMessage(msg.err, fallback)
			return m, nil
		}
		if m.editing() {
			return m, navigate(guard.RouteProjects)
		}
		return m, navigate(guard.ProjectRoute(msg.project.ID))

	case tea.KeyMsg:
		if m.submitting || m.loading || m.loadErr != "" {
			return m, nil
		}
		m.err = ""
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
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

func (m projectFormModel) submit() (projectFormModel, tea.Cmd) {
	req := client.ProjectRequest{
		Name:        m.form.value(projectName),
		Description: m.form.value(projectDescription),
	}
	if err := validate.Project(req); err != nil {
		m.err = validate.Message(err)
		return m, nil
	}
	m.submitting = true
	c, ctx, tag, id := m.client, m.ctx, m.tag(), m.id
	if m.editing() {
		return m, func() tea.Msg {
			p, err := c.UpdateProject(ctx, id, req)
			return projectSavedMsg{tagged: tag, project: p, err: err}
		}
	}
	return m, func() tea.Msg {
		p, err := c.CreateProject(ctx, req)
		return projectSavedMsg{tagged: tag, project: p, err: err}
	}
}

func (m projectFormModel) helpKeys() []string {
	return []string{
		helpEntry("tab", "next"),
		helpEntry("ctrl+s", "save"),
		helpEntry("esc", "cancel"),
	}
}

func (m projectFormModel) View() string {
	var sb strings.Builder
	title := "New project"
	if m.editing() {
		title = "Edit project"
	}
	sb.WriteString("\n  " + selectedStyle.Render(title) + "\n\n")

	switch {
	case m.loading:
		sb.WriteString("   " + dimStyle.Render("Loading project…") + "\n")
		return sb.String()
	case m.loadErr != "":
		sb.WriteString("   " + errorStyle.Render(m.loadErr) + "\n")
		return sb.String()
	}

	sb.WriteString(m.form.view())
	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString("  " + dimStyle.Render("saving…") + "\n")
	case m.err != "":
		sb.WriteString("  " + errorStyle.Render(m.err) + "\n")
	}
	return sb.String()
}
