package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

// dashboardState is the state machine for dashboard interactions.
type dashboardState int

const (
	psNormal   dashboardState = iota
	psDeleting                // delete confirmation
	psBusy                    // delete request in flight
)

const projectsFallback = "Failed to load projects"

// -- messages --

type projectsLoadedMsg struct {
	tagged
	projects []domain.Project
	err      error
}

type projectDeletedMsg struct {
	tagged
	id  string
	err error
}

type copyMsg struct {
	tagged
	what string
	err  error
}

// -- model --

type projectsModel struct {
	screen
	client    *client.Client
	projects  []domain.Project
	loading   bool
	err       string
	cursor    int
	state     dashboardState
	statusMsg string
}

func newProjectsModel(sc screen, d Deps) projectsModel {
	return projectsModel{screen: sc, client: d.Client, loading: true}
}

func (m projectsModel) Init() tea.Cmd {
	return m.load()
}

func (m projectsModel) load() tea.Cmd {
	c, ctx, tag := m.client, m.ctx, m.tag()
	return func() tea.Msg {
		projects, err := c.ListProjects(ctx)
		return projectsLoadedMsg{tagged: tag, projects: projects, err: err}
	}
}

func (m projectsModel) selected() (domain.Project, bool) {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return domain.Project{}, false
	}
	return m.projects[m.cursor], true
}

func (m projectsModel) Update(msg tea.Msg) (projectsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case projectsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.UserMessage(msg.err, projectsFallback)
			return m, nil
		}
		m.err = ""
		m.projects = msg.projects
		if m.cursor >= len(m.projects) {
			m.cursor = 0
		}
		return m, nil

	case projectDeletedMsg:
		m.state = psNormal
		if msg.err != nil {
			m.statusMsg = "delete failed: " + client.UserMessage(msg.err, "Failed to delete project")
			return m, nil
		}
		for i, p := range m.projects {
			if p.ID == msg.id {
				m.projects = append(m.projects[:i], m.projects[i+1:]...)
				break
			}
		}
		if m.cursor >= len(m.projects) && m.cursor > 0 {
			m.cursor = len(m.projects) - 1
		}
		m.statusMsg = "project deleted"
		return m, nil

	case copyMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied " + msg.what
		}
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		return m.handleKey(msg)
	}
	return m, nil
}

func (m projectsModel) handleKey(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch m.state {
	case psDeleting:
		return m.handleKeyDeleting(msg)
	case psBusy:
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n":
		return m, navigate(guard.RouteNewProject)
	case "enter":
		if p, ok := m.selected(); ok {
			return m, navigate(guard.ProjectRoute(p.ID))
		}
	case "e":
		if p, ok := m.selected(); ok {
			return m, navigate(guard.EditProjectRoute(p.ID))
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.state = psDeleting
		}
	case "c":
		if p, ok := m.selected(); ok {
			return m, copyID(m.screen, p.ID)
		}
	case "r":
		m.loading = true
		m.err = ""
		return m, m.load()
	}
	return m, nil
}

func (m projectsModel) handleKeyDeleting(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		p, ok := m.selected()
		if !ok {
			m.state = psNormal
			return m, nil
		}
		m.state = psBusy
		c, ctx, tag, id := m.client, m.ctx, m.tag(), p.ID
		return m, func() tea.Msg {
			err := c.DeleteProject(ctx, id)
			return projectDeletedMsg{tagged: tag, id: id, err: err}
		}
	case "n", "N", "esc":
		m.state = psNormal
	}
	return m, nil
}

func copyID(sc screen, id string) tea.Cmd {
	tag := sc.tag()
	return func() tea.Msg {
		err := clipboard.WriteAll(id)
		return copyMsg{tagged: tag, what: "id " + id, err: err}
	}
}

// helpKeys returns context-sensitive help text based on the current state.
func (m projectsModel) helpKeys() []string {
	switch m.state {
	case psDeleting:
		return []string{helpEntry("y", "confirm"), helpEntry("n", "cancel")}
	case psBusy:
		return []string{dimStyle.Render("deleting…")}
	}
	return []string{
		helpEntry("j/k", "nav"),
		helpEntry("enter", "open"),
		helpEntry("n", "new"),
		helpEntry("e", "edit"),
		helpEntry("d", "delete"),
		helpEntry("c", "copy id"),
		helpEntry("r", "refresh"),
	}
}

func (m projectsModel) View() string {
	var sb strings.Builder

	sb.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("── PROJECTS %d ──", len(m.projects))) + "\n")

	switch {
	case m.loading:
		sb.WriteString("   " + dimStyle.Render("Loading projects…") + "\n")
		return sb.String()
	case m.err != "":
		sb.WriteString("   " + errorStyle.Render(m.err) + "\n")
		sb.WriteString("   " + metaStyle.Render("press r to retry") + "\n")
		return sb.String()
	case len(m.projects) == 0:
		sb.WriteString("   " + dimStyle.Render("no projects yet · press n to create one") + "\n")
		return sb.String()
	}

	nameWidth := 28
	if m.width > 60 {
		nameWidth = m.width / 3
	}

	for i, p := range m.projects {
		active := i == m.cursor

		cursor := "  "
		name := normalStyle.Render(truncStr(p.Name, nameWidth))
		if active {
			cursor = accentStyle.Render("▸") + " "
			name = selectedStyle.Render(truncStr(p.Name, nameWidth))
		}
		updated := metaStyle.Render(formatTime(p.UpdatedAt))
		fmt.Fprintf(&sb, " %s%s  %s\n", cursor, name, updated)

		if active && m.state == psDeleting {
			sb.WriteString("     " + errorStyle.Render("delete this project and its tasks? ") +
				accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
			continue
		}
		if p.Description != "" {
			descWidth := m.width - 8
			if descWidth < 20 {
				descWidth = 60
			}
			sb.WriteString("     " + dimStyle.Render(truncStr(oneLine(p.Description), descWidth)) + "\n")
		}
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + accentStyle.Render(m.statusMsg) + "\n")
	}
	return sb.String()
}
