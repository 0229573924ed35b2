package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/guard"
)

type homeModel struct {
	screen
}

func newHomeModel(sc screen) homeModel {
	return homeModel{screen: sc}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
	case tea.KeyMsg:
		switch msg.String() {
		case "l", "enter":
			return m, navigate(guard.RouteLogin)
		case "r":
			return m, navigate(guard.RouteRegister)
		}
	}
	return m, nil
}

func (m homeModel) helpKeys() []string {
	return []string{helpEntry("l", "log in"), helpEntry("r", "register")}
}

func (m homeModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("  " + selectedStyle.Render("Organize your projects. Ship your tasks.") + "\n\n")
	sb.WriteString("  " + normalStyle.Render("Pro-Tasker keeps every project and its tasks in one place,") + "\n")
	sb.WriteString("  " + normalStyle.Render("from To Do through In Progress to Done.") + "\n\n")
	sb.WriteString("  " + accentStyle.Render("l") + dimStyle.Render("  log in to your account") + "\n")
	sb.WriteString("  " + accentStyle.Render("r") + dimStyle.Render("  create an account") + "\n")
	return sb.String()
}

// notFoundModel renders any route the table does not know.
type notFoundModel struct {
	screen
	route guard.Route
}

func newNotFoundModel(sc screen, r guard.Route) notFoundModel {
	return notFoundModel{screen: sc, route: r}
}

func (m notFoundModel) Update(msg tea.Msg) (notFoundModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return m, navigate(guard.RouteHome)
		}
	}
	return m, nil
}

func (m notFoundModel) View() string {
	var sb strings.Builder
	sb.WriteString("\n  " + errorStyle.Bold(true).Render("404") + "  " + selectedStyle.Render("Page not found") + "\n\n")
	sb.WriteString("  " + dimStyle.Render("Nothing lives at "+string(m.route)+".") + "\n")
	sb.WriteString("  " + dimStyle.Render("Press enter or esc to go home.") + "\n")
	return sb.String()
}
