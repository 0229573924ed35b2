package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/protasker/internal/config"
	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/log"
	"github.com/naveenspark/protasker/internal/session"
	"github.com/naveenspark/protasker/internal/store"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

// Deps is everything the TUI needs from the outside. Holder and Client are
// shared with the rest of the process; there is exactly one of each.
type Deps struct {
	Holder *session.Holder
	Client *client.Client
	Store  store.Store
	Config *config.Config
	Logger *log.Logger
}

// screen is the per-navigation context every screen model embeds. ctx is
// cancelled when the user navigates away; gen tags async results so stale
// ones can be dropped.
type screen struct {
	ctx    context.Context
	gen    int
	width  int
	height int
}

func (s screen) tag() tagged { return tagged{gen: s.gen} }

func (s *screen) resize(msg tea.WindowSizeMsg) {
	s.width = msg.Width
	s.height = msg.Height
}

// tagged is embedded in every async result message.
type tagged struct{ gen int }

func (t tagged) generation() int { return t.gen }

type genMsg interface{ generation() int }

// -- app-level messages --

type sessionReadyMsg struct{ err error }

type navigateMsg struct{ to guard.Route }

// authenticatedMsg is sent by the login and register screens once the
// holder has recorded the new session.
type authenticatedMsg struct{ tagged }

func navigate(to guard.Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

// App is the root Bubbletea model. It owns routing: every navigation and
// every async result goes through guard.Resolve.
type App struct {
	deps   Deps
	route  guard.Route
	kind   guard.Kind
	from   guard.Route
	ready  bool
	theme  domain.Theme
	gen    int
	cancel context.CancelFunc
	notice string
	width  int
	height int

	home     homeModel
	login    loginModel
	register registerModel
	projects projectsModel
	detail   projectModel
	form     projectFormModel
	notFound notFoundModel
}

// NewApp creates the TUI starting at start (usually "/").
func NewApp(d Deps, start guard.Route) App {
	if d.Logger == nil {
		d.Logger = log.Nop()
	}
	if start == "" {
		start = guard.RouteHome
	}
	theme := domain.ThemeLight
	if d.Store != nil {
		if v, ok, err := d.Store.Load(store.KeyTheme); err == nil && ok {
			theme = domain.ParseTheme(v)
		}
	}
	applyTheme(theme)
	return App{deps: d, route: start, theme: theme}
}

func (a App) Init() tea.Cmd {
	h := a.deps.Holder
	return func() tea.Msg {
		if !h.Loading() {
			return sessionReadyMsg{}
		}
		return sessionReadyMsg{err: h.Initialize()}
	}
}

// navigate resolves to through the guards and opens the resulting screen.
func (a App) navigate(to guard.Route) (App, tea.Cmd) {
	a.route = to
	d := guard.Resolve(a.deps.Holder.State(), to)
	switch d.Action {
	case guard.Loading:
		a.ready = false
		return a, nil
	case guard.Redirect:
		if d.From != "" {
			a.from = d.From
		}
		a.deps.Logger.Debug("route redirect", "from", string(to), "to", string(d.To))
		return a.navigate(d.To)
	}

	a.ready = true
	kind, id := to.Match()
	if kind != guard.KindLogin && kind != guard.KindRegister {
		a.from = ""
	}
	return a.open(kind, id)
}

// open cancels the current screen and builds a fresh one for kind.
func (a App) open(kind guard.Kind, id string) (App, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.gen++
	a.kind = kind
	a.notice = ""
	sc := screen{ctx: ctx, gen: a.gen, width: a.width, height: a.bodyHeight()}

	switch kind {
	case guard.KindHome:
		a.home = newHomeModel(sc)
		return a, nil
	case guard.KindLogin:
		a.login = newLoginModel(sc, a.deps)
		return a, a.login.Init()
	case guard.KindRegister:
		a.register = newRegisterModel(sc, a.deps)
		return a, a.register.Init()
	case guard.KindProjects:
		a.projects = newProjectsModel(sc, a.deps)
		return a, a.projects.Init()
	case guard.KindProject:
		a.detail = newProjectModel(sc, a.deps, id)
		return a, a.detail.Init()
	case guard.KindNewProject:
		a.form = newProjectFormModel(sc, a.deps, "")
		return a, a.form.Init()
	case guard.KindEditProject:
		a.form = newProjectFormModel(sc, a.deps, id)
		return a, a.form.Init()
	default:
		a.notFound = newNotFoundModel(sc, a.route)
		return a, nil
	}
}

// back is where esc leads from the current route.
func (a App) back() guard.Route {
	kind, id := a.route.Match()
	switch kind {
	case guard.KindLogin, guard.KindRegister, guard.KindNotFound:
		return guard.RouteHome
	case guard.KindProject, guard.KindNewProject:
		return guard.RouteProjects
	case guard.KindEditProject:
		return guard.ProjectRoute(id)
	}
	return ""
}

func (a App) bodyHeight() int {
	// Chrome: header(2) + notice(1) + help(1)
	return a.height - 4
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: a.bodyHeight()}
		return a.updateScreen(bodyMsg)

	case sessionReadyMsg:
		if msg.err != nil {
			a.deps.Logger.WithError(msg.err).Warn("restore session")
		}
		return a.navigate(a.route)

	case navigateMsg:
		return a.navigate(msg.to)

	case authenticatedMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		to := a.from
		if to == "" {
			to = guard.Landing
		}
		a.from = ""
		return a.navigate(to)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		if !a.ready {
			if msg.String() == "q" {
				return a, a.quit()
			}
			return a, nil
		}
		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, a.quit()
			case "t":
				return a.toggleTheme(), nil
			case "L":
				if a.deps.Holder.State() == session.Authenticated {
					return a.logout()
				}
			case "esc":
				if to := a.back(); to != "" {
					return a.navigate(to)
				}
				return a, nil
			}
		} else if msg.String() == "esc" && a.escLeavesScreen() {
			if to := a.back(); to != "" {
				return a.navigate(to)
			}
		}
	}

	if gm, ok := msg.(genMsg); ok && gm.generation() != a.gen {
		// The command behind a stale result may still have changed the
		// session, e.g. a login that completed just as the user left.
		return a.reguard(nil, true)
	}

	a2, cmd := a.updateScreen(msg)
	return a2.(App).reguard(cmd, false)
}

// reguard re-runs the guard for the current route after the session may have
// changed underneath it. A 401 anywhere purges the store, so a redirect to
// login always applies; other redirects only when anyRedirect is set, since
// a live login screen navigates on its own.
func (a App) reguard(cmd tea.Cmd, anyRedirect bool) (App, tea.Cmd) {
	if !a.ready {
		return a, cmd
	}
	d := guard.Resolve(a.deps.Holder.State(), a.route)
	if d.Action != guard.Redirect || (!anyRedirect && d.To != guard.RouteLogin) {
		return a, cmd
	}
	next, navCmd := a.navigate(a.route)
	if d.To == guard.RouteLogin {
		next.notice = "session expired - please log in again"
	}
	return next, tea.Batch(cmd, navCmd)
}

func (a App) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.kind {
	case guard.KindHome:
		a.home, cmd = a.home.Update(msg)
	case guard.KindLogin:
		a.login, cmd = a.login.Update(msg)
	case guard.KindRegister:
		a.register, cmd = a.register.Update(msg)
	case guard.KindProjects:
		a.projects, cmd = a.projects.Update(msg)
	case guard.KindProject:
		a.detail, cmd = a.detail.Update(msg)
	case guard.KindNewProject, guard.KindEditProject:
		a.form, cmd = a.form.Update(msg)
	default:
		a.notFound, cmd = a.notFound.Update(msg)
	}
	return a, cmd
}

// isEditing is true while a text input has the keyboard, so global
// single-letter keys must not fire.
func (a App) isEditing() bool {
	switch a.kind {
	case guard.KindLogin, guard.KindRegister, guard.KindNewProject, guard.KindEditProject:
		return true
	case guard.KindProjects:
		return a.projects.state != psNormal
	case guard.KindProject:
		return a.detail.state != tsNormal
	}
	return false
}

// escLeavesScreen reports whether esc, while editing, navigates back rather
// than being handled by the screen (which cancels its own inline form).
func (a App) escLeavesScreen() bool {
	switch a.kind {
	case guard.KindLogin, guard.KindRegister, guard.KindNewProject, guard.KindEditProject:
		return true
	}
	return false
}

func (a App) toggleTheme() App {
	a.theme = a.theme.Toggle()
	applyTheme(a.theme)
	if a.deps.Store != nil {
		if err := a.deps.Store.Save(store.KeyTheme, string(a.theme)); err != nil {
			a.deps.Logger.WithError(err).Warn("save theme")
		}
	}
	return a
}

func (a App) logout() (App, tea.Cmd) {
	if err := a.deps.Holder.Logout(); err != nil {
		a.deps.Logger.WithError(err).Warn("logout")
	}
	next, cmd := a.navigate(guard.RouteHome)
	next.notice = "logged out"
	return next, cmd
}

func (a App) quit() tea.Cmd {
	if a.cancel != nil {
		a.cancel()
	}
	return tea.Quit
}

func (a App) View() string {
	brand := titleStyle.Render("P R O  T A S K E R")
	right := ""
	if u := a.deps.Holder.CurrentUser(); u != nil {
		right = dimStyle.Render(u.DisplayName())
	}
	right += metaStyle.Render("  " + string(a.theme))
	gap := a.width - lipgloss.Width(brand) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	header := " " + brand + strings.Repeat(" ", gap) + right + "\n" +
		metaStyle.Render(" "+strings.Repeat("─", max(a.width-2, 10)))

	var body, help string
	if !a.ready {
		body = "\n " + dimStyle.Render("Loading…")
		help = " " + helpEntry("q", "quit")
	} else {
		body, help = a.screenView()
	}

	notice := ""
	if a.notice != "" {
		notice = " " + accentStyle.Render(a.notice)
	}

	body = strings.TrimRight(truncateToHeight(body, a.bodyHeight()), "\n")
	return header + "\n" + body + "\n" + notice + "\n" + help
}

func (a App) screenView() (string, string) {
	global := []string{helpEntry("t", "theme")}
	if a.deps.Holder.State() == session.Authenticated {
		global = append(global, helpEntry("L", "logout"))
	}
	global = append(global, helpEntry("q", "quit"))

	switch a.kind {
	case guard.KindHome:
		return a.home.View(), " " + helpBar(append(a.home.helpKeys(), global...)...)
	case guard.KindLogin:
		return a.login.View(), " " + helpBar(a.login.helpKeys()...)
	case guard.KindRegister:
		return a.register.View(), " " + helpBar(a.register.helpKeys()...)
	case guard.KindProjects:
		keys := a.projects.helpKeys()
		if a.projects.state == psNormal {
			keys = append(keys, global...)
		}
		return a.projects.View(), " " + helpBar(keys...)
	case guard.KindProject:
		keys := a.detail.helpKeys()
		if a.detail.state == tsNormal {
			keys = append(keys, helpEntry("esc", "back"))
			keys = append(keys, global...)
		}
		return a.detail.View(), " " + helpBar(keys...)
	case guard.KindNewProject, guard.KindEditProject:
		return a.form.View(), " " + helpBar(a.form.helpKeys()...)
	default:
		return a.notFound.View(), " " + helpBar(append([]string{helpEntry("esc", "home")}, global...)...)
	}
}
