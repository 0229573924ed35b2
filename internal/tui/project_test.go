package tui

import (
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/config"
	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/pkg/domain"
)

func testScreen() screen {
	return screen{ctx: context.Background(), gen: 1, width: 80, height: 30}
}

// newLoadedProjectModel returns a details screen with its initial load applied.
func newLoadedProjectModel(t *testing.T, e *testEnv, id string) projectModel {
	t.Helper()
	m := newProjectModel(testScreen(), e.deps, id)
	m, _ = m.Update(m.Init()())
	if m.loading {
		t.Fatal("expected load to finish")
	}
	return m
}

func TestProjectDetailsLoadsProjectAndTasks(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "ship it")
	e.api.AddTask(p.ID, "Write docs", domain.StatusToDo)
	e.api.AddTask(p.ID, "Tag release", domain.StatusDone)

	m := newLoadedProjectModel(t, e, p.ID)

	if m.project == nil || m.project.Name != "Launch" {
		t.Fatalf("expected project loaded, got %+v", m.project)
	}
	if len(m.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(m.tasks))
	}
	view := m.View()
	for _, want := range []string{"Launch", "Write docs", "Tag release", "[Done]"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view, got:\n%s", want, view)
		}
	}
}

func TestProjectDetailsShowsAPIError(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	m := newLoadedProjectModel(t, e, "missing")
	if m.err != "Project not found" {
		t.Errorf("expected API message, got %q", m.err)
	}
}

func TestProjectDetailsEmptyTasks(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")

	m := newLoadedProjectModel(t, e, p.ID)
	if !strings.Contains(m.View(), "No tasks found for this project") {
		t.Errorf("expected empty state, got:\n%s", m.View())
	}
}

func TestStatusChangeWaitsForResponse(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	task := e.api.AddTask(p.ID, "Write docs", domain.StatusToDo)

	m := newLoadedProjectModel(t, e, p.ID)
	m, cmd := m.Update(key("s"))
	if cmd == nil {
		t.Fatal("expected status update command")
	}
	if m.tasks[0].Status != domain.StatusToDo {
		t.Errorf("status changed before the response: %q", m.tasks[0].Status)
	}
	if !m.updating[task.ID] {
		t.Error("expected task marked as updating")
	}

	// A second press while the first is in flight sends nothing.
	m, again := m.Update(key("s"))
	if again != nil {
		t.Error("expected no second request while one is in flight")
	}

	m, _ = m.Update(cmd())
	if m.tasks[0].Status != domain.StatusInProgress {
		t.Errorf("expected %q after response, got %q", domain.StatusInProgress, m.tasks[0].Status)
	}
	if m.updating[task.ID] {
		t.Error("expected updating flag cleared")
	}
	if n := e.api.Count(http.MethodPut, "/api/tasks/"+task.ID); n != 1 {
		t.Errorf("expected 1 PUT, got %d", n)
	}
}

func TestStatusChangeFailureKeepsTask(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	task := e.api.AddTask(p.ID, "Write docs", domain.StatusToDo)

	m := newLoadedProjectModel(t, e, p.ID)
	e.api.Fail(http.MethodPut, "/api/tasks/"+task.ID, http.StatusInternalServerError, "database down")

	m, cmd := m.Update(key("3"))
	m, _ = m.Update(cmd())

	if m.tasks[0].Status != domain.StatusToDo {
		t.Errorf("expected status unchanged after failure, got %q", m.tasks[0].Status)
	}
	if !strings.Contains(m.statusMsg, "database down") {
		t.Errorf("expected failure message, got %q", m.statusMsg)
	}
}

func TestDeleteTaskRemovesOnlyThatTask(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	a := e.api.AddTask(p.ID, "first", domain.StatusToDo)
	b := e.api.AddTask(p.ID, "second", domain.StatusToDo)
	c := e.api.AddTask(p.ID, "third", domain.StatusToDo)

	m := newLoadedProjectModel(t, e, p.ID)
	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("d"))
	if m.state != tsDeleting {
		t.Fatal("expected delete confirmation")
	}
	if !strings.Contains(m.View(), "Are you sure") {
		t.Errorf("expected confirmation prompt, got:\n%s", m.View())
	}

	m, cmd := m.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	m, again := m.Update(key("y"))
	if again != nil {
		t.Error("expected no second delete while one is in flight")
	}

	m, _ = m.Update(cmd())

	if n := e.api.Count(http.MethodDelete, "/api/tasks/"+b.ID); n != 1 {
		t.Errorf("expected exactly 1 DELETE, got %d", n)
	}
	if len(m.tasks) != 2 || m.tasks[0].ID != a.ID || m.tasks[1].ID != c.ID {
		t.Errorf("expected [%s %s], got %+v", a.ID, c.ID, m.tasks)
	}
	if m.state != tsNormal {
		t.Errorf("expected normal state, got %d", m.state)
	}
}

func TestDeleteTaskCancelled(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	e.api.AddTask(p.ID, "only", domain.StatusToDo)

	m := newLoadedProjectModel(t, e, p.ID)
	m, _ = m.Update(key("d"))
	m, cmd := m.Update(key("n"))
	if cmd != nil {
		t.Error("expected no command on cancel")
	}
	if len(m.tasks) != 1 || m.state != tsNormal {
		t.Errorf("cancel changed state: tasks=%d state=%d", len(m.tasks), m.state)
	}
	if e.api.Count(http.MethodDelete, "/api/tasks/"+m.tasks[0].ID) != 0 {
		t.Error("DELETE sent after cancel")
	}
}

func TestAddTask(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")

	m := newLoadedProjectModel(t, e, p.ID)
	m, _ = m.Update(key("a"))
	if m.state != tsAdding {
		t.Fatal("expected add form")
	}

	// Description is required: the first submit is blocked locally.
	m.taskForm.setValue(taskTitle, "Write docs")
	m, cmd := m.Update(key("ctrl+s"))
	if cmd != nil || m.formErr == "" {
		t.Fatalf("expected validation error, got cmd=%v err=%q", cmd != nil, m.formErr)
	}

	m.taskForm.setValue(taskDescription, "all of them")
	m.taskForm.setValue(taskStatusField, string(domain.StatusInProgress))
	m, cmd = m.Update(key("ctrl+s"))
	if cmd == nil {
		t.Fatal("expected create command")
	}
	m, _ = m.Update(cmd())

	if m.state != tsNormal {
		t.Errorf("expected form closed, got state %d", m.state)
	}
	if len(m.tasks) != 1 || m.tasks[0].Title != "Write docs" || m.tasks[0].Status != domain.StatusInProgress {
		t.Errorf("unexpected tasks: %+v", m.tasks)
	}
}

func TestEditTask(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	e.api.AddTask(p.ID, "Write docs", domain.StatusToDo)

	m := newLoadedProjectModel(t, e, p.ID)
	m, _ = m.Update(key("enter"))
	if m.state != tsEditing {
		t.Fatal("expected edit form")
	}
	if got := m.taskForm.value(taskTitle); got != "Write docs" {
		t.Errorf("expected prefilled title, got %q", got)
	}

	m.taskForm.setValue(taskTitle, "Write better docs")
	m.taskForm.setValue(taskDescription, "tutorial first")
	m, cmd := m.Update(key("ctrl+s"))
	if cmd == nil {
		t.Fatal("expected update command")
	}
	m, _ = m.Update(cmd())

	if m.state != tsNormal {
		t.Errorf("expected form closed, got %d", m.state)
	}
	if m.tasks[0].Title != "Write better docs" {
		t.Errorf("expected server copy, got %+v", m.tasks[0])
	}
}

func TestEscCancelsTaskForm(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")

	m := newLoadedProjectModel(t, e, p.ID)
	m, _ = m.Update(key("a"))
	m, _ = m.Update(key("esc"))
	if m.state != tsNormal {
		t.Errorf("expected esc to close the form, got %d", m.state)
	}
}

func TestOpenInBrowserNeedsWebURL(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")

	m := newLoadedProjectModel(t, e, p.ID)
	m, cmd := m.Update(key("w"))
	if cmd != nil {
		t.Error("expected no browser command without web_url")
	}
	if m.statusMsg != noWebURLMessage {
		t.Errorf("expected hint, got %q", m.statusMsg)
	}

	m.cfg = &config.Config{WebURL: "https://app.example.com"}
	if got := m.cfg.ProjectWebURL(p.ID); got != "https://app.example.com/projects/"+p.ID {
		t.Errorf("ProjectWebURL = %q", got)
	}
}

func TestEditProjectKeyNavigates(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")

	m := newLoadedProjectModel(t, e, p.ID)
	_, cmd := m.Update(key("e"))
	msg, ok := cmd().(navigateMsg)
	if !ok || msg.to != guard.EditProjectRoute(p.ID) {
		t.Errorf("expected navigate to edit route, got %#v", msg)
	}
}

// -- dashboard --

func newLoadedProjectsModel(t *testing.T, e *testEnv) projectsModel {
	t.Helper()
	m := newProjectsModel(testScreen(), e.deps)
	m, _ = m.Update(m.Init()())
	return m
}

func TestDashboardStates(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	m := newProjectsModel(testScreen(), e.deps)
	if !strings.Contains(m.View(), "Loading projects") {
		t.Errorf("expected loading state, got:\n%s", m.View())
	}

	m = newLoadedProjectsModel(t, e)
	if !strings.Contains(m.View(), "no projects yet") {
		t.Errorf("expected empty state, got:\n%s", m.View())
	}

	e.api.AddProject(e.user, "Launch", "ship it")
	e.api.AddProject(e.user, "Docs", "")
	m = newLoadedProjectsModel(t, e)
	view := m.View()
	if !strings.Contains(view, "Launch") || !strings.Contains(view, "Docs") {
		t.Errorf("expected populated list, got:\n%s", view)
	}

	e.api.Fail(http.MethodGet, "/api/projects", http.StatusBadGateway, "")
	m = newLoadedProjectsModel(t, e)
	if m.err != projectsFallback {
		t.Errorf("expected fallback %q, got %q", projectsFallback, m.err)
	}
}

func TestDashboardDeleteProject(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	keep := e.api.AddProject(e.user, "Keep", "")
	drop := e.api.AddProject(e.user, "Drop", "")

	m := newLoadedProjectsModel(t, e)
	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("d"))
	m, cmd := m.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	m, _ = m.Update(cmd())

	if len(m.projects) != 1 || m.projects[0].ID != keep.ID {
		t.Errorf("expected only %s left, got %+v", keep.ID, m.projects)
	}
	if n := e.api.Count(http.MethodDelete, "/api/projects/"+drop.ID); n != 1 {
		t.Errorf("expected 1 DELETE, got %d", n)
	}
}

func TestDashboardKeysNavigate(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "")
	m := newLoadedProjectsModel(t, e)

	tests := []struct {
		key  string
		want guard.Route
	}{
		{"enter", guard.ProjectRoute(p.ID)},
		{"e", guard.EditProjectRoute(p.ID)},
		{"n", guard.RouteNewProject},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			_, cmd := m.Update(key(tc.key))
			if cmd == nil {
				t.Fatal("expected command")
			}
			msg, ok := cmd().(navigateMsg)
			if !ok || msg.to != tc.want {
				t.Errorf("expected navigate to %q, got %#v", tc.want, msg)
			}
		})
	}
}

// -- project form --

func TestProjectFormCreate(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	m := newProjectFormModel(testScreen(), e.deps, "")
	m, cmd := m.Update(key("ctrl+s"))
	if cmd != nil || m.err == "" {
		t.Fatal("expected validation error for empty name")
	}

	m.form.setValue(projectName, "Launch")
	m, cmd = m.Update(key("ctrl+s"))
	if cmd == nil {
		t.Fatal("expected create command")
	}
	_, cmd = m.Update(cmd())
	msg, ok := cmd().(navigateMsg)
	if !ok {
		t.Fatalf("expected navigation after create, got %T", msg)
	}
	if msg.to.ProjectID() == "" {
		t.Errorf("expected project route, got %q", msg.to)
	}
}

func TestProjectFormEdit(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	p := e.api.AddProject(e.user, "Launch", "old")

	m := newProjectFormModel(testScreen(), e.deps, p.ID)
	m, _ = m.Update(m.Init()())
	if got := m.form.value(projectName); got != "Launch" {
		t.Fatalf("expected prefilled name, got %q", got)
	}

	m.form.setValue(projectDescription, "new")
	m, cmd := m.Update(key("ctrl+s"))
	_, cmd = m.Update(cmd())
	msg, ok := cmd().(navigateMsg)
	if !ok || msg.to != guard.RouteProjects {
		t.Errorf("expected navigate to projects, got %#v", msg)
	}
}

func TestProjectFormEditMissingProject(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	m := newProjectFormModel(testScreen(), e.deps, "missing")
	m, _ = m.Update(m.Init()())
	if m.loadErr == "" {
		t.Fatal("expected load error")
	}
	if _, cmd := m.Update(key("ctrl+s")); cmd != nil {
		t.Error("expected submit disabled after load error")
	}
}

func TestFormFocusCycles(t *testing.T) {
	f := newTaskForm()
	if f.focus != taskTitle {
		t.Fatalf("expected focus on title, got %d", f.focus)
	}
	f, _ = f.update(key("tab"))
	f, _ = f.update(key("tab"))
	if f.focus != taskStatusField || !f.onLast() {
		t.Fatalf("expected focus on status, got %d", f.focus)
	}
	f, _ = f.update(key("l"))
	if got := f.value(taskStatusField); got != string(domain.StatusInProgress) {
		t.Errorf("expected In Progress after l, got %q", got)
	}
	f, _ = f.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if f.focus != taskDescription {
		t.Errorf("expected shift+tab back to description, got %d", f.focus)
	}
}
