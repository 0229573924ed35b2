package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/protasker/internal/browser"
	"github.com/naveenspark/protasker/internal/config"
	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

// taskState is the state machine for the task list on the details screen.
type taskState int

const (
	tsNormal   taskState = iota
	tsAdding             // new task form
	tsEditing            // editing the selected task
	tsDeleting           // delete confirmation
	tsBusy               // delete request in flight
)

const (
	detailFallback  = "Failed to load project or tasks"
	taskFallback    = "Failed to create task"
	updateFallback  = "Update failed"
	deleteFallback  = "Failed to delete task"
	noWebURLMessage = "set web_url in config.yaml to open projects in the browser"
)

const (
	taskTitle = iota
	taskDescription
	taskStatusField
)

// -- messages --

type detailLoadedMsg struct {
	tagged
	project *domain.Project
	tasks   []domain.Task
	err     error
}

type taskCreatedMsg struct {
	tagged
	task *domain.Task
	err  error
}

type taskUpdatedMsg struct {
	tagged
	id       string
	task     *domain.Task
	err      error
	fromForm bool
}

type taskDeletedMsg struct {
	tagged
	id  string
	err error
}

type openedMsg struct {
	tagged
	err error
}

// -- model --

type projectModel struct {
	screen
	client    *client.Client
	cfg       *config.Config
	id        string
	project   *domain.Project
	tasks     []domain.Task
	loading   bool
	err       string
	cursor    int
	state     taskState
	taskForm  form
	formErr   string
	saving    bool
	updating  map[string]bool // task id -> status PUT in flight
	statusMsg string
}

func newProjectModel(sc screen, d Deps, id string) projectModel {
	return projectModel{
		screen:   sc,
		client:   d.Client,
		cfg:      d.Config,
		id:       id,
		loading:  true,
		updating: make(map[string]bool),
	}
}

func (m projectModel) Init() tea.Cmd {
	return m.load()
}

// load fetches the project and its tasks concurrently and reports them together.
func (m projectModel) load() tea.Cmd {
	c, ctx, tag, id := m.client, m.ctx, m.tag(), m.id
	return func() tea.Msg {
		var (
			wg       sync.WaitGroup
			tasks    []domain.Task
			tasksErr error
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks, tasksErr = c.ListTasks(ctx, id)
		}()
		project, err := c.GetProject(ctx, id)
		wg.Wait()
		if err == nil {
			err = tasksErr
		}
		if err != nil {
			return detailLoadedMsg{tagged: tag, err: err}
		}
		return detailLoadedMsg{tagged: tag, project: project, tasks: tasks}
	}
}

func (m projectModel) selected() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m projectModel) Update(msg tea.Msg) (projectModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case detailLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.UserMessage(msg.err, detailFallback)
			return m, nil
		}
		m.err = ""
		m.project = msg.project
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) {
			m.cursor = 0
		}
		return m, nil

	case taskCreatedMsg:
		m.saving = false
		if msg.err != nil {
			m.formErr = client.UserMessage(msg.err, taskFallback)
			return m, nil
		}
		m.tasks = append(m.tasks, *msg.task)
		m.cursor = len(m.tasks) - 1
		m.state = tsNormal
		m.statusMsg = "task added"
		return m, nil

	case taskUpdatedMsg:
		delete(m.updating, msg.id)
		if msg.fromForm && m.state == tsEditing {
			m.saving = false
			if msg.err != nil {
				m.formErr = client.UserMessage(msg.err, updateFallback)
				return m, nil
			}
			m.state = tsNormal
		}
		if msg.err != nil {
			m.statusMsg = "update failed: " + client.UserMessage(msg.err, updateFallback)
			return m, nil
		}
		m.replaceTask(msg.id, *msg.task)
		m.statusMsg = "saved"
		return m, nil

	case taskDeletedMsg:
		m.state = tsNormal
		if msg.err != nil {
			m.statusMsg = "delete failed: " + client.UserMessage(msg.err, deleteFallback)
			return m, nil
		}
		m.removeTask(msg.id)
		m.statusMsg = "task deleted"
		return m, nil

	case copyMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied " + msg.what
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("open failed: %v", msg.err)
		} else {
			m.statusMsg = "opened in browser"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// replaceTask swaps in the server's copy of a task. Tasks are only ever
// changed here, from a response, never ahead of one.
func (m *projectModel) replaceTask(id string, t domain.Task) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i] = t
			return
		}
	}
}

func (m *projectModel) removeTask(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.tasks) && m.cursor > 0 {
		m.cursor = len(m.tasks) - 1
	}
}

func (m projectModel) handleKey(msg tea.KeyMsg) (projectModel, tea.Cmd) {
	switch m.state {
	case tsAdding, tsEditing:
		return m.handleKeyForm(msg)
	case tsDeleting:
		return m.handleKeyDeleting(msg)
	case tsBusy:
		return m, nil
	}

	m.statusMsg = ""
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		if m.project == nil {
			return m, nil
		}
		m.state = tsAdding
		m.formErr = ""
		m.taskForm = newTaskForm()
		return m, textinput.Blink
	case "enter":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.state = tsEditing
		m.formErr = ""
		m.taskForm = newTaskForm()
		m.taskForm.setValue(taskTitle, t.Title)
		m.taskForm.setValue(taskDescription, t.Description)
		m.taskForm.setValue(taskStatusField, string(t.Status))
		return m, textinput.Blink
	case "s":
		if t, ok := m.selected(); ok {
			return m.setStatus(t, t.Status.Next())
		}
	case "1", "2", "3":
		if t, ok := m.selected(); ok {
			return m.setStatus(t, domain.TaskStatuses[msg.String()[0]-'1'])
		}
	case "d":
		if _, ok := m.selected(); ok {
			m.state = tsDeleting
		}
	case "e":
		return m, navigate(guard.EditProjectRoute(m.id))
	case "c":
		return m, copyID(m.screen, m.id)
	case "w":
		return m.openInBrowser()
	case "r":
		m.loading = true
		m.err = ""
		return m, m.load()
	}
	return m, nil
}

// setStatus issues the PUT and leaves the list untouched until it answers.
func (m projectModel) setStatus(t domain.Task, status domain.TaskStatus) (projectModel, tea.Cmd) {
	if m.updating[t.ID] || t.Status == status {
		return m, nil
	}
	m.updating[t.ID] = true
	c, ctx, tag, id := m.client, m.ctx, m.tag(), t.ID
	return m, func() tea.Msg {
		updated, err := c.UpdateTaskStatus(ctx, id, status)
		return taskUpdatedMsg{tagged: tag, id: id, task: updated, err: err}
	}
}

func (m projectModel) openInBrowser() (projectModel, tea.Cmd) {
	url := ""
	if m.cfg != nil {
		url = m.cfg.ProjectWebURL(m.id)
	}
	if url == "" {
		m.statusMsg = noWebURLMessage
		return m, nil
	}
	tag := m.tag()
	return m, func() tea.Msg {
		return openedMsg{tagged: tag, err: browser.Open(url)}
	}
}

func (m projectModel) handleKeyForm(msg tea.KeyMsg) (projectModel, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.state = tsNormal
		m.formErr = ""
		return m, nil
	case "ctrl+s":
		return m.submitTask()
	case "enter":
		if m.taskForm.onLast() {
			return m.submitTask()
		}
		m.taskForm = m.taskForm.next()
		return m, nil
	}
	var cmd tea.Cmd
	m.taskForm, cmd = m.taskForm.update(msg)
	return m, cmd
}

func (m projectModel) submitTask() (projectModel, tea.Cmd) {
	req := client.TaskRequest{
		Title:       m.taskForm.value(taskTitle),
		Description: m.taskForm.value(taskDescription),
		Status:      domain.TaskStatus(m.taskForm.value(taskStatusField)),
	}
	if err := validate.Task(req); err != nil {
		m.formErr = validate.Message(err)
		return m, nil
	}
	m.formErr = ""
	m.saving = true
	c, ctx, tag, pid := m.client, m.ctx, m.tag(), m.id

	if m.state == tsAdding {
		return m, func() tea.Msg {
			created, err := c.CreateTask(ctx, pid, req)
			return taskCreatedMsg{tagged: tag, task: created, err: err}
		}
	}

	t, ok := m.selected()
	if !ok {
		m.saving = false
		m.state = tsNormal
		return m, nil
	}
	id := t.ID
	m.updating[id] = true
	return m, func() tea.Msg {
		updated, err := c.UpdateTask(ctx, id, req)
		return taskUpdatedMsg{tagged: tag, id: id, task: updated, err: err, fromForm: true}
	}
}

func (m projectModel) handleKeyDeleting(msg tea.KeyMsg) (projectModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		t, ok := m.selected()
		if !ok {
			m.state = tsNormal
			return m, nil
		}
		m.state = tsBusy
		c, ctx, tag, id := m.client, m.ctx, m.tag(), t.ID
		return m, func() tea.Msg {
			err := c.DeleteTask(ctx, id)
			return taskDeletedMsg{tagged: tag, id: id, err: err}
		}
	case "n", "N", "esc":
		m.state = tsNormal
	}
	return m, nil
}

func newTaskForm() form {
	statuses := make([]string, len(domain.TaskStatuses))
	for i, s := range domain.TaskStatuses {
		statuses[i] = string(s)
	}
	return newForm(
		newField("title", "what needs doing", 200),
		newField("description", "details", maxInputLen),
		choiceField("status", statuses),
	)
}

// helpKeys returns context-sensitive help text based on the current state.
func (m projectModel) helpKeys() []string {
	switch m.state {
	case tsAdding, tsEditing:
		return []string{helpEntry("tab", "next"), helpEntry("h/l", "status"), helpEntry("enter", "save"), helpEntry("esc", "cancel")}
	case tsDeleting:
		return []string{helpEntry("y", "confirm"), helpEntry("n", "cancel")}
	case tsBusy:
		return []string{dimStyle.Render("deleting…")}
	}
	return []string{
		helpEntry("j/k", "nav"),
		helpEntry("a", "add"),
		helpEntry("s", "status"),
		helpEntry("enter", "edit task"),
		helpEntry("d", "delete"),
		helpEntry("e", "edit project"),
		helpEntry("w", "web"),
	}
}

func (m projectModel) View() string {
	var sb strings.Builder

	switch {
	case m.loading:
		sb.WriteString("\n   " + dimStyle.Render("Loading project…") + "\n")
		return sb.String()
	case m.err != "":
		sb.WriteString("\n   " + errorStyle.Render(m.err) + "\n")
		sb.WriteString("   " + metaStyle.Render("press r to retry · esc for projects") + "\n")
		return sb.String()
	case m.project == nil:
		sb.WriteString("\n   " + dimStyle.Render("Project not found.") + "\n")
		return sb.String()
	}

	p := m.project
	sb.WriteString("\n  " + selectedStyle.Render(p.Name) + "  " + metaStyle.Render("created "+formatDate(p.CreatedAt)) + "\n")
	if p.Description != "" {
		sb.WriteString("  " + dimStyle.Render(p.Description) + "\n")
	}

	sb.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("── TASKS %d ──", len(m.tasks))) + "\n")

	if m.state == tsAdding {
		sb.WriteString(m.viewForm("new task"))
	}

	if len(m.tasks) == 0 && m.state != tsAdding {
		sb.WriteString("   " + dimStyle.Render("No tasks found for this project. Press a to add one.") + "\n")
	}

	for i, t := range m.tasks {
		active := i == m.cursor

		if active && m.state == tsEditing {
			sb.WriteString(m.viewForm("edit task"))
			continue
		}

		cursor := "  "
		title := normalStyle.Render(truncStr(t.Title, 40))
		if t.Status == domain.StatusDone {
			title = metaStyle.Strikethrough(true).Render(truncStr(t.Title, 40))
		}
		if active {
			cursor = accentStyle.Render("▸") + " "
			if t.Status != domain.StatusDone {
				title = selectedStyle.Render(truncStr(t.Title, 40))
			}
		}
		badge := StatusBadge(t.Status)
		if m.updating[t.ID] {
			badge += " " + metaStyle.Render("saving…")
		}
		fmt.Fprintf(&sb, " %s%s  %s\n", cursor, title, badge)

		if active && m.state == tsDeleting {
			sb.WriteString("     " + errorStyle.Render("Are you sure you want to delete this task? ") +
				accentStyle.Render("y") + dimStyle.Render("/n") + "\n")
			continue
		}
		if t.Description != "" {
			sb.WriteString("     " + dimStyle.Render(truncStr(oneLine(t.Description), 70)) + "\n")
		}
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + accentStyle.Render(m.statusMsg) + "\n")
	}
	return sb.String()
}

func (m projectModel) viewForm(title string) string {
	var sb strings.Builder
	sb.WriteString("   " + inputPromptStyle.Render(title) + "\n")
	sb.WriteString(m.taskForm.view())
	switch {
	case m.saving:
		sb.WriteString("     " + dimStyle.Render("saving…") + "\n")
	case m.formErr != "":
		sb.WriteString("     " + errorStyle.Render(m.formErr) + "\n")
	}
	return sb.String()
}
