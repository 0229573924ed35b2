package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and manage the tasks of a project",
	}
	cmd.AddCommand(
		c.tasksListCmd(),
		c.tasksAddCmd(),
		c.tasksStatusCmd(),
		c.tasksDeleteCmd(),
	)
	return cmd
}

func (c *cli) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <project-id>",
		Aliases: []string{"ls"},
		Short:   "List a project's tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(guard.ProjectRoute(args[0])); err != nil {
				return err
			}
			tasks, err := c.client.ListTasks(commandContext(cmd), args[0])
			if err != nil {
				return c.apiError("tasks list", err, "Failed to load project or tasks")
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
}

func (c *cli) tasksAddCmd() *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			if err := c.requireAuth(guard.ProjectRoute(projectID)); err != nil {
				return err
			}
			if err := ask(c.prompt, "title", "Title", &title, false); err != nil {
				return err
			}
			if err := ask(c.prompt, "description", "Description", &description, false); err != nil {
				return err
			}
			st, ok := domain.ParseTaskStatus(status)
			if !ok {
				return invalidStatus(status)
			}
			req := client.TaskRequest{Title: title, Description: description, Status: st}
			if err := validate.Task(req); err != nil {
				return errors.New(validate.Message(err))
			}
			t, err := c.client.CreateTask(commandContext(cmd), projectID, req)
			if err != nil {
				return c.apiError("tasks add", err, "Failed to create task")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s (%s) [%s]\n", t.Title, t.ID, t.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&status, "status", string(domain.StatusToDo), "initial status: todo, in-progress or done")
	return cmd
}

func (c *cli) tasksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> [todo|in-progress|done]",
		Short: "Change a task's status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(guard.RouteProjects); err != nil {
				return err
			}
			var raw string
			if len(args) == 2 {
				raw = args[1]
			} else if err := c.prompt.Select("Status", statusNames(), &raw); err != nil {
				if errors.Is(err, errNotInteractive) {
					return errors.New("missing status: todo, in-progress or done")
				}
				return err
			}
			st, ok := domain.ParseTaskStatus(raw)
			if !ok {
				return invalidStatus(raw)
			}
			t, err := c.client.UpdateTaskStatus(commandContext(cmd), args[0], st)
			if err != nil {
				return c.apiError("tasks status", err, "Update failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.Title, t.Status)
			return nil
		},
	}
}

func (c *cli) tasksDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := c.requireAuth(guard.RouteProjects); err != nil {
				return err
			}
			if ok, err := c.confirm(yes, "Are you sure you want to delete this task?"); err != nil || !ok {
				return err
			}
			if err := c.client.DeleteTask(commandContext(cmd), id); err != nil {
				return c.apiError("tasks delete", err, "Failed to delete task")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func statusNames() []string {
	names := make([]string, len(domain.TaskStatuses))
	for i, s := range domain.TaskStatuses {
		names[i] = string(s)
	}
	return names
}

func invalidStatus(s string) error {
	return fmt.Errorf("unknown status %q: use %s", s, strings.Join(statusNames(), ", "))
}

func printTasks(w io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found for this project.")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{t.ID, string(t.Status), truncate(t.Title, 40), truncate(oneLine(t.Description), 48)})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "STATUS", "TITLE", "DESCRIPTION"}, rows))
}
