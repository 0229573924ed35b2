package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
	"github.com/naveenspark/protasker/pkg/domain"
)

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and manage projects",
	}
	cmd.AddCommand(
		c.projectsListCmd(),
		c.projectsShowCmd(),
		c.projectsCreateCmd(),
		c.projectsUpdateCmd(),
		c.projectsDeleteCmd(),
	)
	return cmd
}

func (c *cli) projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireAuth(guard.RouteProjects); err != nil {
				return err
			}
			projects, err := c.client.ListProjects(commandContext(cmd))
			if err != nil {
				return c.apiError("projects list", err, "Failed to load projects")
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects yet. Create one with 'protasker projects create'.")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{p.ID, p.Name, truncate(oneLine(p.Description), 48), formatDate(p.UpdatedAt)})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "NAME", "DESCRIPTION", "UPDATED"}, rows))
			return nil
		},
	}
}

func (c *cli) projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := c.requireAuth(guard.ProjectRoute(id)); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			p, err := c.client.GetProject(ctx, id)
			if err != nil {
				return c.apiError("projects show", err, "Failed to load project or tasks")
			}
			tasks, err := c.client.ListTasks(ctx, id)
			if err != nil {
				return c.apiError("projects show", err, "Failed to load project or tasks")
			}
			out := cmd.OutOrStdout()
			printProject(out, p)
			fmt.Fprintln(out)
			printTasks(out, tasks)
			return nil
		},
	}
}

func (c *cli) projectsCreateCmd() *cobra.Command {
	var req client.ProjectRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireAuth(guard.RouteNewProject); err != nil {
				return err
			}
			if err := ask(c.prompt, "name", "Project name", &req.Name, false); err != nil {
				return err
			}
			if err := validate.Project(req); err != nil {
				return errors.New(validate.Message(err))
			}
			p, err := c.client.CreateProject(commandContext(cmd), req)
			if err != nil {
				return c.apiError("projects create", err, "Failed to create project")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "project name")
	cmd.Flags().StringVar(&req.Description, "description", "", "project description")
	return cmd
}

func (c *cli) projectsUpdateCmd() *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := c.requireAuth(guard.EditProjectRoute(id)); err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("description") {
				return errors.New("nothing to update: pass --name and/or --description")
			}
			ctx := commandContext(cmd)
			current, err := c.client.GetProject(ctx, id)
			if err != nil {
				return c.apiError("projects update", err, "Failed to load data")
			}
			req := client.ProjectRequest{Name: current.Name, Description: current.Description}
			if flags.Changed("name") {
				req.Name = name
			}
			if flags.Changed("description") {
				req.Description = description
			}
			if err := validate.Project(req); err != nil {
				return errors.New(validate.Message(err))
			}
			p, err := c.client.UpdateProject(ctx, id, req)
			if err != nil {
				return c.apiError("projects update", err, "Update failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func (c *cli) projectsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := c.requireAuth(guard.ProjectRoute(id)); err != nil {
				return err
			}
			if ok, err := c.confirm(yes, "Delete project "+id+" and all of its tasks?"); err != nil || !ok {
				return err
			}
			if err := c.client.DeleteProject(commandContext(cmd), id); err != nil {
				return c.apiError("projects delete", err, "Failed to delete project")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm returns true when yes is set or the user agrees. Without a
// terminal it refuses rather than guessing.
func (c *cli) confirm(yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := c.prompt.Confirm(question)
	if errors.Is(err, errNotInteractive) {
		return false, errors.New("refusing to delete without --yes")
	}
	return ok, err
}

func printProject(w io.Writer, p *domain.Project) {
	fmt.Fprintf(w, "%s  %s\n", headingStyle.Render(p.Name), dimStyle.Render(p.ID))
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintln(w, dimStyle.Render("created "+formatDate(p.CreatedAt)))
	}
}
