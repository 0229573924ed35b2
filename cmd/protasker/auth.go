package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/validate"
	"github.com/naveenspark/protasker/pkg/client"
)

// alreadyLoggedIn reports (and prints) when the public-only guard would
// send the user elsewhere.
func (c *cli) alreadyLoggedIn(cmd *cobra.Command, route guard.Route) bool {
	if guard.PublicOnly(c.holder.State(), route).Action == guard.Render {
		return false
	}
	u := c.holder.CurrentUser()
	fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s. Run 'protasker logout' to switch accounts.\n", u.DisplayName())
	return true
}

func (c *cli) loginCmd() *cobra.Command {
	var req client.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.alreadyLoggedIn(cmd, guard.RouteLogin) {
				return nil
			}
			if err := ask(c.prompt, "email", "Email", &req.Email, false); err != nil {
				return err
			}
			if err := ask(c.prompt, "password", "Password", &req.Password, true); err != nil {
				return err
			}
			if err := validate.Login(req); err != nil {
				return errors.New(validate.Message(err))
			}

			resp, err := c.client.Login(commandContext(cmd), req)
			if err != nil {
				return c.apiError("login", err, "Invalid email or password")
			}
			if err := c.holder.Login(resp.User, resp.Token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			c.logger.Info("logged in", "user", resp.User.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", resp.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var req client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.alreadyLoggedIn(cmd, guard.RouteRegister) {
				return nil
			}
			if err := ask(c.prompt, "username", "Username", &req.Username, false); err != nil {
				return err
			}
			if err := ask(c.prompt, "email", "Email", &req.Email, false); err != nil {
				return err
			}
			if err := ask(c.prompt, "password", "Password", &req.Password, true); err != nil {
				return err
			}
			if err := validate.Register(req); err != nil {
				return errors.New(validate.Message(err))
			}

			resp, err := c.client.Register(commandContext(cmd), req)
			if err != nil {
				return c.apiError("register", err, "Registration failed")
			}
			if err := c.holder.Login(resp.User, resp.Token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			c.logger.Info("registered", "user", resp.User.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. You're logged in.\n", resp.User.DisplayName())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "first name")
	f.StringVar(&req.LastName, "last-name", "", "last name")
	f.StringVar(&req.Username, "username", "", "username")
	f.StringVar(&req.Email, "email", "", "account email")
	f.StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if c.holder.CurrentUser() == nil {
				fmt.Fprintln(out, "Already logged out.")
				return nil
			}
			if err := c.holder.Logout(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			c.logger.Info("logged out")
			printFarewell(out)
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := c.holder.CurrentUser()
			if u == nil {
				return errNotLoggedIn
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, u.DisplayName())
			if u.Email != "" && u.Email != u.DisplayName() {
				fmt.Fprintln(out, u.Email)
			}
			return nil
		},
	}
}

// commandContext returns the command's context, or Background when run
// outside ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
