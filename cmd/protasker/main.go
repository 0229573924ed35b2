package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naveenspark/protasker/internal/browser"
	"github.com/naveenspark/protasker/internal/config"
	"github.com/naveenspark/protasker/internal/guard"
	"github.com/naveenspark/protasker/internal/log"
	"github.com/naveenspark/protasker/internal/session"
	"github.com/naveenspark/protasker/internal/store"
	"github.com/naveenspark/protasker/internal/tui"
	"github.com/naveenspark/protasker/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// openURL launches the browser; tests swap it out.
var openURL = browser.Open

var (
	errNotLoggedIn    = errors.New("not logged in - run 'protasker login' first")
	errSessionExpired = errors.New("session expired - run 'protasker login' again")
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runWith(&cli{prompt: huhPrompter{}}, args, stdout, stderr)
}

func runWith(c *cli, args []string, stdout, stderr io.Writer) error {
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

// cli carries the flags and the per-process wiring shared by every command.
// Wiring happens once, in setup, so a single session holder serves the run.
type cli struct {
	configDir string
	apiURL    string
	debug     bool
	ephemeral bool

	cfg     *config.Config
	logFile *os.File
	logger  *log.Logger
	store   store.Store
	holder  *session.Holder
	client  *client.Client
	prompt  prompter
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "protasker",
		Short: "Projects and tasks from the terminal",
		Long: `protasker is a terminal client for the Pro-Tasker API.
Run it without arguments for the interactive UI, or use the subcommands
to script projects and tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			return c.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configDir, "config-dir", "", "config directory (default $XDG_CONFIG_HOME/protasker)")
	flags.StringVar(&c.apiURL, "api-url", "", "API base URL including /api (overrides config.yaml)")
	flags.BoolVar(&c.debug, "debug", false, "log at debug level")
	flags.BoolVar(&c.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.projectsCmd(),
		c.tasksCmd(),
		c.openCmd(),
		versionCmd(),
	)
	return root
}

// skipSetup marks commands that run without config, logging or a session.
const skipSetup = "skip-setup"

func (c *cli) setup() error {
	cfg, err := config.Load(c.configDir)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = strings.TrimRight(c.apiURL, "/")
	}
	cfg.Debug = c.debug
	c.cfg = cfg

	f, err := log.OpenFile(cfg.LogPath())
	if err != nil {
		return err
	}
	c.logFile = f
	level := log.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	c.logger = log.New(log.Config{Level: level, Format: log.Format(cfg.LogFormat), Output: f})

	if c.ephemeral {
		c.store = store.NewMemoryStore()
	} else {
		c.store = store.NewFileStore(cfg.DataDir())
	}
	c.holder = session.New(c.store)
	if err := c.holder.Initialize(); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	c.client = client.New(cfg.APIURL, c.store,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(c.logger),
	)
	c.logger.Debug("started", "version", version, "api", cfg.APIURL, "session", c.holder.State().String())
	return nil
}

func (c *cli) close() {
	if c.logFile != nil {
		c.logFile.Close() //nolint:errcheck
	}
}

func (c *cli) runTUI() error {
	app := tui.NewApp(tui.Deps{
		Holder: c.holder,
		Client: c.client,
		Store:  c.store,
		Config: c.cfg,
		Logger: c.logger,
	}, guard.RouteHome)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// requireAuth applies the same guard the UI uses for protected screens.
func (c *cli) requireAuth(route guard.Route) error {
	if guard.RequireAuth(c.holder.State(), route).Action != guard.Render {
		return errNotLoggedIn
	}
	return nil
}

// apiError turns a client error into what the command prints.
func (c *cli) apiError(op string, err error, fallback string) error {
	c.logger.WithError(err).Warn("request failed", "op", op)
	switch {
	case client.IsUnauthorized(err):
		return errSessionExpired
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: request timed out", op)
	}
	return errors.New(client.UserMessage(err, fallback))
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <project-id>",
		Short: "Open a project in the web app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := c.cfg.ProjectWebURL(args[0])
			if url == "" {
				return errors.New("set web_url in config.yaml or PROTASKER_WEB_URL to open projects")
			}
			if err := openURL(url); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Visit this URL manually:\n  %s\n", url)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
