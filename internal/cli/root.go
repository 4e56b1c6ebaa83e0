// Package cli is the summit command tree. With no subcommand it opens the
// interactive list; every subcommand is scriptable and exits 0 on success,
// 1 on error and 2 on usage mistakes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/config"
	"github.com/idilsaglam/summit/internal/logging"
	"github.com/idilsaglam/summit/internal/tui"
	"github.com/idilsaglam/summit/internal/ui"
)

// env is the state shared by every subcommand after flag parsing.
type env struct {
	envFile  string
	theme    string
	logLevel string
	noColor  bool

	cfg config.Config
	log *logrus.Logger
	now func() time.Time
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error { return usageError{fmt.Sprintf(format, a...)} }

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var u usageError
	if errors.As(err, &u) {
		return 2
	}
	return 1
}

// usageArgs wraps a cobra argument validator so its errors count as usage.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err.Error()}
		}
		return nil
	}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{now: time.Now})
}

func newRootCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "summit",
		Short:         "Daily goals, a mountain to climb, and a streak to keep",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		Example: strings.TrimSpace(`
  # Open the interactive list
  summit

  # Script it
  summit add "Run 5k" --time 07:30 --tag health --email
  summit add "Stretch" --recurring daily
  summit ls
  summit done 2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd, func(a *app.App) error {
				return tui.Run(cmd.Context(), a)
			})
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err.Error()}
	})
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return e.setup(cmd)
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&e.envFile, "env-file", ".env", "Optional .env file with SUMMIT_* settings")
	pf.StringVar(&e.theme, "theme", "", "Color theme (classic|neon|mono)")
	pf.StringVar(&e.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.BoolVar(&e.noColor, "no-color", false, "Disable colors")

	cmd.AddCommand(newAddCmd(e))
	cmd.AddCommand(newListCmd(e))
	cmd.AddCommand(newDoneCmd(e))
	cmd.AddCommand(newRemoveCmd(e))
	cmd.AddCommand(newEditCmd(e))
	cmd.AddCommand(newTagCmd(e))
	cmd.AddCommand(newTagsCmd(e))
	cmd.AddCommand(newStreakCmd(e))
	cmd.AddCommand(newHistoryCmd(e))
	cmd.AddCommand(newEmailCmd(e))
	cmd.AddCommand(newRemindCmd(e))
	cmd.AddCommand(newServeCmd(e))
	cmd.AddCommand(newConfigCmd(e))
	return cmd
}

// setup resolves configuration, theme and logger once flags are parsed.
func (e *env) setup(cmd *cobra.Command) error {
	ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(e.envFile)
	if err != nil {
		return err
	}
	if e.theme != "" {
		cfg.Theme = e.theme
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	e.cfg = cfg

	ui.SetTheme(cfg.Theme)
	if e.noColor || os.Getenv("NO_COLOR") != "" {
		ui.SetColorForcing(false, true)
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return usageError{err.Error()}
	}
	e.log = log
	return nil
}

// withApp opens the store for the duration of fn.
func (e *env) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Open(ctx, e.cfg, e.log, e.now)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			e.log.WithError(cerr).Warn("close store")
		}
	}()
	return fn(a)
}

// Execute runs the command tree on args and returns the exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, NewRootCmd(), args, stdout, stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		ui.SetOutput(stdout, stderr)
		ui.Fail(err.Error())
		if ExitCode(err) == 2 {
			fmt.Fprintln(stderr, ui.Current().Muted.Render("Hint: run `summit --help` for usage"))
		}
	}
	return ExitCode(err)
}
