// Package cli builds the ppi command surface from the loaded configuration
// and dispatches to skeleton provisioning or script execution.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/ppi/internal/commands"
	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/exec"
	"github.com/NielsdaWheelz/ppi/internal/fs"
	"github.com/NielsdaWheelz/ppi/internal/logging"
	"github.com/NielsdaWheelz/ppi/internal/paths"
	"github.com/NielsdaWheelz/ppi/internal/pipeline"
	"github.com/NielsdaWheelz/ppi/internal/skeleton"
	"github.com/NielsdaWheelz/ppi/internal/version"
)

const longHelp = `ppi - project scaffolding launcher

Each configured skeleton becomes a subcommand that initializes a new project
from a template repository; each configured script becomes a subcommand that
runs an executable with the remaining arguments.

config: %s
`

// Provisioner materializes a skeleton into an output directory.
type Provisioner interface {
	Provision(ctx context.Context, spec config.SkeletonSpec, outputDir string) (*pipeline.State, error)
}

// Deps holds the collaborators the CLI dispatches to.
type Deps struct {
	Runner      exec.CommandRunner
	FS          fs.FS
	Provisioner Provisioner
	Env         paths.Env
	HomeDir     string
	Stdin       io.Reader
}

// DefaultDeps returns the production collaborators.
func DefaultDeps() (Deps, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Deps{}, errors.Wrap(errors.EInternal, "failed to get home directory", err)
	}
	return Deps{
		Runner:      exec.NewRealRunner(),
		FS:          fs.NewRealFS(),
		Provisioner: skeleton.New(),
		Env:         paths.OSEnv{},
		HomeDir:     home,
		Stdin:       os.Stdin,
	}, nil
}

// Run loads the configuration, builds the command surface and executes the
// invocation in args (without the program name).
// Returns an error if the command fails; the caller should print the error and exit.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps, err := DefaultDeps()
	if err != nil {
		return err
	}
	return RunWithDeps(ctx, args, stdout, stderr, deps)
}

// RunWithDeps is Run with injected collaborators.
func RunWithDeps(ctx context.Context, args []string, stdout, stderr io.Writer, deps Deps) error {
	configPath := paths.ResolveConfigFile(deps.Env, deps.HomeDir)

	// Overlap and malformed documents abort before any command is built.
	// A missing file still builds the root so --help, --version and
	// --init-config keep working.
	cfg, loadErr := config.LoadAndValidate(deps.FS, configPath, deps.HomeDir)
	if loadErr != nil && errors.GetCode(loadErr) != errors.EConfigMissing {
		return loadErr
	}
	log.Debug().Str("path", configPath).Bool("loaded", loadErr == nil).Msg("resolved config")

	root := NewRootCommand(cfg, configPath, loadErr, deps, stdout, stderr)
	// cobra falls back to os.Args when args is nil
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	err = asUsageError(err)
	if errors.GetCode(err) == errors.EUsage && cmd != nil {
		cmd.SetOut(stdout)
		_ = cmd.Help()
	}
	return err
}

// asUsageError wraps errors raised by cobra itself (flag parsing while
// traversing, argument validation) as E_USAGE. Typed errors pass through.
func asUsageError(err error) error {
	if err == nil {
		return nil
	}
	var es *errors.ExitStatus
	if _, ok := errors.AsPpiError(err); ok || stderrors.As(err, &es) {
		return err
	}
	return errors.Wrap(errors.EUsage, "invalid arguments", err)
}

// rootFlags are bound to the root command's local flags.
type rootFlags struct {
	version    bool
	initConfig bool
	force      bool
	doctor     bool
	list       bool
	json       bool
	verbose    bool
}

// NewRootCommand builds the root command with one subcommand per configured
// skeleton and script, sorted by name. loadErr is the error from loading the
// config (nil on success); when set, the root has no subcommands and every
// invocation other than --help, --version and --init-config returns it.
func NewRootCommand(cfg config.Config, configPath string, loadErr error, deps Deps, stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:              "ppi",
		Short:            "Project scaffolding launcher",
		Long:             fmt.Sprintf(longHelp, configPath),
		TraverseChildren: true,
		SilenceErrors:    true,
		SilenceUsage:     true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if flags.verbose {
				logging.SetVerbose()
			}
			return nil
		},
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return nil
			}
			if loadErr != nil {
				return loadErr
			}
			details := map[string]string{"command": args[0]}
			if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
				details["hint"] = "did you mean " + strings.Join(suggestions, " or ") + "?"
			}
			return errors.NewWithDetails(errors.EUsage, fmt.Sprintf("unknown command %q", args[0]), details)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case flags.version:
				fmt.Fprintf(stdout, "ppi %s\n", version.Version)
				return nil
			case flags.initConfig:
				return commands.InitConfig(deps.FS, configPath, commands.InitConfigOpts{Force: flags.force}, stdout)
			case loadErr != nil:
				return loadErr
			case flags.doctor:
				return commands.Doctor(cmd.Context(), deps.Runner, deps.FS, cfg, stdout)
			case flags.list:
				return commands.List(cfg, commands.ListOpts{JSON: flags.json}, stdout)
			default:
				return cmd.Help()
			}
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Wrap(errors.EUsage, "invalid flags", err)
	})

	f := root.Flags()
	f.BoolVarP(&flags.version, "version", "v", false, "show version")
	f.BoolVar(&flags.initConfig, "init-config", false, "write a starter config file")
	f.BoolVar(&flags.force, "force", false, "with --init-config, overwrite an existing config file")
	f.BoolVar(&flags.doctor, "doctor", false, "check git and every configured script")
	f.BoolVar(&flags.list, "list", false, "list configured subcommands")
	f.BoolVar(&flags.json, "json", false, "with --list, print JSON")
	f.BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	if loadErr == nil {
		addSubcommands(root, cfg, deps, stdout, stderr)
	}

	return root
}
