package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/script"
)

const (
	groupSkeletons = "skeletons"
	groupScripts   = "scripts"
)

// addSubcommands registers one command per configured name, grouped by kind
// in help output.
func addSubcommands(root *cobra.Command, cfg config.Config, deps Deps, stdout, stderr io.Writer) {
	if len(cfg.Skeletons) > 0 {
		root.AddGroup(&cobra.Group{ID: groupSkeletons, Title: "Skeletons:"})
		for _, name := range cfg.SkeletonNames() {
			cmd := newSkeletonCommand(cfg.Skeletons[name], deps)
			cmd.GroupID = groupSkeletons
			root.AddCommand(cmd)
		}
	}
	if len(cfg.Scripts) > 0 {
		root.AddGroup(&cobra.Group{ID: groupScripts, Title: "Scripts:"})
		for _, name := range cfg.ScriptNames() {
			cmd := newScriptCommand(cfg.Scripts[name], deps, stdout, stderr)
			cmd.GroupID = groupScripts
			root.AddCommand(cmd)
		}
	}
}

func newSkeletonCommand(spec config.SkeletonSpec, deps Deps) *cobra.Command {
	long := fmt.Sprintf("Initialize a project in <output_dir> from the %s skeleton.\n\nsource: %s\n", spec.Name, spec.Source)
	if spec.Branch != "" {
		long += "branch: " + spec.Branch + "\n"
	}

	return &cobra.Command{
		Use:   spec.Name + " <output_dir>",
		Short: "Initialize a project from " + spec.Source,
		Long:  long,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.NewWithDetails(errors.EUsage, "too many arguments",
					map[string]string{"skeleton": spec.Name})
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				return errors.NewWithDetails(errors.EMissingOutputDir, "missing output directory",
					map[string]string{"skeleton": spec.Name, "hint": "usage: ppi " + spec.Name + " <output_dir>"})
			}
			_, err := deps.Provisioner.Provision(cmd.Context(), spec, args[0])
			return err
		},
	}
}

func newScriptCommand(spec config.ScriptSpec, deps Deps, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   spec.Name + " [args...]",
		Short: "Run " + spec.Path,
		Long:  fmt.Sprintf("Run %s with every remaining argument passed through unchanged.\n", spec.Path),
		// every argument, including --help, belongs to the script
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return script.Dispatch(cmd.Context(), deps.Runner, spec, args, script.Stdio{
				In:  deps.Stdin,
				Out: stdout,
				Err: stderr,
			})
		},
	}
}
