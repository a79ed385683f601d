// Package script runs configured script executables on behalf of the CLI.
package script

import (
	"context"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/exec"
)

// Stdio is the set of streams the child inherits.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Dispatch runs the script with args passed verbatim and the given stdio.
//
// A zero exit returns nil. A non-zero exit N returns errors.Exit(N) so the
// process exits with the child's status without printing anything. A child
// killed by a signal returns E_CHILD_EXIT_UNAVAILABLE.
//
// Cancelling ctx does not stop the child. The child shares the terminal's
// process group, receives Ctrl-C itself and decides its own exit status.
func Dispatch(ctx context.Context, cr exec.CommandRunner, spec config.ScriptSpec, args []string, stdio Stdio) error {
	log.Debug().Str("script", spec.Name).Str("path", spec.Path).Strs("args", args).Msg("running script")

	result, err := cr.Run(context.WithoutCancel(ctx), spec.Path, args, exec.RunOpts{
		Stdin:  stdio.In,
		Stdout: stdio.Out,
		Stderr: stdio.Err,
	})

	details := map[string]string{
		"script": spec.Name,
		"path":   spec.Path,
	}

	switch outcome := exec.Classify(result, err); outcome {
	case exec.Success:
		return nil
	case exec.NonZeroExit:
		log.Debug().Str("script", spec.Name).Int("exit_code", result.ExitCode).Msg("script exited non-zero")
		return errors.Exit(result.ExitCode)
	case exec.Signaled:
		return errors.NewWithDetails(errors.EChildExitUnavail,
			"script "+strconv.Quote(spec.Name)+" was terminated by a signal", details)
	default:
		return errors.WrapWithDetails(errors.ECommandLaunch,
			"failed to start script "+strconv.Quote(spec.Name), err, details)
	}
}
