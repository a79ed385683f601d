package exec

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/ppi/internal/errors"
)

// Outcome classifies how an external command finished.
type Outcome int

const (
	// Success means the command exited with status 0.
	Success Outcome = iota
	// NonZeroExit means the command ran and exited with a non-zero status.
	NonZeroExit
	// Signaled means the command was killed and has no exit code.
	Signaled
	// LaunchFailed means the command never ran (not found, permission denied).
	LaunchFailed
	// Interrupted means the context was canceled or timed out.
	Interrupted
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NonZeroExit:
		return "non_zero_exit"
	case Signaled:
		return "signaled"
	case LaunchFailed:
		return "launch_failed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Classify maps the return values of CommandRunner.Run to an Outcome.
func Classify(result CmdResult, err error) Outcome {
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return Interrupted
		}
		return LaunchFailed
	}
	if result.Signaled {
		return Signaled
	}
	if result.ExitCode != 0 {
		return NonZeroExit
	}
	return Success
}

// Check runs a command and turns any outcome other than Success into a
// PpiError carrying the command line, directory, exit code and stderr.
func Check(ctx context.Context, cr CommandRunner, name string, args []string, opts RunOpts) (CmdResult, error) {
	result, err := cr.Run(ctx, name, args, opts)
	details := map[string]string{
		"command": CommandLine(name, args),
		"dir":     opts.Dir,
	}

	switch Classify(result, err) {
	case Success:
		return result, nil
	case NonZeroExit:
		details["exit_code"] = strconv.Itoa(result.ExitCode)
		details["stderr"] = strings.TrimSpace(result.Stderr)
		return result, errors.NewWithDetails(errors.ECommandNonZero, name+" exited with status "+strconv.Itoa(result.ExitCode), details)
	case Signaled:
		return result, errors.NewWithDetails(errors.EChildExitUnavail, name+" was terminated by a signal", details)
	case Interrupted:
		return result, errors.WrapWithDetails(errors.ECommandInterrupt, name+" was interrupted", err, details)
	default:
		return result, errors.WrapWithDetails(errors.ECommandLaunch, "failed to start "+name, err, details)
	}
}

// CommandLine renders name and args for diagnostics, quoting any token the
// shell would split or expand.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// shellQuote returns s unchanged when it is a plain word, otherwise a single
// POSIX shell token using the single-quote strategy.
// example: a'b -> 'a'"'"'b'
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
