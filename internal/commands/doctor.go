package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
	ppiexec "github.com/NielsdaWheelz/ppi/internal/exec"
	"github.com/NielsdaWheelz/ppi/internal/fs"
)

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	ConfigPath string
	GitVersion string

	Skeletons []string
	Scripts   []ScriptCheck
}

// ScriptCheck is the resolved location of one configured script.
type ScriptCheck struct {
	Name string
	Path string
}

// Doctor verifies that git is installed and every configured script can be
// launched, then prints the stable key: value report.
// The config must already be loaded and validated.
func Doctor(ctx context.Context, cr ppiexec.CommandRunner, fsys fs.FS, cfg config.Config, stdout io.Writer) error {
	gitVersion, err := checkGit(ctx, cr)
	if err != nil {
		return err
	}

	report := DoctorReport{
		ConfigPath: cfg.Path,
		GitVersion: gitVersion,
		Skeletons:  cfg.SkeletonNames(),
	}

	for _, name := range cfg.ScriptNames() {
		spec := cfg.Scripts[name]
		resolved, err := checkScript(fsys, spec)
		if err != nil {
			return err
		}
		report.Scripts = append(report.Scripts, ScriptCheck{Name: name, Path: resolved})
	}

	writeDoctorOutput(stdout, report)
	return nil
}

// checkGit verifies git is installed and returns its version.
func checkGit(ctx context.Context, cr ppiexec.CommandRunner) (string, error) {
	result, err := cr.Run(ctx, "git", []string{"--version"}, ppiexec.RunOpts{})
	if err != nil {
		return "", errors.New(errors.EGitNotInstalled, "git is not installed or not on PATH")
	}
	if result.ExitCode != 0 {
		return "", errors.New(errors.EGitNotInstalled, "git --version failed")
	}
	return strings.TrimSpace(result.Stdout), nil
}

// checkScript verifies a script exists and is executable.
// Paths without a separator are looked up on PATH.
// Returns the resolved path.
func checkScript(fsys fs.FS, spec config.ScriptSpec) (string, error) {
	details := map[string]string{"script": spec.Name, "path": spec.Path}

	if !strings.ContainsRune(spec.Path, filepath.Separator) {
		resolved, err := exec.LookPath(spec.Path)
		if err != nil {
			return "", errors.NewWithDetails(errors.EScriptNotFound, "script not found on PATH: "+spec.Path, details)
		}
		return resolved, nil
	}

	info, err := fsys.Stat(spec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewWithDetails(errors.EScriptNotFound, "script not found: "+spec.Path, details)
		}
		return "", errors.WrapWithDetails(errors.EScriptNotFound, "failed to check script "+spec.Name, err, details)
	}

	// Stat follows symlinks, so the mode check is on the target
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		details["hint"] = "run 'chmod +x " + spec.Path + "'"
		return "", errors.NewWithDetails(errors.EScriptNotExecutable, "script is not executable: "+spec.Path, details)
	}

	return spec.Path, nil
}

// writeDoctorOutput writes the stable key: value output.
func writeDoctorOutput(w io.Writer, r DoctorReport) {
	fmt.Fprintf(w, "config_path: %s\n", r.ConfigPath)
	fmt.Fprintf(w, "git_version: %s\n", r.GitVersion)

	fmt.Fprintf(w, "skeletons: %s\n", joinOrNone(r.Skeletons))
	names := make([]string, 0, len(r.Scripts))
	for _, s := range r.Scripts {
		names = append(names, s.Name)
	}
	fmt.Fprintf(w, "scripts: %s\n", joinOrNone(names))
	for _, s := range r.Scripts {
		fmt.Fprintf(w, "script_%s: %s\n", s.Name, s.Path)
	}

	fmt.Fprintln(w, "status: ok")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
