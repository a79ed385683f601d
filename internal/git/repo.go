// Package git provides the repository operations used to provision skeletons:
// an embedded client backed by go-git and git CLI commands run through
// exec.CommandRunner.
package git

import (
	"context"
	"strconv"
	"strings"

	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/exec"
)

// CloneCLI clones source into dest with `git clone`.
// dest must be absolute; the command runs without a working directory.
func CloneCLI(ctx context.Context, cr exec.CommandRunner, source, dest string) error {
	_, err := exec.Check(ctx, cr, "git", []string{"clone", source, dest}, exec.RunOpts{})
	return err
}

// Checkout runs `git checkout <branch>` inside repoDir. For a branch that only
// exists on the remote, git creates a local tracking branch.
func Checkout(ctx context.Context, cr exec.CommandRunner, repoDir, branch string) error {
	_, err := exec.Check(ctx, cr, "git", []string{"checkout", branch}, exec.RunOpts{Dir: repoDir})
	return err
}

// ResetMixed runs `git reset --mixed <rev>` inside repoDir. The working tree is
// kept; the index is reset to rev.
func ResetMixed(ctx context.Context, cr exec.CommandRunner, repoDir, rev string) error {
	_, err := exec.Check(ctx, cr, "git", []string{"reset", "--mixed", rev}, exec.RunOpts{Dir: repoDir})
	return err
}

// AddAll runs `git add --all` inside repoDir.
func AddAll(ctx context.Context, cr exec.CommandRunner, repoDir string) error {
	_, err := exec.Check(ctx, cr, "git", []string{"add", "--all"}, exec.RunOpts{Dir: repoDir})
	return err
}

// CommitAmend runs `git commit --amend -am <message>` inside repoDir.
func CommitAmend(ctx context.Context, cr exec.CommandRunner, repoDir, message string) error {
	_, err := exec.Check(ctx, cr, "git", []string{"commit", "--amend", "-am", message}, exec.RunOpts{Dir: repoDir})
	return err
}

// CountCommits returns the number of commits reachable from HEAD using
// `git rev-list --count HEAD`.
func CountCommits(ctx context.Context, cr exec.CommandRunner, repoDir string) (int, error) {
	result, err := exec.Check(ctx, cr, "git", []string{"rev-list", "--count", "HEAD"}, exec.RunOpts{Dir: repoDir})
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil {
		return 0, errors.Wrap(errors.EInternal, "git rev-list returned unexpected output", err)
	}
	return n, nil
}
