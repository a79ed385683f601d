// Package skeleton provides the concrete implementation of pipeline.StepService.
// It wires the embedded git client, the git CLI and the destination guard
// together to turn a skeleton repository into a fresh single-commit project.
package skeleton

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
	"github.com/NielsdaWheelz/ppi/internal/exec"
	"github.com/NielsdaWheelz/ppi/internal/fs"
	"github.com/NielsdaWheelz/ppi/internal/git"
	"github.com/NielsdaWheelz/ppi/internal/paths"
	"github.com/NielsdaWheelz/ppi/internal/pipeline"
)

const (
	// EnvGitTimeout bounds each git operation (Go duration syntax).
	EnvGitTimeout = "PPI_GIT_TIMEOUT"

	// DefaultGitTimeout applies when EnvGitTimeout is unset or invalid.
	DefaultGitTimeout = 10 * time.Minute
)

// CommitMessage returns the message of the single commit left after squashing.
func CommitMessage(name string) string {
	return fmt.Sprintf("initialized from %s skeleton", name)
}

// Service is the production implementation of pipeline.StepService.
type Service struct {
	cr      exec.CommandRunner
	fsys    fs.FS
	client  git.Client
	timeout time.Duration

	guard *destGuard
}

// New creates a new Service with production dependencies.
func New() *Service {
	return &Service{
		cr:      exec.NewRealRunner(),
		fsys:    fs.NewRealFS(),
		client:  git.NewGoGitClient(),
		timeout: GitTimeout(paths.OSEnv{}),
	}
}

// NewWithDeps creates a new Service with injected dependencies for testing.
func NewWithDeps(cr exec.CommandRunner, fsys fs.FS, client git.Client) *Service {
	return &Service{
		cr:      cr,
		fsys:    fsys,
		client:  client,
		timeout: DefaultGitTimeout,
	}
}

// SetTimeout overrides the per-operation git timeout.
func (s *Service) SetTimeout(d time.Duration) {
	s.timeout = d
}

// GitTimeout reads EnvGitTimeout, falling back to DefaultGitTimeout.
func GitTimeout(env paths.Env) time.Duration {
	raw := env.Get(EnvGitTimeout)
	if raw == "" {
		return DefaultGitTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("value", raw).Str("default", DefaultGitTimeout.String()).Msg("ignoring invalid " + EnvGitTimeout)
		return DefaultGitTimeout
	}
	return d
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Provision materializes spec into outputDir.
//
// The output directory must be absent or empty. If any step fails, the
// directory is restored to how it was found and the step's error is returned.
func (s *Service) Provision(ctx context.Context, spec config.SkeletonSpec, outputDir string) (*pipeline.State, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.NewWithDetails(errors.EMissingOutputDir, "missing output directory",
			map[string]string{"skeleton": spec.Name})
	}
	dest, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.EInternal, "failed to resolve output directory", err,
			map[string]string{"path": outputDir})
	}

	guard, err := acquireDest(s.fsys, dest)
	if err != nil {
		return nil, err
	}
	s.guard = guard
	defer func() { s.guard = nil }()

	log.Info().Str("skeleton", spec.Name).Str("source", spec.Source).Str("dest", dest).Msg("provisioning skeleton")

	p := pipeline.New(s)
	st, err := p.Run(ctx, pipeline.Opts{Skeleton: spec, OutputDir: dest})
	if err != nil {
		if cerr := guard.cleanup(); cerr != nil {
			log.Warn().Err(cerr).Str("dest", dest).Msg("failed to clean up output directory")
		}
		return st, err
	}
	guard.release()

	log.Info().
		Str("skeleton", spec.Name).
		Str("dest", dest).
		Bool("fallback", st.UsedFallback).
		Dur("elapsed", p.Elapsed(st)).
		Msg("skeleton initialized")
	return st, nil
}

// Clone clones the skeleton with the embedded client, falling back to the
// git CLI when the embedded clone fails.
func (s *Service) Clone(ctx context.Context, st *pipeline.State) error {
	src := st.Skeleton.Source

	cctx, cancel := s.opContext(ctx)
	repo, err := s.client.Clone(cctx, src, st.OutputDir)
	cancel()
	if err == nil {
		st.Repo = repo
		log.Debug().Str("source", src).Msg("cloned with embedded client")
		return nil
	}
	if ctx.Err() != nil {
		return errors.Wrap(errors.ECommandInterrupt, "clone interrupted", ctx.Err())
	}

	log.Warn().Err(err).Str("source", src).Msg("embedded clone failed, retrying with git CLI")
	st.AddWarning(pipeline.WarnEmbeddedFallback, err.Error())

	if s.guard != nil {
		if rerr := s.guard.reset(); rerr != nil {
			return errors.WrapWithDetails(errors.EInternal, "failed to reset output directory", rerr,
				map[string]string{"path": st.OutputDir})
		}
	}

	cctx, cancel = s.opContext(ctx)
	defer cancel()
	if err := git.CloneCLI(cctx, s.cr, src, st.OutputDir); err != nil {
		return err
	}

	repo, err = s.client.Open(st.OutputDir)
	if err != nil {
		return err
	}
	st.Repo = repo
	st.UsedFallback = true
	return nil
}

// Checkout switches to the configured branch. An empty branch keeps the
// repository's default branch.
func (s *Service) Checkout(ctx context.Context, st *pipeline.State) error {
	branch := st.Skeleton.Branch
	if branch == "" {
		log.Debug().Msg("no branch configured, staying on default branch")
		return nil
	}

	cctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := git.Checkout(cctx, s.cr, st.OutputDir, branch); err != nil {
		return err
	}
	log.Debug().Str("branch", branch).Msg("checked out branch")
	return nil
}

// DetachOrigin deletes the origin remote and its remote-tracking refs.
func (s *Service) DetachOrigin(_ context.Context, st *pipeline.State) error {
	if err := git.DeleteRemote(st.Repo, git.OriginRemote); err != nil {
		return err
	}
	log.Debug().Str("remote", git.OriginRemote).Msg("removed remote")
	return nil
}

// FindOldest records the oldest commit reachable from HEAD.
func (s *Service) FindOldest(_ context.Context, st *pipeline.State) error {
	oldest, err := git.OldestCommit(st.Repo)
	if err != nil {
		return err
	}
	st.Oldest = oldest
	log.Debug().Str("commit", oldest.String()).Msg("found oldest commit")
	return nil
}

// Squash rewrites history into a single commit holding the current tree.
func (s *Service) Squash(ctx context.Context, st *pipeline.State) error {
	cctx, cancel := s.opContext(ctx)
	defer cancel()

	dir := st.OutputDir
	if err := git.ResetMixed(cctx, s.cr, dir, st.Oldest.String()); err != nil {
		return err
	}
	if err := git.AddAll(cctx, s.cr, dir); err != nil {
		return err
	}
	if err := git.CommitAmend(cctx, s.cr, dir, CommitMessage(st.Skeleton.Name)); err != nil {
		return err
	}

	n, err := git.CountCommits(cctx, s.cr, dir)
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.NewWithDetails(errors.EInternal, "history squash left more than one commit",
			map[string]string{"commits": fmt.Sprint(n), "dir": dir})
	}
	return nil
}
