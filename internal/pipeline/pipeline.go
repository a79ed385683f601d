// Package pipeline provides the skeleton provisioning orchestrator.
// The pipeline executes steps in a fixed order, short-circuits on first error,
// and preserves PpiError codes.
package pipeline

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
)

// Opts contains the inputs for provisioning one skeleton.
type Opts struct {
	// Skeleton is the skeleton to provision.
	Skeleton config.SkeletonSpec

	// OutputDir is the absolute destination directory.
	OutputDir string
}

// Warning represents a non-fatal warning emitted during pipeline execution.
type Warning struct {
	// Code is a stable warning identifier.
	Code string

	// Message is a human-readable description.
	Message string
}

// Warning codes.
const (
	// WarnEmbeddedFallback is recorded when the embedded clone failed and the
	// git CLI was used instead.
	WarnEmbeddedFallback = "W_EMBEDDED_FALLBACK"
)

// State accumulates state during one provisioning run.
// Fields are populated by steps as they execute.
type State struct {
	// From opts (copied at start)
	Skeleton  config.SkeletonSpec
	OutputDir string

	StartedAt time.Time

	// Populated by Clone
	Repo         *gogit.Repository
	UsedFallback bool

	// Populated by FindOldest
	Oldest plumbing.Hash

	// Accumulated warnings (non-fatal)
	Warnings []Warning
}

// AddWarning records a non-fatal warning.
func (st *State) AddWarning(code, msg string) {
	st.Warnings = append(st.Warnings, Warning{Code: code, Message: msg})
}

// StepService defines the step implementations for the provisioning pipeline.
// Each method corresponds to a pipeline step executed in order.
// Implementations are injected to allow testing without real git or fs.
type StepService interface {
	// Clone obtains the repository at st.OutputDir and sets st.Repo.
	Clone(ctx context.Context, st *State) error

	// Checkout switches to the configured branch.
	Checkout(ctx context.Context, st *State) error

	// DetachOrigin removes the origin remote and its tracking refs.
	DetachOrigin(ctx context.Context, st *State) error

	// FindOldest sets st.Oldest to the oldest commit reachable from HEAD.
	FindOldest(ctx context.Context, st *State) error

	// Squash collapses history into one commit rooted at st.Oldest.
	Squash(ctx context.Context, st *State) error
}

// Pipeline orchestrates the execution of provisioning steps in a fixed order.
type Pipeline struct {
	svc     StepService
	nowFunc func() time.Time
}

// New creates a pipeline with the given service implementation.
func New(svc StepService) *Pipeline {
	return &Pipeline{
		svc:     svc,
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the time source for testing.
func (p *Pipeline) SetNowFunc(fn func() time.Time) {
	p.nowFunc = fn
}

// Run executes the pipeline steps in fixed order:
//  1. Clone
//  2. Checkout
//  3. DetachOrigin
//  4. FindOldest
//  5. Squash
//
// Behavior:
//   - Executes steps in order; short-circuits on first error
//   - If error is *PpiError, preserves code/message/details exactly
//   - If error is not *PpiError, wraps into *PpiError with:
//     Code = E_INTERNAL, Message = "internal error", Cause = original error,
//     Details = map[string]string{"step": "<StepName>"}
//   - Returns the state even on error
func (p *Pipeline) Run(ctx context.Context, opts Opts) (*State, error) {
	st := &State{
		Skeleton:  opts.Skeleton,
		OutputDir: opts.OutputDir,
		StartedAt: p.nowFunc(),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *State) error
	}{
		{StepClone, p.svc.Clone},
		{StepCheckout, p.svc.Checkout},
		{StepDetachOrigin, p.svc.DetachOrigin},
		{StepFindOldest, p.svc.FindOldest},
		{StepSquash, p.svc.Squash},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return st, errors.WrapWithDetails(errors.ECommandInterrupt, "provisioning interrupted", err,
				map[string]string{"step": step.name})
		}
		if err := step.fn(ctx, st); err != nil {
			return st, wrapStepError(err, step.name)
		}
	}

	return st, nil
}

// Elapsed returns the time since the run started.
func (p *Pipeline) Elapsed(st *State) time.Duration {
	return p.nowFunc().Sub(st.StartedAt)
}

// wrapStepError ensures the error is a *PpiError.
// If already *PpiError, returns it unchanged.
// Otherwise wraps it with E_INTERNAL and step name in details.
func wrapStepError(err error, stepName string) error {
	if err == nil {
		return nil
	}

	if _, ok := errors.AsPpiError(err); ok {
		return err
	}

	return errors.WrapWithDetails(
		errors.EInternal,
		"internal error",
		err,
		map[string]string{"step": stepName},
	)
}

// Step name constants.
const (
	StepClone        = "Clone"
	StepCheckout     = "Checkout"
	StepDetachOrigin = "DetachOrigin"
	StepFindOldest   = "FindOldest"
	StepSquash       = "Squash"
)
