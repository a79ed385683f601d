package pipeline

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/NielsdaWheelz/ppi/internal/config"
	"github.com/NielsdaWheelz/ppi/internal/errors"
)

// fixedTime returns a fixed time for deterministic state.
func fixedTime() time.Time {
	return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
}

func testOpts() Opts {
	return Opts{
		Skeleton:  config.SkeletonSpec{Name: "lib", Source: "https://example/repo.git", Branch: "main"},
		OutputDir: "/work/out",
	}
}

// mockStepService is a test implementation of StepService.
// Each method can be configured to succeed, fail with an error, or track calls.
type mockStepService struct {
	// Errors to return (nil = success)
	cloneErr        error
	checkoutErr     error
	detachOriginErr error
	findOldestErr   error
	squashErr       error

	// Optional hook run by every step before returning
	onStep func(step string, st *State)

	// Track which methods were called
	called []string
}

func (m *mockStepService) record(step string, st *State, err error) error {
	m.called = append(m.called, step)
	if m.onStep != nil {
		m.onStep(step, st)
	}
	return err
}

func (m *mockStepService) Clone(_ context.Context, st *State) error {
	return m.record(StepClone, st, m.cloneErr)
}

func (m *mockStepService) Checkout(_ context.Context, st *State) error {
	return m.record(StepCheckout, st, m.checkoutErr)
}

func (m *mockStepService) DetachOrigin(_ context.Context, st *State) error {
	return m.record(StepDetachOrigin, st, m.detachOriginErr)
}

func (m *mockStepService) FindOldest(_ context.Context, st *State) error {
	return m.record(StepFindOldest, st, m.findOldestErr)
}

func (m *mockStepService) Squash(_ context.Context, st *State) error {
	return m.record(StepSquash, st, m.squashErr)
}

// TestShortCircuitPreservesErrorCode tests that the pipeline short-circuits
// on first step error and preserves PpiError codes.
func TestShortCircuitPreservesErrorCode(t *testing.T) {
	mock := &mockStepService{
		cloneErr: errors.New(errors.ECommandNonZero, "git exited with status 128"),
	}

	p := New(mock)
	p.SetNowFunc(fixedTime)

	st, err := p.Run(context.Background(), testOpts())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if st == nil {
		t.Fatal("expected state to be returned even on error")
	}

	if code := errors.GetCode(err); code != errors.ECommandNonZero {
		t.Errorf("expected error code %s, got %s", errors.ECommandNonZero, code)
	}

	if !reflect.DeepEqual(mock.called, []string{StepClone}) {
		t.Errorf("called = %v, want only %s", mock.called, StepClone)
	}
}

// TestWrapsNonPpiError tests that non-PpiError errors are wrapped
// into E_INTERNAL with the step name in details.
func TestWrapsNonPpiError(t *testing.T) {
	mock := &mockStepService{
		detachOriginErr: stderrors.New("boom"),
	}

	_, err := New(mock).Run(context.Background(), testOpts())

	if code := errors.GetCode(err); code != errors.EInternal {
		t.Errorf("expected error code %s, got %s", errors.EInternal, code)
	}

	pe, ok := errors.AsPpiError(err)
	if !ok {
		t.Fatal("expected PpiError")
	}
	if pe.Msg != "internal error" {
		t.Errorf("expected message 'internal error', got %q", pe.Msg)
	}
	if pe.Cause == nil || pe.Cause.Error() != "boom" {
		t.Errorf("expected cause 'boom', got %v", pe.Cause)
	}
	if pe.Details["step"] != StepDetachOrigin {
		t.Errorf("expected step detail %q, got %q", StepDetachOrigin, pe.Details["step"])
	}
}

// TestStepsExecuteInOrder tests that all steps run in the fixed order.
func TestStepsExecuteInOrder(t *testing.T) {
	mock := &mockStepService{}

	st, err := New(mock).Run(context.Background(), testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st == nil {
		t.Fatal("expected state")
	}

	expected := []string{StepClone, StepCheckout, StepDetachOrigin, StepFindOldest, StepSquash}
	if !reflect.DeepEqual(mock.called, expected) {
		t.Errorf("called = %v, want %v", mock.called, expected)
	}
}

// TestMiddleStepFailure tests that a failure stops every later step.
func TestMiddleStepFailure(t *testing.T) {
	tests := []struct {
		name     string
		mock     *mockStepService
		wantStep []string
		wantCode errors.Code
	}{
		{
			name:     "checkout fails",
			mock:     &mockStepService{checkoutErr: errors.New(errors.ECommandNonZero, "no such branch")},
			wantStep: []string{StepClone, StepCheckout},
			wantCode: errors.ECommandNonZero,
		},
		{
			name:     "empty skeleton",
			mock:     &mockStepService{findOldestErr: errors.New(errors.EEmptySkeleton, "no commits")},
			wantStep: []string{StepClone, StepCheckout, StepDetachOrigin, StepFindOldest},
			wantCode: errors.EEmptySkeleton,
		},
		{
			name:     "squash fails",
			mock:     &mockStepService{squashErr: errors.New(errors.ECommandLaunch, "git not found")},
			wantStep: []string{StepClone, StepCheckout, StepDetachOrigin, StepFindOldest, StepSquash},
			wantCode: errors.ECommandLaunch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mock).Run(context.Background(), testOpts())
			if code := errors.GetCode(err); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if !reflect.DeepEqual(tt.mock.called, tt.wantStep) {
				t.Errorf("called = %v, want %v", tt.mock.called, tt.wantStep)
			}
		})
	}
}

// TestOptsPassedToState tests that opts are copied into the state seen by steps
// and that state written by one step is visible to the next.
func TestOptsPassedToState(t *testing.T) {
	oldest := plumbing.NewHash("0123456789abcdef0123456789abcdef01234567")
	var seenOldest plumbing.Hash
	var seen State

	mock := &mockStepService{
		onStep: func(step string, st *State) {
			switch step {
			case StepClone:
				seen = *st
			case StepFindOldest:
				st.Oldest = oldest
			case StepSquash:
				seenOldest = st.Oldest
			}
		},
	}

	p := New(mock)
	p.SetNowFunc(fixedTime)
	opts := testOpts()

	st, err := p.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.Skeleton != opts.Skeleton {
		t.Errorf("Skeleton = %+v, want %+v", seen.Skeleton, opts.Skeleton)
	}
	if seen.OutputDir != opts.OutputDir {
		t.Errorf("OutputDir = %q, want %q", seen.OutputDir, opts.OutputDir)
	}
	if !seen.StartedAt.Equal(fixedTime()) {
		t.Errorf("StartedAt = %v, want %v", seen.StartedAt, fixedTime())
	}
	if seenOldest != oldest {
		t.Errorf("Squash saw Oldest = %s, want %s", seenOldest, oldest)
	}
	if st.Oldest != oldest {
		t.Errorf("final Oldest = %s, want %s", st.Oldest, oldest)
	}
}

func TestCanceledContextStopsBeforeNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockStepService{
		onStep: func(step string, _ *State) {
			if step == StepCheckout {
				cancel()
			}
		},
	}

	_, err := New(mock).Run(ctx, testOpts())
	if code := errors.GetCode(err); code != errors.ECommandInterrupt {
		t.Fatalf("code = %s, want %s", code, errors.ECommandInterrupt)
	}
	pe, _ := errors.AsPpiError(err)
	if pe.Details["step"] != StepDetachOrigin {
		t.Errorf("step = %q, want %q", pe.Details["step"], StepDetachOrigin)
	}
	if !reflect.DeepEqual(mock.called, []string{StepClone, StepCheckout}) {
		t.Errorf("called = %v", mock.called)
	}
}

func TestWarningsAndElapsed(t *testing.T) {
	mock := &mockStepService{
		onStep: func(step string, st *State) {
			if step == StepClone {
				st.AddWarning(WarnEmbeddedFallback, "embedded clone failed; used git CLI")
			}
		},
	}

	p := New(mock)
	p.SetNowFunc(fixedTime)
	st, err := p.Run(context.Background(), testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Warnings) != 1 || st.Warnings[0].Code != WarnEmbeddedFallback {
		t.Errorf("Warnings = %+v", st.Warnings)
	}

	p.SetNowFunc(func() time.Time { return fixedTime().Add(3 * time.Second) })
	if got := p.Elapsed(st); got != 3*time.Second {
		t.Errorf("Elapsed = %v, want 3s", got)
	}
}
