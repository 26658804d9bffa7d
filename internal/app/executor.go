package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Commands that change local state run as Validate → Perform → Verify → Archive:
//
//  1. VALIDATE - check inputs and preconditions before any network or disk work
//  2. PERFORM  - do the work (fetch from a vendor)
//  3. VERIFY   - confirm the result is usable before anything is persisted
//  4. ARCHIVE  - persist the verified result (write the history file)
//
// A failure at any step stops the run, so the history file is never written
// with an unverified quote.

// ExecutionStep names a step of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs operations step by step, logging the step that failed.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation defines the steps of one command. Nil steps are skipped, except
// Perform, which is required.
type Operation[I, R any] struct {
	// Name identifies this operation for logging.
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (R, error)
	Verify   func(ctx context.Context, input I, result R) error
	Archive  func(ctx context.Context, input I, result R) error
}

// Execute runs op against input and returns the archived result. The first
// failing step ends the run and is reported as an *ExecutionError.
func Execute[I, R any](ctx context.Context, exec *Executor, op Operation[I, R], input I) (R, error) {
	var (
		zero   R
		result R
	)

	if op.Perform == nil {
		return zero, &ExecutionError{Step: StepPerform, Message: op.Name, Cause: errors.New("no perform step")}
	}

	logger := exec.logger.With(slog.String("operation", op.Name))
	start := time.Now()

	steps := []struct {
		step    ExecutionStep
		message string
		run     func() error
	}{
		{StepValidate, "", func() error {
			if op.Validate == nil {
				return nil
			}

			return op.Validate(ctx, input)
		}},
		{StepPerform, "", func() (err error) {
			result, err = op.Perform(ctx, input)
			return err
		}},
		{StepVerify, "rejected result", func() error {
			if op.Verify == nil {
				return nil
			}

			return op.Verify(ctx, input, result)
		}},
		{StepArchive, "", func() error {
			if op.Archive == nil {
				return nil
			}

			return op.Archive(ctx, input, result)
		}},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			level := slog.LevelDebug
			if s.step == StepVerify {
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "step failed", slog.String("step", string(s.step)), slog.Any("error", err))

			return zero, &ExecutionError{Step: s.step, Message: s.message, Cause: err}
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
