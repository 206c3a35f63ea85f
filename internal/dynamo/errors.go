package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNoConverge indicates the adaptive integrator could not meet its
	// tolerance within the internal step budget. Treated as a fatal
	// configuration error, never a silent approximation.
	ErrNoConverge = errors.New("dynamo: adaptive step failed to converge within budget")

	// ErrStepTooSmall indicates the adaptive step size fell below minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive step below minimum")

	// ErrDegenerate indicates a non-finite value appeared during
	// integration. The affected trial is excluded from aggregates.
	ErrDegenerate = errors.New("dynamo: non-finite state (NaN or Inf)")
)

// ConfigError is a static configuration problem detected before any trial
// executes. It aborts the whole run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// StepError wraps an integration fault with the step it occurred on.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }
