package sim

// Status is the terminal state of one trial.
type Status string

const (
	// StatusCompleted means a stopping condition (time horizon or track
	// length) was reached normally.
	StatusCompleted Status = "completed"
	// StatusFailed means the modeled physical failure condition fired
	// (propulsion loss). It is valid data, not a software error.
	StatusFailed Status = "failed"
	// StatusDegenerate means a non-finite value appeared during
	// integration; the trial is excluded from aggregates.
	StatusDegenerate Status = "degenerate"
	// StatusAborted means the adaptive integrator could not converge;
	// the trial is excluded from aggregates and the fault reported.
	StatusAborted Status = "aborted"
)

// Summary is the fixed-shape scalar outcome of one trial, produced exactly
// once when the trial ends and immutable thereafter. Which fields are
// meaningful depends on the scenario; Field gives named access for
// aggregation.
type Summary struct {
	Trial  int    `json:"trial"`
	Status Status `json:"status"`

	// Burn profile outcomes.
	BurnTime     float64 `json:"burn_time,omitempty"`
	PeakThrust   float64 `json:"peak_thrust,omitempty"`
	TotalImpulse float64 `json:"total_impulse,omitempty"`

	// Track race outcomes.
	Finished   bool    `json:"finished,omitempty"`
	FinishTime float64 `json:"finish_time,omitempty"`

	// Friction stability outcomes. FailureTime falls back to the time
	// horizon when the failure condition never fires.
	FailureTime     float64 `json:"failure_time,omitempty"`
	MaxDisplacement float64 `json:"max_displacement,omitempty"`

	// Shared outcomes.
	MaxVelocity   float64 `json:"max_velocity,omitempty"`
	FinalVelocity float64 `json:"final_velocity,omitempty"`
	TotalTime     float64 `json:"total_time,omitempty"`
}

// Valid reports whether the trial's outcome may enter aggregate statistics.
func (s Summary) Valid() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Field returns a numeric outcome by its aggregation name.
func (s Summary) Field(name string) (float64, bool) {
	switch name {
	case "burn_time":
		return s.BurnTime, true
	case "peak_thrust":
		return s.PeakThrust, true
	case "total_impulse":
		return s.TotalImpulse, true
	case "finish_time":
		return s.FinishTime, true
	case "failure_time":
		return s.FailureTime, true
	case "max_displacement":
		return s.MaxDisplacement, true
	case "max_velocity":
		return s.MaxVelocity, true
	case "final_velocity":
		return s.FinalVelocity, true
	case "total_time":
		return s.TotalTime, true
	default:
		return 0, false
	}
}
