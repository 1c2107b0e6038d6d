package app

import "time"

// Operation tracks one CLI invocation for the log. Each invocation gets a
// run ID that prefixes every log line it writes.
type Operation struct {
	RunID   string
	Command string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation creates an operation that has not failed yet.
func NewOperation(runID, command string, started time.Time) *Operation {
	return &Operation{
		RunID:   runID,
		Command: command,
		Started: started,
		Status:  "success",
	}
}

// Fail marks the operation as failed when err is non-nil.
func (op *Operation) Fail(err error) {
	if err != nil {
		op.Status = "error"
	}
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.Started)
}
