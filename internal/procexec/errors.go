package procexec

import "fmt"

// InvocationError reports a malformed request, detected before anything
// is spawned.
type InvocationError struct {
	Reason string
}

func (e *InvocationError) Error() string {
	return "invalid invocation: " + e.Reason
}

// ProcessFailure reports that a process could not be spawned or waited on.
type ProcessFailure struct {
	Command string
	Err     error
}

func (e *ProcessFailure) Error() string {
	return fmt.Sprintf("process %q failed: %v", e.Command, e.Err)
}

func (e *ProcessFailure) Unwrap() error { return e.Err }
