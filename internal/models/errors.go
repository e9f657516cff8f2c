package models

import "fmt"

// ProbeError reports a failure of a ping or of probe orchestration.
// An unreachable service is not a ProbeError.
type ProbeError struct {
	Op   string
	Host string
	Err  error
}

func (e *ProbeError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
