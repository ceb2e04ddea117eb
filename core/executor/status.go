package executor

import (
	"os"
	"syscall"
)

// Status is the exit status of a node. Zero is success, anything else is a
// failure of that node.
type Status int

const (
	StatusSuccess Status = 0
	// StatusUnknown marks a status without a well-defined exit code: a child
	// killed by a signal, a failed builtin or a plumbing failure.
	StatusUnknown Status = -1
	// StatusExecFailed is reported when a program can't be found or started.
	StatusExecFailed Status = 1
	// StatusRedirectFailed is reported when a redirection target can't be
	// opened. It's what a parent sees from a child that calls exit(-1).
	StatusRedirectFailed Status = 255
)

// ExitCode converts the status into what a parent process would observe if
// the status was passed to exit(2): its low byte.
func (s Status) ExitCode() int {
	return int(uint8(s))
}

// Success reports whether the status is zero.
func (s Status) Success() bool {
	return s == StatusSuccess
}

// statusFromProcessState maps a waited-for process to a Status, collapsing
// everything but a normal exit into StatusUnknown.
func statusFromProcessState(state *os.ProcessState) (status Status, signaled bool) {
	if state.Exited() {
		return Status(state.ExitCode()), false
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return StatusUnknown, true
	}
	return StatusUnknown, false
}
