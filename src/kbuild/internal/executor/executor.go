// Package executor runs composed invocations as child processes attached to
// the invoking terminal.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
)

// Status is the tri-state result of a child process
type Status int

const (
	// Succeeded means the child exited with status zero
	Succeeded Status = iota
	// NonZeroExit means the child exited with a nonzero status or was killed
	NonZeroExit
	// Interrupted means the wait was interrupted from the terminal
	Interrupted
)

// String returns a human-readable status name
func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case NonZeroExit:
		return "nonzero-exit"
	case Interrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome describes how a child process ended
type Outcome struct {
	Status   Status
	ExitCode int
}

// Success reports whether the child exited with status zero
func (o Outcome) Success() bool {
	return o.Status == Succeeded
}

// RunOpts controls how an invocation is attached to the terminal
type RunOpts struct {
	// Interactive captures terminal interrupts during the wait and reports
	// them as Interrupted instead of letting them terminate kbuild.
	Interactive bool

	// Dir is the working directory of the child; empty means the current one
	Dir string

	// Stdin, Stdout and Stderr default to the process's own streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o RunOpts) withDefaults() RunOpts {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// Executor is the interface for running composed invocations.
// Implementations block until the child exits and never retry.
type Executor interface {
	// Run executes inv and reports how it ended. An error is returned only
	// when the process could not be started.
	Run(ctx context.Context, inv compose.Invocation, opts RunOpts) (Outcome, error)

	// LookPath resolves a tool binary against the child PATH
	LookPath(name string, env map[string]string) (string, error)
}
