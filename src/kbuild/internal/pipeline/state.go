package pipeline

import (
	"slices"
	"strings"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
)

// State is a pipeline state
type State string

const (
	StateIdle             State = "idle"
	StateLoading          State = "loading"
	StateComposing        State = "composing"
	StateBuilding         State = "building"
	StateSucceeded        State = "succeeded"
	StateFailed           State = "failed"
	StateExtractingBinary State = "extracting-binary"
	StateDisassembling    State = "disassembling"
	StateRunning          State = "running"
	StateDebugging        State = "debugging"
	StatePublishing       State = "publishing"
	StateInterrupted      State = "interrupted"
)

// transitions lists the states reachable from each state. Post-build
// states are only entered from a successful build.
var transitions = map[State][]State{
	StateIdle:             {StateLoading},
	StateLoading:          {StateComposing, StateFailed},
	StateComposing:        {StateBuilding, StateFailed},
	StateBuilding:         {StateSucceeded, StateFailed},
	StateSucceeded:        {StateExtractingBinary, StateDisassembling, StateRunning, StateDebugging},
	StateExtractingBinary: {StateSucceeded, StatePublishing, StateFailed},
	StateDisassembling:    {StateSucceeded, StateFailed},
	StateRunning:          {StateSucceeded, StateFailed, StateInterrupted},
	StateDebugging:        {StateSucceeded, StateFailed, StateInterrupted},
	StatePublishing:       {StateSucceeded, StateFailed},
}

// CanTransition reports whether the pipeline may move from one state to another
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// Terminal reports whether no further transition leaves s
func (s State) Terminal() bool {
	return s == StateFailed || s == StateInterrupted
}

// Step names what the pipeline does after the build
type Step string

const (
	StepBuild   Step = "build"
	StepBin     Step = "bin"
	StepDisasm  Step = "disasm"
	StepRun     Step = "run"
	StepDebug   Step = "debug"
	StepPublish Step = "publish"
)

// Steps lists every known step in CLI order
var Steps = []Step{StepBuild, StepBin, StepDisasm, StepRun, StepDebug, StepPublish}

// ParseStep validates a step name
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(s))
	if !slices.Contains(Steps, step) {
		return "", errors.ErrUnknownStep.WithMessagef("unknown step %q", s)
	}
	return step, nil
}

// state returns the post-build state the step runs in; build has none
func (s Step) state() State {
	switch s {
	case StepBin, StepPublish:
		return StateExtractingBinary
	case StepDisasm:
		return StateDisassembling
	case StepRun:
		return StateRunning
	case StepDebug:
		return StateDebugging
	default:
		return ""
	}
}

// mode returns the build mode the step rebuilds in. Only debug sessions
// and explicit debug builds use the unoptimized profile.
func (s Step) mode(requested compose.Mode) compose.Mode {
	switch s {
	case StepBuild:
		return requested
	case StepDebug:
		return compose.Debug
	default:
		return compose.Release
	}
}

// interactive reports whether the step hands the terminal to the child
func (s Step) interactive() bool {
	return s == StepRun || s == StepDebug
}
