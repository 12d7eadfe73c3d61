package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	kerrors "github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/logs"
	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
	"golang.org/x/term"
)

// NotifyFunc subscribes to terminal interrupts. It returns the channel the
// interrupts are delivered on and a function that unsubscribes.
type NotifyFunc func() (<-chan os.Signal, func())

// notifyInterrupt is the default NotifyFunc, backed by os/signal
func notifyInterrupt() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// Process runs invocations as direct child processes of kbuild
type Process struct {
	log    *logs.Logger
	notify NotifyFunc
}

// NewProcess creates a process executor
func NewProcess(logger *logs.Logger) *Process {
	if logger == nil {
		logger = logs.NewDiscard()
	}
	return &Process{
		log:    logger,
		notify: notifyInterrupt,
	}
}

// WithNotify replaces the interrupt source, for tests
func (p *Process) WithNotify(notify NotifyFunc) *Process {
	p.notify = notify
	return p
}

// Run spawns inv with the terminal streams attached and blocks until it exits.
func (p *Process) Run(ctx context.Context, inv compose.Invocation, opts RunOpts) (Outcome, error) {
	if len(inv.Args) == 0 {
		return Outcome{}, kerrors.ErrInternal.WithMessage("no command specified")
	}
	opts = opts.withDefaults()

	path, err := p.LookPath(inv.Program(), inv.Env)
	if err != nil {
		return Outcome{}, kerrors.ErrToolNotFound.
			WithMessagef("`%s` not found in PATH", inv.Program()).WithCause(err)
	}

	cmd := exec.CommandContext(ctx, path, inv.Args[1:]...)
	cmd.Args[0] = inv.Args[0]
	cmd.Env = inv.Environ()
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	// Subscribe before the child starts so an early interrupt cannot
	// terminate kbuild while the child is still attached to the terminal.
	var interrupts <-chan os.Signal
	restored := false
	if opts.Interactive {
		ch, stop := p.notify()
		defer stop()
		interrupts = ch

		// Emulators switch the terminal to raw mode and may not undo it
		// when interrupted.
		if restore := saveTerminal(opts.Stdin); restore != nil {
			defer restore()
			restored = true
		}
	}

	p.log.Debug("Spawning process",
		"command", inv.String(),
		"path", path,
		"interactive", opts.Interactive,
		"restore_tty", restored,
	)

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("failed to start %s: %w", inv.Program(), err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	interrupted := false
	var waitErr error
wait:
	for {
		select {
		case waitErr = <-done:
			break wait
		case <-interrupts:
			// The terminal delivers the same interrupt to the child; keep
			// waiting so it is not left running detached.
			interrupted = true
			p.log.Debug("Interrupt received, waiting for child to exit", "command", inv.Program())
		}
	}
	if !interrupted && interrupts != nil {
		select {
		case <-interrupts:
			interrupted = true
		default:
		}
	}

	code := exitCode(waitErr)
	switch {
	case interrupted:
		return Outcome{Status: Interrupted, ExitCode: code}, nil
	case waitErr == nil:
		return Outcome{Status: Succeeded, ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{Status: NonZeroExit, ExitCode: code}, ctxErr
		}
		return Outcome{Status: NonZeroExit, ExitCode: code}, nil
	}
	return Outcome{Status: NonZeroExit, ExitCode: code}, fmt.Errorf("waiting for %s: %w", inv.Program(), waitErr)
}

// LookPath resolves name against the PATH of env, the environment the child
// will actually see. Names containing a separator are checked as given.
func (p *Process) LookPath(name string, env map[string]string) (string, error) {
	if name == "" {
		return "", exec.ErrNotFound
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		return exec.LookPath(name)
	}

	pathList, ok := compose.Environment(env).Lookup("PATH")
	if !ok {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		if resolved, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return resolved, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// exitCode extracts the exit status of a finished child; -1 when it was
// killed by a signal or never reported one
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// saveTerminal captures the terminal state of r and returns a function
// restoring it, or nil when r is not a terminal
func saveTerminal(r any) func() {
	f, ok := r.(*os.File)
	if !ok {
		return nil
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	state, err := term.GetState(fd)
	if err != nil {
		return nil
	}
	return func() { _ = term.Restore(fd, state) }
}
