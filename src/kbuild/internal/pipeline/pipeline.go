// Package pipeline sequences board loading, command composition, the build
// and the optional post-build step of one kbuild invocation.
package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/logs"
	"github.com/bitswalk/kbuild/src/common/paths"
	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
	"github.com/bitswalk/kbuild/src/kbuild/internal/config"
	"github.com/bitswalk/kbuild/src/kbuild/internal/executor"
	"github.com/bitswalk/kbuild/src/kbuild/internal/storage"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the pipeline package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Request describes one pipeline invocation
type Request struct {
	Board string
	Step  Step

	// Mode applies to StepBuild only; other steps pick their own
	Mode compose.Mode

	// Args are appended verbatim to the emulator command of run and debug
	Args []string

	// Compress also writes an xz copy of the extracted image
	Compress bool
}

// Transition is one recorded state change
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Result is the record of a pipeline invocation
type Result struct {
	ID         string                `json:"id"`
	Board      string                `json:"board"`
	Step       Step                  `json:"step"`
	Mode       string                `json:"mode"`
	State      State                 `json:"state"`
	Trace      []Transition          `json:"trace"`
	ELF        string                `json:"elf,omitempty"`
	Image      string                `json:"image,omitempty"`
	Compressed string                `json:"compressed,omitempty"`
	Published  []*storage.ObjectInfo `json:"published,omitempty"`
	ExitCode   int                   `json:"exit_code"`
}

// States returns the visited states in order, starting with Idle
func (r *Result) States() []State {
	states := []State{StateIdle}
	for _, t := range r.Trace {
		states = append(states, t.To)
	}
	return states
}

// Controller drives the pipeline for one configured project
type Controller struct {
	settings *config.Settings
	exec     executor.Executor
	loader   *board.Loader
	composer *compose.Composer
	storage  storage.Backend
	newID    func() string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New creates a controller for settings running children through exec
func New(settings *config.Settings, exec executor.Executor) *Controller {
	return &Controller{
		settings: settings,
		exec:     exec,
		loader:   board.NewLoader(settings.BoardsRoot),
		composer: settings.Composer(),
		newID:    func() string { return uuid.New().String() },
	}
}

// WithStorage sets the backend publish uploads to. Without one, the backend
// is created from the settings on first publish.
func (c *Controller) WithStorage(b storage.Backend) *Controller {
	c.storage = b
	return c
}

// WithStreams sets the streams children are attached to; nil keeps the
// process's own
func (c *Controller) WithStreams(stdin io.Reader, stdout, stderr io.Writer) *Controller {
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
	return c
}

// Execute runs req to completion. The returned Result is always non-nil and
// records the states visited, also when an error is returned.
func (c *Controller) Execute(ctx context.Context, req Request) (*Result, error) {
	r := &run{
		c:   c,
		req: req,
		res: &Result{
			ID:    c.newID(),
			Board: req.Board,
			Step:  req.Step,
			Mode:  req.Step.mode(req.Mode).String(),
			State: StateIdle,
		},
	}
	r.log = log.With("invocation", r.res.ID, "board", req.Board, "step", string(req.Step))

	err := r.execute(ctx)
	if err != nil && !r.res.State.Terminal() {
		r.fail()
	}
	return r.res, err
}

// plan holds everything composed before the first spawn
type plan struct {
	def   *board.Definition
	build compose.Invocation
	post  compose.Invocation
	elf   string
	image string
}

// run is the state of a single Execute call
type run struct {
	c   *Controller
	req Request
	res *Result
	log *logs.Logger
}

func (r *run) transition(to State) error {
	from := r.res.State
	if !CanTransition(from, to) {
		return errors.ErrInternal.WithMessagef("invalid pipeline transition %s -> %s", from, to)
	}
	r.res.State = to
	r.res.Trace = append(r.res.Trace, Transition{From: from, To: to, At: time.Now()})
	r.log.Debug("Pipeline transition", "from", from, "to", to)
	return nil
}

// fail moves to Failed from wherever the pipeline stopped
func (r *run) fail() {
	from := r.res.State
	r.res.State = StateFailed
	r.res.Trace = append(r.res.Trace, Transition{From: from, To: StateFailed, At: time.Now()})
	r.log.Debug("Pipeline transition", "from", from, "to", StateFailed)
}

func (r *run) execute(ctx context.Context) error {
	if _, err := ParseStep(string(r.req.Step)); err != nil {
		return err
	}

	if err := r.transition(StateLoading); err != nil {
		return err
	}
	def, err := r.c.loader.Load(r.req.Board)
	if err != nil {
		return err
	}
	r.log.Debug("Board loaded", "target", def.Target, "features", def.Features)

	if err := r.transition(StateComposing); err != nil {
		return err
	}
	p, err := r.compose(def)
	if err != nil {
		return err
	}
	if err := r.preflight(ctx, p); err != nil {
		return err
	}

	if err := r.transition(StateBuilding); err != nil {
		return err
	}
	if err := r.build(ctx, p); err != nil {
		return err
	}
	if err := r.transition(StateSucceeded); err != nil {
		return err
	}

	if r.req.Step == StepBuild {
		return nil
	}
	if err := r.transition(r.req.Step.state()); err != nil {
		return err
	}
	if err := r.postBuild(ctx, p); err != nil {
		return err
	}
	return r.transition(StateSucceeded)
}

// compose prepares every invocation of the run so that configuration
// errors surface before anything is spawned
func (r *run) compose(def *board.Definition) (*plan, error) {
	mode := r.req.Step.mode(r.req.Mode)
	p := &plan{
		def:   def,
		build: r.c.composer.Build(def, mode),
	}
	r.log.Info("Composed build", "command", p.build.String(), compose.FlagsVar, p.build.Env[compose.FlagsVar])

	if r.req.Step == StepBuild {
		return p, nil
	}

	if r.req.Step.interactive() && len(def.RunCmd) == 0 {
		return nil, errors.ErrMalformedConfig.
			WithMessagef("board %s declares no runcmd", def.Name)
	}

	crate, err := r.c.settings.CrateName()
	if err != nil {
		return nil, err
	}
	p.elf = ELFPath(r.c.settings.TargetDir, def.Target, mode, crate)
	r.res.ELF = p.elf

	switch r.req.Step {
	case StepBin, StepPublish:
		p.image = filepath.Join(r.c.settings.OutputDir, def.KernelName)
		r.res.Image = p.image
		p.post = r.c.composer.Objcopy(p.elf, p.image)
	case StepDisasm:
		p.post = r.c.composer.Objdump(p.elf)
	case StepRun, StepDebug:
		p.post = r.c.composer.Emulator(def, p.elf, r.req.Step == StepDebug, r.req.Args)
	}
	return p, nil
}

// preflight resolves every tool of the plan against the child PATH and,
// for publish, checks the storage backend is reachable
func (r *run) preflight(ctx context.Context, p *plan) error {
	for _, inv := range []compose.Invocation{p.build, p.post} {
		if len(inv.Args) == 0 {
			continue
		}
		if _, err := r.c.exec.LookPath(inv.Program(), inv.Env); err != nil {
			return errors.ErrToolNotFound.
				WithMessagef("`%s` not found in PATH", inv.Program()).WithCause(err)
		}
	}

	if r.req.Step != StepPublish {
		return nil
	}
	backend, err := r.c.backend()
	if err != nil {
		return err
	}
	if err := backend.Ping(ctx); err != nil {
		return err
	}
	r.log.Debug("Storage reachable", "type", backend.Type(), "location", backend.Location())
	return nil
}

func (r *run) build(ctx context.Context, p *plan) error {
	r.log.Info("Building kernel", "target", p.def.Target, "mode", r.res.Mode)

	out, err := r.c.exec.Run(ctx, p.build, r.opts(false))
	r.res.ExitCode = out.ExitCode
	if err != nil {
		return errors.ErrBuildFailed.WithMessagef("build of %s did not complete", p.def.Name).WithCause(err)
	}
	if !out.Success() {
		return errors.ErrBuildFailed.
			WithMessagef("build of %s failed with exit status %d", p.def.Name, out.ExitCode)
	}
	return nil
}

func (r *run) postBuild(ctx context.Context, p *plan) error {
	switch r.req.Step {
	case StepBin, StepPublish:
		if err := paths.EnsureDirPath(r.c.settings.OutputDir); err != nil {
			return errors.ErrWorkspaceIO.
				WithMessagef("cannot create %s", r.c.settings.OutputDir).WithCause(err)
		}
	case StepDebug:
		r.log.Info("Waiting for debugger", "port", compose.DebugPort)
	}

	interactive := r.req.Step.interactive()
	out, err := r.c.exec.Run(ctx, p.post, r.opts(interactive))
	r.res.ExitCode = out.ExitCode
	if err != nil {
		return errors.ErrPostBuildStepFailed.
			WithMessagef("%s did not complete", p.post.Program()).WithCause(err)
	}

	switch out.Status {
	case executor.Interrupted:
		if err := r.transition(StateInterrupted); err != nil {
			return err
		}
		return errors.ErrInterruptedByUser.WithMessagef("%s interrupted by user", p.post.Program())
	case executor.NonZeroExit:
		return errors.ErrPostBuildStepFailed.
			WithMessagef("%s exited with status %d", p.post.Program(), out.ExitCode)
	}

	if r.req.Step == StepBin || r.req.Step == StepPublish {
		if err := r.finishImage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// ELFPath returns where cargo links the kernel for target in mode
func ELFPath(targetDir, target string, mode compose.Mode, crate string) string {
	return filepath.Join(targetDir, target, mode.String(), crate)
}

func (r *run) opts(interactive bool) executor.RunOpts {
	return executor.RunOpts{
		Interactive: interactive,
		Dir:         r.c.settings.ProjectDir,
		Stdin:       r.c.stdin,
		Stdout:      r.c.stdout,
		Stderr:      r.c.stderr,
	}
}
