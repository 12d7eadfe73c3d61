// Package compose turns a board definition into concrete toolchain and
// emulator invocations. Composition is a pure transform: it never touches
// the filesystem, never reads the process environment and never mutates
// the definition it is given.
package compose

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
)

// FlagsVar is the environment variable carrying the composed compiler flags
const FlagsVar = "RUSTFLAGS"

// DebugPort is the local TCP port the emulator's gdb stub listens on
const DebugPort = 1234

// Mode selects the optimized or unoptimized build variant
type Mode int

const (
	Release Mode = iota
	Debug
)

// String returns the cargo profile directory name of the mode
func (m Mode) String() string {
	if m == Debug {
		return "debug"
	}
	return "release"
}

// Invocation is a ready-to-run command line and the complete child environment
type Invocation struct {
	Args []string
	Env  map[string]string
}

// Program returns the executable name of the invocation
func (i Invocation) Program() string {
	if len(i.Args) == 0 {
		return ""
	}
	return i.Args[0]
}

// String renders the command line for logs
func (i Invocation) String() string {
	return strings.Join(i.Args, " ")
}

// Environ renders Env as sorted KEY=VALUE pairs for os/exec
func (i Invocation) Environ() []string {
	keys := make([]string, 0, len(i.Env))
	for k := range i.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	environ := make([]string, 0, len(keys))
	for _, k := range keys {
		environ = append(environ, k+"="+i.Env[k])
	}
	return environ
}

// Composer builds invocations against a fixed tool set and caller environment
type Composer struct {
	tools     Tools
	env       Environment
	allow     []string
	targetDir string
}

// New creates a Composer. passthrough extends DefaultAllowList with
// additional variable names copied from env into every child environment.
func New(tools Tools, env Environment, passthrough []string) *Composer {
	allow := slices.Clone(DefaultAllowList)
	for _, name := range passthrough {
		if name != "" && name != FlagsVar && !slices.Contains(allow, name) {
			allow = append(allow, name)
		}
	}
	return &Composer{
		tools: tools.withDefaults(),
		env:   env.Clone(),
		allow: allow,
	}
}

// WithTargetDir makes Build direct cargo's output to dir. Without it cargo
// uses its own default of <project>/target.
func (c *Composer) WithTargetDir(dir string) *Composer {
	c.targetDir = dir
	return c
}

// Tools returns the tool set the composer emits
func (c *Composer) Tools() Tools {
	return c.tools
}

// Build composes the compiler invocation for def in the given mode:
//
//	cargo rustc --target=<triple> [--release] [--target-dir <dir>] [--features <f>]...
//
// with RUSTFLAGS set to the caller's RUSTFLAGS (if any) followed by the
// board flags and a single linker-script argument.
func (c *Composer) Build(def *board.Definition, mode Mode) Invocation {
	args := []string{c.tools.Cargo, "rustc", "--target=" + def.Target}
	if mode == Release {
		args = append(args, "--release")
	}
	if c.targetDir != "" {
		args = append(args, "--target-dir", c.targetDir)
	}
	for _, feature := range def.Features {
		args = append(args, "--features", feature)
	}

	env := c.childEnv()
	env[FlagsVar] = c.FlagsValue(def)

	return Invocation{Args: args, Env: env}
}

// Flags returns the board's compiler flags followed by the linker-script flag.
// The result is a new slice; def.RustFlags is left untouched.
func (c *Composer) Flags(def *board.Definition) []string {
	flags := make([]string, 0, len(def.RustFlags)+1)
	flags = append(flags, def.RustFlags...)
	return append(flags, LinkerScriptFlag(def.LinkerScript))
}

// FlagsValue returns the value assigned to RUSTFLAGS for def
func (c *Composer) FlagsValue(def *board.Definition) string {
	value := strings.Join(c.Flags(def), " ")
	if inherited, ok := c.env.Lookup(FlagsVar); ok && inherited != "" {
		value = inherited + " " + value
	}
	return value
}

// LinkerScriptFlag returns the rustc flag passing path to the linker as its script
func LinkerScriptFlag(path string) string {
	return "-C link-arg=-T" + path
}

// Objcopy composes the raw image extraction of elf into image
func (c *Composer) Objcopy(elf, image string) Invocation {
	return Invocation{
		Args: []string{c.tools.Objcopy, "--strip-all", "-O", "binary", elf, image},
		Env:  c.childEnv(),
	}
}

// Objdump composes the disassembly of elf
func (c *Composer) Objdump(elf string) Invocation {
	return Invocation{
		Args: []string{c.tools.Objdump, "-d", elf},
		Env:  c.childEnv(),
	}
}

// Emulator composes the board's run command for elf. In debug mode the
// emulator is told to halt before the first instruction and wait for a
// debugger on DebugPort. extra is appended verbatim after the fixed flags.
func (c *Composer) Emulator(def *board.Definition, elf string, debug bool, extra []string) Invocation {
	args := make([]string, 0, len(def.RunCmd)+len(extra)+4)
	args = append(args, def.RunCmd...)
	args = append(args, elf)
	if debug {
		args = append(args, DebugFlags()...)
	}
	args = append(args, extra...)

	return Invocation{Args: args, Env: c.childEnv()}
}

// DebugFlags returns the emulator flags that pause execution until a
// debugger attaches on DebugPort
func DebugFlags() []string {
	return []string{"-S", "-gdb", fmt.Sprintf("tcp::%d", DebugPort)}
}

// childEnv copies the allow-listed variables from the caller environment
func (c *Composer) childEnv() map[string]string {
	env := make(map[string]string, len(c.allow)+1)
	for _, name := range c.allow {
		if value, ok := c.env.Lookup(name); ok {
			env[name] = value
		}
	}
	return env
}
