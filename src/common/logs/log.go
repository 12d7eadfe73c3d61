// Package logs provides the logging facility for kbuild.
// Diagnostics go to stderr by default so that toolchain and emulator output
// on stdout stays untouched; journald is available for unattended runs.
package logs

import (
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// LogOutput defines the output destination for logs
type LogOutput string

const (
	// OutputStderr sends logs to standard error
	OutputStderr LogOutput = "stderr"
	// OutputStdout sends logs to standard output
	OutputStdout LogOutput = "stdout"
	// OutputJournald sends logs to systemd journald
	OutputJournald LogOutput = "journald"
	// OutputAuto selects journald when stderr is not attached and journald is present
	OutputAuto LogOutput = "auto"
)

// Logger wraps the charm log.Logger with additional configuration
type Logger struct {
	*log.Logger
	output LogOutput
}

// Config holds the configuration for the logger
type Config struct {
	// Output specifies where logs should be sent (stderr, stdout, journald, auto)
	Output LogOutput
	// Level sets the minimum log level (debug, info, warn, error)
	Level string
	// Prefix sets a prefix for all log messages
	Prefix string
	// Writer overrides the destination entirely when set
	Writer io.Writer
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Output: OutputStderr,
		Level:  "info",
		Prefix: "kbuild",
	}
}

// journaldAvailable checks if systemd-journald is available on the system
func journaldAvailable() bool {
	if _, err := exec.LookPath("systemd-cat"); err != nil {
		return false
	}
	if _, err := os.Stat("/run/systemd/journal/socket"); err != nil {
		return false
	}
	return true
}

// stderrIsTerminal reports whether stderr is attached to a terminal
var stderrIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// ParseLevel converts a string level to log.Level
func ParseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New creates a new Logger with the given configuration
func New(cfg Config) *Logger {
	writer, output := resolveWriter(cfg)

	logger := log.NewWithOptions(writer, log.Options{
		Level:           ParseLevel(cfg.Level),
		Prefix:          cfg.Prefix,
		ReportTimestamp: output == OutputJournald,
		ReportCaller:    false,
	})

	return &Logger{
		Logger: logger,
		output: output,
	}
}

func resolveWriter(cfg Config) (io.Writer, LogOutput) {
	if cfg.Writer != nil {
		return cfg.Writer, cfg.Output
	}

	switch cfg.Output {
	case OutputStdout:
		return os.Stdout, OutputStdout
	case OutputJournald:
		if journaldAvailable() {
			return newJournaldWriter(), OutputJournald
		}
	case OutputAuto:
		if !stderrIsTerminal() && journaldAvailable() {
			return newJournaldWriter(), OutputJournald
		}
	}
	return os.Stderr, OutputStderr
}

// NewDefault creates a new Logger with default configuration
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// NewDiscard creates a Logger that drops everything, for tests
func NewDiscard() *Logger {
	return New(Config{Output: OutputStderr, Level: "error", Writer: io.Discard})
}

// Output returns the current output destination
func (l *Logger) Output() LogOutput {
	return l.output
}

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(keyvals...),
		output: l.output,
	}
}

// journaldWriter implements io.Writer for journald
type journaldWriter struct {
	identifier string
}

func newJournaldWriter() *journaldWriter {
	return &journaldWriter{
		identifier: "kbuild",
	}
}

// Write sends p to journald through systemd-cat, falling back to stderr
func (w *journaldWriter) Write(p []byte) (n int, err error) {
	cmd := exec.Command("systemd-cat", "-t", w.identifier)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return os.Stderr.Write(p)
	}

	if err := cmd.Start(); err != nil {
		return os.Stderr.Write(p)
	}

	n, err = stdin.Write(p)
	stdin.Close()

	// The message was handed over; journald-side failures are not ours to report.
	_ = cmd.Wait()

	return n, err
}
