// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/bitswalk/kbuild/src/common/errors"
)

// Format selects how structured results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an -o flag value; empty selects the table format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", errors.ErrConfigInvalid.WithMessagef("unknown output format %q (table, json, yaml)", s)
	}
}

// Printer writes results to a pair of streams
type Printer struct {
	Format Format
	Out    io.Writer
	Err    io.Writer
}

// New creates a Printer writing to stdout and stderr
func New(format Format) *Printer {
	return &Printer{Format: format, Out: os.Stdout, Err: os.Stderr}
}

// Render prints data as JSON or YAML when selected, otherwise as a table
func (p *Printer) Render(data any, headers []string, rows [][]string) error {
	switch p.Format {
	case FormatJSON:
		return p.JSON(data)
	case FormatYAML:
		return p.YAML(data)
	default:
		p.Table(headers, rows)
		return nil
	}
}

// Structured reports whether the printer emits machine-readable output
func (p *Printer) Structured() bool {
	return p.Format == FormatJSON || p.Format == FormatYAML
}

// JSON writes data as indented JSON
func (p *Printer) JSON(data any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// YAML writes data as YAML. Field names follow the json tags so both
// formats agree.
func (p *Printer) YAML(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(p.Out)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// Table writes tabular data
func (p *Printer) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)

	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}

// Message writes a plain line to the output stream
func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Info writes an informational line to the error stream so it never
// mixes with structured output
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.Err, format+"\n", args...)
}

// Error writes a failure to the error stream as "[!] <message>"
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.Err, "[!] %s\n", errors.Message(err))
}
