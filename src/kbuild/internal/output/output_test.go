package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/bitswalk/kbuild/src/common/errors"
)

func newTestPrinter(format Format) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Format: format, Out: &out, Err: &errOut}, &out, &errOut
}

type boardRow struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// =============================================================================
// ParseFormat Tests
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRender_JSON(t *testing.T) {
	p, out, _ := newTestPrinter(FormatJSON)
	data := []boardRow{{Name: "raspi3", Target: "aarch64-unknown-none-softfloat"}}

	if err := p.Render(data, []string{"NAME"}, [][]string{{"raspi3"}}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got []boardRow
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(got) != 1 || got[0].Name != "raspi3" {
		t.Errorf("unexpected output %+v", got)
	}
}

func TestRender_YAMLUsesJSONTags(t *testing.T) {
	p, out, _ := newTestPrinter(FormatYAML)
	data := boardRow{Name: "virt", Target: "riscv64gc-unknown-none-elf"}

	if err := p.Render(data, nil, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got map[string]string
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML output: %v", err)
	}
	if got["name"] != "virt" || got["target"] != "riscv64gc-unknown-none-elf" {
		t.Errorf("unexpected YAML keys: %v", got)
	}
}

func TestRender_Table(t *testing.T) {
	p, out, _ := newTestPrinter(FormatTable)
	rows := [][]string{{"raspi3", "aarch64"}, {"virt", "riscv64"}}

	if err := p.Render(nil, []string{"NAME", "TARGET"}, rows); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[0], "TARGET") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Index(lines[1], "aarch64") != strings.Index(lines[0], "TARGET") {
		t.Errorf("columns not aligned:\n%s", out.String())
	}
}

func TestTable_NoHeaders(t *testing.T) {
	p, out, _ := newTestPrinter(FormatTable)
	p.Table(nil, [][]string{{"raspi3"}})
	if out.String() != "raspi3\n" {
		t.Errorf("output = %q", out.String())
	}
}

// =============================================================================
// Message Tests
// =============================================================================

func TestMessageAndInfoStreams(t *testing.T) {
	p, out, errOut := newTestPrinter(FormatJSON)

	p.Message("built %s", "raspi3")
	p.Info("nothing to do")

	if out.String() != "built raspi3\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "nothing to do\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
	if !p.Structured() {
		t.Error("json printer should be structured")
	}
}

func TestError_Prefix(t *testing.T) {
	p, _, errOut := newTestPrinter(FormatTable)

	p.Error(errors.ErrBuildFailed.WithMessage("cargo exited with status 101"))

	if !strings.HasPrefix(errOut.String(), "[!] ") {
		t.Errorf("missing prefix: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "cargo exited with status 101") {
		t.Errorf("missing message: %q", errOut.String())
	}
}
