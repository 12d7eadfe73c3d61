package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/paths"
)

// Loader reads board definitions from a configuration root
type Loader struct {
	root string
}

// NewLoader creates a loader over root
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load locates, decodes and validates the definition of board name.
// Every call reads the record from disk and returns a new Definition.
func (l *Loader) Load(name string) (*Definition, error) {
	if !paths.IsPlainName(name) {
		return nil, errors.ErrIncompleteBoardDefinition.
			WithMessagef("invalid board identifier %q", name)
	}

	dir := filepath.Join(l.root, name)
	configPath := filepath.Join(dir, ConfigFile)
	linkerPath := filepath.Join(dir, LinkerScriptFile)

	var missing []string
	if !paths.IsFile(configPath) {
		missing = append(missing, ConfigFile)
	}
	if !paths.IsFile(linkerPath) {
		missing = append(missing, LinkerScriptFile)
	}
	if len(missing) > 0 {
		return nil, errors.ErrIncompleteBoardDefinition.
			WithMessagef("incomplete board definition for `%s`: missing %s", name, strings.Join(missing, ", "))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ErrIncompleteBoardDefinition.
			WithMessagef("cannot read %s", configPath).WithCause(err)
	}

	def, err := Decode(data)
	if err != nil {
		return nil, errors.ErrMalformedConfig.
			WithMessagef("malformed %s", configPath).WithCause(err)
	}

	if def.Name != name {
		return nil, errors.ErrBoardNameMismatch.
			WithMessagef("wrong board: %s declares name %q, expected %q", configPath, def.Name, name)
	}

	def.Dir = dir
	def.LinkerScript = linkerPath
	return def, nil
}

// Decode parses a build.json record strictly: every field must be present,
// unknown fields and trailing data are rejected, and null is never accepted
// in place of a value.
func Decode(data []byte) (*Definition, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, key := range requiredFields {
		raw, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("missing required field %q", key)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("field %q must not be null", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the board record")
	}

	if def.Target == "" {
		return nil, fmt.Errorf("field %q must not be empty", "target")
	}
	if def.KernelName == "" {
		return nil, fmt.Errorf("field %q must not be empty", "kernel_name")
	}
	if !paths.IsPlainName(def.KernelName) {
		return nil, fmt.Errorf("field %q must be a plain file name, got %q", "kernel_name", def.KernelName)
	}

	return &def, nil
}
