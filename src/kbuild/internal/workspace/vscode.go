package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
)

// EditorSettingsPath is the editor settings file, relative to the project root
var EditorSettingsPath = filepath.Join(".vscode", "settings.json")

// EditorSettings returns the rust-analyzer keys that make the editor check
// the crate the way kbuild builds it for def
func EditorSettings(def *board.Definition, rustflags string) map[string]any {
	features := def.Features
	if features == nil {
		features = []string{}
	}
	return map[string]any{
		"rust-analyzer.cargo.target":     def.Target,
		"rust-analyzer.cargo.features":   features,
		"rust-analyzer.cargo.extraEnv":   map[string]string{"RUSTFLAGS": rustflags},
		"rust-analyzer.check.allTargets": false,
	}
}

// WriteEditorSettings merges settings into the JSON object at path,
// creating the file and its directory when needed. Keys not managed by
// kbuild are preserved.
func WriteEditorSettings(path string, settings map[string]any) error {
	current := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) > 0 {
			if err := json.Unmarshal(data, &current); err != nil {
				return errors.ErrWorkspaceIO.
					WithMessagef("existing %s is not a JSON object", path).WithCause(err)
			}
		}
	case !os.IsNotExist(err):
		return errors.ErrWorkspaceIO.WithMessagef("cannot read %s", path).WithCause(err)
	}

	if current == nil {
		current = map[string]any{}
	}
	for k, v := range settings {
		current[k] = v
	}

	out, err := json.MarshalIndent(current, "", "    ")
	if err != nil {
		return errors.ErrInternal.WithCause(err)
	}
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.ErrWorkspaceIO.WithMessagef("cannot create %s", filepath.Dir(path)).WithCause(err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return errors.ErrWorkspaceIO.WithMessagef("cannot write %s", tmp).WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.ErrWorkspaceIO.WithMessagef("cannot replace %s", path).WithCause(err)
	}
	return nil
}
