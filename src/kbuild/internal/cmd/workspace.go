package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
	"github.com/bitswalk/kbuild/src/kbuild/internal/workspace"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the target and output directories",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

var vscodeCmd = &cobra.Command{
	Use:   "vscode <board>",
	Short: "Point the editor's rust-analyzer at a board",
	Long: `Writes .vscode/settings.json so that rust-analyzer checks the crate with the
board's target, features and compiler flags. Unrelated settings are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runVSCode,
}

func runClean(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	result, err := workspace.Clean(settings.TargetDir, settings.OutputDir)
	if err != nil {
		return err
	}

	if printer.Structured() {
		return printer.Render(result, nil, nil)
	}
	if result.NothingToDo() {
		printer.Info("Nothing to do")
		return nil
	}
	for _, dir := range result.Removed {
		printer.Info("Removed %s", dir)
	}
	return nil
}

func runVSCode(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	def, err := board.NewLoader(settings.BoardsRoot).Load(args[0])
	if err != nil {
		return err
	}

	flags := strings.Join(settings.Composer().Flags(def), " ")
	path := filepath.Join(settings.ProjectDir, workspace.EditorSettingsPath)
	if err := workspace.WriteEditorSettings(path, workspace.EditorSettings(def, flags)); err != nil {
		return err
	}

	logger.Debug("Editor settings written", "board", def.Name, "path", path)
	printer.Info("Configured %s for %s", path, def.Name)
	return nil
}
