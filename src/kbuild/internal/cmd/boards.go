package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
)

var listBoardsCmd = &cobra.Command{
	Use:     "list-boards",
	Aliases: []string{"boards", "ls"},
	Short:   "List the boards of the project",
	Args:    cobra.NoArgs,
	RunE:    runListBoards,
}

func runListBoards(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	registry := board.NewRegistry(settings.BoardsRoot)
	names, err := registry.List()
	if err != nil {
		return err
	}

	if printer.Structured() {
		if names == nil {
			names = []string{}
		}
		return printer.Render(map[string]any{
			"root":   registry.Root(),
			"boards": names,
		}, nil, nil)
	}

	if len(names) == 0 {
		printer.Info("No boards found in %s", registry.Root())
		return nil
	}
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{strconv.Itoa(i + 1), name}
	}
	printer.Table([]string{"#", "BOARD"}, rows)
	return nil
}
