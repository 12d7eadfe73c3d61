package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitswalk/kbuild/src/kbuild/internal/board"
	"github.com/bitswalk/kbuild/src/kbuild/internal/output"
)

func registerCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("output", completionOutputFormat)

	for _, c := range []*cobra.Command{buildCmd, binCmd, disasmCmd, runCmd, debugCmd, publishCmd, vscodeCmd} {
		c.ValidArgsFunction = completionBoards
	}
}

// completionBoards completes the board argument from the boards root.
// Completion runs without the persistent pre-run, so configuration is read here.
func completionBoards(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	if err := initConfig(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	settings, err := loadSettings()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	boards, err := board.NewRegistry(settings.BoardsRoot).Boards()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var suggestions []string
	for name := range boards {
		if strings.HasPrefix(name, toComplete) {
			suggestions = append(suggestions, name)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

// completionOutputFormat completes the -o flag
func completionOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(output.FormatTable),
		string(output.FormatJSON),
		string(output.FormatYAML),
	}, cobra.ShellCompDirectiveNoFileComp
}
