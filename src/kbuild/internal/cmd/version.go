package cmd

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	if printer.Structured() {
		return printer.Render(VersionInfo.Map(), nil, nil)
	}
	printer.Message("%s", VersionInfo.Full())
	return nil
}
