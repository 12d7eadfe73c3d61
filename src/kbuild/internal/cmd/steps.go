package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitswalk/kbuild/src/kbuild/internal/compose"
	"github.com/bitswalk/kbuild/src/kbuild/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:     "build <board>",
	Aliases: []string{"b"},
	Short:   "Build the kernel for a board",
	Args:    cobra.ExactArgs(1),
	RunE:    runStep(pipeline.StepBuild),
}

var binCmd = &cobra.Command{
	Use:   "bin <board>",
	Short: "Build and extract the raw kernel image",
	Long: `Rebuilds the kernel in release mode and extracts the raw image into the
output directory under the board's kernel_name.`,
	Args: cobra.ExactArgs(1),
	RunE: runStep(pipeline.StepBin),
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <board>",
	Short: "Build and disassemble the kernel",
	Args:  cobra.ExactArgs(1),
	RunE:  runStep(pipeline.StepDisasm),
}

var runCmd = &cobra.Command{
	Use:   "run <board> [emulator args...]",
	Short: "Build and boot the kernel in the board's emulator",
	Long: `Rebuilds the kernel in release mode and starts the board's runcmd with the
kernel ELF. Arguments after the board name are passed to the emulator as is;
a single "--" separating them from the board name is dropped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStep(pipeline.StepRun),
}

var debugCmd = &cobra.Command{
	Use:   "debug <board> [emulator args...]",
	Short: "Build and boot the kernel halted, waiting for a debugger",
	Long: fmt.Sprintf(`Rebuilds the kernel in debug mode and starts the board's runcmd halted
before the first instruction, with a gdb stub on tcp::%d. Arguments after the
board name are passed to the emulator as is; a single "--" separating them
from the board name is dropped.`, compose.DebugPort),
	Args: cobra.MinimumNArgs(1),
	RunE: runStep(pipeline.StepDebug),
}

var publishCmd = &cobra.Command{
	Use:   "publish <board>",
	Short: "Build, extract and upload the raw image to storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStep(pipeline.StepPublish),
}

func init() {
	buildCmd.Flags().Bool("debug", false, "Build the unoptimized debug profile")
	binCmd.Flags().Bool("xz", false, "Also write an xz-compressed copy of the image")
	publishCmd.Flags().Bool("xz", false, "Also publish an xz-compressed copy of the image")

	// Everything after the board name belongs to the emulator
	runCmd.Flags().SetInterspersed(false)
	debugCmd.Flags().SetInterspersed(false)
}

// runStep returns the RunE of a pipeline command
func runStep(step pipeline.Step) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		req := pipeline.Request{
			Board: args[0],
			Step:  step,
			Args:  emulatorArgs(args[1:]),
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			req.Mode = compose.Debug
		}
		if xz, _ := cmd.Flags().GetBool("xz"); xz {
			req.Compress = true
		}

		controller := pipeline.New(settings, newExecutor(logger)).
			WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

		res, err := controller.Execute(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printResult(res)
	}
}

func printResult(res *pipeline.Result) error {
	if printer.Structured() {
		return printer.Render(res, nil, nil)
	}

	switch res.Step {
	case pipeline.StepBuild:
		printer.Info("Built %s (%s)", res.Board, res.Mode)
	case pipeline.StepBin:
		printer.Info("Wrote %s", res.Image)
		if res.Compressed != "" {
			printer.Info("Wrote %s", res.Compressed)
		}
	case pipeline.StepPublish:
		for _, obj := range res.Published {
			printer.Info("Published %s (%d bytes)", obj.Key, obj.Size)
		}
	}
	return nil
}

// emulatorArgs drops one leading "--" from the arguments following the board.
// Flag parsing stops at the board name, so the separator is not consumed there.
func emulatorArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}
