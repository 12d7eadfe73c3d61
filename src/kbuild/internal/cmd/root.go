// Package cmd implements the kbuild command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bitswalk/kbuild/src/common/cli"
	"github.com/bitswalk/kbuild/src/common/errors"
	"github.com/bitswalk/kbuild/src/common/logs"
	"github.com/bitswalk/kbuild/src/common/version"
	"github.com/bitswalk/kbuild/src/kbuild/internal/config"
	"github.com/bitswalk/kbuild/src/kbuild/internal/executor"
	"github.com/bitswalk/kbuild/src/kbuild/internal/output"
	"github.com/bitswalk/kbuild/src/kbuild/internal/pipeline"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// v holds the resolved configuration keys
	v = viper.New()

	// Configuration file path
	cfgFile string

	// Output format (table, json or yaml)
	outputFormat string

	logger  = logs.NewDefault()
	printer = output.New(output.FormatTable)

	// newExecutor creates the executor children are spawned with
	newExecutor = func(l *logs.Logger) executor.Executor {
		return executor.NewProcess(l)
	}
)

// Linker variables - set via ldflags at build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kbuild",
	Short: "Board-parameterized kernel build driver",
	Long: `kbuild builds a bare-metal kernel for one board of the project.

Each board lives in its own directory under the boards root (src/bsp by
default) holding a build.json record and a link.ld linker script. kbuild
composes the cargo invocation for the board and can chain into raw image
extraction, disassembly, an emulator run or a remote-debug session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command and exits with the code of its error
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	os.Exit(report(rootCmd.Execute()))
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "./kbuild.yaml")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	pf.StringP("project-dir", "C", ".", "Project directory holding Cargo.toml")
	pf.String("boards-root", "src/bsp", "Board configuration root")
	pf.String("target-dir", "target", "Cargo target directory")
	pf.String("output-dir", "out", "Directory receiving raw images")
	pf.String("env-file", "", "dotenv file merged into the caller environment")
	pf.StringSlice("pass-env", nil, "Extra environment variables forwarded to children")

	cli.RegisterLogFlags(v, rootCmd)

	_ = cli.BindPersistentFlag(v, rootCmd, "project-dir", config.KeyProjectDir)
	_ = cli.BindPersistentFlag(v, rootCmd, "boards-root", config.KeyBoardsRoot)
	_ = cli.BindPersistentFlag(v, rootCmd, "target-dir", config.KeyTargetDir)
	_ = cli.BindPersistentFlag(v, rootCmd, "output-dir", config.KeyOutputDir)
	_ = cli.BindPersistentFlag(v, rootCmd, "env-file", config.KeyEnvFile)
	_ = cli.BindPersistentFlag(v, rootCmd, "pass-env", config.KeyPassthrough)

	config.SetDefaults(v)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listBoardsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(binCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(vscodeCmd)

	registerCompletions()
}

func initConfig(cmd *cobra.Command) error {
	opts := cli.DefaultConfigOptions("kbuild", "KBUILD")
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(v, opts); err != nil {
		return errors.ErrConfigInvalid.WithMessage("cannot read configuration").WithCause(err)
	}

	logger = cli.InitLogger(v, "kbuild")
	pipeline.SetLogger(logger)

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	printer = &output.Printer{Format: format, Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
	return nil
}

// loadSettings resolves the settings of this invocation
func loadSettings() (*config.Settings, error) {
	return config.Load(v, os.Environ())
}

// report prints err and returns the process exit code. An interrupted
// emulator session is reported as information, not as a failure.
func report(err error) int {
	if err == nil {
		return errors.ExitOK
	}
	if errors.Is(err, errors.ErrInterruptedByUser) {
		printer.Info("%s", errors.Message(err))
	} else {
		printer.Error(err)
	}
	return errors.GetExitCode(err)
}
