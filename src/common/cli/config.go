// Package cli provides the Cobra and Viper plumbing shared by kbuild commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/bitswalk/kbuild/src/common/logs"
	"github.com/bitswalk/kbuild/src/common/paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigOptions holds options for configuration initialization
type ConfigOptions struct {
	// ConfigFile is the path to the config file (if specified via flag)
	ConfigFile string

	// ConfigName is the name of the config file (without extension)
	ConfigName string

	// ConfigType is the type of config file (yaml, json, toml)
	ConfigType string

	// EnvPrefix is the prefix for environment variables (e.g., "KBUILD" -> KBUILD_BOARDS_ROOT)
	EnvPrefix string

	// SearchPaths are the directories searched for the config file, in order
	SearchPaths []string
}

// DefaultConfigOptions returns default configuration options
func DefaultConfigOptions(configName, envPrefix string) ConfigOptions {
	return ConfigOptions{
		ConfigName: configName,
		ConfigType: "yaml",
		EnvPrefix:  envPrefix,
		SearchPaths: []string{
			".",
			"~/.config/" + configName,
			"/etc/" + configName,
		},
	}
}

// InitConfig initializes v from a config file and prefixed environment variables.
// A missing config file is not an error; defaults and flags still apply.
func InitConfig(v *viper.Viper, opts ConfigOptions) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(paths.Expand(opts.ConfigFile))
	} else {
		v.SetConfigName(opts.ConfigName)
		v.SetConfigType(opts.ConfigType)

		for _, searchPath := range opts.SearchPaths {
			v.AddConfigPath(paths.Expand(searchPath))
		}
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// RegisterLogFlags registers the logging flags as persistent flags of cmd
func RegisterLogFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-output", "stderr", "Log output destination (stderr, stdout, journald, auto)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	_ = v.BindPFlag("log.output", cmd.PersistentFlags().Lookup("log-output"))
	_ = v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.level", "info")
}

// RegisterConfigFlag registers the --config flag on a Cobra command
func RegisterConfigFlag(cmd *cobra.Command, cfgFile *string, defaultPath string) {
	cmd.PersistentFlags().StringVar(cfgFile, "config", "", fmt.Sprintf("config file (default: %s)", defaultPath))
}

// InitLogger creates a logger from the log.* keys of v.
// Should be called after InitConfig.
func InitLogger(v *viper.Viper, prefix string) *logs.Logger {
	return logs.New(logs.Config{
		Output: logs.LogOutput(v.GetString("log.output")),
		Level:  v.GetString("log.level"),
		Prefix: prefix,
	})
}

// BindPersistentFlag binds a Cobra persistent flag to a Viper config key
func BindPersistentFlag(v *viper.Viper, cmd *cobra.Command, flagName, key string) error {
	return v.BindPFlag(key, cmd.PersistentFlags().Lookup(flagName))
}

// GetExpandedString gets a string from v and expands path prefixes
func GetExpandedString(v *viper.Viper, key string) string {
	return paths.Expand(v.GetString(key))
}
