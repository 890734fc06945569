// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags,
// environment variables prefixed with UNLOADPIPE, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("UNLOADPIPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/unloadpipe", "$HOME/.unloadpipe", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	_ = viper.ReadInConfig()

	return &cobra.Command{
		Use:   "unloadpipe",
		Short: "Stream bulk query results out of a warehouse through a named pipe",
		Long: `Stream bulk query results out of a warehouse through a named pipe.

unloadpipe drives a warehouse-side unload statement in the background and
scans the delimited bytes it writes into an OS named pipe back out as
records, one at a time, under the pipe's own backpressure.`,
	}
}
