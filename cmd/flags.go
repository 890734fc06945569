package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// mustBindPFlag attempts to bind a specific key to a pflag (as used by cobra)
// and panics if the binding fails with a non-nil error.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

func mustBindEnv(input ...string) {
	if err := viper.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}

// bindExportFlags binds the cobra cmd flags to the equivalent config value
// being managed by viper. This bridges the config between cobra flags and
// viper flags.
func bindExportFlags(command *cobra.Command) {
	defaultConfig := DefaultConfig()
	flags := command.Flags()

	flags.String("dsn", defaultConfig.DSN, "the data source name of the warehouse connection")
	mustBindPFlag("dsn", flags.Lookup("dsn"))
	mustBindEnv("dsn", "UNLOADPIPE_DSN")

	flags.String("dialect", defaultConfig.Dialect, "the unload dialect, one of 'netezza', 'postgres' or 'mysql'")
	mustBindPFlag("dialect", flags.Lookup("dialect"))
	mustBindEnv("dialect", "UNLOADPIPE_DIALECT")

	flags.String("driver", defaultConfig.Driver, "the database/sql driver name, defaults to the dialect's native driver")
	mustBindPFlag("driver", flags.Lookup("driver"))
	mustBindEnv("driver", "UNLOADPIPE_DRIVER")

	flags.String("table", defaultConfig.Table, "the table to unload")
	mustBindPFlag("table", flags.Lookup("table"))
	mustBindEnv("table", "UNLOADPIPE_TABLE")

	flags.StringSlice("columns", defaultConfig.Columns, "the columns to unload; a literal constant is unloaded when empty")
	mustBindPFlag("columns", flags.Lookup("columns"))
	mustBindEnv("columns", "UNLOADPIPE_COLUMNS")

	flags.String("where", defaultConfig.Where, "an optional literal predicate clause")
	mustBindPFlag("where", flags.Lookup("where"))
	mustBindEnv("where", "UNLOADPIPE_WHERE")

	flags.String("null-token", defaultConfig.NullToken, "the token the warehouse writes for NULL values")
	mustBindPFlag("null-token", flags.Lookup("null-token"))
	mustBindEnv("null-token", "UNLOADPIPE_NULL_TOKEN")

	flags.String("pipe-dir", defaultConfig.PipeDir, "the directory the named pipe is created in")
	mustBindPFlag("pipe-dir", flags.Lookup("pipe-dir"))
	mustBindEnv("pipe-dir", "UNLOADPIPE_PIPE_DIR")

	flags.String("log-format", defaultConfig.Log.Format, "the log format, one of 'text' or 'json'")
	mustBindPFlag("log.format", flags.Lookup("log-format"))
	mustBindEnv("log.format", "UNLOADPIPE_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level, one of 'none', 'debug', 'info', 'warn', 'error', 'panic' or 'fatal'")
	mustBindPFlag("log.level", flags.Lookup("log-level"))
	mustBindEnv("log.level", "UNLOADPIPE_LOG_LEVEL")
}
