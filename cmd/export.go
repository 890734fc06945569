package cmd

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	// Native drivers for the built-in dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/unloadpipe/unloadpipe/pkg/logger"
	"github.com/unloadpipe/unloadpipe/pkg/unload"
)

// LogConfig defines the configuration of the logger.
type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// Config is the export command configuration as read by viper.
type Config struct {
	DSN       string    `mapstructure:"dsn"`
	Dialect   string    `mapstructure:"dialect"`
	Driver    string    `mapstructure:"driver"`
	Table     string    `mapstructure:"table"`
	Columns   []string  `mapstructure:"columns"`
	Where     string    `mapstructure:"where"`
	NullToken string    `mapstructure:"null-token"`
	PipeDir   string    `mapstructure:"pipe-dir"`
	Log       LogConfig `mapstructure:"log"`
}

// DefaultConfig returns the export config with the default values populated.
func DefaultConfig() *Config {
	return &Config{
		Dialect: string(unload.DialectNetezza),
		PipeDir: os.TempDir(),
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
}

// ReadConfig parses the export config out of viper.
func ReadConfig() (*Config, error) {
	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// NewExportCommand returns the command that unloads a table to stdout.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Unload a table through a named pipe and write its records to stdout",
		RunE:  runExport,
		Args:  cobra.NoArgs,
	}

	bindExportFlags(cmd)

	return cmd
}

// driverFor maps a dialect to its native database/sql driver name.
func driverFor(dialect unload.Dialect) string {
	switch dialect {
	case unload.DialectPostgres:
		return "pgx"
	case unload.DialectMySQL:
		return "mysql"
	default:
		return ""
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	config, err := ReadConfig()
	if err != nil {
		return err
	}

	if config.DSN == "" {
		return errors.New("a warehouse DSN is required")
	}
	if config.Table == "" {
		return errors.New("a table to unload is required")
	}

	log, err := logger.NewLogger(config.Log.Format, config.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	dialect := unload.Dialect(config.Dialect)
	driver := config.Driver
	if driver == "" {
		if driver = driverFor(dialect); driver == "" {
			return fmt.Errorf("dialect %q has no native driver, set one explicitly", dialect)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open(driver, config.DSN)
	if err != nil {
		return fmt.Errorf("open warehouse connection: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("ping warehouse: %w", err)
	}

	query := unload.Query{
		Table:   config.Table,
		Columns: config.Columns,
	}
	if config.Where != "" {
		query.Predicate = sq.Expr(config.Where)
	}

	stream, err := unload.Open(ctx, db, dialect, query,
		unload.WithNullToken(config.NullToken),
		unload.WithPipeDir(config.PipeDir),
		unload.WithLogger(log),
	)
	if err != nil {
		return err
	}

	log.Info("unload started", zap.String("table", config.Table), zap.String("dialect", config.Dialect))

	out := bufio.NewWriter(os.Stdout)
	count := 0
	for {
		rec, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, unload.ErrIteratorDone) {
				break
			}
			return errors.Join(err, stream.Close())
		}
		if _, err := out.Write(rec); err != nil {
			return errors.Join(err, stream.Close())
		}
		if err := out.WriteByte('\n'); err != nil {
			return errors.Join(err, stream.Close())
		}
		count++
	}

	if err := out.Flush(); err != nil {
		return errors.Join(err, stream.Close())
	}
	if err := stream.Close(); err != nil {
		return err
	}

	log.Info("unload finished", zap.Int("records", count))
	return nil
}
