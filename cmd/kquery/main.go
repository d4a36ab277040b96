// Command kquery inserts rows into any database supported by the kquery adapters.
//
// Usage:
//
//	kquery insert --table users --row '{"name": "Ann"}' --returning id
//	kquery insert --table users --rows-file rows.yaml --dry-run --dialect mysql
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Register every adapter so any of them can be
	// named by the `client` key of the config file:
	_ "github.com/vingarcia/kquery/adapters/kmysql"
	_ "github.com/vingarcia/kquery/adapters/kpgx"
	_ "github.com/vingarcia/kquery/adapters/kpgx5"
	_ "github.com/vingarcia/kquery/adapters/kpostgres"
	_ "github.com/vingarcia/kquery/adapters/ksqlite"
	_ "github.com/vingarcia/kquery/adapters/ksqlite3"
	_ "github.com/vingarcia/kquery/adapters/ksqlserver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand
type globalOptions struct {
	configPath string
	connection string
	logLevel   string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "kquery",
		Short:        "Insert rows into SQL databases using the kquery adapters",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			opts.logger, err = newLogger(opts.logLevel, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("KQUERY_CONFIG"), "path to the configuration file (yaml, json or toml)")
	flags.StringVar(&opts.connection, "connection", "", "name of the configured connection, defaults to the `connection` key of the config")
	flags.StringVar(&opts.logLevel, "log-level", "info", "minimum level of the logs written to stderr")

	root.AddCommand(newInsertCmd(opts))

	return root
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
