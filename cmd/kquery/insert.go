package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/kconfig"
	"github.com/vingarcia/kquery/sqldialect"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type insertOptions struct {
	table     string
	rows      []string
	rowsFile  string
	returning []string
	dryRun    bool
	dialect   string
}

func newInsertCmd(global *globalOptions) *cobra.Command {
	opts := &insertOptions{}

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one or more rows in a single statement",
		Long: `Insert one or more rows in a single statement.

Rows are written in YAML or JSON, either inline with --row
or in a file with --rows-file containing a single row or a list of rows.

Columns missing from some of the rows are filled with the DEFAULT keyword.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd, global, opts)
		},
	}

	addInsertFlags(cmd.Flags(), opts)
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func addInsertFlags(flags *pflag.FlagSet, opts *insertOptions) {
	flags.StringVarP(&opts.table, "table", "t", "", "name of the table")
	flags.StringArrayVarP(&opts.rows, "row", "r", nil, "row to insert as a YAML or JSON object, can be repeated")
	flags.StringVarP(&opts.rowsFile, "rows-file", "f", "", "YAML or JSON file with the rows to insert")
	flags.StringSliceVar(&opts.returning, "returning", nil, "columns to return after the insert, ignored on MySQL and SQLite")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the query instead of running it")
	flags.StringVar(&opts.dialect, "dialect", "", "dialect used by --dry-run, defaults to the dialect of the configured connection")
}

func runInsert(cmd *cobra.Command, global *globalOptions, opts *insertOptions) error {
	ctx := cmd.Context()
	logger := global.logger

	rows, err := loadRows(opts.rows, opts.rowsFile)
	if err != nil {
		return err
	}

	if opts.dryRun {
		dialect, err := dryRunDialect(global, opts)
		if err != nil {
			return err
		}

		query, err := kquery.NewClient(global.connection, dialect, nil).
			Table(opts.table).
			MultiInsert(rows).
			Returning(opts.returning...).
			ToQuery()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), query)
		return nil
	}

	cfg, err := kconfig.Load(global.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	profiler, err := cfg.Profiler.NewProfiler(logger)
	if err != nil {
		return err
	}

	client, err := kconfig.Connect(ctx, cfg, global.connection, profiler)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Debug("inserting rows",
		zap.String("connection", client.ConnectionName()),
		zap.String("table", opts.table),
		zap.Int("rows", len(rows)),
	)

	result, err := client.Table(opts.table).
		MultiInsert(rows).
		Returning(opts.returning...).
		Exec(ctx)
	if err != nil {
		logger.Error("insert failed", zap.String("table", opts.table), zap.Error(err))
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func dryRunDialect(global *globalOptions, opts *insertOptions) (sqldialect.Provider, error) {
	if opts.dialect != "" {
		return sqldialect.Lookup(opts.dialect)
	}

	cfg, err := kconfig.Load(global.configPath)
	if err != nil {
		return nil, err
	}

	name := global.connection
	if name == "" {
		name = cfg.Connection
	}

	conn, found := cfg.Connections[name]
	if !found {
		return nil, fmt.Errorf("connection `%s` is not configured, use --dialect to run --dry-run without a config", name)
	}

	return conn.ResolveDialect()
}

// loadRows parses the rows passed with --row and --rows-file,
// both flags can be used together.
func loadRows(inline []string, path string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	for i, row := range inline {
		parsed, err := parseRows([]byte(row))
		if err != nil {
			return nil, fmt.Errorf("invalid --row #%d: %w", i+1, err)
		}
		rows = append(rows, parsed...)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read --rows-file: %w", err)
		}

		parsed, err := parseRows(content)
		if err != nil {
			return nil, fmt.Errorf("invalid --rows-file %s: %w", path, err)
		}
		rows = append(rows, parsed...)
	}

	if len(rows) == 0 {
		return nil, errors.New("no rows to insert, use --row or --rows-file")
	}

	return rows, nil
}

func parseRows(content []byte) ([]map[string]interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	switch v := doc.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	case []interface{}:
		rows := make([]map[string]interface{}, 0, len(v))
		for i, item := range v {
			row, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("expected row #%d to be an object but got %T", i+1, item)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("expected an object or a list of objects but got %T", doc)
}
