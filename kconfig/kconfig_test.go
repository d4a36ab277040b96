package kconfig_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vingarcia/kquery"
	_ "github.com/vingarcia/kquery/adapters/ksqlite"
	tt "github.com/vingarcia/kquery/internal/testtools"
	"github.com/vingarcia/kquery/kconfig"
	"github.com/vingarcia/kquery/sqldialect"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0o644)
	tt.AssertNoErr(t, err)
	return path
}

func TestLoad(t *testing.T) {
	t.Run("should read yaml files", func(t *testing.T) {
		path := writeFile(t, "kquery.yaml", `
connection: primary
connections:
  primary:
    client: pgx5
    max_open_conns: 5
    write:
      dsn: postgres://writer
    read:
      - dsn: postgres://replica1
      - dsn: postgres://replica2
  analytics:
    client: mysql
    dialect: mysql2
    write:
      dsn: root:mysql@(localhost)/analytics
profiler:
  log: true
  log_level: info
`)

		cfg, err := kconfig.Load(path)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, cfg, kconfig.Config{
			Connection: "primary",
			Connections: map[string]kconfig.Connection{
				"primary": {
					Client:       "pgx5",
					MaxOpenConns: 5,
					Write:        kconfig.Endpoint{DSN: "postgres://writer"},
					Read: []kconfig.Endpoint{
						{DSN: "postgres://replica1"},
						{DSN: "postgres://replica2"},
					},
				},
				"analytics": {
					Client:  "mysql",
					Dialect: "mysql2",
					Write:   kconfig.Endpoint{DSN: "root:mysql@(localhost)/analytics"},
				},
			},
			Profiler: kconfig.ProfilerConfig{
				Log:      true,
				LogLevel: "info",
			},
		})
		tt.AssertNoErr(t, cfg.Validate())
	})

	t.Run("should read json files", func(t *testing.T) {
		path := writeFile(t, "kquery.json", `{
			"connections": {"default": {"client": "sqlite", "write": {"dsn": "/tmp/app.db"}}}
		}`)

		cfg, err := kconfig.Load(path)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, cfg.Connection, kconfig.DefaultConnection)
		tt.AssertEqual(t, cfg.Connections["default"].Client, "sqlite")
		tt.AssertEqual(t, cfg.Profiler, kconfig.ProfilerConfig{Log: false, LogLevel: "debug"})
	})

	t.Run("should apply environment overrides", func(t *testing.T) {
		path := writeFile(t, "kquery.yaml", `
connections:
  default:
    client: sqlite
    write:
      dsn: /tmp/app.db
`)
		t.Setenv("KQUERY_CONNECTIONS_DEFAULT_WRITE_DSN", "/tmp/overridden.db")
		t.Setenv("KQUERY_PROFILER_LOG", "true")

		cfg, err := kconfig.Load(path)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, cfg.Connections["default"].Write.DSN, "/tmp/overridden.db")
		tt.AssertEqual(t, cfg.Profiler.Log, true)
	})

	t.Run("should report missing files", func(t *testing.T) {
		_, err := kconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		tt.AssertErrContains(t, err, "unable to read config file", "missing.yaml")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		desc               string
		cfg                kconfig.Config
		expectErrToContain []string
	}{
		{
			desc:               "no connections",
			cfg:                kconfig.Config{Connection: "default"},
			expectErrToContain: []string{"no connections configured"},
		},
		{
			desc: "unknown default connection",
			cfg: kconfig.Config{
				Connection: "primary",
				Connections: map[string]kconfig.Connection{
					"other": {Client: "sqlite", Write: kconfig.Endpoint{DSN: "x"}},
				},
			},
			expectErrToContain: []string{"default connection `primary`"},
		},
		{
			desc: "incomplete connection",
			cfg: kconfig.Config{
				Connection: "default",
				Connections: map[string]kconfig.Connection{
					"default": {
						Dialect:      "oracle",
						MaxOpenConns: -1,
						Read:         []kconfig.Endpoint{{}},
					},
				},
			},
			expectErrToContain: []string{
				"connection `default`",
				"missing client",
				"unsupported dialect `oracle`",
				"max_open_conns",
				"missing write.dsn",
				"missing read[0].dsn",
			},
		},
		{
			desc: "invalid log level",
			cfg: kconfig.Config{
				Connection: "default",
				Connections: map[string]kconfig.Connection{
					"default": {Client: "sqlite", Write: kconfig.Endpoint{DSN: "x"}},
				},
				Profiler: kconfig.ProfilerConfig{Log: true, LogLevel: "verbose"},
			},
			expectErrToContain: []string{"profiler", "verbose"},
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			err := test.cfg.Validate()
			tt.AssertErrContains(t, err, test.expectErrToContain...)
		})
	}
}

func TestProfilerConfig(t *testing.T) {
	t.Run("should return nil when the log is disabled", func(t *testing.T) {
		profiler, err := kconfig.ProfilerConfig{LogLevel: "debug"}.NewProfiler(zap.NewNop())
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, profiler == nil, true)
	})

	t.Run("should only log queries above the configured level", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		profiler, err := kconfig.ProfilerConfig{Log: true, LogLevel: "warn"}.NewProfiler(zap.New(core))
		tt.AssertNoErr(t, err)

		profiler.Profile(kquery.QueryEvent, kquery.ProfilerPayload{}).End(nil)
		profiler.Profile(kquery.QueryEvent, kquery.ProfilerPayload{}).End(errors.New("fakeErrMsg"))

		tt.AssertEqual(t, logs.Len(), 1)
		tt.AssertEqual(t, logs.All()[0].Level, zapcore.WarnLevel)
	})
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("should open the write and read handles with the registered adapter", func(t *testing.T) {
		var openedDSNs []string
		kquery.RegisterAdapter("kconfig-fake", sqldialect.MySQL, func(ctx context.Context, dsn string, config kquery.Config) (kquery.DBAdapter, error) {
			openedDSNs = append(openedDSNs, dsn)
			tt.AssertEqual(t, config.MaxOpenConns, 3)
			return kquery.MockDBAdapter{}, nil
		})

		cfg := kconfig.Config{
			Connection: "primary",
			Connections: map[string]kconfig.Connection{
				"primary": {
					Client:       "kconfig-fake",
					MaxOpenConns: 3,
					Write:        kconfig.Endpoint{DSN: "write-dsn"},
					Read:         []kconfig.Endpoint{{DSN: "read-dsn"}},
				},
			},
		}

		c, err := kconfig.Connect(ctx, cfg, "", nil)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, openedDSNs, []string{"write-dsn", "read-dsn"})
		tt.AssertEqual(t, c.ConnectionName(), "primary")
		tt.AssertEqual(t, c.Dialect().Name(), sqldialect.MySQL)
		tt.AssertEqual(t, c.Profiler() == nil, true)
	})

	t.Run("should let the config override the adapter dialect", func(t *testing.T) {
		kquery.RegisterAdapter("kconfig-fake-pg", sqldialect.Postgres, func(ctx context.Context, dsn string, config kquery.Config) (kquery.DBAdapter, error) {
			return kquery.MockDBAdapter{}, nil
		})

		c, err := kconfig.Connect(ctx, kconfig.Config{
			Connections: map[string]kconfig.Connection{
				"cockroach": {Client: "kconfig-fake-pg", Dialect: "sqlserver", Write: kconfig.Endpoint{DSN: "x"}},
			},
		}, "cockroach", nil)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, c.Dialect().Name(), sqldialect.SQLServer)
	})

	t.Run("should close the opened handles when a replica fails", func(t *testing.T) {
		var closed int
		kquery.RegisterAdapter("kconfig-fake-failing", sqldialect.Postgres, func(ctx context.Context, dsn string, config kquery.Config) (kquery.DBAdapter, error) {
			if dsn == "broken" {
				return nil, errors.New("fakeOpenErr")
			}
			return &closerAdapter{onClose: func() { closed++ }}, nil
		})

		_, err := kconfig.Connect(ctx, kconfig.Config{
			Connections: map[string]kconfig.Connection{
				"default": {
					Client: "kconfig-fake-failing",
					Write:  kconfig.Endpoint{DSN: "ok"},
					Read:   []kconfig.Endpoint{{DSN: "ok"}, {DSN: "broken"}},
				},
			},
		}, "default", nil)
		tt.AssertErrContains(t, err, "fakeOpenErr")
		tt.AssertEqual(t, closed, 2)
	})

	t.Run("should report unknown connections and adapters", func(t *testing.T) {
		_, err := kconfig.Connect(ctx, kconfig.Config{}, "missing", nil)
		tt.AssertErrContains(t, err, "connection `missing` is not configured")

		_, err = kconfig.Connect(ctx, kconfig.Config{
			Connections: map[string]kconfig.Connection{
				"default": {Client: "not-registered", Write: kconfig.Endpoint{DSN: "x"}},
			},
		}, "default", nil)
		tt.AssertErrIs(t, err, kquery.ErrUnknownAdapter)
	})

	t.Run("should insert through a sqlite connection loaded from a file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "kquery.db")
		path := writeFile(t, "kquery.yaml", `
connections:
  default:
    client: sqlite
    write:
      dsn: `+dbPath+`
profiler:
  log: true
`)

		cfg, err := kconfig.Load(path)
		tt.AssertNoErr(t, err)
		tt.AssertNoErr(t, cfg.Validate())

		core, logs := observer.New(zapcore.DebugLevel)
		profiler, err := cfg.Profiler.NewProfiler(zap.New(core))
		tt.AssertNoErr(t, err)

		c, err := kconfig.Connect(ctx, cfg, "", profiler)
		tt.AssertNoErr(t, err)
		defer c.Close()

		_, err = c.RawQuery(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`).Exec(ctx)
		tt.AssertNoErr(t, err)

		result, err := c.Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Returning("id").
			Exec(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, result.LastInsertID, int64(1))

		tt.AssertEqual(t, logs.FilterField(zap.String("sql", "INSERT INTO `users` (`name`) VALUES (?)")).Len(), 1)
	})
}

type closerAdapter struct {
	kquery.MockDBAdapter
	onClose func()
}

func (c *closerAdapter) Close() error {
	c.onClose()
	return nil
}
