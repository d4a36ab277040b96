package sqldialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InsertMethod describes how a dialect reports values
// back to the caller after an insertion.
type InsertMethod int

const (
	InsertWithReturning InsertMethod = iota
	InsertWithOutput
	InsertWithLastInsertID
	InsertWithNoIDRetrieval
)

// Name is the closed set of SQL dialects supported by kquery.
type Name int

const (
	Postgres Name = iota + 1
	MySQL
	SQLite3
	SQLServer
)

type variant struct {
	label    string
	aliases  []string
	provider Provider

	// suppressReturning marks the dialects that either reject or ignore
	// a RETURNING clause on inserts.
	suppressReturning bool
}

var variants = map[Name]variant{
	Postgres: {
		label:    "postgres",
		aliases:  []string{"postgres", "postgresql", "pg", "pgx"},
		provider: PostgresDialect{},
	},
	MySQL: {
		label:             "mysql",
		aliases:           []string{"mysql", "mysql2"},
		provider:          MysqlDialect{},
		suppressReturning: true,
	},
	SQLite3: {
		label:             "sqlite3",
		aliases:           []string{"sqlite3", "sqlite", "better-sqlite3"},
		provider:          Sqlite3Dialect{},
		suppressReturning: true,
	},
	SQLServer: {
		label:    "sqlserver",
		aliases:  []string{"sqlserver", "mssql"},
		provider: SqlserverDialect{},
	},
}

var byAlias = func() map[string]Name {
	m := map[string]Name{}
	for name, v := range variants {
		for _, alias := range v.aliases {
			m[alias] = name
		}
	}
	return m
}()

// SupportedDialects maps every accepted driver alias to its Provider.
var SupportedDialects = func() map[string]Provider {
	m := map[string]Provider{}
	for alias, name := range byAlias {
		m[alias] = variants[name].provider
	}
	return m
}()

// ParseName resolves a driver or dialect alias, e.g. "pg" or "mysql2",
// into one of the supported dialect names.
func ParseName(s string) (Name, error) {
	name, ok := byAlias[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unsupported dialect `%s`, expected one of: %s", s, strings.Join(Aliases(), ", "))
	}
	return name, nil
}

// Lookup is a shortcut for ParseName(s) followed by Name.Provider()
func Lookup(s string) (Provider, error) {
	name, err := ParseName(s)
	if err != nil {
		return nil, err
	}
	return name.Provider(), nil
}

// Aliases lists every accepted alias in alphabetical order.
func Aliases() []string {
	aliases := make([]string, 0, len(byAlias))
	for alias := range byAlias {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func (n Name) String() string {
	v, ok := variants[n]
	if !ok {
		return "Name(" + strconv.Itoa(int(n)) + ")"
	}
	return v.label
}

// Provider returns the Provider for this dialect or nil
// if the Name is not one of the declared constants.
func (n Name) Provider() Provider {
	return variants[n].provider
}

// SuppressesReturning reports whether RETURNING requests should
// be silently dropped for this dialect.
func (n Name) SuppressesReturning() bool {
	return variants[n].suppressReturning
}

// Provider or dialect.Provider represents one particular
// way of writing SQL queries.
//
// Different DBAdapters will require different dialects to work.
type Provider interface {
	Name() Name
	InsertMethod() InsertMethod
	Escape(str string) string
	Placeholder(idx int) string
	DriverName() string

	// DefaultKeyword is written in place of the columns
	// a row omits on a multi row insert.
	DefaultKeyword() string
}

type PostgresDialect struct{}

func (PostgresDialect) Name() Name {
	return Postgres
}

func (PostgresDialect) DriverName() string {
	return "postgres"
}

func (PostgresDialect) InsertMethod() InsertMethod {
	return InsertWithReturning
}

func (PostgresDialect) Escape(str string) string {
	return `"` + strings.ReplaceAll(str, `"`, `""`) + `"`
}

func (PostgresDialect) Placeholder(idx int) string {
	return "$" + strconv.Itoa(idx+1)
}

func (PostgresDialect) DefaultKeyword() string {
	return "DEFAULT"
}

type Sqlite3Dialect struct{}

func (Sqlite3Dialect) Name() Name {
	return SQLite3
}

func (Sqlite3Dialect) DriverName() string {
	return "sqlite3"
}

func (Sqlite3Dialect) InsertMethod() InsertMethod {
	return InsertWithLastInsertID
}

func (Sqlite3Dialect) Escape(str string) string {
	return "`" + strings.ReplaceAll(str, "`", "``") + "`"
}

func (Sqlite3Dialect) Placeholder(idx int) string {
	return "?"
}

// SQLite does not accept DEFAULT inside a VALUES list.
func (Sqlite3Dialect) DefaultKeyword() string {
	return "NULL"
}

type MysqlDialect struct{}

func (MysqlDialect) Name() Name {
	return MySQL
}

func (MysqlDialect) DriverName() string {
	return "mysql"
}

func (MysqlDialect) InsertMethod() InsertMethod {
	return InsertWithLastInsertID
}

func (MysqlDialect) Escape(str string) string {
	return "`" + strings.ReplaceAll(str, "`", "``") + "`"
}

func (MysqlDialect) Placeholder(idx int) string {
	return "?"
}

func (MysqlDialect) DefaultKeyword() string {
	return "DEFAULT"
}

type SqlserverDialect struct{}

func (SqlserverDialect) Name() Name {
	return SQLServer
}

func (SqlserverDialect) DriverName() string {
	return "sqlserver"
}

func (SqlserverDialect) InsertMethod() InsertMethod {
	return InsertWithOutput
}

func (SqlserverDialect) Escape(str string) string {
	return `[` + strings.ReplaceAll(str, `]`, `]]`) + `]`
}

func (SqlserverDialect) Placeholder(idx int) string {
	return "@p" + strconv.Itoa(idx+1)
}

func (SqlserverDialect) DefaultKeyword() string {
	return "DEFAULT"
}
