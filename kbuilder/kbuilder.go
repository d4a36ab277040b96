// Package kbuilder compiles query templates into SQL for a given dialect.
//
// It is the statement compiler used by the kquery query builders, but it
// can also be used directly:
//
//	query, params, err := kbuilder.Insert{
//		Into: "users",
//		Data: map[string]interface{}{"name": "Ann"},
//	}.Build("postgres")
package kbuilder

import (
	"fmt"
	"strings"

	"github.com/vingarcia/kquery/sqldialect"
)

// Builder binds a dialect so that several query templates
// can be built without looking the dialect up every time.
type Builder struct {
	dialect sqldialect.Provider
}

type queryBuilder interface {
	BuildQuery(dialect sqldialect.Provider) (sqlQuery string, params []interface{}, _ error)
}

// New instantiates a Builder for the given driver or dialect alias
func New(driver string) (Builder, error) {
	dialect, err := sqldialect.Lookup(driver)
	if err != nil {
		return Builder{}, err
	}

	return Builder{
		dialect: dialect,
	}, nil
}

// Build compiles the query template using the dialect of the Builder
func (b Builder) Build(query queryBuilder) (sqlQuery string, params []interface{}, _ error) {
	return query.BuildQuery(b.dialect)
}

// EscapeTable quotes a table name, schema qualified names
// such as `public.users` are quoted part by part.
func EscapeTable(dialect sqldialect.Provider, table string) string {
	parts := strings.Split(table, ".")
	for i, part := range parts {
		parts[i] = dialect.Escape(strings.TrimSpace(part))
	}
	return strings.Join(parts, ".")
}

func escapeAll(dialect sqldialect.Provider, names []string, prefix string) string {
	escaped := make([]string, 0, len(names))
	for _, name := range names {
		escaped = append(escaped, prefix+dialect.Escape(name))
	}
	return strings.Join(escaped, ", ")
}

func unsupportedDriverErr(driver string, err error) error {
	return fmt.Errorf("unsupported driver `%s`: %w", driver, err)
}
