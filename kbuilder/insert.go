package kbuilder

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vingarcia/kquery/internal/structs"
	"github.com/vingarcia/kquery/sqldialect"
)

// Insert is the struct template for building INSERT queries
type Insert struct {
	// Into expects a table name, e.g. "users"
	Into string

	// Data expects one of:
	//
	//   - a single record annotated with `kquery` tags or a list of them
	//   - a map[string]interface{} of column names to values or a list of them
	//
	// When maps are used the columns are the sorted union of the keys of
	// all the rows and missing columns are filled with the dialect default.
	Data interface{}

	// OmitColumns informs kbuilder of a set of columns not to use during the insertion
	OmitColumns []string

	// Returning causes the query to be built in a way that the selected attributes
	// will be returned after the insertion.
	Returning []string
}

// Build is a utility function for finding the dialect based on the driver and
// then calling BuildQuery(dialect)
func (i Insert) Build(driver string) (sqlQuery string, params []interface{}, _ error) {
	dialect, err := sqldialect.Lookup(driver)
	if err != nil {
		return "", nil, unsupportedDriverErr(driver, err)
	}

	return i.BuildQuery(dialect)
}

// BuildQuery implements the queryBuilder interface
func (i Insert) BuildQuery(dialect sqldialect.Provider) (sqlQuery string, params []interface{}, _ error) {
	return i.build(dialect, false)
}

// BuildLiteral builds the same query as BuildQuery but with every
// param written inline as an SQL literal.
//
// The output is meant for logging and debugging, use
// BuildQuery for sending queries to the database.
func (i Insert) BuildLiteral(dialect sqldialect.Provider) (string, error) {
	sqlQuery, _, err := i.build(dialect, true)
	return sqlQuery, err
}

func (i Insert) build(dialect sqldialect.Provider, inline bool) (sqlQuery string, params []interface{}, _ error) {
	if i.Into == "" {
		return "", nil, fmt.Errorf(
			"expected the Into attr to contain the tablename, but got an empty string instead",
		)
	}

	if i.Data == nil {
		return "", nil, fmt.Errorf(
			"expected the Data attr to contain a struct, a map or a list of them, but got `%v`",
			i.Data,
		)
	}

	columns, rows, err := decodeRows(i.Data)
	if err != nil {
		return "", nil, err
	}

	if len(i.OmitColumns) > 0 {
		shouldOmit := map[string]bool{}
		for _, name := range i.OmitColumns {
			shouldOmit[name] = true
		}

		kept := columns[:0:0]
		for _, name := range columns {
			if !shouldOmit[name] {
				kept = append(kept, name)
			}
		}
		columns = kept
	}

	if len(columns) == 0 {
		return "", nil, fmt.Errorf("can't create an insertion query without any columns")
	}

	var b strings.Builder
	b.WriteString("INSERT INTO " + EscapeTable(dialect, i.Into))
	b.WriteString(" (" + escapeAll(dialect, columns, "") + ")")

	if len(i.Returning) > 0 {
		switch dialect.InsertMethod() {
		case sqldialect.InsertWithReturning:
			// Written after the VALUES list below.
		case sqldialect.InsertWithOutput:
			b.WriteString(" OUTPUT " + escapeAll(dialect, i.Returning, "INSERTED."))
		default:
			return "", nil, fmt.Errorf(
				"kbuilder: invalid option: driver '%s' does not support Returning values after an insert statement",
				dialect.DriverName(),
			)
		}
	}

	b.WriteString(" VALUES ")

	params = []interface{}{}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, 0, len(columns))
		for _, name := range columns {
			value, found := row[name]
			switch {
			case !found:
				placeholders = append(placeholders, dialect.DefaultKeyword())
			case inline:
				lit, err := literal(dialect, value)
				if err != nil {
					return "", nil, fmt.Errorf("unable to write column `%s` as a literal: %w", name, err)
				}
				placeholders = append(placeholders, lit)
			default:
				placeholders = append(placeholders, dialect.Placeholder(len(params)))
				params = append(params, value)
			}
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
	}
	b.WriteString(strings.Join(values, ", "))

	if len(i.Returning) > 0 && dialect.InsertMethod() == sqldialect.InsertWithReturning {
		b.WriteString(" RETURNING " + escapeAll(dialect, i.Returning, ""))
	}

	if inline {
		return b.String(), nil, nil
	}

	return b.String(), params, nil
}

// decodeRows normalizes the accepted Data formats into a list of
// column->value maps and the ordered list of columns to insert.
func decodeRows(data interface{}) (columns []string, rows []map[string]interface{}, _ error) {
	switch d := data.(type) {
	case map[string]interface{}:
		rows = []map[string]interface{}{d}
		return sortedColumns(rows), rows, nil
	case []map[string]interface{}:
		if len(d) == 0 {
			return nil, nil, fmt.Errorf("can't create an insertion query from an empty list of values")
		}
		return sortedColumns(d), d, nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		// Convert it to a slice of a single element:
		v = reflect.Append(reflect.MakeSlice(reflect.SliceOf(v.Type()), 0, 1), v)
	}

	if v.Len() == 0 {
		return nil, nil, fmt.Errorf(
			"can't create an insertion query from an empty list of values",
		)
	}

	var structType reflect.Type
	onlyStructsOfOneType := true
	for i := 0; i < v.Len(); i++ {
		record := v.Index(i)
		for record.Kind() == reflect.Ptr || record.Kind() == reflect.Interface {
			if record.IsNil() {
				return nil, nil, fmt.Errorf("expected Data attr to contain only non-nil records, but record %d is nil", i)
			}
			record = record.Elem()
		}

		switch record.Kind() {
		case reflect.Struct:
			m, err := structs.StructToMap(record.Interface())
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, m)

			if structType == nil {
				structType = record.Type()
			}
			if structType != record.Type() {
				onlyStructsOfOneType = false
			}

		case reflect.Map:
			if record.Type().Key().Kind() != reflect.String {
				return nil, nil, fmt.Errorf("expected Data attr to use maps with string keys but got: %v", record.Type())
			}

			m := make(map[string]interface{}, record.Len())
			iter := record.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			rows = append(rows, m)
			onlyStructsOfOneType = false

		default:
			return nil, nil, fmt.Errorf("expected Data attr to be a struct, a map or a slice of them but got: %v", record.Type())
		}
	}

	if onlyStructsOfOneType {
		info, err := structs.GetTagInfo(structType)
		if err != nil {
			return nil, nil, err
		}
		return info.ColumnNames(), rows, nil
	}

	return sortedColumns(rows), rows, nil
}

func sortedColumns(rows []map[string]interface{}) []string {
	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)
	return columns
}
