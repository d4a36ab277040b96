package kbuilder

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/vingarcia/kquery/sqldialect"
)

const literalTimeLayout = "2006-01-02 15:04:05.999999999"

func literal(dialect sqldialect.Provider, value interface{}) (string, error) {
	if valuer, ok := value.(driver.Valuer); ok {
		if v := reflect.ValueOf(value); v.Kind() == reflect.Ptr && v.IsNil() {
			return "NULL", nil
		}

		var err error
		value, err = valuer.Value()
		if err != nil {
			return "", err
		}
	}

	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case time.Time:
		return quote(dialect, v.Format(literalTimeLayout)), nil
	case []byte:
		return bytesLiteral(dialect, v), nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return "NULL", nil
		}
		return literal(dialect, v.Elem().Interface())
	case reflect.String:
		return quote(dialect, v.String()), nil
	case reflect.Bool:
		return boolLiteral(dialect, v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return bytesLiteral(dialect, v.Bytes()), nil
		}
	}

	if stringer, ok := value.(fmt.Stringer); ok {
		return quote(dialect, stringer.String()), nil
	}

	return "", fmt.Errorf("unsupported literal type %T", value)
}

func quote(dialect sqldialect.Provider, s string) string {
	if dialect.Name() == sqldialect.MySQL {
		// MySQL treats backslashes as escape characters inside strings
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func boolLiteral(dialect sqldialect.Provider, b bool) string {
	if dialect.Name() == sqldialect.SQLServer {
		if b {
			return "1"
		}
		return "0"
	}

	if b {
		return "TRUE"
	}
	return "FALSE"
}

func bytesLiteral(dialect sqldialect.Provider, b []byte) string {
	encoded := hex.EncodeToString(b)
	switch dialect.Name() {
	case sqldialect.Postgres:
		return `'\x` + encoded + `'`
	case sqldialect.SQLServer:
		return "0x" + encoded
	default:
		return "X'" + encoded + "'"
	}
}
