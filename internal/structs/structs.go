package structs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// StructInfo stores metainformation of the struct
// parser in order to help kquery to work
// efectively and efficiently with reflection.
type StructInfo struct {
	fields []FieldInfo
	byName map[string]int
}

// FieldInfo contains reflection and tags
// information regarding a specific field
// of a struct.
type FieldInfo struct {
	AttrName   string
	ColumnName string
	Index      int

	// SerializeAsJSON is set by the `kquery:"name,json"` tag option
	SerializeAsJSON bool
}

// NumFields returns the number of tagged fields
func (s StructInfo) NumFields() int {
	return len(s.fields)
}

// ByIndex returns the idx-th tagged field in declaration order.
func (s StructInfo) ByIndex(idx int) FieldInfo {
	return s.fields[idx]
}

// ByName returns the field with the given column name
func (s StructInfo) ByName(name string) (FieldInfo, bool) {
	idx, found := s.byName[name]
	if !found {
		return FieldInfo{}, false
	}
	return s.fields[idx], true
}

// ColumnNames lists the column names in declaration order.
func (s StructInfo) ColumnNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, field := range s.fields {
		names = append(names, field.ColumnName)
	}
	return names
}

// This cache is kept as a pkg variable
// because the total number of types on a program
// should be finite. So keeping a single cache here
// works fine.
var tagInfoCache = &sync.Map{}

// GetTagInfo efficiently returns the type information
// using a global private cache
func GetTagInfo(key reflect.Type) (StructInfo, error) {
	return getCachedTagInfo(tagInfoCache, key)
}

func getCachedTagInfo(tagInfoCache *sync.Map, key reflect.Type) (StructInfo, error) {
	if data, found := tagInfoCache.Load(key); found {
		info, ok := data.(StructInfo)
		if !ok {
			return StructInfo{}, fmt.Errorf("invalid cache entry, expected type StructInfo, found %T", data)
		}
		return info, nil
	}

	info, err := getTagNames(key)
	if err != nil {
		return StructInfo{}, err
	}

	tagInfoCache.Store(key, info)
	return info, nil
}

// StructToMap converts any struct type to a map based on
// the tag named `kquery`, i.e. `kquery:"map_key_name"`
//
// Valid pointers are dereferenced and copied to the map,
// nil pointers are copied as nil values.
func StructToMap(obj interface{}) (map[string]interface{}, error) {
	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return nil, fmt.Errorf("input must be a struct or struct pointer, but got nil")
	}

	t := v.Type()
	if t.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("input must be a struct or struct pointer, but got a nil %v", t)
		}
		v = v.Elem()
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input must be a struct or struct pointer")
	}

	info, err := getCachedTagInfo(tagInfoCache, t)
	if err != nil {
		return nil, err
	}

	m := make(map[string]interface{}, info.NumFields())
	for _, fieldInfo := range info.fields {
		field := v.Field(fieldInfo.Index)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				m[fieldInfo.ColumnName] = nil
				continue
			}

			field = field.Elem()
		}

		value := field.Interface()
		if fieldInfo.SerializeAsJSON {
			b, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("unable to serialize %s.%s as JSON: %w", t.Name(), fieldInfo.AttrName, err)
			}
			value = string(b)
		}

		m[fieldInfo.ColumnName] = value
	}

	return m, nil
}

// This function collects only the names
// that will be used from the input type.
//
// This should save several calls to `Field(i).Tag.Get("foo")`
// which improves performance by a lot.
func getTagNames(t reflect.Type) (StructInfo, error) {
	info := StructInfo{
		byName: map[string]int{},
	}
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("kquery")
		if name == "" {
			continue
		}

		// If this field is private:
		if t.Field(i).PkgPath != "" {
			return StructInfo{}, fmt.Errorf("all fields using the kquery tags must be exported, but %v is unexported", t)
		}

		tags := strings.Split(name, ",")
		name = tags[0]

		var serializeAsJSON bool
		for _, opt := range tags[1:] {
			switch opt {
			case "json":
				serializeAsJSON = true
			default:
				return StructInfo{}, fmt.Errorf("unknown kquery tag option '%s' on %v.%s", opt, t, t.Field(i).Name)
			}
		}

		if _, found := info.byName[name]; found {
			return StructInfo{}, fmt.Errorf(
				"struct contains multiple attributes with the same kquery tag name: '%s'",
				name,
			)
		}

		info.byName[name] = len(info.fields)
		info.fields = append(info.fields, FieldInfo{
			AttrName:        t.Field(i).Name,
			ColumnName:      name,
			Index:           i,
			SerializeAsJSON: serializeAsJSON,
		})
	}

	if len(info.fields) == 0 {
		return StructInfo{}, fmt.Errorf("the struct must contain at least one attribute with the kquery tag")
	}

	return info, nil
}
