package datarecording

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// A column is a struct field stored in a table. Column names come from the
// `db` tag and fall back to the field name.
type column struct {
	name     string
	field    int
	sqlType  string
	nullable bool
}

func columnsOf(entry any) ([]column, error) {
	rt := reflect.TypeOf(entry)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, errors.New("entry is not a struct")
	}

	var cols []column

	for _, f := range structs.Fields(entry) {
		name := f.Tag("db")
		if name == "-" {
			continue
		}

		if name == "" {
			name = f.Name()
		}

		sf, _ := rt.FieldByName(f.Name())

		t := sf.Type
		nullable := t.Kind() == reflect.Pointer
		if nullable {
			t = t.Elem()
		}

		sqlType, ok := affinity(t.Kind())
		if !ok {
			return nil, fmt.Errorf("entry field %s has unsupported type %s",
				f.Name(), sf.Type)
		}

		cols = append(cols, column{
			name:     name,
			field:    sf.Index[0],
			sqlType:  sqlType,
			nullable: nullable,
		})
	}

	if len(cols) == 0 {
		return nil, errors.New("entry has no exported fields")
	}

	return cols, nil
}

func affinity(kind reflect.Kind) (string, bool) {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.String:
		return "TEXT", true
	default:
		return "", false
	}
}

func createTableSQL(table string, cols []column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c.name + " " + c.sqlType
		if !c.nullable {
			defs[i] += " NOT NULL"
		}
	}

	return "CREATE TABLE " + table + " (\n\t" +
		strings.Join(defs, ",\n\t") + "\n);"
}

func insertSQL(table string, cols []column) string {
	names := make([]string, len(cols))
	marks := make([]string, len(cols))

	for i, c := range cols {
		names[i] = c.name
		marks[i] = "?"
	}

	return "INSERT INTO " + table + " (" + strings.Join(names, ", ") +
		") VALUES (" + strings.Join(marks, ", ") + ")"
}

func selectList(cols []column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	return strings.Join(names, ", ")
}

// values lists the column values of an entry. Nil pointers become NULL.
func values(entry reflect.Value, cols []column) []any {
	v := make([]any, len(cols))

	for i, c := range cols {
		f := entry.Field(c.field)
		if c.nullable && f.IsNil() {
			continue
		}

		v[i] = reflect.Indirect(f).Interface()
	}

	return v
}

// targets lists scan destinations for the columns of an entry.
func targets(entry reflect.Value, cols []column) []any {
	t := make([]any, len(cols))
	for i, c := range cols {
		t[i] = entry.Field(c.field).Addr().Interface()
	}

	return t
}
