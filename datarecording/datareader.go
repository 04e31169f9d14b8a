package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// QueryParams narrows and orders a query.
type QueryParams struct {
	// Where holds the condition without the "WHERE" keyword, for example
	// "Time >= ? AND Kind = ?".
	Where string

	// Args holds the arguments for the placeholders in Where.
	Args []any

	// OrderBy holds the ordering without the "ORDER BY" keywords.
	OrderBy string

	// Limit caps the number of rows returned; 0 means no limit.
	Limit int

	// Offset skips rows; it only applies with a Limit.
	Offset int
}

// And adds a condition to the Where clause.
func (p QueryParams) And(cond string, args ...any) QueryParams {
	if p.Where == "" {
		p.Where = cond
	} else {
		p.Where = "(" + p.Where + ") AND (" + cond + ")"
	}

	p.Args = append(append([]any(nil), p.Args...), args...)

	return p
}

// Between keeps the rows whose column lies in [from, to).
func (p QueryParams) Between(column string, from, to float64) QueryParams {
	return p.And(column+" >= ? AND "+column+" < ?", from, to)
}

func (p QueryParams) where() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) page() string {
	s := ""

	if p.OrderBy != "" {
		s += " ORDER BY " + p.OrderBy
	}

	if p.Limit > 0 {
		s += fmt.Sprintf(" LIMIT %d", p.Limit)
		if p.Offset > 0 {
			s += fmt.Sprintf(" OFFSET %d", p.Offset)
		}
	}

	return s
}

// Reader reads records back from a recording.
type Reader struct {
	db *sql.DB
}

// NewReader opens a database file for reading.
func NewReader(dbFilename string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a new Reader with a given database.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ListTables returns the tables of the recording, sorted by name.
func (r *Reader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// Count returns the number of rows of a table that match params.Where.
func (r *Reader) Count(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	var n int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.where(),
		params.Args...,
	).Scan(&n)

	return n, err
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Query reads the rows of a table into entries of type T, which must have the
// shape the table was created with. It also returns the number of rows that
// match params.Where regardless of paging.
func Query[T any](
	ctx context.Context,
	r *Reader,
	tableName string,
	params QueryParams,
) ([]T, int, error) {
	var zero T

	cols, err := columnsOf(zero)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.Count(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectList(cols)+" FROM "+tableName+
			params.where()+params.page(),
		params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []T

	for rows.Next() {
		var entry T
		if err := rows.Scan(targets(reflect.ValueOf(&entry).Elem(), cols)...); err != nil {
			return nil, 0, err
		}

		results = append(results, entry)
	}

	return results, total, rows.Err()
}
