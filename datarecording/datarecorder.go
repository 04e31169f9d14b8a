// Package datarecording stores flat records of a run in a SQLite database.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of the
	// sample entry. Fields must be basic types or pointers to basic types;
	// nil pointers are stored as NULL. A `db` tag renames a column, and
	// `db:"-"` skips the field.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of the tables created, in order.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Err returns the first error met while writing to the database.
	Err() error

	// Close flushes and closes the database. It returns Err.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder that writes to path plus the ".sqlite3"
// extension. An empty path picks a unique name. It fails if the file already
// exists.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "tankersim_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB creates a new DataRecorder with a given database. The recorder
// flushes when the program exits through atexit.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(w.Flush)

	return w
}

type table struct {
	name      string
	entryType reflect.Type
	cols      []column
	entries   []reflect.Value
}

type sqliteWriter struct {
	db *sql.DB

	tables     map[string]*table
	order      []string
	batchSize  int
	entryCount int
	err        error
	closed     bool
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	cols, err := columnsOf(sampleEntry)
	if err != nil {
		panic(err)
	}

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	w.tables[tableName] = &table{
		name:      tableName,
		entryType: reflect.TypeOf(sampleEntry),
		cols:      cols,
	}
	w.order = append(w.order, tableName)

	w.exec(createTableSQL(tableName, cols))
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.entryType {
		panic(fmt.Sprintf("table %s expects %s, got %T",
			tableName, t.entryType, entry))
	}

	t.entries = append(t.entries, reflect.ValueOf(entry))

	w.entryCount++
	if w.entryCount >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	return slices.Clone(w.order)
}

func (w *sqliteWriter) Flush() {
	if w.entryCount == 0 || w.closed || w.err != nil {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		w.fail(err)
		return
	}

	for _, name := range w.order {
		if err := insertAll(tx, w.tables[name]); err != nil {
			w.fail(errors.Join(err, tx.Rollback()))
			return
		}
	}

	w.fail(tx.Commit())
	w.entryCount = 0
}

func insertAll(tx *sql.Tx, t *table) error {
	if len(t.entries) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(insertSQL(t.name, t.cols))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(values(entry, t.cols)...); err != nil {
			return fmt.Errorf("inserting into %s: %w", t.name, err)
		}
	}

	t.entries = nil

	return nil
}

func (w *sqliteWriter) Err() error {
	return w.err
}

func (w *sqliteWriter) Close() error {
	if w.closed {
		return w.err
	}

	w.Flush()
	w.closed = true

	return errors.Join(w.err, w.db.Close())
}

func (w *sqliteWriter) exec(query string) {
	if w.err != nil {
		return
	}

	if _, err := w.db.Exec(query); err != nil {
		w.fail(fmt.Errorf("failed to execute %q: %w", query, err))
	}
}

func (w *sqliteWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}
