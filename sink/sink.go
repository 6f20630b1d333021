// Package sink persists extracted records. Two backends are provided: a
// directory of JSON and CSV files, and an SQLite database.
package sink

import (
	"errors"
	"fmt"

	"github.com/tsawler/docex/model"
)

// Sink stores the records of one kind for one document. Records is one of
// []model.TextBlock, []model.Link, []model.Image or []model.Table. Storing a
// kind again for the same document replaces the earlier records.
type Sink interface {
	Store(doc model.DocumentInfo, kind model.Kind, records any) error
	Close() error
}

// ErrDirectoryInUse is returned by a FileSink when a second document would
// write into a directory that already holds another document's output.
var ErrDirectoryInUse = errors.New("output directory holds another document")

// StorageError reports a failed Store.
type StorageError struct {
	Backend  string
	Document string
	Kind     model.Kind
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s sink: storing %s for %s: %v", e.Backend, e.Kind, e.Document, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage selects a sink backend.
type Storage string

const (
	StorageFile Storage = "file"
	StorageSQL  Storage = "sql"
)

// ParseStorage converts a configuration value to a Storage.
func ParseStorage(s string) (Storage, error) {
	switch Storage(s) {
	case StorageFile, StorageSQL:
		return Storage(s), nil
	}
	return "", fmt.Errorf("unknown storage %q (want file or sql)", s)
}

// New opens the sink for storage. target is the output directory for file
// storage and the database path for SQL storage.
func New(storage Storage, target string) (Sink, error) {
	switch storage {
	case StorageFile:
		return NewFileSink(target)
	case StorageSQL:
		return NewSQLSink(target)
	}
	return nil, fmt.Errorf("unknown storage %q", storage)
}

// checkRecords verifies that records has the slice type of kind.
func checkRecords(kind model.Kind, records any) error {
	var ok bool
	switch kind {
	case model.KindText:
		_, ok = records.([]model.TextBlock)
	case model.KindLinks:
		_, ok = records.([]model.Link)
	case model.KindImages:
		_, ok = records.([]model.Image)
	case model.KindTables:
		_, ok = records.([]model.Table)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if !ok {
		return fmt.Errorf("records of type %T do not match kind %s", records, kind)
	}
	return nil
}
