package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tsawler/docex/model"
)

// JSON file names per record kind. Tables are written as table_<n>.csv.
var jsonFiles = map[model.Kind]string{
	model.KindText:   "extracted_text.json",
	model.KindLinks:  "extracted_links.json",
	model.KindImages: "extracted_images.json",
}

// FileSink writes each document into <dir>/<stem>_<ext>, for example
// report.pdf into <dir>/report_pdf. Two different inputs that map to the same
// directory are rejected rather than overwriting each other.
type FileSink struct {
	dir string

	mu     sync.Mutex
	owners map[string]string // document directory -> document ID
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Backend: "file", Document: dir, Err: err}
	}
	return &FileSink{dir: dir, owners: make(map[string]string)}, nil
}

// DocumentDir returns the directory that holds the output for doc.
func (s *FileSink) DocumentDir(doc model.DocumentInfo) string {
	base := filepath.Base(doc.Path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "_" + strings.ToLower(ext)
	}
	return filepath.Join(s.dir, name)
}

// claim records doc as the owner of dir. A directory already claimed by
// another document is an error.
func (s *FileSink) claim(dir string, doc model.DocumentInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.owners[dir]; ok && owner != doc.ID {
		return fmt.Errorf("%w: %s", ErrDirectoryInUse, dir)
	}
	s.owners[dir] = doc.ID
	return nil
}

// fileEnvelope is the layout of the JSON files.
type fileEnvelope struct {
	Document model.DocumentInfo `json:"document"`
	Records  any                `json:"records"`
}

func (s *FileSink) Store(doc model.DocumentInfo, kind model.Kind, records any) error {
	fail := func(err error) error {
		return &StorageError{Backend: "file", Document: doc.Path, Kind: kind, Err: err}
	}
	if err := checkRecords(kind, records); err != nil {
		return fail(err)
	}

	dir := s.DocumentDir(doc)
	if err := s.claim(dir, doc); err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}

	if kind == model.KindTables {
		if err := writeTables(dir, records.([]model.Table)); err != nil {
			return fail(err)
		}
		return nil
	}

	data, err := json.MarshalIndent(fileEnvelope{Document: doc, Records: nonNil(records)}, "", "    ")
	if err != nil {
		return fail(err)
	}
	if err := writeFile(filepath.Join(dir, jsonFiles[kind]), data); err != nil {
		return fail(err)
	}
	return nil
}

// Close is a no-op; every Store completes its files.
func (s *FileSink) Close() error { return nil }

// nonNil turns a nil slice into an empty one so the JSON holds [] rather
// than null.
func nonNil(records any) any {
	switch r := records.(type) {
	case []model.TextBlock:
		if r == nil {
			return []model.TextBlock{}
		}
	case []model.Link:
		if r == nil {
			return []model.Link{}
		}
	case []model.Image:
		if r == nil {
			return []model.Image{}
		}
	}
	return records
}

// writeFile writes data through a temporary file in the same directory.
func writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".docex-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// writeTables replaces the table CSVs in dir. Each file has a metadata
// header row, a values row, a blank row, then the cell rows.
func writeTables(dir string, tables []model.Table) error {
	old, err := filepath.Glob(filepath.Join(dir, "table_*.csv"))
	if err != nil {
		return err
	}
	for _, name := range old {
		if err := os.Remove(name); err != nil {
			return err
		}
	}

	for i, t := range tables {
		var b strings.Builder
		w := csv.NewWriter(&b)
		style := ""
		if t.Style != nil {
			style = *t.Style
		}
		rows := [][]string{
			{"Table Index", "Source Location", "Ordinal", "Style", "Rows", "Columns"},
			{strconv.Itoa(i + 1), strconv.Itoa(t.Location), strconv.Itoa(t.Ordinal), style, strconv.Itoa(t.Rows), strconv.Itoa(t.Columns)},
			{},
		}
		rows = append(rows, t.Cells...)
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("table_%d.csv", i+1)), []byte(b.String())); err != nil {
			return err
		}
	}
	return nil
}
