package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tsawler/docex/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id     TEXT PRIMARY KEY,
	path   TEXT NOT NULL,
	format TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	title  TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS text_blocks (
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	source_location  INTEGER NOT NULL,
	ordinal          INTEGER NOT NULL,
	content          TEXT NOT NULL,
	font_name        TEXT NOT NULL,
	font_size        REAL NOT NULL,
	is_bold          INTEGER NOT NULL,
	is_italic        INTEGER NOT NULL,
	rotation_degrees INTEGER NOT NULL,
	bbox_x           REAL,
	bbox_y           REAL,
	bbox_width       REAL,
	bbox_height      REAL,
	PRIMARY KEY (document_id, source_location, ordinal)
);
CREATE TABLE IF NOT EXISTS links (
	document_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	source_location INTEGER NOT NULL,
	ordinal         INTEGER NOT NULL,
	target_uri      TEXT NOT NULL,
	text            TEXT NOT NULL,
	link_kind       TEXT NOT NULL,
	region_x        REAL,
	region_y        REAL,
	region_width    REAL,
	region_height   REAL,
	PRIMARY KEY (document_id, source_location, ordinal)
);
CREATE TABLE IF NOT EXISTS images (
	document_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	source_location INTEGER NOT NULL,
	ordinal         INTEGER NOT NULL,
	encoded_bytes   TEXT NOT NULL,
	mime_type       TEXT NOT NULL,
	width_px        INTEGER NOT NULL,
	height_px       INTEGER NOT NULL,
	origin          TEXT NOT NULL,
	resource_id     TEXT NOT NULL,
	PRIMARY KEY (document_id, source_location, ordinal)
);
CREATE TABLE IF NOT EXISTS tables (
	document_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	source_location INTEGER NOT NULL,
	ordinal         INTEGER NOT NULL,
	row_count       INTEGER NOT NULL,
	column_count    INTEGER NOT NULL,
	cells           TEXT NOT NULL,
	style_name      TEXT,
	PRIMARY KEY (document_id, source_location, ordinal)
);`

// recordTables maps a kind to its table.
var recordTables = map[model.Kind]string{
	model.KindText:   "text_blocks",
	model.KindLinks:  "links",
	model.KindImages: "images",
	model.KindTables: "tables",
}

// SQLSink stores records in an SQLite database, one row per record keyed by
// (document_id, source_location, ordinal).
type SQLSink struct {
	db *sql.DB
}

// NewSQLSink opens or creates the database at path and applies the schema.
func NewSQLSink(path string) (*SQLSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Backend: "sql", Document: path, Err: err}
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, &StorageError{Backend: "sql", Document: path, Err: fmt.Errorf("%s: %w", firstLine(p), err)}
		}
	}
	return &SQLSink{db: db}, nil
}

// DB returns the underlying database.
func (s *SQLSink) DB() *sql.DB { return s.db }

func (s *SQLSink) Store(doc model.DocumentInfo, kind model.Kind, records any) (err error) {
	defer func() {
		if err != nil {
			err = &StorageError{Backend: "sql", Document: doc.Path, Kind: kind, Err: err}
		}
	}()
	if err := checkRecords(kind, records); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO documents (id, path, format, sha256, title, author)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path = excluded.path, format = excluded.format,
			sha256 = excluded.sha256, title = excluded.title, author = excluded.author`,
		doc.ID, doc.Path, doc.Format, doc.SHA256, doc.Title, doc.Author)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM "+recordTables[kind]+" WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing %s: %w", recordTables[kind], err)
	}

	switch recs := records.(type) {
	case []model.TextBlock:
		err = insertText(tx, doc.ID, recs)
	case []model.Link:
		err = insertLinks(tx, doc.ID, recs)
	case []model.Image:
		err = insertImages(tx, doc.ID, recs)
	case []model.Table:
		err = insertTables(tx, doc.ID, recs)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// box returns the nullable columns of an optional box.
func box(b *model.BBox) []any {
	if b == nil {
		return []any{nil, nil, nil, nil}
	}
	return []any{b.X, b.Y, b.Width, b.Height}
}

func insertText(tx *sql.Tx, id string, recs []model.TextBlock) error {
	stmt, err := tx.Prepare(`INSERT INTO text_blocks (document_id, source_location, ordinal, content,
		font_name, font_size, is_bold, is_italic, rotation_degrees, bbox_x, bbox_y, bbox_width, bbox_height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		args := append([]any{id, r.Location, r.Ordinal, r.Content, r.FontName, r.FontSize, r.Bold, r.Italic, r.Rotation}, box(r.BBox)...)
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting text block %d/%d: %w", r.Location, r.Ordinal, err)
		}
	}
	return nil
}

func insertLinks(tx *sql.Tx, id string, recs []model.Link) error {
	stmt, err := tx.Prepare(`INSERT INTO links (document_id, source_location, ordinal, target_uri, text,
		link_kind, region_x, region_y, region_width, region_height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		args := append([]any{id, r.Location, r.Ordinal, r.Target, r.Text, string(r.Kind)}, box(r.Region)...)
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting link %d/%d: %w", r.Location, r.Ordinal, err)
		}
	}
	return nil
}

func insertImages(tx *sql.Tx, id string, recs []model.Image) error {
	stmt, err := tx.Prepare(`INSERT INTO images (document_id, source_location, ordinal, encoded_bytes,
		mime_type, width_px, height_px, origin, resource_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		_, err := stmt.Exec(id, r.Location, r.Ordinal, r.Data, r.MIMEType, r.Width, r.Height, string(r.Origin), r.ResourceID)
		if err != nil {
			return fmt.Errorf("inserting image %d/%d: %w", r.Location, r.Ordinal, err)
		}
	}
	return nil
}

func insertTables(tx *sql.Tx, id string, recs []model.Table) error {
	stmt, err := tx.Prepare(`INSERT INTO tables (document_id, source_location, ordinal, row_count,
		column_count, cells, style_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range recs {
		cells, err := json.Marshal(r.Cells)
		if err != nil {
			return err
		}
		var style any
		if r.Style != nil {
			style = *r.Style
		}
		if _, err := stmt.Exec(id, r.Location, r.Ordinal, r.Rows, r.Columns, string(cells), style); err != nil {
			return fmt.Errorf("inserting table %d/%d: %w", r.Location, r.Ordinal, err)
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
