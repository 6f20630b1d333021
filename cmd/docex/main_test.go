package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/docex/internal/testdocs"
	"github.com/tsawler/docex/model"
)

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"unknown flag", []string{"-nope", "a.pdf"}},
		{"bad storage", []string{"-storage", "s3", "a.pdf"}},
		{"bad workers", []string{"-workers", "-3", "a.pdf"}},
		{"missing config", []string{"-config", "/nonexistent/docex.yaml", "a.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stderr); code != exitUsage {
				t.Errorf("run() = %d, want %d\n%s", code, exitUsage, stderr.String())
			}
		})
	}
}

func TestRunFileStorage(t *testing.T) {
	dir := t.TempDir()
	doc := testdocs.Write(t, dir, "memo.docx", testdocs.DOCX([]string{"hello"}, "", nil))
	out := filepath.Join(dir, "out")

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-out", out, doc}, &stderr); code != exitOK {
		t.Fatalf("run() = %d\n%s", code, stderr.String())
	}
	for _, name := range []string{"extracted_text.json", "extracted_links.json", "extracted_images.json"} {
		if _, err := os.Stat(filepath.Join(out, "memo_docx", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(stderr.String(), "memo.docx: ok") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestRunSQLStorageFromConfig(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "out.db")
	cfg := testdocs.Write(t, dir, "docex.yaml", []byte("storage: sql\ndb_path: "+db+"\nkinds: [text]\n"))
	deck := testdocs.Write(t, dir, "deck.pptx", testdocs.PPTX([]testdocs.Slide{testdocs.TextSlide("one", "two")}, nil))

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", cfg, "-v", deck}, &stderr); code != exitOK {
		t.Fatalf("run() = %d\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "level=DEBUG") {
		t.Errorf("-v did not enable debug logging:\n%s", stderr.String())
	}

	conn, err := sql.Open("sqlite", db)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer conn.Close()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM text_blocks`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 2 {
		t.Errorf("text_blocks has %d rows, want 2", n)
	}
}

func TestRunFatal(t *testing.T) {
	dir := t.TempDir()
	good := testdocs.Write(t, dir, "a.pdf", testdocs.PDF("t", "hello"))
	bad := testdocs.Write(t, dir, "b.pptx", []byte("PK\x03\x04 broken"))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-out", filepath.Join(dir, "out"), "-workers", "2", good, bad}, &stderr)
	if code != exitFatal {
		t.Fatalf("run() = %d, want %d\n%s", code, exitFatal, stderr.String())
	}
	if !strings.Contains(stderr.String(), "b.pptx: failed") || !strings.Contains(stderr.String(), "a.pdf: ok") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	summarize(&buf, "x.pdf", model.Report{Operations: []model.OperationReport{
		{Kind: model.KindText, Outcome: model.OutcomeFallback},
		{Kind: model.KindLinks, Outcome: model.OutcomePrimary},
		{Kind: model.KindTables, Outcome: model.OutcomeFailed},
	}})
	if got, want := buf.String(), "x.pdf: partial: text=fallback tables=failed\n"; got != want {
		t.Errorf("summarize() = %q, want %q", got, want)
	}
}
