package docex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/tsawler/docex/internal/testdocs"
	"github.com/tsawler/docex/loader"
	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/sink"
)

// memorySink records Store calls. failOn makes Store fail for one kind.
type memorySink struct {
	mu     sync.Mutex
	stored map[string][]model.Kind
	failOn model.Kind
}

func (s *memorySink) Store(doc model.DocumentInfo, kind model.Kind, records any) error {
	if kind == s.failOn {
		return &sink.StorageError{Backend: "memory", Document: doc.Path, Kind: kind, Err: errors.New("disk full")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		s.stored = make(map[string][]model.Kind)
	}
	s.stored[doc.Path] = append(s.stored[doc.Path], kind)
	return nil
}

func (s *memorySink) Close() error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestExtractThreePagePDF(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "three.pdf", testdocs.PDF("Report", "first page", "", "third page"))

	b, err := New(WithLogger(quietLogger())).Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	var locs []int
	for _, tb := range b.Text {
		locs = append(locs, tb.Location)
	}
	if len(locs) == 0 || locs[0] != 0 || locs[len(locs)-1] != 2 {
		t.Fatalf("text locations = %v, want pages 0 and 2", locs)
	}
	for _, l := range locs {
		if l == 1 {
			t.Errorf("text record on empty page 1: %v", locs)
		}
	}
	if b.Document.Format != "pdf" || b.Document.Title != "Report" || len(b.Document.SHA256) != 64 {
		t.Errorf("Document = %+v", b.Document)
	}
	op, ok := b.Report.Get(model.KindText)
	if !ok || op.Outcome != model.OutcomePrimary || op.Count != len(b.Text) {
		t.Errorf("text report = %+v", op)
	}
}

func TestExtractDOCXHyperlink(t *testing.T) {
	rels := `<Relationship Id="rId1" Type="` + testdocs.RelHyperlink + `" Target="https://example.com" TargetMode="External"/>`
	data := testdocs.DOCX([]string{
		`<w:p><w:hyperlink r:id="rId1"><w:r><w:t>Example</w:t></w:r></w:hyperlink></w:p>`,
	}, rels, nil)
	path := testdocs.Write(t, t.TempDir(), "link.docx", data)

	b, err := New(WithLogger(quietLogger())).Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(b.Links) != 1 {
		t.Fatalf("got %d links, want 1: %+v", len(b.Links), b.Links)
	}
	if l := b.Links[0]; l.Kind != model.LinkExternal || l.Target != "https://example.com" {
		t.Errorf("link = %+v", l)
	}
}

func TestExtractFatalErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := testdocs.Write(t, dir, "broken.pptx", []byte("PK\x03\x04 this is not really a zip"))
	text := testdocs.Write(t, dir, "notes.txt", []byte("hello"))
	mislabelled := testdocs.Write(t, dir, "doc.pdf", testdocs.DOCX([]string{"x"}, "", nil))

	tests := []struct {
		name   string
		path   string
		target error
		state  State
	}{
		{"corrupt pptx", corrupt, loader.ErrCorruptDocument, StateValidated},
		{"unknown extension", text, loader.ErrUnsupportedFormat, StateUnvalidated},
		{"wrong content", mislabelled, loader.ErrUnsupportedFormat, StateValidated},
		{"missing", filepath.Join(dir, "gone.docx"), loader.ErrUnsupportedFormat, StateValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(WithLogger(quietLogger())).Extract(tt.path)
			if b != nil {
				t.Errorf("Extract() returned a bundle for a fatal error: %+v", b)
			}
			if !errors.Is(err, tt.target) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.target)
			}
			var fe *FileError
			if !errors.As(err, &fe) || fe.State != tt.state || fe.Path != tt.path {
				t.Errorf("FileError = %+v, want state %s", fe, tt.state)
			}
		})
	}
}

func TestExtractCorruptPPTXType(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "broken.pptx", []byte("PK\x03\x04 truncated"))
	_, err := New(WithLogger(quietLogger())).Extract(path)
	var cde *loader.CorruptDocumentError
	if !errors.As(err, &cde) {
		t.Fatalf("error = %v, want *loader.CorruptDocumentError", err)
	}
}

func TestExtractSizeLimit(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "a.pdf", testdocs.PDF("t", "hello"))
	_, err := New(WithLogger(quietLogger()), WithMaxFileSize(16)).Extract(path)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestExtractKinds(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "deck.pptx",
		testdocs.PPTX([]testdocs.Slide{testdocs.TextSlide("one"), testdocs.TextSlide("two")}, nil))

	b, err := New(WithLogger(quietLogger()), WithKinds(model.KindText)).Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(b.Text) != 2 || b.Text[1].Location != 1 {
		t.Errorf("text = %+v", b.Text)
	}
	var outcomes []model.Outcome
	for _, op := range b.Report.Operations {
		outcomes = append(outcomes, op.Outcome)
	}
	want := []model.Outcome{model.OutcomePrimary, model.OutcomeSkipped, model.OutcomeSkipped, model.OutcomeSkipped}
	if !reflect.DeepEqual(outcomes, want) {
		t.Errorf("outcomes = %v, want %v", outcomes, want)
	}
	if b.Report.Partial() {
		t.Error("Partial() = true")
	}
}

func TestExtractIdempotent(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "deck.pptx",
		testdocs.PPTX([]testdocs.Slide{testdocs.TextSlide("a", "b"), testdocs.TextSlide("see www.example.org")}, nil))
	x := New(WithLogger(quietLogger()))
	first, err := x.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := x.Extract(path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run differs:\n%+v\n%+v", first, second)
	}
	if first.Document.ID == "" {
		t.Error("empty document ID")
	}
}

func TestExtractLogs(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "a.docx", testdocs.DOCX([]string{"hello"}, "", nil))
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := New(WithLogger(logger)).Extract(path); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"op=text", "op=tables", "format=DOCX", "to=done"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestProcess(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "a.docx", testdocs.DOCX([]string{"hello"}, "", nil))

	if _, err := New(WithLogger(quietLogger())).Process(path); !errors.Is(err, ErrNoSink) {
		t.Errorf("Process() without sink error = %v, want ErrNoSink", err)
	}

	s := &memorySink{}
	if _, err := New(WithLogger(quietLogger()), WithSink(s), WithKinds(model.KindText, model.KindTables)).Process(path); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if want := []model.Kind{model.KindText, model.KindTables}; !reflect.DeepEqual(s.stored[path], want) {
		t.Errorf("stored kinds = %v, want %v", s.stored[path], want)
	}
}

func TestProcessStorageError(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "a.docx", testdocs.DOCX([]string{"hello"}, "", nil))
	s := &memorySink{failOn: model.KindImages}

	b, err := New(WithLogger(quietLogger()), WithSink(s)).Process(path)
	var se *sink.StorageError
	if !errors.As(err, &se) || se.Kind != model.KindImages {
		t.Fatalf("Process() error = %v, want StorageError for images", err)
	}
	if b == nil || len(b.Text) != 1 {
		t.Errorf("bundle = %+v", b)
	}
	// Kinds before the failure stay stored; later kinds are not attempted.
	if want := []model.Kind{model.KindText, model.KindLinks}; !reflect.DeepEqual(s.stored[path], want) {
		t.Errorf("stored kinds = %v, want %v", s.stored[path], want)
	}
}

func TestProcessFileSink(t *testing.T) {
	dir := t.TempDir()
	path := testdocs.Write(t, dir, "deck.pptx", testdocs.PPTX([]testdocs.Slide{testdocs.TextSlide("hello")}, nil))
	fs, err := sink.NewFileSink(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	if _, err := New(WithLogger(quietLogger()), WithSink(fs)).Process(path); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out", "deck_pptx", "extracted_text.json"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `"hello"`) {
		t.Errorf("extracted_text.json = %s", data)
	}
}

func TestProcessAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		testdocs.Write(t, dir, "a.pdf", testdocs.PDF("a", "alpha")),
		testdocs.Write(t, dir, "b.docx", testdocs.DOCX([]string{"beta"}, "", nil)),
		testdocs.Write(t, dir, "c.pptx", []byte("not a zip")),
		testdocs.Write(t, dir, "d.pptx", testdocs.PPTX([]testdocs.Slide{testdocs.TextSlide("delta")}, nil)),
	}
	s := &memorySink{}
	results, err := New(WithLogger(quietLogger()), WithSink(s)).ProcessAll(context.Background(), paths, 3)
	if err != nil {
		t.Fatalf("ProcessAll() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("result %d path = %s, want %s", i, r.Path, paths[i])
		}
		failed := r.Err != nil
		if want := i == 2; failed != want {
			t.Errorf("result %d error = %v", i, r.Err)
		}
		if !failed && len(r.Bundle.Text) == 0 {
			t.Errorf("result %d has no text", i)
		}
	}
	if len(s.stored) != 3 {
		t.Errorf("stored %d documents, want 3", len(s.stored))
	}
}

func TestProcessAllCancelled(t *testing.T) {
	path := testdocs.Write(t, t.TempDir(), "a.docx", testdocs.DOCX([]string{"x"}, "", nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := New(WithLogger(quietLogger()), WithSink(&memorySink{})).ProcessAll(ctx, []string{path, path}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessAll() error = %v, want context.Canceled", err)
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result error = %v, want context.Canceled", r.Err)
		}
	}
}

func TestStateString(t *testing.T) {
	if StateExtracting.String() != "extracting" || State(42).String() != "State(42)" {
		t.Errorf("String() = %q, %q", StateExtracting, State(42))
	}
}
