package pdfdoc

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/tsawler/docex/model"
	"github.com/tsawler/docex/tables"
)

func TestOpen(t *testing.T) {
	doc := openPDF(t, threePageDocument(t))
	if doc.NumPages() != 3 {
		t.Errorf("NumPages() = %d, want 3", doc.NumPages())
	}
	title, author := doc.Info()
	if title != "Scenario" || author != "Test Author" {
		t.Errorf("Info() = %q, %q", title, author)
	}
}

func TestOpenInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a pdf at all")},
		{"truncated", threePageDocument(t)[:40]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRichTextThreePages(t *testing.T) {
	doc := openPDF(t, threePageDocument(t))
	blocks, err := doc.RichText()
	if err != nil {
		t.Fatalf("RichText failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}

	want := []struct {
		location int
		content  string
	}{
		{0, "Hello World"},
		{2, "Third page"},
	}
	for i, w := range want {
		b := blocks[i]
		if b.Location != w.location || b.Content != w.content {
			t.Errorf("block %d = (%d, %q), want (%d, %q)", i, b.Location, b.Content, w.location, w.content)
		}
		if b.FontName != "Helvetica" {
			t.Errorf("block %d FontName = %q", i, b.FontName)
		}
		if b.FontSize != 12 {
			t.Errorf("block %d FontSize = %v", i, b.FontSize)
		}
		if b.BBox == nil || b.BBox.Width <= 0 {
			t.Errorf("block %d has no geometry", i)
		}
	}
}

func TestAdapterTextScenario(t *testing.T) {
	doc := openPDF(t, threePageDocument(t))
	res := NewAdapter(doc, tables.DefaultConfig()).Text()
	if res.Outcome != model.OutcomePrimary {
		t.Fatalf("Outcome = %s (err %v)", res.Outcome, res.Err)
	}
	last := -1
	for _, b := range res.Records {
		if b.Location < last {
			t.Errorf("locations not monotonic: %d after %d", b.Location, last)
		}
		if b.Location == 1 {
			t.Errorf("unexpected block on empty page: %+v", b)
		}
		if b.Ordinal != 0 {
			t.Errorf("Ordinal = %d, want 0", b.Ordinal)
		}
		last = b.Location
	}
}

func TestRotation(t *testing.T) {
	doc := openPDF(t, buildPDF(t, []testPage{
		{content: textAt(72, 720, "Sideways"), rotate: -90},
	}, ""))
	blocks, err := doc.RichText()
	if err != nil {
		t.Fatalf("RichText failed: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Rotation != 270 {
		t.Errorf("blocks = %+v, want one block rotated 270", blocks)
	}
}

func TestMultiStreamFallsBack(t *testing.T) {
	doc := openPDF(t, buildPDF(t, []testPage{{
		contents: []string{textAt(72, 720, "Split"), textAt(72, 700, "Content")},
	}}, ""))

	if _, err := doc.RichText(); !errors.Is(err, errMultiStream) {
		t.Fatalf("RichText error = %v, want errMultiStream", err)
	}

	plain, err := doc.PlainText()
	if err != nil {
		t.Fatalf("PlainText failed: %v", err)
	}
	var lines []string
	for _, b := range plain {
		lines = append(lines, b.Content)
		if b.HasStyle() || b.BBox != nil {
			t.Errorf("plain block carries metadata: %+v", b)
		}
	}
	if !reflect.DeepEqual(lines, []string{"Split", "Content"}) {
		t.Errorf("PlainText lines = %q", lines)
	}

	res := NewAdapter(doc, tables.DefaultConfig()).Text()
	if res.Outcome != model.OutcomeFallback {
		t.Fatalf("Outcome = %s", res.Outcome)
	}
	if !reflect.DeepEqual(res.Records, model.Number[model.TextBlock](plain)) {
		t.Errorf("fallback records differ from forced secondary:\n%+v\n%+v", res.Records, plain)
	}
}

func TestHasText(t *testing.T) {
	if !openPDF(t, threePageDocument(t)).HasText() {
		t.Error("HasText() = false for a document with text")
	}
	blank := openPDF(t, buildPDF(t, []testPage{{content: "0 0 m 10 10 l S"}}, ""))
	if blank.HasText() {
		t.Error("HasText() = true for a drawing-only page")
	}
}

func linkDocument(t *testing.T) []byte {
	t.Helper()
	return buildPDF(t, []testPage{
		{
			content: textAt(72, 720, "Visit Example") + textAt(72, 690, "Mail support@example.com today"),
			annots: func(pageRef func(int) int) string {
				return "[<< /Type /Annot /Subtype /Link /Rect [70 715 160 735] /A << /S /URI /URI (https://example.com/docs) >> >>" +
					" << /Type /Annot /Subtype /Link /Rect [70 600 100 620] /Dest [" + strconv.Itoa(pageRef(1)) + " 0 R /Fit] >>]"
			},
		},
		{content: textAt(72, 720, "Second page")},
	}, "")
}

func TestAnnotationLinks(t *testing.T) {
	doc := openPDF(t, linkDocument(t))
	links, err := doc.AnnotationLinks()
	if err != nil {
		t.Fatalf("AnnotationLinks failed: %v", err)
	}

	byTarget := make(map[string]model.Link)
	for _, l := range links {
		byTarget[l.Target] = l
		if l.Location != 0 {
			t.Errorf("link %q on page %d", l.Target, l.Location)
		}
	}

	uri, ok := byTarget["https://example.com/docs"]
	if !ok {
		t.Fatalf("URI annotation missing: %+v", links)
	}
	if uri.Kind != model.LinkExternal || uri.Region == nil {
		t.Errorf("URI link = %+v", uri)
	}
	if !strings.Contains(uri.Text, "Visit") {
		t.Errorf("URI link text = %q", uri.Text)
	}

	if goTo, ok := byTarget["#page=2"]; !ok || goTo.Kind != model.LinkInternal {
		t.Errorf("GoTo link missing or misclassified: %+v", links)
	}

	mail, ok := byTarget["mailto:support@example.com"]
	if !ok {
		t.Fatalf("email pattern missing: %+v", links)
	}
	if mail.Kind != model.LinkEmail || mail.Region != nil {
		t.Errorf("email link = %+v", mail)
	}
}

func TestHasLinkAnnotations(t *testing.T) {
	comment := buildPDF(t, []testPage{{
		content: textAt(72, 720, "Reviewed"),
		annots: func(func(int) int) string {
			return "[<< /Type /Annot /Subtype /Text /Rect [70 715 90 735] /Contents (looks good) >>]"
		},
	}}, "")

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"link annotations", linkDocument(t), true},
		{"no annotations", threePageDocument(t), false},
		{"comment only", comment, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openPDF(t, tt.data).HasLinkAnnotations(); got != tt.want {
				t.Errorf("HasLinkAnnotations() = %v, want %v", got, tt.want)
			}
		})
	}

	// With only a comment, an empty link result stays primary.
	res := NewAdapter(openPDF(t, comment), tables.DefaultConfig()).Links()
	if res.Outcome != model.OutcomePrimary || len(res.Records) != 0 {
		t.Errorf("Links() = %s with %d records", res.Outcome, len(res.Records))
	}
}

func TestAdapterLinks(t *testing.T) {
	doc := openPDF(t, linkDocument(t))
	res := NewAdapter(doc, tables.DefaultConfig()).Links()
	if res.Outcome == model.OutcomeFailed {
		t.Fatalf("links failed: %v", res.Err)
	}
	found := false
	for _, l := range res.Records {
		if l.Target == "https://example.com/docs" {
			found = true
		}
	}
	if !found {
		t.Errorf("URI link missing: %+v", res.Records)
	}
}
