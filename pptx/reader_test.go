package pptx

import (
	"archive/zip"
	"bytes"
	"reflect"
	"testing"

	"github.com/tsawler/docex/model"
)

func TestOpen(t *testing.T) {
	doc := openPPTX(t, testDeck{slides: []testSlide{
		{shapes: textShape(2, "", para(run("one", "", "")))},
		{shapes: textShape(2, "", para(run("two", "", "")))},
	}})
	if doc.SlideCount() != 2 {
		t.Errorf("SlideCount() = %d, want 2", doc.SlideCount())
	}
}

func TestOpenInvalid(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	writeZipFile(t, zw, "[Content_Types].xml", "<Types/>")
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("this is not a zip file")},
		{"truncated zip", []byte("PK\x03\x04 truncated")},
		{"missing presentation", buf.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.data); err == nil {
				t.Error("Open() should fail")
			}
		})
	}
}

func TestOpenMalformedSlide(t *testing.T) {
	path := createPPTX(t, testDeck{slides: []testSlide{{shapes: `<p:sp><p:txBody>`}}})
	data := readFile(t, path)
	if _, err := Open(data); err == nil {
		t.Error("Open() should reject a slide that is not well-formed")
	}
}

func TestEmptyPresentation(t *testing.T) {
	doc := openPPTX(t, testDeck{})
	if doc.SlideCount() != 0 {
		t.Fatalf("SlideCount() = %d, want 0", doc.SlideCount())
	}
	res := NewAdapter(doc).Text()
	if res.Outcome != model.OutcomePrimary || len(res.Records) != 0 {
		t.Errorf("Text() = %s with %d records, want primary with none", res.Outcome, len(res.Records))
	}
}

func TestInfo(t *testing.T) {
	doc := openPPTX(t, testDeck{
		slides: []testSlide{{}},
		core: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Quarterly Review</dc:title>
  <dc:creator>Sam Lee</dc:creator>
</cp:coreProperties>`,
	})
	title, author := doc.Info()
	if title != "Quarterly Review" || author != "Sam Lee" {
		t.Errorf("Info() = %q, %q", title, author)
	}
}

func TestSlideOrder(t *testing.T) {
	doc := openPPTX(t, testDeck{
		slides: []testSlide{
			{shapes: textShape(2, "", para(run("first file", "", "")))},
			{shapes: textShape(2, "", para(run("second file", "", "")))},
		},
		order: []int{1, 0},
	})

	for name, op := range map[string]func() ([]model.TextBlock, error){
		"ShapeText": doc.ShapeText,
		"TokenText": doc.TokenText,
	} {
		blocks, err := op()
		if err != nil {
			t.Fatalf("%s() error = %v", name, err)
		}
		if len(blocks) != 2 {
			t.Fatalf("%s() returned %d blocks, want 2", name, len(blocks))
		}
		if blocks[0].Location != 0 || blocks[0].Content != "second file" ||
			blocks[1].Location != 1 || blocks[1].Content != "first file" {
			t.Errorf("%s() = %+v", name, blocks)
		}
	}
}

func TestSlideNumber(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"ppt/slides/slide1.xml", 1},
		{"ppt/slides/slide12.xml", 12},
		{"ppt/slides/slide.xml", 0},
	}
	for _, tt := range tests {
		if got := slideNumber(tt.path); got != tt.want {
			t.Errorf("slideNumber(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestShapeText(t *testing.T) {
	arial := `<a:latin typeface="Arial"/>`
	doc := openPPTX(t, testDeck{slides: []testSlide{{
		shapes: textShape(2, xfrm(` rot="5400000"`, 127000, 254000, 1270000, 635000),
			para(
				run("Bold ", ` sz="2400" b="1"`, arial),
				run("title", ` sz="2400" b="1"`, arial),
				run(" plain", "", ""),
			),
			para(run("themed", ` sz="1800" i="1"`, `<a:latin typeface="+mn-lt"/>`)),
		),
	}}})

	blocks, err := doc.ShapeText()
	if err != nil {
		t.Fatalf("ShapeText() error = %v", err)
	}
	box := &model.BBox{X: 10, Y: 20, Width: 100, Height: 50}
	want := []model.TextBlock{
		{Content: "Bold title", FontName: "Arial", FontSize: 24, Bold: true, Rotation: 90, BBox: box},
		{Content: "plain", FontName: model.UnknownFont, FontSize: model.UnknownFontSize, Rotation: 90, BBox: box},
		{Content: "themed", FontName: model.UnknownFont, FontSize: 18, Italic: true, Rotation: 90, BBox: box},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("ShapeText() =\n%+v\nwant\n%+v", blocks, want)
	}
}

func TestGroupTransform(t *testing.T) {
	group := `<p:grpSp><p:nvGrpSpPr><p:cNvPr id="10" name="Group"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="127000" y="0"/><a:ext cx="254000" cy="254000"/>` +
		`<a:chOff x="0" y="0"/><a:chExt cx="127000" cy="127000"/></a:xfrm></p:grpSpPr>` +
		textShape(11, xfrm("", 12700, 12700, 63500, 63500), para(run("grouped", "", ""))) +
		`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="12" name="Inner"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		textShape(13, "", para(run("deep", "", ""))) +
		`</p:grpSp></p:grpSp>`

	doc := openPPTX(t, testDeck{slides: []testSlide{{
		shapes: textShape(2, "", para(run("before", "", ""))) + group + textShape(3, "", para(run("after", "", ""))),
	}}})

	blocks, err := doc.ShapeText()
	if err != nil {
		t.Fatalf("ShapeText() error = %v", err)
	}
	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.Content)
	}
	if want := []string{"before", "grouped", "deep", "after"}; !reflect.DeepEqual(texts, want) {
		t.Fatalf("text order = %q, want %q", texts, want)
	}

	want := model.BBox{X: 12, Y: 2, Width: 10, Height: 10}
	if blocks[1].BBox == nil || *blocks[1].BBox != want {
		t.Errorf("grouped BBox = %v, want %v", blocks[1].BBox, want)
	}
	if blocks[0].BBox != nil {
		t.Errorf("shape without a transform has BBox %v", blocks[0].BBox)
	}
}

func TestHasText(t *testing.T) {
	if !openPPTX(t, testDeck{slides: []testSlide{{shapes: textShape(2, "", para(run("x", "", "")))}}}).HasText() {
		t.Error("HasText() = false")
	}
	if openPPTX(t, testDeck{slides: []testSlide{{shapes: textShape(2, "", para(run("  ", "", "")))}}}).HasText() {
		t.Error("HasText() = true for whitespace only")
	}
}

func TestAdapterTextFallback(t *testing.T) {
	doc := openPPTX(t, testDeck{slides: []testSlide{{shapes: textShape(2, "", para(run("x", "", "")))}}})
	// The shape walk rejects the unclosed shape; the lenient scan reads it.
	doc.slides[0].data = []byte(slideHeader + `<p:sp><p:txBody><a:p><a:r><a:t>kept</a:t></a:r></a:p></p:txBody>` + slideFooter)

	res := NewAdapter(doc).Text()
	if res.Outcome != model.OutcomeFallback {
		t.Fatalf("Outcome = %s, want fallback", res.Outcome)
	}
	forced, err := doc.TokenText()
	if err != nil {
		t.Fatalf("TokenText() error = %v", err)
	}
	if !reflect.DeepEqual(res.Records, model.Number[model.TextBlock](forced)) {
		t.Errorf("fallback records %+v differ from forced secondary %+v", res.Records, forced)
	}
	if len(res.Records) != 1 || res.Records[0].Content != "kept" {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestShapeTextIdempotent(t *testing.T) {
	doc := openPPTX(t, testDeck{slides: []testSlide{
		{shapes: textShape(2, "", para(run("a", "", "")), para(run("b", "", "")))},
		{shapes: textShape(2, "", para(run("c", "", "")))},
	}})
	a := NewAdapter(doc)
	first, second := a.Text(), a.Text()
	if !reflect.DeepEqual(first.Records, second.Records) {
		t.Errorf("second run differs: %+v vs %+v", first.Records, second.Records)
	}
	for i := 1; i < len(first.Records); i++ {
		if first.Records[i].Location < first.Records[i-1].Location {
			t.Errorf("locations not monotonic at %d", i)
		}
	}
}
