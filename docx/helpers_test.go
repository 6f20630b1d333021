package docx

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"testing"
)

// testPackage describes a DOCX built in memory.
type testPackage struct {
	body   string            // inner XML of <w:body>
	rels   string            // <Relationship> elements of word/document.xml
	styles string            // complete word/styles.xml, omitted when empty
	core   string            // complete docProps/core.xml, omitted when empty
	parts  map[string][]byte // additional parts such as media
}

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"
  xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"
  xmlns:v="urn:schemas-microsoft-com:vml">
  <w:body>`

const (
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
)

// build writes the package as ZIP bytes.
func (p testPackage) build(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	add("[Content_Types].xml", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	add("_rels/.rels", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`))
	add("word/document.xml", []byte(documentHeader+p.body+"</w:body>\n</w:document>"))
	if p.rels != "" {
		add("word/_rels/document.xml.rels", []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+p.rels+`</Relationships>`))
	}
	if p.styles != "" {
		add("word/styles.xml", []byte(p.styles))
	}
	if p.core != "" {
		add("docProps/core.xml", []byte(p.core))
	}
	for name, data := range p.parts {
		add(name, data)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func openDOCX(t *testing.T, p testPackage) *Document {
	t.Helper()
	doc, err := Open(p.build(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return doc
}

// para returns a paragraph with one unformatted run per text.
func para(texts ...string) string {
	s := "<w:p>"
	for _, t := range texts {
		s += `<w:r><w:t xml:space="preserve">` + t + `</w:t></w:r>`
	}
	return s + "</w:p>"
}

// cell returns a table cell holding one paragraph, with optional cell
// properties.
func cell(text, tcPr string) string {
	if tcPr != "" {
		tcPr = "<w:tcPr>" + tcPr + "</w:tcPr>"
	}
	return "<w:tc>" + tcPr + para(text) + "</w:tc>"
}

func row(cells ...string) string {
	s := "<w:tr>"
	for _, c := range cells {
		s += c
	}
	return s + "</w:tr>"
}

// pngImage encodes a blank PNG of the given size.
func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

// inlinePicture returns a run holding an inline drawing of the given
// relationship, 96x48 pixels.
func inlinePicture(relID string) string {
	return `<w:r><w:drawing><wp:inline><wp:extent cx="914400" cy="457200"/><wp:docPr id="1" name="Picture 1"/>` +
		`<a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="` + relID + `"/></pic:blipFill></pic:pic>` +
		`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`
}
