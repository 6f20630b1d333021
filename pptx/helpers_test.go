package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
)

const slideHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
  xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006">
  <p:cSld><p:spTree>
    <p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
    <p:grpSpPr/>`

const slideFooter = `</p:spTree></p:cSld></p:sld>`

// testSlide is the shape tree content and relationships of one slide.
type testSlide struct {
	shapes string // children of <p:spTree>
	rels   string // <Relationship> elements
}

// testDeck describes a presentation written by createPPTX.
type testDeck struct {
	slides []testSlide
	order  []int             // sldIdLst order as slide indexes; nil keeps file order
	core   string            // complete docProps/core.xml, omitted when empty
	parts  map[string][]byte // extra parts such as media
}

// writeZipFile adds one part to the archive.
func writeZipFile(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("Failed to create %s in zip: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// createPPTX writes the deck to a file in a temporary directory and returns
// its path.
func createPPTX(t *testing.T, deck testDeck) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	writeZipFile(t, zw, "[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
</Types>`)
	writeZipFile(t, zw, "_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`)

	order := deck.order
	if order == nil {
		for i := range deck.slides {
			order = append(order, i)
		}
	}

	var presRels, ids strings.Builder
	for i := range deck.slides {
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, i+1, relSlide, i+1)
	}
	for n, i := range order {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+n, i+1)
	}
	writeZipFile(t, zw, "ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+presRels.String()+`</Relationships>`)
	writeZipFile(t, zw, "ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
  xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:sldIdLst>`+ids.String()+`</p:sldIdLst>
  <p:sldSz cx="9144000" cy="6858000"/>
</p:presentation>`)

	for i, s := range deck.slides {
		writeZipFile(t, zw, fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideHeader+s.shapes+slideFooter)
		rels := `<Relationship Id="rIdLayout" Type="` + relLayout + `" Target="../slideLayouts/slideLayout1.xml"/>` + s.rels
		writeZipFile(t, zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1),
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels+`</Relationships>`)
	}
	if deck.core != "" {
		writeZipFile(t, zw, "docProps/core.xml", deck.core)
	}
	for name, data := range deck.parts {
		writeZipFile(t, zw, name, string(data))
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return path
}

// openPPTX writes the deck and opens it.
func openPPTX(t *testing.T, deck testDeck) *Document {
	t.Helper()
	doc, err := Open(readFile(t, createPPTX(t, deck)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return doc
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	return data
}

// xfrm returns an <a:xfrm> in EMU with optional rotation attributes.
func xfrm(attrs string, x, y, cx, cy int) string {
	return fmt.Sprintf(`<a:xfrm%s><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, attrs, x, y, cx, cy)
}

// textShape returns a shape holding the given paragraphs.
func textShape(id int, pos string, paras ...string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, id) +
		`<p:spPr>` + pos + `</p:spPr><p:txBody><a:bodyPr/>` + strings.Join(paras, "") + `</p:txBody></p:sp>`
}

// para wraps runs in a paragraph.
func para(runs ...string) string {
	return "<a:p>" + strings.Join(runs, "") + "</a:p>"
}

// run returns a text run. attrs are extra <a:rPr> attributes and children
// its child elements; with both empty the run has no properties.
func run(s, attrs, children string) string {
	if attrs == "" && children == "" {
		return `<a:r><a:t>` + s + `</a:t></a:r>`
	}
	return `<a:r><a:rPr lang="en-US"` + attrs + `>` + children + `</a:rPr><a:t>` + s + `</a:t></a:r>`
}

// picture returns a picture shape embedding relID.
func picture(id int, relID, pos string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, id, id) +
		`<p:blipFill><a:blip r:embed="` + relID + `"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr>` + pos + `</p:spPr></p:pic>`
}

// tableFrame returns a graphic frame holding a table of the given rows.
func tableFrame(id int, style string, rows ...string) string {
	tblPr := `<a:tblPr firstRow="1"/>`
	if style != "" {
		tblPr = `<a:tblPr firstRow="1"><a:tableStyleId>` + style + `</a:tableStyleId></a:tblPr>`
	}
	return fmt.Sprintf(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`, id, id) +
		xfrmFrame() +
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl>` + tblPr +
		`<a:tblGrid><a:gridCol w="1000"/></a:tblGrid>` + strings.Join(rows, "") +
		`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`
}

func xfrmFrame() string {
	return `<p:xfrm><a:off x="127000" y="127000"/><a:ext cx="1270000" cy="635000"/></p:xfrm>`
}

func tr(cells ...string) string {
	return `<a:tr h="370840">` + strings.Join(cells, "") + `</a:tr>`
}

// tc returns a table cell; attrs holds merge attributes such as gridSpan="2".
func tc(s, attrs string) string {
	return `<a:tc` + attrs + `><a:txBody><a:bodyPr/><a:lstStyle/>` + para(run(s, "", "")) + `</a:txBody><a:tcPr/></a:tc>`
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

func imageRel(id, target string) string {
	return `<Relationship Id="` + id + `" Type="` + relImage + `" Target="` + target + `"/>`
}
