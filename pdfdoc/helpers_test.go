package pdfdoc

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// pdfBuilder assembles a PDF with a correct cross-reference table.
// Object numbers are 1-based in order of add.
type pdfBuilder struct {
	objects []string
}

func (b *pdfBuilder) add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

func (b *pdfBuilder) stream(dict, data string) int {
	return b.add(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

func (b *pdfBuilder) bytes(root, info int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(b.objects))
	for i, obj := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", len(b.objects)+1, root)
	if info > 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// testPage describes one page of a generated document.
type testPage struct {
	content  string   // single content stream
	contents []string // several content streams, used when content is empty
	annots   func(pageRef func(i int) int) string
	images   map[string]string // XObject name to full image stream object
	rotate   int
}

// buildPDF writes a document with one Helvetica font and the given pages.
// Page objects are numbered 4, 5, ... so annotations can refer to them.
func buildPDF(t *testing.T, pages []testPage, title string) []byte {
	t.Helper()
	b := &pdfBuilder{}
	b.add("<< /Type /Catalog /Pages 2 0 R >>")
	b.add("") // page tree, filled below
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>")

	pageRef := func(i int) int { return 4 + i }
	for range pages {
		b.add("") // page, filled below
	}

	kids := make([]string, len(pages))
	for i, p := range pages {
		var contents string
		if p.content != "" || len(p.contents) == 0 {
			contents = fmt.Sprintf("%d 0 R", b.stream("", p.content))
		} else {
			var refs []string
			for _, c := range p.contents {
				refs = append(refs, fmt.Sprintf("%d 0 R", b.stream("", c)))
			}
			contents = "[" + strings.Join(refs, " ") + "]"
		}

		xobjects := ""
		if len(p.images) > 0 {
			var entries []string
			for name, obj := range p.images {
				entries = append(entries, fmt.Sprintf("/%s %d 0 R", name, b.add(obj)))
			}
			xobjects = "/XObject << " + strings.Join(entries, " ") + " >>"
		}

		extra := ""
		if p.annots != nil {
			extra += " /Annots " + p.annots(pageRef)
		}
		if p.rotate != 0 {
			extra += fmt.Sprintf(" /Rotate %d", p.rotate)
		}
		b.objects[pageRef(i)-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> %s >> /Contents %s%s >>",
			xobjects, contents, extra)
		kids[i] = fmt.Sprintf("%d 0 R", pageRef(i))
	}
	b.objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages))

	info := 0
	if title != "" {
		info = b.add(fmt.Sprintf("<< /Title (%s) /Author (Test Author) >>", title))
	}
	return b.bytes(1, info)
}

// textAt returns a content stream fragment showing s at (x, y) in 12pt.
func textAt(x, y float64, s string) string {
	return fmt.Sprintf("BT /F1 12 Tf %g %g Td (%s) Tj ET\n", x, y, s)
}

func openPDF(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return doc
}

// threePageDocument has text on pages 0 and 2 and an empty page between.
func threePageDocument(t *testing.T) []byte {
	t.Helper()
	return buildPDF(t, []testPage{
		{content: textAt(72, 720, "Hello World")},
		{content: " "},
		{content: textAt(72, 720, "Third page")},
	}, "Scenario")
}
