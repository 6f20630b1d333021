package pdfdoc

import (
	"fmt"
	"io"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/tsawler/docex/internal/filters"
	"github.com/tsawler/docex/internal/imagemeta"
	"github.com/tsawler/docex/model"
)

// EmbeddedImages extracts the image XObjects of every page with pdfcpu.
// Records are ordered by object number within a page.
func (d *Document) EmbeddedImages() ([]model.Image, error) {
	ctx, err := d.context()
	if err != nil {
		return nil, err
	}
	var out []model.Image
	for n := 1; n <= ctx.PageCount; n++ {
		imgs, err := pdfcpu.ExtractPageImages(ctx, n, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		objNrs := make([]int, 0, len(imgs))
		for nr := range imgs {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		for _, nr := range objNrs {
			img := imgs[nr]
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("page %d image %d: %w", n, nr, err)
			}
			rec, ok := imagemeta.Record(n-1, data, "image."+img.FileType, model.OriginDirectShape, fmt.Sprintf("obj:%d", nr))
			if !ok {
				continue
			}
			out = append(out, imagemeta.WithSize(rec, img.Width, img.Height))
		}
	}
	return out, nil
}

// xobjectImage is an image XObject reached from a page's resources.
type xobjectImage struct {
	name                  string
	width, height, length int
}

// pageXObjectImages lists the image XObjects of a page, descending into form
// XObjects.
func pageXObjectImages(p pdf.Page) (found []xobjectImage) {
	defer func() {
		if recover() != nil {
			found = nil
		}
	}()
	var walk func(xobjs pdf.Value, depth int)
	walk = func(xobjs pdf.Value, depth int) {
		for _, name := range xobjs.Keys() {
			x := xobjs.Key(name)
			switch x.Key("Subtype").Name() {
			case "Image":
				found = append(found, xobjectImage{
					name:   name,
					width:  int(x.Key("Width").Int64()),
					height: int(x.Key("Height").Int64()),
					length: int(x.Key("Length").Int64()),
				})
			case "Form":
				if depth < 4 {
					walk(x.Key("Resources").Key("XObject"), depth+1)
				}
			}
		}
	}
	walk(p.Resources().Key("XObject"), 0)
	return found
}

// XObjectImages locates image XObjects through the ledongthuc page tree and
// decodes their streams from the raw file bytes. Each XObject is matched to
// its stream by object number, read from the page tree in the raw bytes;
// when that tree sits in object streams, by size instead. Streams whose
// codec cannot be handled are skipped.
func (d *Document) XObjectImages() ([]model.Image, error) {
	f := readRawFile(d.data)
	refs := f.pageImageRefs(d.data)
	if len(refs) != d.pages {
		refs = nil
	}
	var out []model.Image
	for n := 1; n <= d.pages; n++ {
		seen := make(map[int]bool)
		for _, x := range pageXObjectImages(d.page(n)) {
			var rs rawStream
			var ok bool
			if refs != nil {
				var nr int
				if nr, ok = refs[n-1][x.name]; ok {
					rs, ok = f.images[nr]
				}
			}
			if !ok {
				rs, ok = f.bySize(x, seen)
			}
			if !ok || seen[rs.objNr] {
				continue
			}
			seen[rs.objNr] = true
			data, err := rs.encoded()
			if err != nil {
				continue
			}
			rec, ok := imagemeta.Record(n-1, data, "", model.OriginDirectShape, fmt.Sprintf("obj:%d", rs.objNr))
			if !ok {
				continue
			}
			out = append(out, imagemeta.WithSize(rec, x.width, x.height))
		}
	}
	return out, nil
}

// bySize returns the lowest-numbered image stream not in skip whose
// dimensions match x and whose length is within an end-of-line marker of
// it.
func (f *rawFile) bySize(x xobjectImage, skip map[int]bool) (rawStream, bool) {
	best := rawStream{objNr: -1}
	for nr, rs := range f.images {
		if skip[nr] || (best.objNr >= 0 && nr > best.objNr) {
			continue
		}
		if rs.intEntry("Width", 0) != x.width || rs.intEntry("Height", 0) != x.height {
			continue
		}
		if diff := len(rs.data) - x.length; diff < -2 || diff > 2 {
			continue
		}
		best = rs
	}
	return best, best.objNr >= 0
}

// encoded returns the stream as a standalone image file: JPEG and JPEG 2000
// data as stored, everything else re-encoded as PNG.
func (rs rawStream) encoded() ([]byte, error) {
	names := rs.filterNames()
	params := rs.decodeParams(len(names))
	data, terminal, err := filters.Decode(rs.data, names, params)
	if err != nil {
		return nil, err
	}
	width, height := rs.intEntry("Width", 0), rs.intEntry("Height", 0)

	switch terminal {
	case filters.DCT, filters.JPX:
		return data, nil
	case filters.CCITT:
		var p filters.Params
		for i, name := range names {
			if name == filters.CCITT && i < len(params) {
				p = params[i]
			}
		}
		img, err := filters.CCITTFaxImage(data, p, width, height)
		if err != nil {
			return nil, err
		}
		return encodePNG(img)
	case filters.JBIG2:
		return nil, fmt.Errorf("unsupported filter: %s", terminal)
	}

	s := samples{
		width:      width,
		height:     height,
		components: rs.colorComponents(),
		bpc:        rs.intEntry("BitsPerComponent", 8),
		data:       data,
	}
	if boolIn(outerDict(rs.dict), "ImageMask") {
		s.components, s.bpc = 1, 1
	}
	img, err := s.image()
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// HasImages reports whether any page resource dictionary holds an image
// XObject.
func (d *Document) HasImages() bool {
	for n := 1; n <= d.pages; n++ {
		if len(pageXObjectImages(d.page(n))) > 0 {
			return true
		}
	}
	if ctx, err := d.context(); err == nil && ctx.Optimize != nil {
		for n := 1; n <= ctx.PageCount; n++ {
			if len(pdfcpu.ImageObjNrs(ctx, n)) > 0 {
				return true
			}
		}
	}
	return false
}
