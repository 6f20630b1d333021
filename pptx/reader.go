// Package pptx extracts text, hyperlinks, images and tables from PPTX
// (Office Open XML presentation) documents. Slides are locations, numbered
// from zero in presentation order.
package pptx

import (
	"fmt"
	"sync"

	"github.com/tsawler/docex/internal/opc"
)

// Document is an opened PPTX package.
type Document struct {
	pkg    *opc.Package
	slides []*slide
	index  map[string]int // slide part name -> slide index

	walkOnce sync.Once
	walked   []slideResult
	walkErr  error
}

// Open parses data as a PPTX package. Every slide part must be well-formed;
// a presentation without slides is valid and yields no records.
func Open(data []byte) (*Document, error) {
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, err
	}
	if err := pkg.Require("[Content_Types].xml", presentationPart); err != nil {
		return nil, err
	}

	names, err := slideOrder(pkg)
	if err != nil {
		return nil, err
	}

	d := &Document{
		pkg:   pkg,
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		s, err := loadSlide(pkg, name)
		if err != nil {
			return nil, err
		}
		d.slides = append(d.slides, s)
		d.index[name] = i
	}
	return d, nil
}

// SlideCount returns the number of slides.
func (d *Document) SlideCount() int {
	return len(d.slides)
}

// Info returns the title and author from the core properties.
func (d *Document) Info() (title, author string) {
	return d.pkg.CoreProperties()
}

// walk traverses every slide once and caches the result for the four
// primary operations.
func (d *Document) walk() ([]slideResult, error) {
	d.walkOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				d.walked, d.walkErr = nil, fmt.Errorf("walking slides: %v", r)
			}
		}()
		d.walked, d.walkErr = d.walkSlides()
	})
	return d.walked, d.walkErr
}

// slideTarget returns the internal link target of a slide part.
func (d *Document) slideTarget(part string) (string, bool) {
	i, ok := d.index[part]
	if !ok {
		return "", false
	}
	return slideAnchor(i), true
}
