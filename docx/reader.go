// Package docx extracts text, hyperlinks, images and tables from DOCX
// (Office Open XML word processing) documents.
//
// The primary backend is a single streaming pass over word/document.xml that
// resolves style inheritance and tracks page breaks. The secondary backends
// scan raw tokens and relationship files and never depend on the structured
// walk succeeding.
package docx

import (
	"encoding/xml"
	"fmt"
	"sync"

	"github.com/tsawler/docex/internal/opc"
)

const documentPart = "word/document.xml"

// Document is an opened DOCX package.
type Document struct {
	pkg    *opc.Package
	body   []byte
	rels   []opc.Relationship
	relMap map[string]opc.Relationship
	styles *StyleResolver

	walkOnce sync.Once
	walked   *body
	walkErr  error
}

// Open parses data as a DOCX package. The main document part must exist and
// be well-formed XML; styles are optional.
func Open(data []byte) (*Document, error) {
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, err
	}
	if err := pkg.Require("[Content_Types].xml", documentPart); err != nil {
		return nil, err
	}

	d := &Document{pkg: pkg}

	d.rels, err = pkg.Rels(documentPart)
	if err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	d.relMap = opc.RelsByID(d.rels)

	d.body, err = pkg.Read(documentPart)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if err := opc.WellFormed(d.body); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	// Styles are optional; a broken styles part leaves only direct formatting.
	d.styles = NewStyleResolver(d.parseStyles())

	return d, nil
}

// Info returns the title and author from the core properties.
func (d *Document) Info() (title, author string) {
	return d.pkg.CoreProperties()
}

func (d *Document) parseStyles() *stylesXML {
	data, err := d.pkg.Read("word/styles.xml")
	if err != nil {
		return nil
	}
	var styles stylesXML
	if err := xml.Unmarshal(data, &styles); err != nil {
		return nil
	}
	return &styles
}

// walk runs the structured pass once and caches its result for the four
// primary operations.
func (d *Document) walk() (*body, error) {
	d.walkOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				d.walked, d.walkErr = nil, fmt.Errorf("walking document: %v", r)
			}
		}()
		d.walked, d.walkErr = walkDocument(d.body, d.relMap, d.styles)
	})
	return d.walked, d.walkErr
}
