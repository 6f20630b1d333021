// Package opc reads Open Packaging Conventions containers: the ZIP layout
// shared by DOCX and PPTX, its part names and its relationship files.
package opc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Relationship type suffixes. Transitional and strict schemas use different
// prefixes, so types are matched on the trailing segment.
const (
	RelImage          = "/image"
	RelHyperlink      = "/hyperlink"
	RelSlide          = "/slide"
	RelOfficeDocument = "/officeDocument"
	RelCoreProperties = "/core-properties"
)

// relationshipsXML represents _rels/*.rels files
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"` // External or empty (internal)
}

// corePropertiesXML represents docProps/core.xml (Dublin Core metadata)
type corePropertiesXML struct {
	XMLName xml.Name `xml:"coreProperties"`
	Title   string   `xml:"title"`
	Creator string   `xml:"creator"`
}

// Relationship is one entry of a part's relationship file.
type Relationship struct {
	ID       string
	Type     string
	Target   string // raw Target attribute
	External bool
	Part     string // resolved part name for internal targets
}

// Is reports whether the relationship type ends with the given suffix,
// for example opc.RelImage.
func (r Relationship) Is(suffix string) bool {
	return strings.HasSuffix(r.Type, suffix)
}

// Package provides read access to the parts of an OPC container.
type Package struct {
	zr    *zip.Reader
	parts map[string]*zip.File
}

// Open parses data as a ZIP archive.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	p := &Package{
		zr:    zr,
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		p.parts[f.Name] = f
	}
	return p, nil
}

// Has reports whether the named part exists.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// Names returns all part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.zr.File))
	for _, f := range p.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Read returns the content of a part.
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Require checks that every named part exists.
func (p *Package) Require(names ...string) error {
	for _, name := range names {
		if !p.Has(name) {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

// Rels returns the relationships of a part. A part without a relationship
// file has none; that is not an error.
func (p *Package) Rels(part string) ([]Relationship, error) {
	relsPath := RelsPath(part)
	if !p.Has(relsPath) {
		return nil, nil
	}
	data, err := p.Read(relsPath)
	if err != nil {
		return nil, err
	}

	var rx relationshipsXML
	if err := xml.Unmarshal(data, &rx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relsPath, err)
	}

	rels := make([]Relationship, 0, len(rx.Relationships))
	for _, r := range rx.Relationships {
		rel := Relationship{
			ID:       r.ID,
			Type:     r.Type,
			Target:   r.Target,
			External: strings.EqualFold(r.TargetMode, "External"),
		}
		if !rel.External {
			rel.Part = ResolveTarget(part, r.Target)
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// RelsByID indexes relationships by ID.
func RelsByID(rels []Relationship) map[string]Relationship {
	m := make(map[string]Relationship, len(rels))
	for _, r := range rels {
		m[r.ID] = r
	}
	return m
}

// CoreProperties returns the title and creator from docProps/core.xml.
// Missing or malformed metadata yields empty strings.
func (p *Package) CoreProperties() (title, creator string) {
	data, err := p.Read("docProps/core.xml")
	if err != nil {
		return "", ""
	}
	var cp corePropertiesXML
	if err := xml.Unmarshal(data, &cp); err != nil {
		return "", ""
	}
	return strings.TrimSpace(cp.Title), strings.TrimSpace(cp.Creator)
}

// RelsPath returns the relationship file name for a part:
// "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
func RelsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// ResolveTarget resolves a relationship target relative to its source part.
// Absolute targets ("/ppt/media/image1.png") are taken from the package root.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(source), target)
}
