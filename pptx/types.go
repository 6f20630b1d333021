package pptx

import (
	"encoding/xml"
	"strconv"
)

// XML namespaces used in PPTX files.
const (
	nsDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// EMU conversions: 12700 EMU per point, 9525 EMU per pixel at 96 DPI.
const (
	emuPerPoint = 12700
	emuPerPixel = 9525
	rotPerDeg   = 60000
)

// presentationXML represents the ppt/presentation.xml file structure.
type presentationXML struct {
	XMLName     xml.Name        `xml:"presentation"`
	SlideIdList *slideIdListXML `xml:"sldIdLst"`
}

type slideIdListXML struct {
	SlideId []slideIdXML `xml:"sldId"`
}

type slideIdXML struct {
	ID  string `xml:"id,attr"`
	RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// slideXML represents a ppt/slides/slide*.xml file. The shape tree is kept
// generic so shapes are visited in the order they appear.
type slideXML struct {
	XMLName xml.Name `xml:"sld"`
	CSld    struct {
		SpTree node `xml:"spTree"`
	} `xml:"cSld"`
}

// node is one element of a decoded shape tree.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

// child returns the first child with the given local name.
func (n *node) child(local string) *node {
	if n == nil {
		return nil
	}
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

// path follows a chain of first children.
func (n *node) path(locals ...string) *node {
	for _, l := range locals {
		n = n.child(l)
	}
	return n
}

// text returns the character data of n, or "" for a missing element.
func (n *node) text() string {
	if n == nil {
		return ""
	}
	return n.Text
}

// children returns every child with the given local name.
func (n *node) children(local string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// attr returns an attribute by local name. Unprefixed attributes win over
// namespaced ones of the same name.
func (n *node) attr(local string) string {
	if n == nil {
		return ""
	}
	val := ""
	for _, a := range n.Attrs {
		if a.Name.Local != local {
			continue
		}
		if a.Name.Space == "" {
			return a.Value
		}
		if val == "" {
			val = a.Value
		}
	}
	return val
}

// relAttr returns a relationship attribute such as r:embed or r:id.
func (n *node) relAttr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local && a.Name.Space == nsRelationships {
			return a.Value
		}
	}
	return n.attr(local)
}

func (n *node) intAttr(local string) int64 {
	v, _ := strconv.ParseInt(n.attr(local), 10, 64)
	return v
}

// flag reads a DrawingML boolean attribute ("1" or "true").
func (n *node) flag(local string) bool {
	switch n.attr(local) {
	case "1", "true", "on":
		return true
	}
	return false
}
