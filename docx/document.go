package docx

import (
	"encoding/xml"
	"strconv"
)

// XML namespaces used in DOCX files
const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style           styleRefXML `xml:"pStyle"`
	PageBreakBefore *onOffXML   `xml:"pageBreakBefore"`
	RPr             runPropsXML `xml:"rPr"`
}

// styleRefXML represents a style reference.
type styleRefXML struct {
	Val string `xml:"val,attr"`
}

// runPropsXML represents run properties (<w:rPr>).
type runPropsXML struct {
	Style    styleRefXML `xml:"rStyle"`
	Bold     *onOffXML   `xml:"b"`
	Italic   *onOffXML   `xml:"i"`
	FontSize sizeXML     `xml:"sz"`
	Font     fontXML     `xml:"rFonts"`
}

// onOffXML is a toggle property. Presence means on unless val says
// otherwise.
type onOffXML struct {
	Val string `xml:"val,attr"`
}

// On reports the toggle state; a nil property is off.
func (o *onOffXML) On() bool {
	if o == nil {
		return false
	}
	switch o.Val {
	case "false", "0", "off":
		return false
	}
	return true
}

// sizeXML represents font size (in half-points).
type sizeXML struct {
	Val string `xml:"val,attr"`
}

// fontXML represents font settings.
type fontXML struct {
	ASCII    string `xml:"ascii,attr"`
	HAnsi    string `xml:"hAnsi,attr"`
	CS       string `xml:"cs,attr"`
	EastAsia string `xml:"eastAsia,attr"`
}

// name returns the first explicit typeface. Theme references are not
// resolved and count as absent.
func (f fontXML) name() string {
	for _, n := range []string{f.ASCII, f.HAnsi, f.EastAsia, f.CS} {
		if n != "" {
			return n
		}
	}
	return ""
}

// tablePropsXML represents table properties (<w:tblPr>).
type tablePropsXML struct {
	Style styleRefXML `xml:"tblStyle"`
}

// cellPropsXML represents cell properties (<w:tcPr>).
type cellPropsXML struct {
	GridSpan gridSpanXML `xml:"gridSpan"`
	VMerge   *vMergeXML  `xml:"vMerge"`
}

// gridSpanXML represents column span.
type gridSpanXML struct {
	Val string `xml:"val,attr"` // Number of columns spanned
}

// span returns the number of grid columns covered, at least 1.
func (g gridSpanXML) span() int {
	n, err := strconv.Atoi(g.Val)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// vMergeXML represents vertical merge.
type vMergeXML struct {
	Val string `xml:"val,attr"` // "restart" or empty (continue)
}

// stylesXML represents the structure of word/styles.xml
type stylesXML struct {
	XMLName     xml.Name       `xml:"styles"`
	DocDefaults docDefaultsXML `xml:"docDefaults"`
	Styles      []styleDefXML  `xml:"style"`
}

// docDefaultsXML represents document default styles.
type docDefaultsXML struct {
	RPrDefault struct {
		RPr runPropsXML `xml:"rPr"`
	} `xml:"rPrDefault"`
}

// styleDefXML represents a style definition.
type styleDefXML struct {
	Type    string      `xml:"type,attr"` // paragraph, character, table, numbering
	StyleID string      `xml:"styleId,attr"`
	Default string      `xml:"default,attr"` // "1" if default style
	Name    styleRefXML `xml:"name"`
	BasedOn styleRefXML `xml:"basedOn"`
	RPr     runPropsXML `xml:"rPr"`
}

// attr returns the value of the attribute with the given local name.
// Prefixed attributes such as r:id and w:val are matched by local name.
func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// relAttr returns an attribute in the relationships namespace, falling back
// to a bare local-name match for documents with nonstandard prefixes.
func relAttr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local && a.Name.Space == nsR {
			return a.Value
		}
	}
	return attr(se, local)
}
