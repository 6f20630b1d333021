package pptx

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/docex/internal/opc"
)

const presentationPart = "ppt/presentation.xml"

// slide is one slide part with its relationships.
type slide struct {
	name   string
	data   []byte
	rels   []opc.Relationship
	relMap map[string]opc.Relationship
}

// slideOrder returns slide part names in presentation order. The order comes
// from <p:sldIdLst>; when it names nothing usable, slide files are sorted by
// the number in their name.
func slideOrder(pkg *opc.Package) ([]string, error) {
	data, err := pkg.Read(presentationPart)
	if err != nil {
		return nil, err
	}
	var pres presentationXML
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}
	rels, err := pkg.Rels(presentationPart)
	if err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	byID := opc.RelsByID(rels)

	var names []string
	seen := make(map[string]bool)
	if pres.SlideIdList != nil {
		for _, id := range pres.SlideIdList.SlideId {
			rel, ok := byID[id.RID]
			if !ok || rel.External || !pkg.Has(rel.Part) || seen[rel.Part] {
				continue
			}
			seen[rel.Part] = true
			names = append(names, rel.Part)
		}
	}
	if len(names) > 0 {
		return names, nil
	}

	for _, name := range pkg.Names() {
		if strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml") {
			names = append(names, name)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return slideNumber(names[i]) < slideNumber(names[j])
	})
	return names, nil
}

// slideNumber extracts the number from a path like "ppt/slides/slide12.xml".
func slideNumber(name string) int {
	name = strings.TrimPrefix(name, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	var num int
	fmt.Sscanf(name, "%d", &num)
	return num
}

// loadSlide reads a slide part and its relationships. The part must be
// well-formed.
func loadSlide(pkg *opc.Package, name string) (*slide, error) {
	data, err := pkg.Read(name)
	if err != nil {
		return nil, err
	}
	if err := opc.WellFormed(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	rels, err := pkg.Rels(name)
	if err != nil {
		return nil, err
	}
	return &slide{
		name:   name,
		data:   data,
		rels:   rels,
		relMap: opc.RelsByID(rels),
	}, nil
}
