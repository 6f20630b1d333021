package pdfdoc

import (
	"bytes"
	"regexp"
	"strconv"
)

var (
	rootEntry = regexp.MustCompile(`/Root\s+(\d+)\s+\d+\s+R`)
	reference = regexp.MustCompile(`^(\d+)\s+\d+\s+R\b`)
	anyRef    = regexp.MustCompile(`(\d+)\s+\d+\s+R\b`)
	namedRef  = regexp.MustCompile(`/([^\s/<>\[\]()]+)\s+(\d+)\s+\d+\s+R\b`)
	formType  = regexp.MustCompile(`/Subtype\s*/Form\b`)
)

// rawFile is the object-level view of a PDF read straight from its bytes.
type rawFile struct {
	dicts  map[int][]byte
	images map[int]rawStream
}

func readRawFile(data []byte) *rawFile {
	dicts, images := scanObjects(data)
	return &rawFile{dicts: dicts, images: images}
}

// entry returns the raw value of a top-level dictionary key: a nested
// dictionary, an array or an indirect reference. Other values and missing
// keys give nil.
func entry(dict []byte, key string) []byte {
	loc := regexp.MustCompile(`/` + key + `\b`).FindIndex(outerDict(dict))
	if loc == nil {
		return nil
	}
	pos := skipWhitespace(dict, loc[1])
	rest := dict[pos:]
	switch {
	case bytes.HasPrefix(rest, []byte("<<")):
		if end := matchDict(dict, pos); end > 0 {
			return dict[pos:end]
		}
	case bytes.HasPrefix(rest, []byte("[")):
		if end := bytes.IndexByte(rest, ']'); end > 0 {
			return rest[:end+1]
		}
	default:
		return reference.Find(rest)
	}
	return nil
}

// resolve follows an indirect reference to its object's dictionary; inline
// dictionaries are returned as they are.
func (f *rawFile) resolve(v []byte) []byte {
	if m := reference.FindSubmatch(v); m != nil {
		nr, _ := strconv.Atoi(string(m[1]))
		return f.dicts[nr]
	}
	if bytes.HasPrefix(v, []byte("<<")) {
		return v
	}
	return nil
}

// pageImageRefs returns, for each page in page tree order, the object
// numbers of the image XObjects its resources name, including those of
// form XObjects it uses. It returns nil when the page tree is not stored as
// plain objects.
func (f *rawFile) pageImageRefs(data []byte) []map[string]int {
	roots := rootEntry.FindAllSubmatch(data, -1)
	if len(roots) == 0 {
		return nil
	}
	root, _ := strconv.Atoi(string(roots[len(roots)-1][1]))
	catalog := f.dicts[root]
	if catalog == nil {
		return nil
	}

	var pages []map[string]int
	visited := make(map[int]bool)
	var walk func(nr int, resources []byte) bool
	walk = func(nr int, resources []byte) bool {
		dict := f.dicts[nr]
		if dict == nil || visited[nr] {
			return false
		}
		visited[nr] = true
		if r := f.resolve(entry(dict, "Resources")); r != nil {
			resources = r
		}
		kids := entry(dict, "Kids")
		if kids == nil {
			refs := make(map[string]int)
			f.collectImages(resources, refs, 0)
			pages = append(pages, refs)
			return true
		}
		for _, m := range anyRef.FindAllSubmatch(kids, -1) {
			kid, _ := strconv.Atoi(string(m[1]))
			if !walk(kid, resources) {
				return false
			}
		}
		return true
	}

	m := reference.FindSubmatch(entry(catalog, "Pages"))
	if m == nil {
		return nil
	}
	top, _ := strconv.Atoi(string(m[1]))
	if !walk(top, nil) {
		return nil
	}
	return pages
}

// collectImages adds the image XObjects named by resources to refs,
// descending into form XObjects. Names already present keep their first
// object.
func (f *rawFile) collectImages(resources []byte, refs map[string]int, depth int) {
	xobjects := f.resolve(entry(resources, "XObject"))
	for _, m := range namedRef.FindAllSubmatch(xobjects, -1) {
		name := string(m[1])
		nr, _ := strconv.Atoi(string(m[2]))
		if _, ok := f.images[nr]; ok {
			if _, dup := refs[name]; !dup {
				refs[name] = nr
			}
			continue
		}
		if form := f.dicts[nr]; form != nil && formType.Match(form) && depth < 4 {
			f.collectImages(f.resolve(entry(form, "Resources")), refs, depth+1)
		}
	}
}
