package pdfdoc

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/tsawler/docex/internal/filters"
)

// rawStream is an image XObject read directly from the file bytes, with its
// payload still encoded.
type rawStream struct {
	objNr int
	dict  []byte
	data  []byte
}

var (
	objHeader   = regexp.MustCompile(`(\d+)\s+\d+\s+obj\b`)
	imageType   = regexp.MustCompile(`/Subtype\s*/Image\b`)
	lengthEntry = regexp.MustCompile(`/Length\s+(\d+)(\s+\d+\s+R)?`)
	filterEntry = regexp.MustCompile(`/Filter\s*(\[[^\]]*\]|/[A-Za-z0-9]+)`)
	nameToken   = regexp.MustCompile(`/([A-Za-z0-9]+)`)

	paramsPlaceholder = regexp.MustCompile(`^(null|\d+\s+\d+\s+R)`)
)

// scanObjects reads every plain indirect object whose value is a
// dictionary. It returns each object's dictionary and, separately, the image
// XObjects with their encoded payloads. Objects inside object streams are
// not seen. A later definition of an object number replaces an earlier one,
// as an incremental update does.
func scanObjects(data []byte) (dicts map[int][]byte, images map[int]rawStream) {
	dicts = make(map[int][]byte)
	images = make(map[int]rawStream)
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		pos := skipWhitespace(data, m[1])
		if !bytes.HasPrefix(data[pos:], []byte("<<")) {
			continue
		}
		end := matchDict(data, pos)
		if end < 0 {
			continue
		}
		objNr, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		dict := data[pos:end]
		dicts[objNr] = dict
		if !imageType.Match(dict) {
			continue
		}
		payload, ok := streamPayload(data, end, dict)
		if !ok {
			continue
		}
		images[objNr] = rawStream{objNr: objNr, dict: dict, data: payload}
	}
	return dicts, images
}

func skipWhitespace(data []byte, pos int) int {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}
	return pos
}

// matchDict returns the offset just past the ">>" closing the dictionary
// that opens at pos, or -1.
func matchDict(data []byte, pos int) int {
	s := &contentScanner{data: data, pos: pos}
	s.skipDict()
	if s.pos > len(data) || !bytes.HasSuffix(data[:s.pos], []byte(">>")) {
		return -1
	}
	return s.pos
}

// streamPayload returns the bytes between "stream" and "endstream". A
// direct /Length is trusted when it lands on endstream.
func streamPayload(data []byte, dictEnd int, dict []byte) ([]byte, bool) {
	pos := skipWhitespace(data, dictEnd)
	if !bytes.HasPrefix(data[pos:], []byte("stream")) {
		return nil, false
	}
	pos += len("stream")
	if bytes.HasPrefix(data[pos:], []byte("\r\n")) {
		pos += 2
	} else if pos < len(data) && (data[pos] == '\n' || data[pos] == '\r') {
		pos++
	}

	if m := lengthEntry.FindSubmatch(dict); m != nil && len(m[2]) == 0 {
		if n, err := strconv.Atoi(string(m[1])); err == nil && pos+n <= len(data) {
			after := skipWhitespace(data, pos+n)
			if bytes.HasPrefix(data[after:], []byte("endstream")) {
				return data[pos : pos+n], true
			}
		}
	}

	end := bytes.Index(data[pos:], []byte("endstream"))
	if end < 0 {
		return nil, false
	}
	payload := data[pos : pos+end]
	payload = bytes.TrimSuffix(payload, []byte("\n"))
	payload = bytes.TrimSuffix(payload, []byte("\r"))
	return payload, true
}

func (rs rawStream) intEntry(key string, def int) int {
	return intIn(outerDict(rs.dict), key, def)
}

func intIn(dict []byte, key string, def int) int {
	re := regexp.MustCompile(`/` + key + `\s+(-?\d+)`)
	m := re.FindSubmatch(dict)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return def
	}
	return n
}

func boolIn(dict []byte, key string) bool {
	return regexp.MustCompile(`/` + key + `\s+true\b`).Match(dict)
}

// outerDict returns dict with nested dictionaries blanked out, so entries
// of /DecodeParms are not mistaken for top-level entries.
func outerDict(dict []byte) []byte {
	out := make([]byte, len(dict))
	copy(out, dict)
	depth := 0
	for i := 0; i+1 < len(out); i++ {
		switch {
		case out[i] == '<' && out[i+1] == '<':
			depth++
			if depth > 1 {
				out[i], out[i+1] = ' ', ' '
			}
			i++
		case out[i] == '>' && out[i+1] == '>':
			if depth > 1 {
				out[i], out[i+1] = ' ', ' '
			}
			depth--
			i++
		case depth > 1:
			out[i] = ' '
		}
	}
	return out
}

// filterNames returns the /Filter chain.
func (rs rawStream) filterNames() []string {
	m := filterEntry.FindSubmatch(outerDict(rs.dict))
	if m == nil {
		return nil
	}
	var names []string
	for _, n := range nameToken.FindAllSubmatch(m[1], -1) {
		names = append(names, filters.Canonical(string(n[1])))
	}
	return names
}

// decodeParams returns one parameter set per filter. A single dictionary
// applies to every filter.
func (rs rawStream) decodeParams(count int) []filters.Params {
	i := bytes.Index(rs.dict, []byte("/DecodeParms"))
	if i < 0 {
		return nil
	}
	rest := rs.dict[i+len("/DecodeParms"):]

	var dicts [][]byte
	pos := skipWhitespace(rest, 0)
	switch {
	case pos < len(rest) && rest[pos] == '[':
		pos++
		for {
			pos = skipWhitespace(rest, pos)
			if pos >= len(rest) || rest[pos] == ']' {
				break
			}
			if bytes.HasPrefix(rest[pos:], []byte("<<")) {
				end := matchDict(rest, pos)
				if end < 0 {
					break
				}
				dicts = append(dicts, rest[pos:end])
				pos = end
				continue
			}
			// null or a reference: no parameters for this filter
			m := paramsPlaceholder.FindIndex(rest[pos:])
			if m == nil {
				break
			}
			dicts = append(dicts, nil)
			pos += m[1]
		}
	case bytes.HasPrefix(rest[pos:], []byte("<<")):
		if end := matchDict(rest, pos); end > 0 {
			for j := 0; j < max(count, 1); j++ {
				dicts = append(dicts, rest[pos:end])
			}
		}
	}

	out := make([]filters.Params, len(dicts))
	for j, d := range dicts {
		p := filters.Params{}
		for _, key := range []string{"Predictor", "Columns", "Colors", "BitsPerComponent", "K", "Rows"} {
			if v := intIn(d, key, -1<<31); v != -1<<31 {
				p[key] = v
			}
		}
		for _, key := range []string{"BlackIs1", "EncodedByteAlign"} {
			if boolIn(d, key) {
				p[key] = 1
			}
		}
		out[j] = p
	}
	return out
}

// colorComponents returns the component count of a device color space, or
// 0 when it must be inferred from the sample data.
func (rs rawStream) colorComponents() int {
	m := regexp.MustCompile(`/ColorSpace\s*/([A-Za-z]+)`).FindSubmatch(outerDict(rs.dict))
	if m == nil {
		return 0
	}
	switch string(m[1]) {
	case "DeviceGray", "CalGray", "G":
		return 1
	case "DeviceRGB", "CalRGB", "RGB":
		return 3
	case "DeviceCMYK", "CMYK":
		return 4
	}
	return 0
}
