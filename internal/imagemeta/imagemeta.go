// Package imagemeta identifies embedded image payloads and turns them into
// image records.
package imagemeta

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/docex/model"
)

// Info describes an image payload.
type Info struct {
	MIMEType string
	Width    int
	Height   int
}

var signatures = []struct {
	prefix []byte
	offset int
	mime   string
}{
	{[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, 0, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, 0, "image/jpeg"},
	{[]byte("GIF87a"), 0, "image/gif"},
	{[]byte("GIF89a"), 0, "image/gif"},
	{[]byte("BM"), 0, "image/bmp"},
	{[]byte("II*\x00"), 0, "image/tiff"},
	{[]byte("MM\x00*"), 0, "image/tiff"},
	{[]byte("WEBP"), 8, "image/webp"},
	{[]byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}, 0, "image/jp2"},
	{[]byte{0xFF, 0x4F, 0xFF, 0x51}, 0, "image/jp2"},
	{[]byte{0x01, 0x00, 0x00, 0x00}, 0, "image/emf"},
	{[]byte{0xD7, 0xCD, 0xC6, 0x9A}, 0, "image/wmf"},
}

var extensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".emf":  "image/emf",
	".wmf":  "image/wmf",
	".svg":  "image/svg+xml",
	".jp2":  "image/jp2",
	".jpx":  "image/jp2",
}

// Sniff returns the MIME type of data from its leading bytes, or "" when the
// signature is not recognized.
func Sniff(data []byte) string {
	for _, s := range signatures {
		end := s.offset + len(s.prefix)
		if len(data) >= end && bytes.Equal(data[s.offset:end], s.prefix) {
			// EMF records start with type 1 and carry " EMF" at offset 40.
			if s.mime == "image/emf" && (len(data) < 44 || string(data[40:44]) != " EMF") {
				continue
			}
			return s.mime
		}
	}
	trimmed := bytes.TrimSpace(data[:min(len(data), 512)])
	if bytes.HasPrefix(trimmed, []byte("<svg")) ||
		(bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(trimmed, []byte("<svg"))) {
		return "image/svg+xml"
	}
	return ""
}

// ByName returns the MIME type implied by a part or file name.
func ByName(name string) string {
	return extensions[strings.ToLower(path.Ext(name))]
}

// Inspect identifies data. The name is consulted only when the content
// signature is unknown. Dimensions are zero for formats without a
// registered decoder.
func Inspect(data []byte, name string) Info {
	info := Info{MIMEType: Sniff(data)}
	if info.MIMEType == "" {
		info.MIMEType = ByName(name)
	}
	if info.MIMEType == "" {
		info.MIMEType = "application/octet-stream"
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	return info
}

// Record builds an image record. It reports false for an empty payload,
// which must not be emitted. The payload is Base64-encoded here and
// nowhere earlier.
func Record(location int, data []byte, name string, origin model.ImageOrigin, resourceID string) (model.Image, bool) {
	if len(data) == 0 {
		return model.Image{}, false
	}
	info := Inspect(data, name)
	return model.Image{
		Location:   location,
		Data:       base64.StdEncoding.EncodeToString(data),
		MIMEType:   info.MIMEType,
		Width:      info.Width,
		Height:     info.Height,
		Origin:     origin,
		ResourceID: resourceID,
	}, true
}

// WithSize overrides the dimensions of a record when the container knows
// them and the payload could not be decoded.
func WithSize(img model.Image, width, height int) model.Image {
	if img.Width == 0 && img.Height == 0 && width > 0 && height > 0 {
		img.Width, img.Height = width, height
	}
	return img
}
