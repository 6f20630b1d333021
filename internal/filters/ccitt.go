package filters

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/ccitt"
)

// CCITTFaxImage decodes CCITT fax data into a grayscale image. Columns and
// Rows default to the image width and height. K < 0 selects Group 4.
func CCITTFaxImage(data []byte, p Params, width, height int) (*image.Gray, error) {
	columns, rows := width, height
	if v, ok := p["Columns"]; ok {
		columns = v
	}
	if v, ok := p["Rows"]; ok && v > 0 {
		rows = v
	}
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid CCITT dimensions %dx%d", columns, rows)
	}

	sf := ccitt.Group3
	if p["K"] < 0 {
		sf = ccitt.Group4
	}
	opts := &ccitt.Options{
		Align:  p["EncodedByteAlign"] == 1,
		Invert: p["BlackIs1"] == 1,
	}

	img := image.NewGray(image.Rect(0, 0, columns, rows))
	if err := ccitt.DecodeIntoGray(img, bytes.NewReader(data), ccitt.MSB, sf, opts); err != nil {
		return nil, err
	}
	return img, nil
}
