package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// samples is decoded image sample data as stored in an image XObject.
// components is 0 when the color space did not say; it is then inferred
// from the data length.
type samples struct {
	width, height int
	components    int
	bpc           int
	data          []byte
}

// image converts the samples to an image. Gray supports 1, 2, 4, 8 and 16
// bits per component; RGB and CMYK require 8.
func (s samples) image() (image.Image, error) {
	if s.width <= 0 || s.height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", s.width, s.height)
	}
	comps := s.components
	if comps == 0 {
		comps = 1
		if s.bpc == 8 {
			if n := len(s.data) / (s.width * s.height); n == 3 || n == 4 {
				comps = n
			}
		}
	}
	stride := (s.width*comps*s.bpc + 7) / 8
	if len(s.data) < stride*s.height {
		return nil, fmt.Errorf("insufficient sample data: got %d, expected %d", len(s.data), stride*s.height)
	}

	rect := image.Rect(0, 0, s.width, s.height)
	switch {
	case comps == 1:
		switch s.bpc {
		case 1, 2, 4, 8, 16:
		default:
			return nil, fmt.Errorf("unsupported bits per component: %d", s.bpc)
		}
		img := image.NewGray(rect)
		for y := 0; y < s.height; y++ {
			for x := 0; x < s.width; x++ {
				img.Pix[y*img.Stride+x] = s.gray(y*stride, x)
			}
		}
		return img, nil

	case comps == 3 && s.bpc == 8:
		img := image.NewRGBA(rect)
		for y := 0; y < s.height; y++ {
			row := s.data[y*stride:]
			for x := 0; x < s.width; x++ {
				d := img.Pix[y*img.Stride+x*4:]
				d[0], d[1], d[2], d[3] = row[x*3], row[x*3+1], row[x*3+2], 0xFF
			}
		}
		return img, nil

	case comps == 4 && s.bpc == 8:
		img := image.NewCMYK(rect)
		for y := 0; y < s.height; y++ {
			copy(img.Pix[y*img.Stride:], s.data[y*stride:y*stride+s.width*4])
		}
		return img, nil
	}
	return nil, fmt.Errorf("unsupported sample layout: %d components at %d bits", comps, s.bpc)
}

// gray returns sample x of the row starting at off, scaled to 8 bits.
func (s samples) gray(off, x int) uint8 {
	switch s.bpc {
	case 8:
		return s.data[off+x]
	case 16:
		return s.data[off+2*x]
	}
	bit := x * s.bpc
	maxVal := 1<<s.bpc - 1
	v := int(s.data[off+bit/8]>>(8-s.bpc-bit%8)) & maxVal
	return uint8(v * 255 / maxVal)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
