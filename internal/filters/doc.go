// Package filters decodes the /Filter chain of PDF image streams read
// straight from the file.
//
// [Decode] applies the general-purpose filters with pdfcpu's filter
// package and stops at the first image codec, so a JPEG payload comes back
// intact with terminal set to [DCT]:
//
//	data, terminal, err := filters.Decode(raw, []string{"FlateDecode"}, params)
//
// Bi-level fax data is turned into an image with [CCITTFaxImage].
//
// # Decode Parameters
//
// Params holds the integer entries of /DecodeParms. Booleans such as
// BlackIs1 are stored as 1:
//
//	params := filters.Params{"Predictor": 12, "Columns": 100, "Colors": 3}
package filters
