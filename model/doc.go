// Package model provides the uniform record schema produced by every format
// adapter.
//
// Whatever the source format, extraction yields four kinds of records:
//
//   - [TextBlock] - a contiguous run of uniformly styled text
//   - [Link] - a hyperlink, cross-reference or link-like text pattern
//   - [Image] - an embedded picture, Base64 encoded
//   - [Table] - a rectangular grid of cell text
//
// Records are plain values. They carry no reference back to the document
// they came from and can be serialized as-is.
//
// # Ordering
//
// Every record has a Location (0-based page or slide index) and an Ordinal
// that disambiguates records of the same kind at the same location. Use
// [Number] to put a slice into document order and assign ordinals:
//
//	blocks = model.Number(blocks)
//
// # Geometry
//
// [BBox] values are expressed in the native coordinate space of the source:
// PDF user space points (origin bottom-left) for PDF, points converted from
// EMUs (origin top-left) for PPTX. A nil *BBox means the backend could not
// supply geometry.
package model
