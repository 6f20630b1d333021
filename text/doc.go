// Package text assembles positioned glyphs into styled text runs and cleans
// extracted strings.
//
// PDF backends report text one glyph at a time, in content-stream order.
// [Runs] groups glyphs into lines, orders each line by reading direction,
// inserts word spaces from the gaps between glyphs, splits a line wherever
// the font changes, and joins consecutive lines of the same style into one
// run:
//
//	runs := text.Runs(glyphs)
//	for _, r := range runs {
//	    fmt.Println(r.FontName, r.FontSize, r.Text)
//	}
//
// # Spacing
//
// Word boundaries are inferred per line. Lines made of single-glyph
// fragments that already contain space glyphs only receive extra spaces
// for gaps far wider than the typical inter-glyph gap; lines without space
// glyphs use a threshold of 80% of the font size or three times the small
// gap, whichever is larger.
//
// # Direction
//
// [DetectDirection] classifies strings as LTR, RTL or Neutral from Unicode
// bidirectional classes. RTL lines are ordered right to left.
//
// # Cleaning
//
// [Clean] applies Unicode NFC normalization and collapses whitespace. All
// format adapters pass their text through it.
package text
