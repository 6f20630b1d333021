package text

import "golang.org/x/text/unicode/bidi"

// Direction is the writing direction of a run of text.
type Direction int

const (
	LTR Direction = iota
	RTL
	// Neutral text has no strong direction: digits, punctuation, spaces.
	Neutral
)

func (d Direction) String() string {
	switch d {
	case LTR:
		return "LTR"
	case RTL:
		return "RTL"
	case Neutral:
		return "Neutral"
	}
	return "Unknown"
}

// CharDirection classifies r by its Unicode bidirectional class. Only the
// strong classes L, R and AL have a direction.
func CharDirection(r rune) Direction {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.L:
		return LTR
	case bidi.R, bidi.AL:
		return RTL
	}
	return Neutral
}

// DetectDirection returns the majority strong direction of s, LTR on a tie,
// and Neutral when s has no strong runes.
func DetectDirection(s string) Direction {
	var n [3]int
	for _, r := range s {
		n[CharDirection(r)]++
	}
	return majority(n[LTR], n[RTL], Neutral)
}

// lineDirection votes per glyph and defaults to LTR.
func lineDirection(glyphs []Glyph) Direction {
	var n [3]int
	for _, g := range glyphs {
		n[DetectDirection(g.Text)]++
	}
	return majority(n[LTR], n[RTL], LTR)
}

func majority(ltr, rtl int, none Direction) Direction {
	switch {
	case ltr == 0 && rtl == 0:
		return none
	case rtl > ltr:
		return RTL
	}
	return LTR
}
