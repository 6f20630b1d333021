// Package linkscan classifies link targets and finds link-like patterns in
// plain text.
package linkscan

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/idna"

	"github.com/tsawler/docex/model"
)

var (
	// urlPattern matches scheme URLs and bare www. hosts.
	urlPattern = regexp.MustCompile(`(?i)\b(?:(?:https?|ftp)://|www\.)[^\s<>"]+`)

	// emailPattern matches addresses, with or without a mailto: prefix.
	emailPattern = regexp.MustCompile(`(?i)\b(?:mailto:)?[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// trailing punctuation that ends a sentence rather than a URL
const trailing = `.,;:!?)]}'"`

// Match is one link-like pattern found in text.
type Match struct {
	Target string
	Text   string // the matched text as it appeared
	Start  int    // byte offsets into the scanned text
	End    int
}

// Find returns the URL and email patterns in text, in order of appearance.
// Email matches that sit inside a URL match are not reported twice.
func Find(text string) []Match {
	var out []Match

	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		raw := strings.TrimRight(text[loc[0]:loc[1]], trailing)
		if raw == "" || strings.EqualFold(raw, "www.") {
			continue
		}
		out = append(out, Match{
			Target: Normalize(raw),
			Text:   raw,
			Start:  loc[0],
			End:    loc[0] + len(raw),
		})
	}

	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		if covered(out, loc[0]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		target := raw
		if !strings.HasPrefix(strings.ToLower(target), "mailto:") {
			target = "mailto:" + target
		}
		out = append(out, Match{Target: target, Text: raw, Start: loc[0], End: loc[1]})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func covered(ms []Match, pos int) bool {
	for _, m := range ms {
		if pos >= m.Start && pos < m.End {
			return true
		}
	}
	return false
}

// Classify reports the kind of a link target.
func Classify(target string) model.LinkKind {
	t := strings.ToLower(strings.TrimSpace(target))
	switch {
	case t == "":
		return model.LinkUnknown
	case strings.HasPrefix(t, "mailto:"):
		return model.LinkEmail
	case strings.HasPrefix(t, "http://"), strings.HasPrefix(t, "https://"),
		strings.HasPrefix(t, "ftp://"), strings.HasPrefix(t, "www."):
		return model.LinkExternal
	case strings.HasPrefix(t, "#"), strings.HasPrefix(t, "ppaction://"):
		return model.LinkInternal
	default:
		return model.LinkUnknown
	}
}

// Normalize converts the host of an absolute URL to its ASCII (punycode)
// form. Targets that are not absolute URLs, or whose host cannot be
// converted, are returned unchanged.
func Normalize(target string) string {
	target = strings.TrimSpace(target)
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	host := u.Hostname()
	if isASCII(host) {
		return target
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return target
	}
	if port := u.Port(); port != "" {
		ascii += ":" + port
	}
	u.Host = ascii
	return u.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Links converts the patterns found in text into link records at location.
func Links(location int, text string) []model.Link {
	matches := Find(text)
	if len(matches) == 0 {
		return nil
	}
	links := make([]model.Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, model.Link{
			Location: location,
			Target:   m.Target,
			Text:     m.Text,
			Kind:     Classify(m.Target),
		})
	}
	return links
}
