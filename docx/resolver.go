package docx

import (
	"strconv"

	"github.com/tsawler/docex/model"
)

// ResolvedStyle contains the resolved character properties of a style.
type ResolvedStyle struct {
	ID       string
	Name     string
	Type     string // paragraph, character, table
	FontName string
	FontSize float64 // points
	Bold     bool
	Italic   bool
}

// StyleResolver resolves styles with inheritance support.
//
// Properties flow from the document defaults through the basedOn chain of
// the paragraph style, then the run's character style, then direct run
// formatting. A font name or size that nothing in the package sets is
// reported with the model sentinels.
type StyleResolver struct {
	styles         map[string]*styleDefXML
	resolved       map[string]*ResolvedStyle
	defaultPara    string
	defaultFont    string
	defaultSize    float64
	defaultsBold   bool
	defaultsItalic bool
}

// NewStyleResolver creates a new style resolver from parsed styles.
func NewStyleResolver(styles *stylesXML) *StyleResolver {
	sr := &StyleResolver{
		styles:      make(map[string]*styleDefXML),
		resolved:    make(map[string]*ResolvedStyle),
		defaultFont: model.UnknownFont,
		defaultSize: model.UnknownFontSize,
	}

	if styles == nil {
		return sr
	}

	for i := range styles.Styles {
		style := &styles.Styles[i]
		sr.styles[style.StyleID] = style
		if style.Type == "paragraph" && style.Default == "1" && sr.defaultPara == "" {
			sr.defaultPara = style.StyleID
		}
	}

	rpr := styles.DocDefaults.RPrDefault.RPr
	if name := rpr.Font.name(); name != "" {
		sr.defaultFont = name
	}
	if size := parseHalfPoints(rpr.FontSize.Val); size > 0 {
		sr.defaultSize = size
	}
	sr.defaultsBold = rpr.Bold.On()
	sr.defaultsItalic = rpr.Italic.On()

	return sr
}

// Resolve returns the fully resolved style for the given style ID. An empty
// ID resolves the default paragraph style; an unknown ID resolves to the
// document defaults.
func (sr *StyleResolver) Resolve(styleID string) *ResolvedStyle {
	if styleID == "" {
		styleID = sr.defaultPara
	}
	if styleID == "" {
		return sr.defaultStyle()
	}

	if resolved, ok := sr.resolved[styleID]; ok {
		return resolved
	}

	resolved := sr.defaultStyle()
	resolved.ID = styleID

	if def, ok := sr.styles[styleID]; ok {
		resolved.Name = def.Name.Val
		resolved.Type = def.Type
		for _, sid := range sr.buildInheritanceChain(styleID) {
			applyRunProps(resolved, sr.styles[sid].RPr)
		}
	}

	sr.resolved[styleID] = resolved
	return resolved
}

// StyleName returns the display name of a style, or its ID when the style
// has no name or is not defined.
func (sr *StyleResolver) StyleName(styleID string) string {
	if def, ok := sr.styles[styleID]; ok && def.Name.Val != "" {
		return def.Name.Val
	}
	return styleID
}

func (sr *StyleResolver) defaultStyle() *ResolvedStyle {
	return &ResolvedStyle{
		FontName: sr.defaultFont,
		FontSize: sr.defaultSize,
		Bold:     sr.defaultsBold,
		Italic:   sr.defaultsItalic,
	}
}

// buildInheritanceChain returns style IDs from base to derived. Cycles in
// basedOn are cut at the first repeated ID.
func (sr *StyleResolver) buildInheritanceChain(styleID string) []string {
	var chain []string
	visited := make(map[string]bool)

	current := styleID
	for current != "" && !visited[current] {
		visited[current] = true
		def, ok := sr.styles[current]
		if !ok {
			break
		}
		chain = append([]string{current}, chain...)
		current = def.BasedOn.Val
	}

	return chain
}

// applyRunProps overlays explicitly set run properties.
func applyRunProps(resolved *ResolvedStyle, rpr runPropsXML) {
	if name := rpr.Font.name(); name != "" {
		resolved.FontName = name
	}
	if size := parseHalfPoints(rpr.FontSize.Val); size > 0 {
		resolved.FontSize = size
	}
	if rpr.Bold != nil {
		resolved.Bold = rpr.Bold.On()
	}
	if rpr.Italic != nil {
		resolved.Italic = rpr.Italic.On()
	}
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val / 2
}

// ResolvedRun contains resolved properties for a text run.
type ResolvedRun struct {
	FontName string
	FontSize float64
	Bold     bool
	Italic   bool
}

// ResolveRun resolves run properties: paragraph style, then the run's
// character style, then direct formatting.
func (sr *StyleResolver) ResolveRun(paragraphStyle string, runProps runPropsXML) ResolvedRun {
	base := *sr.Resolve(paragraphStyle)

	if cs := runProps.Style.Val; cs != "" {
		for _, sid := range sr.buildInheritanceChain(cs) {
			applyRunProps(&base, sr.styles[sid].RPr)
		}
	}
	applyRunProps(&base, runProps)

	return ResolvedRun{
		FontName: base.FontName,
		FontSize: base.FontSize,
		Bold:     base.Bold,
		Italic:   base.Italic,
	}
}
