package redline

import (
	"fmt"
	"strings"
)

// StyleMode selects how pending insertions and deletions are rendered.
type StyleMode string

const (
	// StyleYellow highlights both insertions and deletions with a yellow background.
	StyleYellow StyleMode = "yellow"
	// StylePink colors insertions and deletions with a pink foreground.
	StylePink StyleMode = "pink"
)

// DefaultStyle is used when no style is configured.
const DefaultStyle = StyleYellow

const (
	highlightYellow = "#fff59d"
	highlightPink   = "#b43f7f"
)

// ParseStyle parses a style name. The empty string yields DefaultStyle.
func ParseStyle(s string) (StyleMode, error) {
	switch StyleMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultStyle, nil
	case StyleYellow:
		return StyleYellow, nil
	case StylePink:
		return StylePink, nil
	}
	return "", fmt.Errorf("unknown style %q (want yellow or pink)", s)
}

// Presentation carries the attributes layered onto inserted and deleted spans.
type Presentation struct {
	Insert Attributes
	Delete Attributes
}

// PresentationFor returns the presentation of a style mode.
// Deleted spans always get strike on top of the mode's attributes.
func PresentationFor(mode StyleMode) Presentation {
	var base Attributes
	switch mode {
	case StylePink:
		base = Attributes{AttrColor: highlightPink}
	default:
		base = Attributes{AttrBackground: highlightYellow}
	}
	return Presentation{
		Insert: base.Clone(),
		Delete: base.With(Attributes{AttrStrike: TrueValue}),
	}
}

// presentationKeys lists keys in sorted order for the presentation marker.
func presentationKeys(a Attributes) string {
	return strings.Join(a.Keys(), ",")
}

// stripMarkers removes the suggestion marker and every presentation key it recorded.
func stripMarkers(a Attributes) Attributes {
	if a[AttrSuggestion] == "" {
		return a.Clone()
	}
	names := []string{
		AttrSuggestion, AttrSuggestionID, AttrSuggestionAuthor,
		AttrSuggestionReason, AttrSuggestionPresentation,
	}
	for _, k := range strings.Split(a[AttrSuggestionPresentation], ",") {
		if k != "" {
			names = append(names, k)
		}
	}
	return a.Without(names...)
}
