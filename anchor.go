package redline

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// DefaultMaxMatches caps how many anchor matches are counted.
const DefaultMaxMatches = 1000

// ResolveOptions configures anchor resolution.
type ResolveOptions struct {
	MaxMatches int
	Logger     *slog.Logger
}

// Resolution is the plain-text range an anchored suggestion targets.
type Resolution struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`

	// Matches counts the matches found, capped at MaxMatches.
	Matches int `json:"matches"`
	// Ambiguous is set when more than one match exists. The first one is used.
	Ambiguous bool `json:"ambiguous"`
}

// Resolve locates the target range of s in text.
//
// When both TextBefore and TextAfter are set, the range is whatever lies between
// them (non-greedy), minus whitespace and block separators at either edge.
// Otherwise TextBefore, TextToReplace and TextAfter are searched in sequence,
// allowing whitespace between the parts so an anchor may cross a block
// boundary, and the TextToReplace part of the first match is returned.
// An empty search text resolves to 0,0 only when text is blank.
func Resolve(text string, s Suggestion, opts ResolveOptions) (Resolution, error) {
	maxMatches := opts.MaxMatches
	if maxMatches <= 0 {
		maxMatches = DefaultMaxMatches
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var res Resolution
	if s.TextBefore != "" && s.TextAfter != "" {
		re, err := regexp.Compile("(?s)" + regexp.QuoteMeta(s.TextBefore) + "(.*?)" + regexp.QuoteMeta(s.TextAfter))
		if err != nil {
			return Resolution{}, fmt.Errorf("compile anchor pattern: %w", err)
		}
		found := re.FindAllStringSubmatchIndex(text, maxMatches)
		if len(found) == 0 {
			return Resolution{}, ErrNotFound
		}
		from, to := found[0][2], found[0][3]
		for from < to && isSeparator(text[from]) {
			from++
		}
		for to > from && isSeparator(text[to-1]) {
			to--
		}
		res = Resolution{From: from, To: to, Matches: len(found)}
	} else {
		search := s.TextBefore + s.TextToReplace + s.TextAfter
		if search == "" {
			if strings.TrimSpace(strings.ReplaceAll(text, "\u200b", "")) != "" {
				return Resolution{}, ErrEmptyAnchor
			}
			return Resolution{Matches: 1}, nil
		}
		re, err := regexp.Compile(literalPattern(s))
		if err != nil {
			return Resolution{}, fmt.Errorf("compile anchor pattern: %w", err)
		}
		found := re.FindAllStringSubmatchIndex(text, maxMatches)
		if len(found) == 0 {
			return Resolution{}, ErrNotFound
		}
		res = Resolution{From: found[0][2], To: found[0][3], Matches: len(found)}
	}

	res.Text = text[res.From:res.To]
	if res.Matches > 1 {
		res.Ambiguous = true
		logger.Warn("multiple anchor matches, applying the first",
			"matches", res.Matches, "from", res.From, "to", res.To)
	}
	return res, nil
}

// literalPattern matches TextBefore, TextToReplace and TextAfter in order and
// captures TextToReplace. Whitespace is allowed between two non-empty parts.
func literalPattern(s Suggestion) string {
	const gap = `\s*`
	var b strings.Builder
	b.WriteString(regexp.QuoteMeta(s.TextBefore))
	if s.TextBefore != "" && s.TextToReplace != "" {
		b.WriteString(gap)
	}
	b.WriteString("(" + regexp.QuoteMeta(s.TextToReplace) + ")")
	if s.TextAfter != "" && (s.TextToReplace != "" || s.TextBefore != "") {
		b.WriteString(gap)
	}
	b.WriteString(regexp.QuoteMeta(s.TextAfter))
	return b.String()
}

func isSeparator(c byte) bool {
	return c == '\n' || c == ' ' || c == '\t' || c == '\r'
}
