package redline

import (
	"encoding/json"
	"fmt"
	"io"
)

// FormReason is the reason attached to suggestions composed through a form.
const FormReason = "User wanted it this way"

// FormToSuggestion builds a suggestion that replaces the body of the section titled field.
// The field title anchors the start and the next section's title, if any, anchors the end.
func FormToSuggestion(sections []Section, field, current, replacement, author string) Suggestion {
	after := ""
	for i, s := range sections {
		if s.Title == field {
			if i+1 < len(sections) {
				after = sections[i+1].Title
			}
			break
		}
	}
	return Suggestion{
		TextToReplace:   current,
		TextReplacement: replacement,
		Reason:          FormReason,
		TextBefore:      field,
		TextAfter:       after,
		Author:          author,
	}
}

// Validate rejects suggestions that cannot be resolved.
func (s Suggestion) Validate() error {
	if s.TextToReplace == "" && s.TextBefore == "" && s.TextAfter == "" && s.TextReplacement == "" {
		return fmt.Errorf("%w: suggestion has no anchor and no replacement", ErrInvalidSuggestion)
	}
	return nil
}

type suggestionRecord struct {
	TextToReplace   *string `json:"textToReplace"`
	TextReplacement string  `json:"textReplacement"`
	Reason          string  `json:"reason"`
	TextBefore      string  `json:"textBefore"`
	TextAfter       string  `json:"textAfter"`
	Author          string  `json:"author"`
	Username        string  `json:"username"`
}

// DecodeSuggestions reads a JSON array of suggestion records, or a single record.
// Records without textToReplace are rejected with ErrInvalidSuggestion.
func DecodeSuggestions(r io.Reader) ([]Suggestion, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read suggestions: %w", err)
	}

	var records []suggestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var single suggestionRecord
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decode suggestions: %w", err)
		}
		records = []suggestionRecord{single}
	}

	out := make([]Suggestion, 0, len(records))
	for i, rec := range records {
		if rec.TextToReplace == nil {
			return nil, fmt.Errorf("%w: record %d has no textToReplace", ErrInvalidSuggestion, i)
		}
		author := rec.Author
		if author == "" {
			author = rec.Username
		}
		out = append(out, Suggestion{
			TextToReplace:   *rec.TextToReplace,
			TextReplacement: rec.TextReplacement,
			Reason:          rec.Reason,
			TextBefore:      rec.TextBefore,
			TextAfter:       rec.TextAfter,
			Author:          author,
		})
	}
	return out, nil
}
