package redline

// Formatting attribute names understood by the processors.
const (
	AttrBold       = "bold"
	AttrItalic     = "italic"
	AttrUnderline  = "underline"
	AttrStrike     = "strike"
	AttrCode       = "code"
	AttrColor      = "color"
	AttrBackground = "background"
	AttrLink       = "link"

	// Block attributes, carried by the "\n" run that ends the block.
	AttrHeader = "header"
	AttrList   = "list"

	// AttrBreak marks a "\n" run as a line break inside its block rather than
	// the end of the block.
	AttrBreak = "break"
)

// Suggestion marker attributes. These never collide with user-facing formatting.
const (
	AttrSuggestion             = "suggestion"
	AttrSuggestionID           = "suggestion-id"
	AttrSuggestionAuthor       = "suggestion-author"
	AttrSuggestionReason       = "suggestion-reason"
	AttrSuggestionPresentation = "suggestion-presentation"
)

// Marker values for AttrSuggestion.
const (
	MarkInsert = "insert"
	MarkDelete = "delete"
)

// TrueValue is the value stored for boolean attributes.
const TrueValue = "true"

// Attributes maps an attribute name to its value. A missing key means "not set".
type Attributes map[string]string

// Run is a span of text sharing one attribute set.
type Run struct {
	Text       string     `json:"text"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Document is the ordered run sequence of one editable unit.
// Concatenating the runs' text yields the plain text exactly once.
type Document []Run

// Suggestion is an externally proposed edit anchored by literal context.
type Suggestion struct {
	TextToReplace   string `json:"textToReplace"`
	TextReplacement string `json:"textReplacement"`
	Reason          string `json:"reason"`
	TextBefore      string `json:"textBefore"`
	TextAfter       string `json:"textAfter"`
	Author          string `json:"author"`
}

// Section is a titled block of body text derived from a document.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ValidationResult reports section length violations.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Limits holds the section length thresholds, counted in characters.
type Limits struct {
	Min int `json:"min" yaml:"min_section_length"`
	Max int `json:"max" yaml:"max_section_length"`
}

// EditKind tells how a pending edit was produced.
type EditKind string

const (
	// EditExternal is a whole-document diff against new plain text.
	EditExternal EditKind = "external"
	// EditSuggestion is an anchored, range-scoped suggestion.
	EditSuggestion EditKind = "suggestion"
)

// PendingEdit is one unreviewed change applied to a unit.
// From and To are byte offsets into the plain text the edit was applied to.
type PendingEdit struct {
	ID         string      `json:"id"`
	Kind       EditKind    `json:"kind"`
	From       int         `json:"from"`
	To         int         `json:"to"`
	Ops        []DiffOp    `json:"ops"`
	Author     string      `json:"author,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	Key        string      `json:"key,omitempty"`
}

// PendingEditState is the review state of one unit.
type PendingEditState struct {
	HasPendingEdits bool          `json:"hasPendingEdits"`
	Snapshot        Document      `json:"snapshotBeforeEdit"`
	LastDiff        []DiffOp      `json:"lastDiff"`
	Edits           []PendingEdit `json:"edits"`
	Style           StyleMode     `json:"style"`
}

// UnitState is everything needed to restore a unit's session verbatim.
type UnitState struct {
	Unit     string            `json:"unit"`
	Document Document          `json:"document"`
	Pending  *PendingEditState `json:"pending,omitempty"`
	Style    StyleMode         `json:"style"`
}
