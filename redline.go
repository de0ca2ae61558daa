// Package redline turns plain-text edits into tracked changes on rich-text documents.
//
// A document is a flat sequence of formatted runs. New plain text, or an anchored
// suggestion, is diffed against the document's text and reconciled back onto its
// runs: unchanged text keeps its formatting, inserted text is highlighted and
// deleted text is struck through. The pending changes are then accepted or
// discarded as a whole.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/redline"
//	    "github.com/ZaguanLabs/redline/processor"
//	    "github.com/ZaguanLabs/redline/provider"
//	)
//
//	func main() {
//	    doc, _ := processor.NewHTMLProcessor().Decode("<p><b>Name</b> Alice</p>")
//
//	    ws := redline.NewWorkspace(redline.WithStyle(redline.StylePink))
//	    s, _ := ws.Open(context.Background(), "page-1", doc)
//
//	    // Mark a suggestion for review
//	    s.ApplySuggestion(context.Background(), redline.Suggestion{
//	        TextToReplace:   "Alice",
//	        TextReplacement: "Bob",
//	        Reason:          "shorter",
//	    })
//
//	    // Or let a source propose changes
//	    ws.Generate(context.Background(), provider.NewMockProvider())
//
//	    s.Accept(context.Background())
//	}
package redline
