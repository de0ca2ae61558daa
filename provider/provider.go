// Package provider defines suggestion sources.
package provider

import "github.com/ZaguanLabs/redline"

// SuggestionSource is the interface for suggestion backends.
// This is an alias to the main package interface for convenience.
type SuggestionSource = redline.SuggestionSource

// GenerateRequest is an alias to the main package type.
type GenerateRequest = redline.GenerateRequest

// GenerateResponse is an alias to the main package type.
type GenerateResponse = redline.GenerateResponse
