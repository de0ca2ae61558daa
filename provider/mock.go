package provider

import (
	"context"
	"strings"

	"github.com/ZaguanLabs/redline"
)

// DefaultAuthor is recorded on suggestions produced by the mock provider.
const DefaultAuthor = "George"

// MockProvider is a canned suggestion source standing in for an LLM.
type MockProvider struct {
	Contents    map[string]string               // Replacement content per unit
	Suggestions map[string][]redline.Suggestion // Suggestions per unit
	Err         error                           // Returned by Generate when set
	CallCount   int                             // Number of times Generate was called
	LastRequest *GenerateRequest                // Last request received
}

// NewMockProvider creates a mock provider that rewrites sections it has no canned answer for.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Contents:    make(map[string]string),
		Suggestions: make(map[string][]redline.Suggestion),
	}
}

// Generate returns the canned content or suggestions for the unit.
// Units with neither get one suggestion per section that lacks a final period.
func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	m.CallCount++
	m.LastRequest = &req

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	if content, ok := m.Contents[req.Unit]; ok {
		return &GenerateResponse{Content: content}, nil
	}
	if sg, ok := m.Suggestions[req.Unit]; ok {
		out := make([]redline.Suggestion, len(sg))
		copy(out, sg)
		return &GenerateResponse{Suggestions: out}, nil
	}

	var out []redline.Suggestion
	for _, s := range req.Sections {
		if s.Text == "" || strings.HasSuffix(s.Text, ".") {
			continue
		}
		out = append(out, redline.Suggestion{
			TextToReplace:   s.Text,
			TextReplacement: s.Text + ".",
			Reason:          "Sentences should end with a period",
			Author:          DefaultAuthor,
		})
	}
	return &GenerateResponse{Suggestions: out}, nil
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockProvider implements SuggestionSource
var _ SuggestionSource = (*MockProvider)(nil)
