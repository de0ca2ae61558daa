package redline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// SuggestionKey identifies a suggestion by its anchor and replacement.
// Reason and author are not part of the key, so the same edit from two sources is a duplicate.
func SuggestionKey(s Suggestion) string {
	h := sha256.New()
	for _, part := range []string{s.TextBefore, s.TextToReplace, s.TextAfter, s.TextReplacement} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// StoreKey generates a state store key from a prefix and unit identifier.
func StoreKey(prefix, unit string) string {
	return prefix + unit
}
