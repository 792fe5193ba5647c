package app

import "unicode/utf8"

// EstimateTokens gives a rough, deliberately high token count for text. It is
// only used for the oversized-context warning, never for hard limits, so
// erring high is the safe direction.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// BPE tokenizers land around 3-4 chars per token for prose and code.
	// bytes/3 over-counts a little; the runes/2 floor keeps short multi-byte
	// text from being under-counted.
	byBytes := len(text) / 3
	byRunes := utf8.RuneCountInString(text) / 2
	if byRunes > byBytes {
		return byRunes
	}
	return byBytes
}
