package chunker

import "strings"

// EstimateTokens gives a rough token count for a chunk, used for logging the
// approximate cost of a summarization call.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 1.33 tokens per whitespace-separated word for English text.
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
