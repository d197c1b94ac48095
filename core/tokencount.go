package core

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// EstimateTokens provides a rough token count estimation without an API call.
// Good enough for trimming history batches to a prompt budget.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}

	// ~1.3 tokens per word for English text, with a character-based
	// estimate for very short fragments and a small punctuation buffer.
	words := strings.Fields(content)
	wordCount := len(words)
	charCount := len(strings.ReplaceAll(content, " ", ""))

	tokenEstimate := float64(wordCount) * 1.3
	if wordCount < 10 {
		tokenEstimate = float64(charCount) / 3.5
	}
	tokenEstimate *= 1.1

	return int(tokenEstimate)
}

// GetDefaultModel returns the Claude model used when a handler does not ask
// for anything specific.
func GetDefaultModel() anthropic.Model {
	return anthropic.ModelClaude3_5HaikuLatest
}
