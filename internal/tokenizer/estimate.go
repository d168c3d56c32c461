package tokenizer

import "unicode/utf16"

const charactersPerToken = 4

// EstimateTokens approximates the token cost of text as the ceiling of its
// character count divided by four. Characters are UTF-16 code units, so a
// character outside the Basic Multilingual Plane counts twice. It is a
// heuristic, not a tokenizer.
func EstimateTokens(text string) int {
	characterCount := 0
	for _, character := range text {
		if width := utf16.RuneLen(character); width > 0 {
			characterCount += width
		} else {
			characterCount++
		}
	}
	return (characterCount + charactersPerToken - 1) / charactersPerToken
}

// ApproximateCounter is the Counter backed by EstimateTokens.
type ApproximateCounter struct{}

// Name identifies the estimator.
func (ApproximateCounter) Name() string {
	return ApproximateModel
}

// CountString never fails.
func (ApproximateCounter) CountString(input string) (int, error) {
	return EstimateTokens(input), nil
}

// Count returns the counter's estimate for text, falling back to
// EstimateTokens when counter is nil or fails.
func Count(counter Counter, text string) int {
	if counter == nil {
		return EstimateTokens(text)
	}
	tokens, countError := counter.CountString(text)
	if countError != nil {
		return EstimateTokens(text)
	}
	return tokens
}
