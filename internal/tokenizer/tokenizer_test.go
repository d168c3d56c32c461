package tokenizer

import (
	"errors"
	"strings"
	"testing"
)

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(string) (int, error) { return 0, errors.New("boom") }

func TestEstimateTokens(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty", text: "", expected: 0},
		{name: "one character", text: "a", expected: 1},
		{name: "four characters", text: "abcd", expected: 1},
		{name: "five characters", text: "abcde", expected: 2},
		{name: "eight characters", text: "abcdefgh", expected: 2},
		{name: "multibyte characters count once", text: "ééééé", expected: 2},
		{name: "newlines count", text: "a\nb\n", expected: 1},
		{name: "astral characters count as surrogate pairs", text: "😀😀😀", expected: 2},
		{name: "single astral character", text: "😀", expected: 1},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := EstimateTokens(testCase.text); result != testCase.expected {
				t.Fatalf("EstimateTokens(%q) = %d, expected %d", testCase.text, result, testCase.expected)
			}
		})
	}
}

func TestNewCounterDefaultsToApproximate(t *testing.T) {
	counter, model, err := NewCounter(Config{})
	if err != nil {
		t.Fatalf("NewCounter error: %v", err)
	}
	if model != ApproximateModel {
		t.Fatalf("expected model %q, got %q", ApproximateModel, model)
	}
	tokens, err := counter.CountString(strings.Repeat("x", 9))
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens != 3 {
		t.Fatalf("expected 3 tokens, got %d", tokens)
	}
}

func TestNewCounterOpenAIModel(t *testing.T) {
	counter, model, err := NewCounter(Config{Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("NewCounter error: %v", err)
	}
	if counter == nil {
		t.Fatalf("expected non-nil counter")
	}
	if model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %q", model)
	}
	tokens, err := counter.CountString("hello world <|endoftext|>")
	if err != nil {
		t.Fatalf("CountString error: %v", err)
	}
	if tokens <= 0 {
		t.Fatalf("expected positive token count, got %d", tokens)
	}
}

func TestCountFallsBackToEstimate(t *testing.T) {
	if result := Count(failingCounter{}, "abcde"); result != 2 {
		t.Fatalf("expected fallback estimate 2, got %d", result)
	}
	if result := Count(nil, "abcd"); result != 1 {
		t.Fatalf("expected estimate 1 for nil counter, got %d", result)
	}
}
