// Package utils contains general helper functions used across codeecho.
package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

const errorParseExclusionsFormat = "parse exclusions: %w"

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// IsExcluded reports whether path starts with any exclusion entry.
//
// The comparison is a plain string prefix test, not a path-segment test:
// "src/utils" also excludes "src/utils2/other.js". Excluding a directory
// works because every file beneath it shares the directory path as a prefix.
func IsExcluded(path string, exclusions []string) bool {
	for _, exclusion := range exclusions {
		if exclusion == "" {
			continue
		}
		if strings.HasPrefix(path, exclusion) {
			return true
		}
	}
	return false
}

// NormalizeExclusions drops empty entries and duplicates.
func NormalizeExclusions(exclusions []string) []string {
	nonEmpty := make([]string, 0, len(exclusions))
	for _, exclusion := range exclusions {
		if exclusion == "" {
			continue
		}
		nonEmpty = append(nonEmpty, exclusion)
	}
	return DeduplicatePatterns(nonEmpty)
}

// ParseExclusions decodes a JSON array of path prefixes. A blank payload
// yields an empty set. Malformed payloads also yield an empty set together
// with the decoding error so the caller can report it.
func ParseExclusions(rawExclusions string) ([]string, error) {
	trimmed := strings.TrimSpace(rawExclusions)
	if trimmed == "" {
		return []string{}, nil
	}
	var decoded []string
	if decodeError := json.Unmarshal([]byte(trimmed), &decoded); decodeError != nil {
		return []string{}, fmt.Errorf(errorParseExclusionsFormat, decodeError)
	}
	return NormalizeExclusions(decoded), nil
}
