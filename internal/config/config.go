// Package config loads application settings and exclusion lists.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/codeecho/internal/utils"
)

// LoadExclusionFile reads one exclusion prefix per line. Blank lines and
// lines starting with # are ignored. A missing file yields no exclusions.
//
// #nosec G304
func LoadExclusionFile(exclusionFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(exclusionFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", exclusionFilePath, closeError)
		}
	}()

	var exclusions []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		exclusions = append(exclusions, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf("reading %s: %w", exclusionFilePath, scanError)
	}
	return utils.NormalizeExclusions(exclusions), nil
}

// CombineExclusions merges exclusion lists keeping the first occurrence of each entry.
func CombineExclusions(exclusionLists ...[]string) []string {
	var combined []string
	for _, exclusionList := range exclusionLists {
		for _, exclusion := range exclusionList {
			combined = append(combined, strings.TrimSpace(exclusion))
		}
	}
	return utils.NormalizeExclusions(combined)
}
