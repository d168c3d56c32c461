package utils

import "strings"

// binaryExtensions lists the suffixes treated as binary content.
var binaryExtensions = []string{
	".png",
	".jpg",
	".jpeg",
	".gif",
	".svg",
	".ico",
	".pdf",
	".exe",
}

// IsBinaryPath reports whether the path ends with a known binary extension.
// The comparison ignores case.
func IsBinaryPath(path string) bool {
	lowerPath := strings.ToLower(path)
	for _, extension := range binaryExtensions {
		if strings.HasSuffix(lowerPath, extension) {
			return true
		}
	}
	return false
}

// BinaryExtensions returns a copy of the binary extension list.
func BinaryExtensions() []string {
	return append([]string(nil), binaryExtensions...)
}
