package utils

import "fmt"

const (
	bytesPerKilobyte = 1024
	bytesPerMegabyte = bytesPerKilobyte * 1024
)

// FormatFileSize converts a byte length into the size label shown next to
// tree nodes: bytes below one kilobyte, then kilobytes and megabytes with
// two decimals.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes < bytesPerKilobyte {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < bytesPerMegabyte {
		return fmt.Sprintf("%.2f KB", float64(bytes)/bytesPerKilobyte)
	}
	return fmt.Sprintf("%.2f MB", float64(bytes)/bytesPerMegabyte)
}
