package util

import (
	"errors"
	"strings"
)

// sheetNameLimit is the maximum worksheet name length the XLSX format allows.
const sheetNameLimit = 31

// SanitizeSheetName rewrites a record set name into a valid worksheet name:
// forbidden characters become underscores and the result is truncated to the
// format's length limit.
func SanitizeSheetName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", errors.New("empty sheet name")
	}
	for _, c := range `[]:*?/\` {
		s = strings.ReplaceAll(s, string(c), "_")
	}
	if len(s) > sheetNameLimit {
		s = s[:sheetNameLimit]
	}
	return s, nil
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
