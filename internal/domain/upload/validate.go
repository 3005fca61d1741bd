package upload

import (
	"path/filepath"
	"strings"
)

// MaxFileSize is the hard cap on accepted payloads.
const MaxFileSize = 2 << 30 // 2 GiB

// allowedExtensions is the fixed archive allow-list. ".tar.gz" is matched
// as a whole before the single-suffix fallback, so "a.tar.gz" is never
// classified as ".gz".
var allowedExtensions = map[string]struct{}{
	".7z":     {},
	".rar":    {},
	".zip":    {},
	".pkt":    {},
	".tar.gz": {},
}

func normalizedExt(filename string) string {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".tar.gz") {
		return ".tar.gz"
	}
	return filepath.Ext(lower)
}

// classifyName returns the normalized extension of an acceptable upload, or
// a typed rejection.
func classifyName(filename string, size int64) (string, error) {
	ext := normalizedExt(filename)
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrInvalidFileType
	}
	if size > MaxFileSize {
		return "", ErrFileTooLarge
	}
	return ext, nil
}
