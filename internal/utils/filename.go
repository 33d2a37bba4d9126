package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeFilename reduces a filename to a safe character subset for disk and
// object-store keys.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-', r == ' ':
			b.WriteRune(r)
		}
	}
	sanitized := strings.TrimSpace(b.String())
	if sanitized == "" {
		return "attachment"
	}
	return sanitized
}

// UniqueFilename prefixes a sanitized filename with a timestamp and a short
// random component so concurrent writes never collide.
func UniqueFilename(filename string) string {
	stamp := time.Now().UTC().Format("20060102_150405")
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%s_%s", stamp, suffix, SanitizeFilename(filename))
}
