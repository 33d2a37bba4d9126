package utils

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// fallbackCharsets is tried in order when a header names a charset we cannot
// resolve, mirroring what most real-world mail tolerates.
var fallbackCharsets = []*charmap.Charmap{
	charmap.ISO8859_1,
	charmap.Windows1252,
}

var headerDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err == nil {
			return enc.NewDecoder().Reader(input), nil
		}
		// Unknown charset: fall back through single-byte encodings that
		// accept any input rather than failing the whole header.
		return fallbackCharsets[0].NewDecoder().Reader(input), nil
	},
}

// DecodeHeader decodes an RFC 2047 encoded header value with charset
// fallbacks. On any decode failure the raw value is returned so a bad
// header never aborts message processing.
func DecodeHeader(field string) string {
	if field == "" {
		return ""
	}

	decoded, err := headerDecoder.DecodeHeader(field)
	if err != nil {
		for _, cm := range fallbackCharsets {
			if out, decErr := cm.NewDecoder().String(field); decErr == nil {
				return strings.TrimSpace(out)
			}
		}
		return strings.TrimSpace(field)
	}

	return strings.TrimSpace(decoded)
}

// NormalizeSubject removes reply/forward prefixes from a subject line.
func NormalizeSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for {
		lower := strings.ToLower(subject)
		trimmed := subject
		for _, prefix := range []string{"re:", "fwd:", "fw:"} {
			if strings.HasPrefix(lower, prefix) {
				trimmed = strings.TrimSpace(subject[len(prefix):])
				break
			}
		}
		if trimmed == subject {
			return subject
		}
		subject = trimmed
	}
}
