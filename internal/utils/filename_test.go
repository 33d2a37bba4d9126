package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces kept", "my report.pdf", "my report.pdf"},
		{"path traversal stripped", "../../etc/passwd", "....etcpasswd"},
		{"unicode stripped", "résumé.doc", "rsum.doc"},
		{"empty becomes placeholder", "", "attachment"},
		{"only bad chars becomes placeholder", "///***", "attachment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestUniqueFilename(t *testing.T) {
	first := UniqueFilename("report.pdf")
	second := UniqueFilename("report.pdf")

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(first, "report.pdf"))
	assert.NotContains(t, first, "/")
}
