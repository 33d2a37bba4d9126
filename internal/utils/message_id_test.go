package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID("example.com", "")

	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))
	assert.NotEqual(t, id, GenerateMessageID("example.com", ""))
}

func TestGenerateMessageID_MetadataChangesLocalPart(t *testing.T) {
	withMeta := GenerateMessageID("example.com", "thread-1")
	assert.Contains(t, withMeta, ".")
	assert.True(t, strings.HasSuffix(withMeta, "@example.com>"))
}

func TestSynthesizeMessageID(t *testing.T) {
	id := SynthesizeMessageID("Projects 2025", 42)

	assert.Contains(t, id, "Projects-2025")
	assert.Contains(t, id, "_42_")
	assert.True(t, strings.HasSuffix(id, "@local"))
	// Already normalized: the stored shape matches server-provided IDs.
	assert.Equal(t, id, NormalizeMessageID(id))
}

func TestNormalizeMessageID(t *testing.T) {
	assert.Equal(t, "abc@example.com", NormalizeMessageID("<abc@example.com>"))
	assert.Equal(t, "abc@example.com", NormalizeMessageID("  <abc@example.com>  "))
	assert.Equal(t, "abc@example.com", NormalizeMessageID("abc@example.com"))
	assert.Equal(t, "", NormalizeMessageID(""))
}
