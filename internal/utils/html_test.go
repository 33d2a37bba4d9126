package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	html := `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body><p>First line</p><p>Second line</p><script>alert(1)</script></body></html>`

	text := HTMLToText(html)

	assert.Contains(t, text, "First line")
	assert.Contains(t, text, "Second line")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "ignored")
}

func TestHTMLToText_PlainInputPassesThrough(t *testing.T) {
	assert.Equal(t, "just text", HTMLToText("just text"))
}
