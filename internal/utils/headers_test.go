package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeHeader(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain ascii", "Hello world", "Hello world"},
		{"utf8 q-encoded", "=?utf-8?q?caf=C3=A9?=", "café"},
		{"utf8 b-encoded", "=?UTF-8?B?Z3LDvG4=?=", "grün"},
		{"latin1 q-encoded", "=?iso-8859-1?q?caf=E9?=", "café"},
		{"windows-1252", "=?windows-1252?q?smart=92quote?=", "smart’quote"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DecodeHeader(tc.input))
		})
	}
}

func TestDecodeHeader_UnknownCharsetDoesNotFail(t *testing.T) {
	decoded := DecodeHeader("=?x-nonsense?q?caf=E9?=")
	assert.NotEmpty(t, decoded)
	assert.Contains(t, decoded, "caf")
}

func TestNormalizeSubject(t *testing.T) {
	assert.Equal(t, "meeting notes", NormalizeSubject("Re: meeting notes"))
	assert.Equal(t, "meeting notes", NormalizeSubject("RE: FWD: Fw: meeting notes"))
	assert.Equal(t, "meeting notes", NormalizeSubject("  meeting notes  "))
	assert.Equal(t, "regarding things", NormalizeSubject("regarding things"))
	assert.Equal(t, "", NormalizeSubject(""))
}
