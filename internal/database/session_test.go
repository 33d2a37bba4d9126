package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestSession_DBReturnsCurrentHandle(t *testing.T) {
	base := &gorm.DB{Config: &gorm.Config{}}
	session := NewSession(base)

	assert.Same(t, base, session.DB())
}

func TestSession_ResetSwapsHandle(t *testing.T) {
	base := &gorm.DB{Config: &gorm.Config{}}
	session := NewSession(base)

	session.Reset()

	// Callers going through DB() pick up the replacement, not the old handle.
	assert.NotSame(t, base, session.DB())
	assert.NotNil(t, session.DB().Config)

	second := session.DB()
	session.Reset()
	assert.NotSame(t, second, session.DB())
}
