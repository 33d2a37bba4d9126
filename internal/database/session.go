package database

import (
	"sync"

	"gorm.io/gorm"
)

// Session hands out the current gorm handle shared by the repositories.
// After a lost connection Reset replaces the handle, so every subsequent
// repository call starts from clean statement state instead of reusing the
// poisoned one.
type Session struct {
	mu sync.RWMutex
	db *gorm.DB
}

func NewSession(db *gorm.DB) *Session {
	return &Session{db: db}
}

func (s *Session) DB() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = s.db.Session(&gorm.Session{NewDB: true})
}
