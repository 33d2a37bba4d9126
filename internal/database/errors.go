package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorKind classifies storage failures at the database boundary so callers
// never have to match on error message text.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	// KindConnectionLost covers broken or timed-out connections; the affected
	// item should be abandoned and the session reset.
	KindConnectionLost
	// KindDuplicateKey covers unique-constraint violations, e.g. two sync
	// passes racing to insert the same message.
	KindDuplicateKey
	// KindNotFound covers record-not-found lookups.
	KindNotFound
)

const pqConnectionExceptionClass = "08"

// Classify maps a storage error to its ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return KindDuplicateKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" {
			return KindDuplicateKey
		}
		if pqErr.Code.Class() == pqConnectionExceptionClass {
			return KindConnectionLost
		}
		return KindOther
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded) {
		return KindConnectionLost
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnectionLost
	}

	return KindOther
}

func IsConnectionLost(err error) bool {
	return Classify(err) == KindConnectionLost
}

func IsDuplicateKey(err error) bool {
	return Classify(err) == KindDuplicateKey
}

func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}
