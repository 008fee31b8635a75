package db

import (
	"strings"
	"time"
)

const (
	writeRetries   = 3
	writeRetryWait = 100 * time.Millisecond
)

// IsBusyErr reports whether err is a transient SQLite contention error.
func IsBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// WithRetry runs fn, retrying a fixed small number of times on transient
// lock contention with a short fixed delay. Any other error, or exhausting
// the retries, surfaces to the caller.
func WithRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= writeRetries; attempt++ {
		err = fn()
		if err == nil || !IsBusyErr(err) {
			return err
		}
		time.Sleep(writeRetryWait)
	}
	return err
}
